package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Sternrassler/etherscan-client/pkg/pagination"
	"github.com/Sternrassler/etherscan-client/pkg/record"
	"github.com/ethereum/go-ethereum/common"
)

// TxQuery selects the transactions of one address.
type TxQuery struct {
	Status      Status
	FnSignature string // 0x-prefixed 4-byte selector, matched against the input prefix
	ToAddress   string // exact destination, case-insensitive

	// FromBlock 0 starts at the address's first transaction; ToBlock 0 ends
	// at the chain head.
	FromBlock uint64
	ToBlock   uint64

	// Threads is the number of block ranges fetched concurrently. 0 uses
	// Config.ThreadCount.
	Threads int
}

// FirstTxBlock returns the height of the first transaction of address.
// It returns ErrNotFound for addresses without transactions.
func (c *Client) FirstTxBlock(ctx context.Context, address string) (uint64, error) {
	if !common.IsHexAddress(address) {
		return 0, fmt.Errorf("%w: address %q", ErrInvalidArgument, address)
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("page", "1")
	params.Set("offset", "1")
	params.Set("sort", "asc")

	result, err := c.Get(ctx, "account", "txlist", params)
	if err != nil {
		return 0, fmt.Errorf("first transaction of %s: %w", address, err)
	}
	txs, err := decodeRecords(result, record.OriginAccount)
	if err != nil {
		return 0, err
	}
	if len(txs) == 0 {
		return 0, fmt.Errorf("first transaction of %s: %w", address, ErrNotFound)
	}
	return record.Height(txs[0], record.OriginAccount)
}

// Transactions returns the transactions of address that pass every filter in q,
// in ascending height order within each block range.
func (c *Client) Transactions(ctx context.Context, address string, q TxQuery) ([]record.TransactionRecord, error) {
	args := FetchArgs{
		Address:     address,
		Status:      q.Status,
		FnSignature: q.FnSignature,
		ToAddress:   q.ToAddress,
	}
	if err := args.validate(); err != nil {
		return nil, err
	}

	ranges, err := c.resolveRanges(ctx, address, q.FromBlock, q.ToBlock, q.Threads)
	if errors.Is(err, ErrNotFound) {
		return []record.TransactionRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("address", address).
		Str("status", args.Status.String()).
		Int("ranges", len(ranges)).
		Msg("Fetching transactions")

	return pagination.Dispatch(ctx, c.fetchTransactionRange, ranges, args)
}

// fetchTransactionRange pages account/txlist through one range.
func (c *Client) fetchTransactionRange(ctx context.Context, r pagination.Range, args FetchArgs) ([]record.TransactionRecord, error) {
	pager := &pagination.Pager[record.RawRecord, record.TransactionRecord]{
		Fetch: func(ctx context.Context, from, to uint64) ([]record.RawRecord, error) {
			return c.txListPage(ctx, args.Address, from, to)
		},
		Height: func(raw record.RawRecord) (uint64, error) {
			return record.Height(raw, record.OriginAccount)
		},
		Convert: func(_ context.Context, raw record.RawRecord) (record.TransactionRecord, bool, error) {
			tx, err := record.DecodeTransaction(raw, record.OriginAccount)
			if err != nil {
				return record.TransactionRecord{}, false, err
			}
			return tx, args.matchTx(tx), nil
		},
	}
	return pager.FetchRange(ctx, r)
}

func (c *Client) txListPage(ctx context.Context, address string, from, to uint64) ([]record.RawRecord, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("startblock", strconv.FormatUint(from, 10))
	params.Set("endblock", strconv.FormatUint(to, 10))
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(pagination.PageSizeCeiling))
	params.Set("sort", "asc")

	result, err := c.Get(ctx, "account", "txlist", params)
	if err != nil {
		return nil, err
	}
	return decodeRecords(result, record.OriginAccount)
}

// resolveRanges replaces the zero sentinels and partitions the window.
func (c *Client) resolveRanges(ctx context.Context, address string, from, to uint64, threads int) ([]pagination.Range, error) {
	if threads <= 0 {
		threads = c.config.ThreadCount
	}
	if threads > c.config.MaxThreads {
		return nil, fmt.Errorf("%w: threads %d exceeds the limit of %d", ErrInvalidArgument, threads, c.config.MaxThreads)
	}

	if from == 0 {
		first, err := c.FirstTxBlock(ctx, address)
		if err != nil {
			return nil, err
		}
		from = first
	}

	if to == 0 {
		head, err := c.LatestBlockHeight(ctx)
		if err != nil {
			return nil, err
		}
		to = head
	}

	// Ranges past the window's height count would be empty.
	if from <= to && uint64(threads-1) > to-from {
		threads = int(to-from) + 1
	}

	return pagination.Partition(from, to, threads)
}
