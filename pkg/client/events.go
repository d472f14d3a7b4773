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
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EventQuery selects the logs emitted by one contract.
type EventQuery struct {
	// Topic filters on topic0, the event signature hash. Empty keeps all events.
	Topic string

	// FromBlock 0 starts at the contract's first transaction; ToBlock 0 ends
	// at the chain head.
	FromBlock uint64
	ToBlock   uint64

	// Threads is the number of block ranges fetched concurrently. 0 uses
	// Config.ThreadCount.
	Threads int
}

// Events returns the logs of address matching q.
func (c *Client) Events(ctx context.Context, address string, q EventQuery) ([]record.EventRecord, error) {
	args := FetchArgs{Address: address, Topic: q.Topic, Status: StatusBoth}
	ranges, err := c.prepareEvents(ctx, args, q)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return []record.EventRecord{}, nil
	}

	return pagination.Dispatch(ctx, eventRangeFunc(c, func(_ context.Context, raw record.RawRecord) (record.EventRecord, error) {
		return record.DecodeEvent(raw)
	}), ranges, args)
}

// EnrichedEvents returns the logs of address matching q, each joined with the
// transaction that emitted it. Every distinct transaction costs one extra
// request.
func (c *Client) EnrichedEvents(ctx context.Context, address string, q EventQuery) ([]record.EnrichedEventRecord, error) {
	args := FetchArgs{Address: address, Topic: q.Topic, Status: StatusBoth, Enrich: true}
	ranges, err := c.prepareEvents(ctx, args, q)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return []record.EnrichedEventRecord{}, nil
	}

	fn := func(ctx context.Context, r pagination.Range, args FetchArgs) ([]record.EnrichedEventRecord, error) {
		// Parents are shared by all logs of one transaction; the memo lives
		// for one range only so workers never share it.
		parents := make(map[string]record.RawRecord)
		convert := func(ctx context.Context, raw record.RawRecord) (record.EnrichedEventRecord, error) {
			ev, err := record.DecodeEvent(raw)
			if err != nil {
				return record.EnrichedEventRecord{}, err
			}
			parent, ok := parents[ev.TxHash]
			if !ok {
				parent, err = c.TxByHash(ctx, ev.TxHash)
				if err != nil {
					return record.EnrichedEventRecord{}, fmt.Errorf("parent of log %d in %s: %w", ev.LogIndex, ev.TxHash, err)
				}
				parents[ev.TxHash] = parent
			}
			return record.DecodeEnrichedEvent(raw, parent)
		}
		return eventRangeFunc(c, convert)(ctx, r, args)
	}

	return pagination.Dispatch(ctx, fn, ranges, args)
}

// prepareEvents validates the query and partitions its window. It returns no
// ranges and no error when the address has no history.
func (c *Client) prepareEvents(ctx context.Context, args FetchArgs, q EventQuery) ([]pagination.Range, error) {
	if !common.IsHexAddress(args.Address) {
		return nil, fmt.Errorf("%w: address %q", ErrInvalidArgument, args.Address)
	}
	if err := validateHash("topic", args.Topic, true); err != nil {
		return nil, err
	}

	ranges, err := c.resolveRanges(ctx, args.Address, q.FromBlock, q.ToBlock, q.Threads)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("address", args.Address).
		Str("topic", args.Topic).
		Bool("enrich", args.Enrich).
		Int("ranges", len(ranges)).
		Msg("Fetching events")
	return ranges, nil
}

// eventRangeFunc returns a RangeFunc that pages logs/getLogs through one range
// and decodes every log with convert.
func eventRangeFunc[T any](c *Client, convert func(ctx context.Context, raw record.RawRecord) (T, error)) pagination.RangeFunc[T, FetchArgs] {
	return func(ctx context.Context, r pagination.Range, args FetchArgs) ([]T, error) {
		pager := &pagination.Pager[record.RawRecord, T]{
			Fetch: func(ctx context.Context, from, to uint64) ([]record.RawRecord, error) {
				return c.logsPage(ctx, args.Address, args.Topic, from, to)
			},
			Height: func(raw record.RawRecord) (uint64, error) {
				return record.Height(raw, record.OriginLogs)
			},
			Convert: func(ctx context.Context, raw record.RawRecord) (T, bool, error) {
				rec, err := convert(ctx, raw)
				if err != nil {
					var zero T
					return zero, false, err
				}
				return rec, true, nil
			},
		}
		return pager.FetchRange(ctx, r)
	}
}

func (c *Client) logsPage(ctx context.Context, address, topic string, from, to uint64) ([]record.RawRecord, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("fromBlock", strconv.FormatUint(from, 10))
	params.Set("toBlock", strconv.FormatUint(to, 10))
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(pagination.PageSizeCeiling))
	if topic != "" {
		params.Set("topic0", topic)
	}

	result, err := c.Get(ctx, "logs", "getLogs", params)
	if err != nil {
		return nil, err
	}
	return decodeRecords(result, record.OriginLogs)
}

// validateHash checks for a 0x-prefixed 32-byte hex value.
func validateHash(name, value string, optional bool) error {
	if value == "" && optional {
		return nil
	}
	b, err := hexutil.Decode(value)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrInvalidArgument, name, value, err)
	}
	if len(b) != common.HashLength {
		return fmt.Errorf("%w: %s %q must be %d bytes", ErrInvalidArgument, name, value, common.HashLength)
	}
	return nil
}
