package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Sternrassler/etherscan-client/pkg/record"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// receiptStatusSuccess is the post-Byzantium receipt status of a successful
// transaction.
const receiptStatusSuccess = "0x1"

// LatestBlockHeight returns the current chain head.
func (c *Client) LatestBlockHeight(ctx context.Context) (uint64, error) {
	result, err := c.Get(ctx, ModuleProxy, "eth_blockNumber", url.Values{})
	if err != nil {
		return 0, fmt.Errorf("latest block height: %w", err)
	}
	s, err := decodeString(result, record.OriginProxy)
	if err != nil {
		return 0, err
	}
	h, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, &record.DecodeError{Field: "result", Value: s, Origin: record.OriginProxy, Err: err}
	}
	return h, nil
}

// TxByHash returns the raw proxy record of a transaction. One request.
func (c *Client) TxByHash(ctx context.Context, hash string) (record.RawRecord, error) {
	if err := validateHash("transaction hash", hash, false); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("txhash", hash)
	return c.proxyRecord(ctx, "eth_getTransactionByHash", params, hash)
}

// SimpleTxByHash returns a transaction with gas used and error flag taken from
// its receipt. Two requests.
func (c *Client) SimpleTxByHash(ctx context.Context, hash string) (*record.TransactionRecord, error) {
	merged, err := c.txWithReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	return decodeProxyTx(merged)
}

// FullTxByHash is SimpleTxByHash plus the timestamp of the including block.
// Three requests.
func (c *Client) FullTxByHash(ctx context.Context, hash string) (*record.TransactionRecord, error) {
	merged, err := c.txWithReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}

	tag, _ := merged["blockNumber"].(string)
	if tag == "" {
		return nil, fmt.Errorf("block of %s: %w", hash, ErrNotFound)
	}
	params := url.Values{}
	params.Set("tag", tag)
	params.Set("boolean", "false")
	block, err := c.proxyRecord(ctx, "eth_getBlockByNumber", params, tag)
	if err != nil {
		return nil, err
	}
	if ts, ok := block["timestamp"]; ok {
		merged["timeStamp"] = ts
	}

	return decodeProxyTx(merged)
}

// txWithReceipt fetches a transaction and its receipt and merges the receipt's
// outcome into a copy of the transaction record.
func (c *Client) txWithReceipt(ctx context.Context, hash string) (record.RawRecord, error) {
	tx, err := c.TxByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("txhash", hash)
	receipt, err := c.proxyRecord(ctx, "eth_getTransactionReceipt", params, hash)
	if err != nil {
		return nil, err
	}

	merged := make(record.RawRecord, len(tx)+2)
	for k, v := range tx {
		merged[k] = v
	}
	if gasUsed, ok := receipt["gasUsed"]; ok {
		merged["gasUsed"] = gasUsed
	}
	// Receipts before Byzantium carry a state root instead of a status.
	if status, ok := receipt["status"].(string); ok {
		if status == receiptStatusSuccess {
			merged["isError"] = "0"
		} else {
			merged["isError"] = "1"
		}
	}
	return merged, nil
}

func (c *Client) proxyRecord(ctx context.Context, action string, params url.Values, subject string) (record.RawRecord, error) {
	result, err := c.Get(ctx, ModuleProxy, action, params)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, subject, err)
	}
	rec, err := decodeRecord(result, record.OriginProxy)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, subject, err)
	}
	return rec, nil
}

func decodeProxyTx(raw record.RawRecord) (*record.TransactionRecord, error) {
	tx, err := record.DecodeTransaction(raw, record.OriginProxy)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
