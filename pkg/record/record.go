// Package record decodes raw explorer API items into typed transaction and
// event records.
package record

import (
	"math/big"
	"time"
)

// RawRecord is one item of an API result as decoded from JSON. Values are
// strings, json.Number, []any or nil.
type RawRecord map[string]any

// TransactionRecord is a decoded transaction. Records are values and are never
// mutated after decoding.
type TransactionRecord struct {
	TxHash          string   `json:"txhash"`
	BlockHeight     uint64   `json:"block_height"`
	Nonce           uint64   `json:"nonce"`
	From            string   `json:"from_address"`
	To              string   `json:"to_address"`
	Value           *big.Int `json:"value"`
	GasPrice        *big.Int `json:"gas_price"`
	GasUsed         uint64   `json:"gas_used"`
	Input           string   `json:"input_data"`
	PositionInBlock uint64   `json:"position_in_block"`
	IsError         bool     `json:"is_error"`
	Timestamp       uint64   `json:"timestamp"`
}

// Time returns the block timestamp, or the zero time when it is unknown.
func (t TransactionRecord) Time() time.Time {
	if t.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(int64(t.Timestamp), 0).UTC()
}

// EventRecord is a decoded log entry.
type EventRecord struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockHeight uint64   `json:"block_height"`
	Timestamp   uint64   `json:"timestamp"`
	GasPrice    *big.Int `json:"gas_price"`
	GasUsed     uint64   `json:"gas_used"`
	LogIndex    uint64   `json:"log_index"`
	TxHash      string   `json:"txhash"`
	TxIndex     uint64   `json:"tx_index"`
}

// Topic0 returns the event signature topic, or "" for anonymous events.
func (e EventRecord) Topic0() string {
	if len(e.Topics) == 0 {
		return ""
	}
	return e.Topics[0]
}

// EnrichedEventRecord is an event with fields of its parent transaction.
type EnrichedEventRecord struct {
	EventRecord

	From            string   `json:"from_address"`
	To              string   `json:"to_address"`
	Input           string   `json:"input_data"`
	Nonce           uint64   `json:"nonce"`
	PositionInBlock uint64   `json:"position_in_block"`
	Value           *big.Int `json:"value"`
}
