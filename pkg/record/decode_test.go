package record

import (
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountTx() RawRecord {
	return RawRecord{
		"blockNumber":       "10269416",
		"timeStamp":         "1592405516",
		"hash":              "0xf217ba9ff27b611fca8ded2ad3bbd581a604bcfe38bbe38c0426bcbdfcfc8aac",
		"nonce":             "42",
		"blockHash":         "0x5f2c",
		"transactionIndex":  "7",
		"from":              "0xc16b2934a204cc5a7e9ed79e253e4aced4cd2478",
		"to":                "0x51c72befae54d365a9d0c08c486aee4f99285e08",
		"value":             "20000000000000000000",
		"gas":               "210000",
		"gasPrice":          "35000000000",
		"isError":           "0",
		"txreceipt_status":  "1",
		"input":             "0xa9059cbb000000000000000000000000",
		"contractAddress":   "",
		"cumulativeGasUsed": "900000",
		"gasUsed":           "51234",
		"confirmations":     "100",
	}
}

func proxyTx() RawRecord {
	return RawRecord{
		"blockHash":        "0x5f2c",
		"blockNumber":      "0x64",
		"from":             "0xc16b2934a204cc5a7e9ed79e253e4aced4cd2478",
		"gas":              "0x33450",
		"gasPrice":         "0x826299e00",
		"hash":             "0xf217ba9ff27b611fca8ded2ad3bbd581a604bcfe38bbe38c0426bcbdfcfc8aac",
		"input":            "0x",
		"nonce":            "0x2a",
		"to":               "0x51c72befae54d365a9d0c08c486aee4f99285e08",
		"transactionIndex": "0x0",
		"value":            "0x1",
	}
}

func logEntry() RawRecord {
	return RawRecord{
		"address": "0x51c72befae54d365a9d0c08c486aee4f99285e08",
		"topics": []any{
			"0x56f54e5e291f84831023c9ddf34fe42973dae320af11193db2b5f7af27719ba6",
			"0x000000000000000000000000c16b2934a204cc5a7e9ed79e253e4aced4cd2478",
		},
		"data":             "0x0000000000000000000000000000000000000000000000000de0b6b3a7640000",
		"blockNumber":      "0x9cb0dc",
		"timeStamp":        "0x5ee9c80c",
		"gasPrice":         "0x826299e00",
		"gasUsed":          "0xc82e",
		"logIndex":         "0x",
		"transactionHash":  "0xf217ba9ff27b611fca8ded2ad3bbd581a604bcfe38bbe38c0426bcbdfcfc8aac",
		"transactionIndex": "0x",
	}
}

func TestDecodeTransaction_Account(t *testing.T) {
	tx, err := DecodeTransaction(accountTx(), OriginAccount)
	require.NoError(t, err)

	assert.Equal(t, uint64(10269416), tx.BlockHeight)
	assert.Equal(t, uint64(1592405516), tx.Timestamp)
	assert.Equal(t, uint64(42), tx.Nonce)
	assert.Equal(t, uint64(7), tx.PositionInBlock)
	assert.Equal(t, uint64(51234), tx.GasUsed)
	assert.Equal(t, "20000000000000000000", tx.Value.String())
	assert.Equal(t, big.NewInt(35000000000), tx.GasPrice)
	assert.False(t, tx.IsError)
	assert.Equal(t, "0x51c72befae54d365a9d0c08c486aee4f99285e08", tx.To)
	assert.Equal(t, int64(1592405516), tx.Time().Unix())
}

func TestDecodeTransaction_ProxyHex(t *testing.T) {
	tx, err := DecodeTransaction(proxyTx(), OriginProxy)
	require.NoError(t, err)

	assert.Equal(t, uint64(100), tx.BlockHeight)
	assert.Equal(t, big.NewInt(1), tx.Value)
	assert.Equal(t, uint64(42), tx.Nonce)
	assert.Equal(t, uint64(0), tx.PositionInBlock)
	assert.Equal(t, uint64(0), tx.Timestamp)
	assert.True(t, tx.Time().IsZero())
	assert.False(t, tx.IsError)
}

func TestDecodeTransaction_ProxyWithReceiptFields(t *testing.T) {
	raw := proxyTx()
	raw["gasUsed"] = "0x5208"
	raw["timeStamp"] = "0x5ee9c80c"
	raw["isError"] = "1"

	tx, err := DecodeTransaction(raw, OriginProxy)
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), tx.GasUsed)
	assert.Equal(t, uint64(0x5ee9c80c), tx.Timestamp)
	assert.True(t, tx.IsError)
}

func TestDecodeTransaction_IsErrorFlag(t *testing.T) {
	tests := []struct {
		flag     string
		expected bool
	}{
		{flag: "0", expected: false},
		{flag: "1", expected: true},
		{flag: "", expected: true},
		{flag: "true", expected: true},
	}

	for _, tt := range tests {
		t.Run("flag_"+tt.flag, func(t *testing.T) {
			raw := accountTx()
			raw["isError"] = tt.flag
			tx, err := DecodeTransaction(raw, OriginAccount)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tx.IsError)
		})
	}
}

func TestDecodeTransaction_OriginSelectsBase(t *testing.T) {
	// "10" is ten for the explorer and sixteen for the proxy.
	account := accountTx()
	account["blockNumber"] = "10"
	tx, err := DecodeTransaction(account, OriginAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), tx.BlockHeight)

	proxy := proxyTx()
	proxy["blockNumber"] = "0x10"
	tx, err = DecodeTransaction(proxy, OriginProxy)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), tx.BlockHeight)

	// A hex record handed to the decimal decoder is not guessed at.
	account["blockNumber"] = "0x10"
	_, err = DecodeTransaction(account, OriginAccount)
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, "blockNumber", decErr.Field)
}

func TestDecodeTransaction_Errors(t *testing.T) {
	tests := []struct {
		name   string
		raw    func() RawRecord
		origin Origin
		field  string
	}{
		{
			name:   "missing hash",
			raw:    func() RawRecord { r := accountTx(); delete(r, "hash"); return r },
			origin: OriginAccount,
			field:  "hash",
		},
		{
			name:   "missing isError on account record",
			raw:    func() RawRecord { r := accountTx(); delete(r, "isError"); return r },
			origin: OriginAccount,
			field:  "isError",
		},
		{
			name:   "decimal value not a number",
			raw:    func() RawRecord { r := accountTx(); r["value"] = "12abc"; return r },
			origin: OriginAccount,
			field:  "value",
		},
		{
			name:   "hex without prefix",
			raw:    func() RawRecord { r := proxyTx(); r["nonce"] = "2a"; return r },
			origin: OriginProxy,
			field:  "nonce",
		},
		{
			name:   "hex with bad digits",
			raw:    func() RawRecord { r := proxyTx(); r["value"] = "0xzz"; return r },
			origin: OriginProxy,
			field:  "value",
		},
		{
			name:   "unexpected type",
			raw:    func() RawRecord { r := proxyTx(); r["from"] = []any{"x"}; return r },
			origin: OriginProxy,
			field:  "from",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTransaction(tt.raw(), tt.origin)
			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr), "expected DecodeError, got %v", err)
			assert.Equal(t, tt.field, decErr.Field)
			assert.Equal(t, tt.origin, decErr.Origin)
		})
	}
}

func TestDecodeTransaction_MissingFieldError(t *testing.T) {
	raw := accountTx()
	delete(raw, "gasUsed")

	_, err := DecodeTransaction(raw, OriginAccount)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), `"gasUsed"`)
}

func TestDecodeTransaction_LogsOriginRejected(t *testing.T) {
	_, err := DecodeTransaction(proxyTx(), OriginLogs)
	var decErr *DecodeError
	assert.True(t, errors.As(err, &decErr))
}

func TestDecodeTransaction_JSONNumbers(t *testing.T) {
	var raw RawRecord
	dec := json.NewDecoder(strings.NewReader(`{"hash":"0x1","blockNumber":100,"nonce":"0x1","from":"0xa","to":null,
		"value":"0x0","gasPrice":"0x1","input":"0x","transactionIndex":"0x2"}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&raw))

	tx, err := DecodeTransaction(raw, OriginProxy)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), tx.BlockHeight)
	assert.Equal(t, "", tx.To)
	assert.Equal(t, int64(0), tx.Value.Int64())
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent(logEntry())
	require.NoError(t, err)

	assert.Equal(t, uint64(0x9cb0dc), ev.BlockHeight)
	assert.Equal(t, uint64(0x5ee9c80c), ev.Timestamp)
	assert.Equal(t, uint64(0xc82e), ev.GasUsed)
	assert.Equal(t, uint64(0), ev.LogIndex)
	assert.Equal(t, uint64(0), ev.TxIndex)
	assert.Len(t, ev.Topics, 2)
	assert.Equal(t, "0x56f54e5e291f84831023c9ddf34fe42973dae320af11193db2b5f7af27719ba6", ev.Topic0())
}

func TestDecodeEvent_LeadingZeros(t *testing.T) {
	raw := logEntry()
	raw["logIndex"] = "0x0a"
	ev, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), ev.LogIndex)
}

func TestDecodeEvent_Errors(t *testing.T) {
	raw := logEntry()
	raw["topics"] = []any{"0x1", 5}
	_, err := DecodeEvent(raw)
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, "topics", decErr.Field)

	raw = logEntry()
	delete(raw, "transactionHash")
	_, err = DecodeEvent(raw)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestDecodeEnrichedEvent(t *testing.T) {
	parent := proxyTx()
	parent["transactionIndex"] = "0x3"

	ev, err := DecodeEnrichedEvent(logEntry(), parent)
	require.NoError(t, err)

	assert.Equal(t, parent["from"], ev.From)
	assert.Equal(t, parent["to"], ev.To)
	assert.Equal(t, "0x", ev.Input)
	assert.Equal(t, uint64(42), ev.Nonce)
	assert.Equal(t, uint64(3), ev.PositionInBlock)
	assert.Equal(t, big.NewInt(1), ev.Value)
	assert.Equal(t, uint64(0x9cb0dc), ev.BlockHeight)
}

func TestDecodeEnrichedEvent_BadParent(t *testing.T) {
	parent := proxyTx()
	delete(parent, "from")

	_, err := DecodeEnrichedEvent(logEntry(), parent)
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, OriginProxy, decErr.Origin)
	assert.Equal(t, "from", decErr.Field)
}

func TestHeight(t *testing.T) {
	h, err := Height(accountTx(), OriginAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(10269416), h)

	h, err = Height(logEntry(), OriginLogs)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x9cb0dc), h)

	_, err = Height(RawRecord{}, OriginLogs)
	assert.ErrorIs(t, err, ErrMissingField)
}
