package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/etherscan-client/pkg/record"
)

// decodeRecords decodes a list result. Numbers are kept as json.Number so the
// decoder sees their exact text.
func decodeRecords(raw json.RawMessage, origin record.Origin) ([]record.RawRecord, error) {
	var records []record.RawRecord
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, &record.DecodeError{Field: "result", Value: string(raw), Origin: origin, Err: err}
	}
	return records, nil
}

// decodeRecord decodes a single-object result. A null result is ErrNotFound.
func decodeRecord(raw json.RawMessage, origin record.Origin) (record.RawRecord, error) {
	if isNull(raw) {
		return nil, ErrNotFound
	}
	var rec record.RawRecord
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, &record.DecodeError{Field: "result", Value: string(raw), Origin: origin, Err: err}
	}
	return rec, nil
}

func decodeString(raw json.RawMessage, origin record.Origin) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &record.DecodeError{Field: "result", Value: string(raw), Origin: origin, Err: fmt.Errorf("expected string: %w", err)}
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
