package record

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Origin identifies the endpoint family a raw record came from. It decides the
// numeric encoding: explorer-native account records carry decimal strings,
// logs and JSON-RPC proxy records carry 0x-prefixed hex quantities.
type Origin int

const (
	// OriginAccount is account/txlist and friends (decimal).
	OriginAccount Origin = iota
	// OriginLogs is logs/getLogs (hex).
	OriginLogs
	// OriginProxy is the JSON-RPC proxy module (hex).
	OriginProxy
)

// String implements fmt.Stringer.
func (o Origin) String() string {
	switch o {
	case OriginAccount:
		return "account"
	case OriginLogs:
		return "logs"
	case OriginProxy:
		return "proxy"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

func (o Origin) isHex() bool {
	return o == OriginLogs || o == OriginProxy
}

// reader pulls typed fields out of a RawRecord and keeps the first error.
type reader struct {
	raw    RawRecord
	origin Origin
	err    error
}

func (r *reader) fail(field string, value any, err error) {
	if r.err == nil {
		r.err = &DecodeError{Field: field, Value: value, Origin: r.origin, Err: err}
	}
}

// lookup returns the field as a string. present is false when the key is absent.
func (r *reader) lookup(field string) (s string, present bool) {
	v, ok := r.raw[field]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		r.fail(field, v, fmt.Errorf("unexpected type %T", v))
		return "", true
	}
}

func (r *reader) str(field string) string {
	s, ok := r.lookup(field)
	if !ok {
		r.fail(field, nil, ErrMissingField)
	}
	return s
}

func (r *reader) uint(field string) uint64 {
	s := r.str(field)
	if r.err != nil {
		return 0
	}
	n, err := parseUint(s, r.numberBase(field))
	if err != nil {
		r.fail(field, s, err)
	}
	return n
}

func (r *reader) optUint(field string) uint64 {
	if _, ok := r.raw[field]; !ok {
		return 0
	}
	return r.uint(field)
}

func (r *reader) big(field string) *big.Int {
	s := r.str(field)
	if r.err != nil {
		return nil
	}
	n, err := parseBig(s, r.numberBase(field))
	if err != nil {
		r.fail(field, s, err)
	}
	return n
}

// numberBase is 16 for hex origins unless the JSON value is a plain number.
func (r *reader) numberBase(field string) int {
	if _, isNumber := r.raw[field].(json.Number); isNumber {
		return 10
	}
	if _, isFloat := r.raw[field].(float64); isFloat {
		return 10
	}
	if r.origin.isHex() {
		return 16
	}
	return 10
}

func (r *reader) topics(field string) []string {
	v, ok := r.raw[field]
	if !ok {
		r.fail(field, nil, ErrMissingField)
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, t := range list {
			s, ok := t.(string)
			if !ok {
				r.fail(field, v, fmt.Errorf("topic of type %T", t))
				return nil
			}
			out = append(out, s)
		}
		return out
	case nil:
		return nil
	default:
		r.fail(field, v, fmt.Errorf("unexpected type %T", v))
		return nil
	}
}

// parseUint decodes a decimal string (base 10) or a 0x-prefixed quantity (base 16).
func parseUint(s string, base int) (uint64, error) {
	if base == 10 {
		return strconv.ParseUint(s, 10, 64)
	}
	digits, err := hexDigits(s)
	if err != nil {
		return 0, err
	}
	if digits == "" {
		return 0, nil
	}
	return hexutil.DecodeUint64("0x" + digits)
}

func parseBig(s string, base int) (*big.Int, error) {
	if base == 10 {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid decimal integer")
		}
		return n, nil
	}
	digits, err := hexDigits(s)
	if err != nil {
		return nil, err
	}
	if digits == "" {
		return new(big.Int), nil
	}
	return hexutil.DecodeBig("0x" + digits)
}

// hexDigits strips the 0x prefix and leading zeros. The explorer emits "0x"
// for zero log indexes and zero-padded quantities on some endpoints, both of
// which hexutil rejects.
func hexDigits(s string) (string, error) {
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return "", hexutil.ErrMissingPrefix
	}
	return strings.TrimLeft(s[2:], "0"), nil
}
