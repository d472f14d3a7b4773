package record

import (
	"errors"
	"fmt"
)

// ErrMissingField is wrapped by DecodeError when a required key is absent.
var ErrMissingField = errors.New("missing field")

// DecodeError reports a raw field that is absent or does not parse in the
// numeric base of its origin.
type DecodeError struct {
	Field  string
	Value  any
	Origin Origin
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if errors.Is(e.Err, ErrMissingField) {
		return fmt.Sprintf("decode %s record: field %q: %v", e.Origin, e.Field, e.Err)
	}
	return fmt.Sprintf("decode %s record: field %q = %v: %v", e.Origin, e.Field, e.Value, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
