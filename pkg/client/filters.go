package client

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/etherscan-client/pkg/record"
	"github.com/ethereum/go-ethereum/common"
)

// Status selects transactions by execution outcome.
type Status int

const (
	// StatusFailed keeps reverted transactions only.
	StatusFailed Status = iota
	// StatusSuccess keeps successful transactions only.
	StatusSuccess
	// StatusBoth keeps every transaction.
	StatusBoth
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusSuccess:
		return "success"
	case StatusBoth:
		return "both"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	return s == StatusFailed || s == StatusSuccess || s == StatusBoth
}

// ParseStatus parses "failed", "success" or "both".
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "failed":
		return StatusFailed, nil
	case "success":
		return StatusSuccess, nil
	case "both", "":
		return StatusBoth, nil
	default:
		return 0, fmt.Errorf("%w: status %q", ErrInvalidArgument, s)
	}
}

// Matches reports whether a transaction with the given error flag passes.
func (s Status) Matches(isError bool) bool {
	switch s {
	case StatusFailed:
		return isError
	case StatusSuccess:
		return !isError
	default:
		return true
	}
}

// FnSignatureLen is the length of a function selector with its 0x prefix.
const FnSignatureLen = 10

// FetchArgs is the filter bag handed to every range worker.
type FetchArgs struct {
	Address     string
	Status      Status
	FnSignature string
	ToAddress   string
	Topic       string
	Enrich      bool
}

// validate checks the address and the filters that apply to transactions.
func (a FetchArgs) validate() error {
	if !common.IsHexAddress(a.Address) {
		return fmt.Errorf("%w: address %q", ErrInvalidArgument, a.Address)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, a.Status)
	}
	if a.FnSignature != "" && (len(a.FnSignature) != FnSignatureLen || !strings.HasPrefix(a.FnSignature, "0x")) {
		return fmt.Errorf("%w: function signature %q must be 0x followed by 8 hex digits", ErrInvalidArgument, a.FnSignature)
	}
	if a.ToAddress != "" && !common.IsHexAddress(a.ToAddress) {
		return fmt.Errorf("%w: to address %q", ErrInvalidArgument, a.ToAddress)
	}
	return nil
}

// matchTx applies status, selector and destination filters. All must pass.
func (a FetchArgs) matchTx(tx record.TransactionRecord) bool {
	if !a.Status.Matches(tx.IsError) {
		return false
	}
	if a.FnSignature != "" {
		// Plain transfers carry "0x" and never match a selector.
		if len(tx.Input) < FnSignatureLen || !strings.EqualFold(tx.Input[:FnSignatureLen], a.FnSignature) {
			return false
		}
	}
	if a.ToAddress != "" && !strings.EqualFold(tx.To, a.ToAddress) {
		return false
	}
	return true
}
