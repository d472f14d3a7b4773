package client

import (
	"testing"

	"github.com/Sternrassler/etherscan-client/pkg/record"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"success", StatusSuccess, false},
		{"FAILED", StatusFailed, false},
		{"both", StatusBoth, false},
		{"", StatusBoth, false},
		{"pending", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFetchArgs_MatchTx(t *testing.T) {
	transfer := record.TransactionRecord{
		Input: "0xA9059CBB000000000000000000000000",
		To:    "0xdAC17F958D2ee523a2206206994597C13D831ec7",
	}
	plain := record.TransactionRecord{Input: "0x", To: "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", IsError: true}

	tests := []struct {
		name string
		args FetchArgs
		tx   record.TransactionRecord
		want bool
	}{
		{"both keeps failed", FetchArgs{Status: StatusBoth}, plain, true},
		{"success drops failed", FetchArgs{Status: StatusSuccess}, plain, false},
		{"selector prefix any case", FetchArgs{Status: StatusBoth, FnSignature: "0xa9059cbb"}, transfer, true},
		{"plain transfer never matches selector", FetchArgs{Status: StatusBoth, FnSignature: "0xa9059cbb"}, plain, false},
		{"to address any case", FetchArgs{Status: StatusBoth, ToAddress: "0xdac17f958d2ee523a2206206994597c13d831ec7"}, transfer, true},
		{"to address mismatch", FetchArgs{Status: StatusBoth, ToAddress: "0xdac17f958d2ee523a2206206994597c13d831ec7"}, plain, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.args.matchTx(tt.tx); got != tt.want {
				t.Errorf("matchTx() = %v, want %v", got, tt.want)
			}
		})
	}
}
