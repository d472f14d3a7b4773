package testutil

import "fmt"

// Fixture addresses. Mixed case on purpose: matching is case-insensitive.
const (
	SenderAddress   = "0x00000000000000000000000000000000000000Aa"
	TokenAddress    = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	RouterAddress   = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"
	TransferSig     = "0xa9059cbb"
	TransferTopic   = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	ApprovalTopic   = "0x8c5be1e5ebec7d5bd14c71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"
	FixtureGasPrice = 20_000_000_000
)

// TxHash returns the deterministic hash of fixture transaction i.
func TxHash(i int) string {
	return fmt.Sprintf("0x%064x", i+1)
}

// TxFixture returns n transactions sent by SenderAddress, perBlock of them
// in each block from startBlock on. Every failEvery-th transaction (1-based)
// reverted; 0 means none did. Even transactions call TransferSig on
// TokenAddress, odd ones send plain value to RouterAddress.
func TxFixture(n int, startBlock uint64, perBlock, failEvery int) []MockTx {
	if perBlock < 1 {
		perBlock = 1
	}
	txs := make([]MockTx, 0, n)
	for i := 0; i < n; i++ {
		block := startBlock + uint64(i/perBlock)
		tx := MockTx{
			Hash:      TxHash(i),
			Block:     block,
			Index:     uint64(i % perBlock),
			Nonce:     uint64(i),
			From:      SenderAddress,
			GasPrice:  FixtureGasPrice,
			GasUsed:   21000,
			Timestamp: 1_600_000_000 + block*12,
			IsError:   failEvery > 0 && (i+1)%failEvery == 0,
		}
		if i%2 == 0 {
			tx.To = TokenAddress
			tx.Input = TransferSig + fmt.Sprintf("%064x%064x", i, 1000)
			tx.GasUsed = 51000
		} else {
			tx.To = RouterAddress
			tx.Input = "0x"
			tx.Value = uint64(i) * 1_000_000_000
		}
		txs = append(txs, tx)
	}
	return txs
}

// LogFixture returns one Transfer log emitted by TokenAddress for every
// transaction in txs that calls it.
func LogFixture(txs []MockTx) []MockLog {
	var logs []MockLog
	for i, tx := range txs {
		if tx.To != TokenAddress {
			continue
		}
		logs = append(logs, MockLog{
			Address:   TokenAddress,
			Topics:    []string{TransferTopic, fmt.Sprintf("0x%064x", 0xaa)},
			Data:      fmt.Sprintf("0x%064x", 1000),
			Block:     tx.Block,
			TxHash:    tx.Hash,
			TxIndex:   tx.Index,
			LogIndex:  uint64(i),
			GasPrice:  tx.GasPrice,
			GasUsed:   tx.GasUsed,
			Timestamp: tx.Timestamp,
		})
	}
	return logs
}
