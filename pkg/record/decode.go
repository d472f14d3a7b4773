package record

import (
	"fmt"
)

// Height returns the block height of a raw record of the given origin.
func Height(raw RawRecord, origin Origin) (uint64, error) {
	r := &reader{raw: raw, origin: origin}
	h := r.uint("blockNumber")
	if r.err != nil {
		return 0, r.err
	}
	return h, nil
}

// IsErrorFlag maps the explorer's isError flag: "0" is success, anything else
// is a failed transaction.
func IsErrorFlag(flag string) bool {
	return flag != "0"
}

// DecodeTransaction builds a TransactionRecord from an account or proxy record.
// Account records must carry timestamp, gas used and the error flag; proxy
// records carry them only when they were merged in from a receipt and block.
func DecodeTransaction(raw RawRecord, origin Origin) (TransactionRecord, error) {
	if origin != OriginAccount && origin != OriginProxy {
		return TransactionRecord{}, &DecodeError{
			Origin: origin,
			Err:    fmt.Errorf("transactions are not decoded from %s records", origin),
		}
	}

	r := &reader{raw: raw, origin: origin}
	tx := TransactionRecord{
		TxHash:          r.str("hash"),
		BlockHeight:     r.uint("blockNumber"),
		Nonce:           r.uint("nonce"),
		From:            r.str("from"),
		To:              r.str("to"),
		Value:           r.big("value"),
		GasPrice:        r.big("gasPrice"),
		Input:           r.str("input"),
		PositionInBlock: r.uint("transactionIndex"),
	}

	if origin == OriginAccount {
		tx.Timestamp = r.uint("timeStamp")
		tx.GasUsed = r.uint("gasUsed")
		tx.IsError = IsErrorFlag(r.str("isError"))
	} else {
		tx.Timestamp = r.optUint("timeStamp")
		tx.GasUsed = r.optUint("gasUsed")
		if flag, ok := r.lookup("isError"); ok {
			tx.IsError = IsErrorFlag(flag)
		}
	}

	if r.err != nil {
		return TransactionRecord{}, r.err
	}
	return tx, nil
}

// DecodeEvent builds an EventRecord from a logs record.
func DecodeEvent(raw RawRecord) (EventRecord, error) {
	r := &reader{raw: raw, origin: OriginLogs}
	ev := EventRecord{
		Address:     r.str("address"),
		Topics:      r.topics("topics"),
		Data:        r.str("data"),
		BlockHeight: r.uint("blockNumber"),
		Timestamp:   r.uint("timeStamp"),
		GasPrice:    r.big("gasPrice"),
		GasUsed:     r.uint("gasUsed"),
		LogIndex:    r.uint("logIndex"),
		TxHash:      r.str("transactionHash"),
		TxIndex:     r.uint("transactionIndex"),
	}
	if r.err != nil {
		return EventRecord{}, r.err
	}
	return ev, nil
}

// DecodeEnrichedEvent decodes a logs record and attaches the fields of its
// parent transaction, given as a proxy record.
func DecodeEnrichedEvent(event, parent RawRecord) (EnrichedEventRecord, error) {
	ev, err := DecodeEvent(event)
	if err != nil {
		return EnrichedEventRecord{}, err
	}

	r := &reader{raw: parent, origin: OriginProxy}
	enriched := EnrichedEventRecord{
		EventRecord:     ev,
		From:            r.str("from"),
		To:              r.str("to"),
		Input:           r.str("input"),
		Nonce:           r.uint("nonce"),
		PositionInBlock: r.uint("transactionIndex"),
		Value:           r.big("value"),
	}
	if r.err != nil {
		return EnrichedEventRecord{}, r.err
	}
	return enriched, nil
}
