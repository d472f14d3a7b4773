package testutil

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
)

func get(t *testing.T, m *MockExplorer, q url.Values) map[string]any {
	t.Helper()
	resp, err := http.Get(m.URL() + "?" + q.Encode())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestMockExplorer_TxListPaging(t *testing.T) {
	m := NewMockExplorer()
	defer m.Close()
	m.AddTxs(TxFixture(25, 100, 5, 0)...)
	m.SetPageLimit(10)

	q := url.Values{
		"module": {"account"}, "action": {"txlist"}, "apikey": {"k"},
		"address": {SenderAddress}, "startblock": {"100"}, "endblock": {"200"},
		"page": {"1"}, "offset": {"1000"}, "sort": {"asc"},
	}
	body := get(t, m, q)
	if body["status"] != "1" {
		t.Fatalf("status = %v, want 1", body["status"])
	}
	if n := len(body["result"].([]any)); n != 10 {
		t.Errorf("page size = %d, want 10 (capped)", n)
	}

	q.Set("startblock", "500")
	body = get(t, m, q)
	if body["message"] != "No transactions found" {
		t.Errorf("message = %v, want No transactions found", body["message"])
	}
}

func TestMockExplorer_MissingAPIKey(t *testing.T) {
	m := NewMockExplorer()
	defer m.Close()

	body := get(t, m, url.Values{"module": {"proxy"}, "action": {"eth_blockNumber"}})
	if body["status"] != "0" || body["message"] != "NOTOK" {
		t.Errorf("body = %v, want NOTOK envelope", body)
	}
}

func TestMockExplorer_FailNext(t *testing.T) {
	m := NewMockExplorer()
	defer m.Close()
	m.FailNext(1, NewServerErrorResponse())

	q := url.Values{"module": {"proxy"}, "action": {"eth_blockNumber"}, "apikey": {"k"}}
	resp, err := http.Get(m.URL() + "?" + q.Encode())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("first status = %d, want 500", resp.StatusCode)
	}

	body := get(t, m, q)
	if body["result"] != "0x0" {
		t.Errorf("second result = %v, want 0x0", body["result"])
	}
	if m.CountAction("eth_blockNumber") != 2 {
		t.Errorf("CountAction = %d, want 2", m.CountAction("eth_blockNumber"))
	}
}

func TestTxFixture(t *testing.T) {
	txs := TxFixture(40, 1000, 4, 5)

	failed := 0
	for _, tx := range txs {
		if tx.IsError {
			failed++
		}
	}
	if failed != 8 {
		t.Errorf("failed = %d, want 8", failed)
	}
	if txs[39].Block != 1009 {
		t.Errorf("last block = %d, want 1009", txs[39].Block)
	}
	if logs := LogFixture(txs); len(logs) != 20 {
		t.Errorf("logs = %d, want 20", len(logs))
	}
}
