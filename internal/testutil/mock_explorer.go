// Package testutil provides an in-memory explorer API for client tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse is a canned reply for one module/action.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockTx is a transaction known to the mock explorer.
type MockTx struct {
	Hash      string
	Block     uint64
	Index     uint64
	Nonce     uint64
	From      string
	To        string
	Value     uint64
	GasPrice  uint64
	GasUsed   uint64
	Input     string
	IsError   bool
	Timestamp uint64
}

// MockLog is an event log known to the mock explorer.
type MockLog struct {
	Address  string
	Topics   []string
	Data     string
	Block    uint64
	TxHash   string
	TxIndex  uint64
	LogIndex uint64
	GasPrice uint64
	GasUsed  uint64
	// Timestamp of the including block
	Timestamp uint64
}

// MockExplorer serves account/txlist, logs/getLogs, the proxy calls the client
// uses and stats/ethprice from fixtures, with the explorer's envelope quirks.
type MockExplorer struct {
	server *httptest.Server

	mu        sync.RWMutex
	txs       []MockTx
	logs      []MockLog
	head      uint64
	pageLimit int
	overrides map[string]MockResponse
	failures  []MockResponse
	requests  []url.Values
}

// NewMockExplorer creates a new mock explorer server.
func NewMockExplorer() *MockExplorer {
	m := &MockExplorer{
		pageLimit: 1000,
		overrides: make(map[string]MockResponse),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the API endpoint, including the /api path.
func (m *MockExplorer) URL() string {
	return m.server.URL + "/api"
}

// Close shuts down the mock server.
func (m *MockExplorer) Close() {
	m.server.Close()
}

// AddTxs adds transactions. The head moves to the highest block seen unless
// it was set explicitly higher.
func (m *MockExplorer) AddTxs(txs ...MockTx) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range txs {
		m.txs = append(m.txs, tx)
		if tx.Block > m.head {
			m.head = tx.Block
		}
	}
	sort.SliceStable(m.txs, func(i, j int) bool {
		if m.txs[i].Block != m.txs[j].Block {
			return m.txs[i].Block < m.txs[j].Block
		}
		return m.txs[i].Index < m.txs[j].Index
	})
}

// AddLogs adds event logs.
func (m *MockExplorer) AddLogs(logs ...MockLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
	sort.SliceStable(m.logs, func(i, j int) bool {
		if m.logs[i].Block != m.logs[j].Block {
			return m.logs[i].Block < m.logs[j].Block
		}
		return m.logs[i].LogIndex < m.logs[j].LogIndex
	})
}

// SetHead sets the height reported by eth_blockNumber.
func (m *MockExplorer) SetHead(height uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.head = height
}

// SetPageLimit caps the number of items per list response.
func (m *MockExplorer) SetPageLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageLimit = n
}

// SetResponse replaces the handling of module/action with a canned reply.
func (m *MockExplorer) SetResponse(module, action string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[module+"/"+action] = resp
}

// FailNext makes the next n requests, whatever they are, return resp.
func (m *MockExplorer) FailNext(n int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.failures = append(m.failures, resp)
	}
}

// Requests returns the query of every request received so far.
func (m *MockExplorer) Requests() []url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]url.Values, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests received so far.
func (m *MockExplorer) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// CountAction returns the number of requests for one action.
func (m *MockExplorer) CountAction(action string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, q := range m.requests {
		if q.Get("action") == action {
			n++
		}
	}
	return n
}

// Reset clears the request log, queued failures and overrides.
func (m *MockExplorer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.failures = nil
	m.overrides = make(map[string]MockResponse)
}

func (m *MockExplorer) serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	m.mu.Lock()
	m.requests = append(m.requests, q)
	var canned *MockResponse
	if len(m.failures) > 0 {
		canned = &m.failures[0]
		m.failures = m.failures[1:]
	} else if resp, ok := m.overrides[q.Get("module")+"/"+q.Get("action")]; ok {
		canned = &resp
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if canned != nil {
		if canned.Delay > 0 {
			time.Sleep(canned.Delay)
		}
		w.WriteHeader(canned.StatusCode)
		if canned.Body != "" {
			w.Write([]byte(canned.Body))
		}
		return
	}

	if q.Get("apikey") == "" {
		writeJSON(w, envelope("0", "NOTOK", "Missing/Invalid API Key"))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	switch q.Get("module") + "/" + q.Get("action") {
	case "account/txlist":
		m.txList(w, q)
	case "logs/getLogs":
		m.getLogs(w, q)
	case "proxy/eth_blockNumber":
		writeJSON(w, rpc(hexQuantity(m.head)))
	case "proxy/eth_getTransactionByHash":
		m.txByHash(w, q)
	case "proxy/eth_getTransactionReceipt":
		m.receipt(w, q)
	case "proxy/eth_getBlockByNumber":
		m.blockByNumber(w, q)
	case "stats/ethprice":
		writeJSON(w, envelope("1", "OK", map[string]string{
			"ethbtc":           "0.05123",
			"ethbtc_timestamp": "1700000000",
			"ethusd":           "2045.67",
			"ethusd_timestamp": "1700000005",
		}))
	default:
		writeJSON(w, envelope("0", "NOTOK", "Error! Missing Or invalid Module name"))
	}
}

func (m *MockExplorer) txList(w http.ResponseWriter, q url.Values) {
	address := strings.ToLower(q.Get("address"))
	from, to := blockWindow(q.Get("startblock"), q.Get("endblock"))

	var matched []map[string]any
	for _, tx := range m.txs {
		if tx.Block < from || tx.Block > to {
			continue
		}
		if strings.ToLower(tx.From) != address && strings.ToLower(tx.To) != address {
			continue
		}
		matched = append(matched, accountTx(tx))
	}

	page := m.paginate(len(matched), q)
	if len(matched[page.lo:page.hi]) == 0 {
		writeJSON(w, envelope("0", "No transactions found", []any{}))
		return
	}
	writeJSON(w, envelope("1", "OK", matched[page.lo:page.hi]))
}

func (m *MockExplorer) getLogs(w http.ResponseWriter, q url.Values) {
	address := strings.ToLower(q.Get("address"))
	topic := strings.ToLower(q.Get("topic0"))
	from, to := blockWindow(q.Get("fromBlock"), q.Get("toBlock"))

	var matched []map[string]any
	for _, lg := range m.logs {
		if lg.Block < from || lg.Block > to || strings.ToLower(lg.Address) != address {
			continue
		}
		if topic != "" && (len(lg.Topics) == 0 || strings.ToLower(lg.Topics[0]) != topic) {
			continue
		}
		matched = append(matched, logEntry(lg))
	}

	page := m.paginate(len(matched), q)
	if len(matched[page.lo:page.hi]) == 0 {
		writeJSON(w, envelope("0", "No records found", []any{}))
		return
	}
	writeJSON(w, envelope("1", "OK", matched[page.lo:page.hi]))
}

func (m *MockExplorer) txByHash(w http.ResponseWriter, q url.Values) {
	tx, ok := m.findTx(q.Get("txhash"))
	if !ok {
		writeJSON(w, rpc(nil))
		return
	}
	writeJSON(w, rpc(map[string]any{
		"hash":             tx.Hash,
		"blockNumber":      hexQuantity(tx.Block),
		"transactionIndex": hexQuantity(tx.Index),
		"nonce":            hexQuantity(tx.Nonce),
		"from":             tx.From,
		"to":               tx.To,
		"value":            hexQuantity(tx.Value),
		"gasPrice":         hexQuantity(tx.GasPrice),
		"input":            tx.Input,
	}))
}

func (m *MockExplorer) receipt(w http.ResponseWriter, q url.Values) {
	tx, ok := m.findTx(q.Get("txhash"))
	if !ok {
		writeJSON(w, rpc(nil))
		return
	}
	status := "0x1"
	if tx.IsError {
		status = "0x0"
	}
	writeJSON(w, rpc(map[string]any{
		"transactionHash": tx.Hash,
		"blockNumber":     hexQuantity(tx.Block),
		"gasUsed":         hexQuantity(tx.GasUsed),
		"status":          status,
	}))
}

func (m *MockExplorer) blockByNumber(w http.ResponseWriter, q url.Values) {
	height, err := strconv.ParseUint(strings.TrimPrefix(q.Get("tag"), "0x"), 16, 64)
	if err != nil {
		writeJSON(w, map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": -32602, "message": "invalid argument 0: hex string without 0x prefix"},
		})
		return
	}
	for _, tx := range m.txs {
		if tx.Block == height {
			writeJSON(w, rpc(map[string]any{
				"number":    hexQuantity(height),
				"timestamp": hexQuantity(tx.Timestamp),
			}))
			return
		}
	}
	writeJSON(w, rpc(nil))
}

func (m *MockExplorer) findTx(hash string) (MockTx, bool) {
	for _, tx := range m.txs {
		if strings.EqualFold(tx.Hash, hash) {
			return tx, true
		}
	}
	return MockTx{}, false
}

type pageBounds struct{ lo, hi int }

// paginate applies page/offset the way the explorer does, capped at the page
// limit.
func (m *MockExplorer) paginate(total int, q url.Values) pageBounds {
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset <= 0 || offset > m.pageLimit {
		offset = m.pageLimit
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	lo := (page - 1) * offset
	if lo > total {
		lo = total
	}
	hi := lo + offset
	if hi > total {
		hi = total
	}
	return pageBounds{lo: lo, hi: hi}
}

func accountTx(tx MockTx) map[string]any {
	isError := "0"
	if tx.IsError {
		isError = "1"
	}
	return map[string]any{
		"blockNumber":      strconv.FormatUint(tx.Block, 10),
		"timeStamp":        strconv.FormatUint(tx.Timestamp, 10),
		"hash":             tx.Hash,
		"nonce":            strconv.FormatUint(tx.Nonce, 10),
		"transactionIndex": strconv.FormatUint(tx.Index, 10),
		"from":             tx.From,
		"to":               tx.To,
		"value":            strconv.FormatUint(tx.Value, 10),
		"gasPrice":         strconv.FormatUint(tx.GasPrice, 10),
		"gasUsed":          strconv.FormatUint(tx.GasUsed, 10),
		"input":            tx.Input,
		"isError":          isError,
	}
}

func logEntry(lg MockLog) map[string]any {
	return map[string]any{
		"address":          lg.Address,
		"topics":           lg.Topics,
		"data":             lg.Data,
		"blockNumber":      hexQuantity(lg.Block),
		"timeStamp":        hexQuantity(lg.Timestamp),
		"gasPrice":         hexQuantity(lg.GasPrice),
		"gasUsed":          hexQuantity(lg.GasUsed),
		"logIndex":         explorerIndex(lg.LogIndex),
		"transactionHash":  lg.TxHash,
		"transactionIndex": explorerIndex(lg.TxIndex),
	}
}

func blockWindow(from, to string) (uint64, uint64) {
	lo, err := strconv.ParseUint(from, 10, 64)
	if err != nil {
		lo = 0
	}
	hi, err := strconv.ParseUint(to, 10, 64)
	if err != nil {
		hi = ^uint64(0)
	}
	return lo, hi
}

func hexQuantity(n uint64) string {
	return "0x" + strconv.FormatUint(n, 16)
}

// explorerIndex renders zero as a bare "0x", as the logs endpoint does.
func explorerIndex(n uint64) string {
	if n == 0 {
		return "0x"
	}
	return hexQuantity(n)
}

func envelope(status, message string, result any) map[string]any {
	return map[string]any{"status": status, "message": message, "result": result}
}

func rpc(result any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "id": 83, "result": result}
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encode: %v", err), http.StatusInternalServerError)
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Too many requests"}`,
	}
}

// NewRateLimitEnvelope is the 200 response the explorer sends when the per-key
// rate is exceeded.
func NewRateLimitEnvelope() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"status":"0","message":"NOTOK","result":"Max rate limit reached, please use API Key for higher rate limit"}`,
	}
}
