// Package client provides the explorer API client: a rate-limited, optionally
// cached transport and the high-level transaction and event operations built
// on the pagination engine.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/etherscan-client/pkg/cache"
	"github.com/Sternrassler/etherscan-client/pkg/logging"
	"github.com/Sternrassler/etherscan-client/pkg/pagination"
	"github.com/Sternrassler/etherscan-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Etherscan mainnet API endpoint.
const DefaultBaseURL = "https://api.etherscan.io/api"

// DefaultMaxThreads is the default cap on ranges fetched concurrently per query.
const DefaultMaxThreads = 32

// ModuleProxy is the JSON-RPC proxy module. Its responses carry no status field.
const ModuleProxy = "proxy"

// Prometheus metrics for explorer requests.
var (
	scanRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_requests_total",
		Help: "Total explorer requests by module, action and status",
	}, []string{"module", "action", "status"})

	scanRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scan_request_duration_seconds",
		Help:    "Explorer request duration in seconds by module",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"module"})

	scanErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_errors_total",
		Help: "Total explorer errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors and unreadable bodies.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and "Max rate limit reached" results.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassAPI represents a failed status flag in an otherwise valid response.
	ErrorClassAPI ErrorClass = "api"
)

// Client is the explorer API client.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	cachePolicy cache.Policy
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// APIKey is sent as the apikey query parameter on every request.
	APIKey string

	// BaseURL of the explorer API, including the /api path.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// ThreadCount is the default number of block ranges (and workers) per
	// list query.
	ThreadCount int

	// MaxThreads caps the Threads a query may request. 0 means DefaultMaxThreads.
	MaxThreads int

	// RateLimit is the number of requests per second shared by all workers.
	RateLimit int

	// Redis enables the response cache and shares the rate window across
	// processes. Optional.
	Redis *redis.Client

	// Caching (only with Redis)
	CacheTTL          time.Duration // list queries
	ImmutableCacheTTL time.Duration // lookups by hash

	// Retry. MaxRetries = 0 sends each request once.
	MaxRetries     int
	InitialBackoff time.Duration

	// Timeout per HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns a configuration for the free Etherscan tier.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:            apiKey,
		BaseURL:           DefaultBaseURL,
		UserAgent:         "etherscan-client/0.1.0",
		ThreadCount:       1,
		MaxThreads:        DefaultMaxThreads,
		RateLimit:         5,
		CacheTTL:          30 * time.Second,
		ImmutableCacheTTL: 24 * time.Hour,
		MaxRetries:        0,
		InitialBackoff:    1 * time.Second,
		Timeout:           30 * time.Second,
	}
}

// New creates a new explorer client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	if cfg.ThreadCount < 1 {
		return nil, fmt.Errorf("thread_count must be >= 1 (got %d)", cfg.ThreadCount)
	}

	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = DefaultMaxThreads
	}
	if cfg.MaxThreads > pagination.MaxPartitions {
		return nil, fmt.Errorf("max_threads must be <= %d (got %d)", pagination.MaxPartitions, cfg.MaxThreads)
	}
	if cfg.ThreadCount > cfg.MaxThreads {
		return nil, fmt.Errorf("thread_count must be <= max_threads %d (got %d)", cfg.MaxThreads, cfg.ThreadCount)
	}

	if cfg.RateLimit < 1 {
		return nil, fmt.Errorf("rate_limit must be >= 1 (got %d)", cfg.RateLimit)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := logging.NewLogger(logging.ComponentClient)

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: ratelimit.NewTracker(cfg.Redis, cfg.RateLimit, logging.NewLogger(logging.ComponentRateLimit)),
		cachePolicy: cache.Policy{
			DefaultTTL:   cfg.CacheTTL,
			ImmutableTTL: cfg.ImmutableCacheTTL,
		},
		config: cfg,
		logger: logger,
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// response is the union of the explorer envelope and a JSON-RPC response.
type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Get calls module/action with params and returns the raw result member.
// It applies rate limiting, the response cache and retries as configured.
func (c *Client) Get(ctx context.Context, module, action string, params url.Values) (json.RawMessage, error) {
	cacheKey := cache.CacheKey{
		Module:      module,
		Action:      action,
		QueryParams: params,
	}
	ttl := c.cachePolicy.TTL(module, action)

	if c.cache != nil && ttl > 0 {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			c.logger.Debug().Str("key", cacheKey.String()).Msg("Cache hit")
			return entry.Data, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("key", cacheKey.String()).Msg("Cache get error")
		}
	}

	var result json.RawMessage
	err := retryWithBackoff(ctx, c.config.MaxRetries+1, c.config.InitialBackoff, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		body, err := c.roundTrip(ctx, module, action, params)
		if err != nil {
			return err
		}

		result, err = c.parseResponse(module, action, body)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				scanErrorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil && ttl > 0 {
		if err := c.cache.Set(ctx, cacheKey, cache.NewEntry(result, ttl)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return result, nil
}

// roundTrip sends one HTTP request and returns the body of a 2xx response.
func (c *Client) roundTrip(ctx context.Context, module, action string, params url.Values) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		scanRequestDuration.WithLabelValues(module).Observe(time.Since(startTime).Seconds())
	}()

	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	query.Set("module", module)
	query.Set("action", action)
	query.Set("apikey", c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("module", module).
		Str("action", action).
		Msg("Executing explorer request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := c.classifyError(nil, err)
		scanErrorsTotal.WithLabelValues(string(class)).Inc()
		scanRequestsTotal.WithLabelValues(module, action, "network_error").Inc()
		c.logger.Error().Err(err).Str("module", module).Str("action", action).Msg("HTTP request failed")
		return nil, &TransportError{Class: class, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	scanRequestsTotal.WithLabelValues(module, action, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := c.classifyError(resp, nil)
		scanErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("module", module).
			Str("action", action).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Explorer request error")
		return nil, &TransportError{StatusCode: resp.StatusCode, Class: class, Message: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		scanErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &TransportError{StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Message: "read body", Err: err}
	}
	return body, nil
}

// parseResponse unwraps the result member. Proxy responses succeed unless they
// carry a JSON-RPC error or an explorer failure envelope; all other modules
// need status "1".
func (c *Client) parseResponse(module, action string, body []byte) (json.RawMessage, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		scanErrorsTotal.WithLabelValues(string(ErrorClassServer)).Inc()
		return nil, &TransportError{StatusCode: http.StatusOK, Class: ErrorClassServer, Message: "invalid response body", Err: err}
	}

	if module == ModuleProxy {
		if resp.Error != nil {
			return nil, &APIError{
				Module:  module,
				Action:  action,
				Class:   ErrorClassAPI,
				Code:    resp.Error.Code,
				Message: resp.Error.Message,
			}
		}
		if resp.Status == "0" {
			return nil, newAPIError(module, action, resp)
		}
		return resp.Result, nil
	}

	if resp.Status == "1" {
		return resp.Result, nil
	}
	if isEmptyResult(resp.Message) {
		return json.RawMessage("[]"), nil
	}
	return nil, newAPIError(module, action, resp)
}

// isEmptyResult reports the messages the explorer uses for a successful query
// with no matches. They come with status "0".
func isEmptyResult(message string) bool {
	return strings.HasPrefix(message, "No transactions found") ||
		strings.HasPrefix(message, "No records found")
}

func newAPIError(module, action string, resp response) *APIError {
	var result string
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		result = string(resp.Result)
	}
	class := ErrorClassAPI
	if strings.Contains(strings.ToLower(result), "rate limit") {
		class = ErrorClassRateLimit
	}
	return &APIError{
		Module:  module,
		Action:  action,
		Class:   class,
		Status:  resp.Status,
		Message: resp.Message,
		Result:  result,
	}
}

// classifyError categorizes a transport failure for observability and retries.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		c.logger.Debug().Str("class", string(ErrorClassNetwork)).Msg("Error classified")
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Debug().Str("class", string(ErrorClassRateLimit)).Msg("Error classified")
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Debug().Str("class", string(ErrorClassClient)).Msg("Error classified")
		return ErrorClassClient
	case resp.StatusCode >= 500:
		c.logger.Debug().Str("class", string(ErrorClassServer)).Msg("Error classified")
		return ErrorClassServer
	default:
		// 1xx/3xx are unexpected for this API.
		return ErrorClassClient
	}
}

// RateWindow returns the current state of the request rate window.
func (c *Client) RateWindow(ctx context.Context) (ratelimit.Window, error) {
	return c.rateLimiter.State(ctx)
}

// Close releases the client's resources. The Redis client belongs to the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}
