package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/etherscan-client/pkg/client"
	"github.com/Sternrassler/etherscan-client/pkg/logging"
	"github.com/Sternrassler/etherscan-client/pkg/metrics"
	"github.com/Sternrassler/etherscan-client/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	addressParam = "{address:0x[0-9a-fA-F]{40}}"
	hashParam    = "{hash:0x[0-9a-fA-F]{64}}"
)

type handler struct {
	client *client.Client
	logger zerolog.Logger
}

// newRouter wires the JSON endpoints onto a chi mux.
func newRouter(c *client.Client) http.Handler {
	h := &handler{
		client: c,
		logger: logging.NewLogger(logging.ComponentProxy),
	}

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(h.requestLogger)
	mux.Use(middleware.Recoverer)

	mux.Get("/health", h.health)
	mux.Handle("/metrics", metrics.Handler())

	mux.Get("/rate", h.wrapJSONHandler(h.rateWindow))
	mux.Get("/block/latest", h.wrapJSONHandler(h.latestBlock))
	mux.Get("/ethprice", h.wrapJSONHandler(h.ethPrice))
	mux.Get("/tx/"+hashParam, h.wrapJSONHandler(h.tx))
	mux.Get("/address/"+addressParam+"/first", h.wrapJSONHandler(h.firstTxBlock))
	mux.Get("/address/"+addressParam+"/transactions", h.wrapJSONHandler(h.transactions))
	mux.Get("/address/"+addressParam+"/events", h.wrapJSONHandler(h.events))

	return mux
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *handler) rateWindow(r *http.Request) (any, error) {
	window, err := h.client.RateWindow(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"start":     window.Start,
		"count":     window.Count,
		"limit":     window.Limit,
		"remaining": window.Remaining(),
	}, nil
}

func (h *handler) latestBlock(r *http.Request) (any, error) {
	height, err := h.client.LatestBlockHeight(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"height": height}, nil
}

func (h *handler) ethPrice(r *http.Request) (any, error) {
	return h.client.EthPrice(r.Context())
}

// tx serves ?detail=raw|simple|full, full being the default.
func (h *handler) tx(r *http.Request) (any, error) {
	hash := chi.URLParam(r, "hash")
	switch detail := r.URL.Query().Get("detail"); detail {
	case "raw":
		return h.client.TxByHash(r.Context(), hash)
	case "simple":
		return h.client.SimpleTxByHash(r.Context(), hash)
	case "full", "":
		return h.client.FullTxByHash(r.Context(), hash)
	default:
		return nil, badRequest("detail must be raw, simple or full")
	}
}

func (h *handler) firstTxBlock(r *http.Request) (any, error) {
	height, err := h.client.FirstTxBlock(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"height": height}, nil
}

func (h *handler) transactions(r *http.Request) (any, error) {
	query := r.URL.Query()

	status, err := client.ParseStatus(query.Get("status"))
	if err != nil {
		return nil, err
	}
	q := client.TxQuery{
		Status:      status,
		FnSignature: query.Get("fn"),
		ToAddress:   query.Get("to"),
	}
	if q.FromBlock, q.ToBlock, q.Threads, err = parseWindow(r); err != nil {
		return nil, err
	}

	return h.client.Transactions(r.Context(), chi.URLParam(r, "address"), q)
}

// events serves plain logs, or logs joined with their parent transaction
// when enrich=true.
func (h *handler) events(r *http.Request) (any, error) {
	query := r.URL.Query()

	q := client.EventQuery{Topic: query.Get("topic")}
	var err error
	if q.FromBlock, q.ToBlock, q.Threads, err = parseWindow(r); err != nil {
		return nil, err
	}

	enrich := false
	if v := query.Get("enrich"); v != "" {
		if enrich, err = strconv.ParseBool(v); err != nil {
			return nil, badRequest("enrich must be a boolean")
		}
	}

	address := chi.URLParam(r, "address")
	if enrich {
		return h.client.EnrichedEvents(r.Context(), address, q)
	}
	return h.client.Events(r.Context(), address, q)
}

// parseWindow reads from_block, to_block and threads. Missing values are 0.
func parseWindow(r *http.Request) (from, to uint64, threads int, err error) {
	query := r.URL.Query()
	if v := query.Get("from_block"); v != "" {
		if from, err = strconv.ParseUint(v, 10, 64); err != nil {
			return 0, 0, 0, badRequest("from_block must be a block number")
		}
	}
	if v := query.Get("to_block"); v != "" {
		if to, err = strconv.ParseUint(v, 10, 64); err != nil {
			return 0, 0, 0, badRequest("to_block must be a block number")
		}
	}
	if v := query.Get("threads"); v != "" {
		if threads, err = strconv.Atoi(v); err != nil || threads < 1 {
			return 0, 0, 0, badRequest("threads must be a positive integer")
		}
	}
	return from, to, threads, nil
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

// statusFor maps client errors onto HTTP status codes.
func statusFor(err error) int {
	var reqErr *requestError
	var rangeErr *pagination.InvalidRangeError
	switch {
	case errors.As(err, &reqErr), errors.As(err, &rangeErr), errors.Is(err, client.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, client.ErrContextCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (h *handler) wrapJSONHandler(fn func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				h.logger.Error().
					Err(err).
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("path", r.URL.Path).
					Msg("Request failed")
			}
			h.writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		h.writeJSON(w, http.StatusOK, res)
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}
