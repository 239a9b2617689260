package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quotescraper/cache"
	"quotescraper/fetch"
	"quotescraper/finance"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// FieldResponse is the body of GET /quote/{symbol}/{field}
type FieldResponse struct {
	Symbol string        `json:"symbol"`
	Field  finance.Field `json:"field"`
	Value  any           `json:"value"`
	Error  string        `json:"error,omitempty"`
}

// Handler serves quotes over HTTP, memoizing responses in a cache store
type Handler struct {
	store cache.Store
	ttl   time.Duration
	opts  []Option
	log   zerolog.Logger
}

// NewHandler creates a handler. opts are applied to every Quote it builds.
func NewHandler(store cache.Store, ttl time.Duration, log zerolog.Logger, opts ...Option) *Handler {
	return &Handler{
		store: store,
		ttl:   ttl,
		opts:  opts,
		log:   log.With().Str("component", "handler").Logger(),
	}
}

// RegisterRoutes mounts the quote routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/quote/{symbol}", h.GetQuote).Methods(http.MethodGet)
	r.HandleFunc("/quote/{symbol}/{field}", h.GetField).Methods(http.MethodGet)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetQuote handles GET /quote/{symbol}; ?refresh=true bypasses the cache
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	summary, err := h.summary(r, symbol)
	if err != nil {
		h.writeFetchError(w, symbol, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// GetField handles GET /quote/{symbol}/{field}. The field is read from the
// memoized summary so a refresh of either route covers both.
func (h *Handler) GetField(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := strings.ToUpper(vars["symbol"])

	field, err := finance.ParseField(vars["field"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	summary, err := h.summary(r, symbol)
	if err != nil {
		h.writeFetchError(w, symbol, err)
		return
	}

	resp := FieldResponse{Symbol: summary.Symbol, Field: field}
	if v, ok := summary.Value(field); ok {
		resp.Value = v
	} else {
		resp.Error = summary.Errors[field]
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) summary(r *http.Request, symbol string) (finance.Summary, error) {
	cacheKey := fmt.Sprintf("quote:%s", symbol)
	return memoize(r.Context(), h, wantsRefresh(r), cacheKey, func() (finance.Summary, error) {
		q, err := New(r.Context(), symbol, h.opts...)
		if err != nil {
			return finance.Summary{}, err
		}
		return q.Summary(), nil
	})
}

func memoize[T any](ctx context.Context, h *Handler, refresh bool, key string, fn func() (T, error)) (T, error) {
	if refresh {
		return cache.Refresh(ctx, h.store, key, h.ttl, fn)
	}
	return cache.Memoize(ctx, h.store, key, h.ttl, fn)
}

func wantsRefresh(r *http.Request) bool {
	return r.URL.Query().Get("refresh") == "true"
}

func (h *Handler) writeFetchError(w http.ResponseWriter, symbol string, err error) {
	h.log.Error().Err(err).Str("symbol", symbol).Msg("quote request failed")

	status := http.StatusBadGateway
	if errors.Is(err, fetch.ErrUnknownSymbol) {
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}

// writeJSON encodes v before touching the response so an encoding failure
// still reaches the client as a 500
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
