package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/marketmock/nsesim/internal/engine"
	"github.com/marketmock/nsesim/internal/market"
	"github.com/marketmock/nsesim/internal/recorder"
	"github.com/marketmock/nsesim/internal/rng"
)

// QuoteSource is the read surface the API serves. The simulation variant
// backs it with the in-memory store; the live variant with an upstream
// quote provider behind a short-lived cache.
type QuoteSource interface {
	// Quotes returns a snapshot of all non-index quotes.
	Quotes(ctx context.Context) []market.Quote
	// Indices returns a snapshot of all index quotes.
	Indices(ctx context.Context) []market.Quote
	// Lookup resolves raw user input (bare symbols get the default market
	// suffix) and returns the matching quote.
	Lookup(ctx context.Context, symbol string) (market.Quote, bool)
	// History returns the candle series for a resolved symbol over the last
	// `days` days, with today's candle reflecting the live quote.
	History(ctx context.Context, symbol string, days int) ([]market.HistoryCandle, bool)
	// Status classifies the market state at `now`.
	Status(now time.Time) engine.MarketStatus
}

// Server provides the REST endpoints of the exchange simulator.
type Server struct {
	src       QuoteSource
	rnd       rng.Source
	log       *slog.Logger
	searchCap int
	startAt   time.Time

	// simulation variant only
	ctrl  *engine.Controller
	store *market.Store

	// optional collaborators
	ticks   recorder.TickReader
	clients func() int
}

// NewServer creates an API server over a quote source.
func NewServer(src QuoteSource, rnd rng.Source, log *slog.Logger) *Server {
	return &Server{
		src:       src,
		rnd:       rnd,
		log:       log,
		searchCap: 10,
		startAt:   time.Now(),
	}
}

// WithSimulation attaches the settings controller and store, enabling the
// /api/simulation endpoints.
func (s *Server) WithSimulation(ctrl *engine.Controller, store *market.Store) *Server {
	s.ctrl = ctrl
	s.store = store
	return s
}

// WithTickReader enables the recorded-tick query endpoint.
func (s *Server) WithTickReader(r recorder.TickReader) *Server {
	s.ticks = r
	return s
}

// WithClientCount wires a streaming client counter into the health endpoint.
func (s *Server) WithClientCount(fn func() int) *Server {
	s.clients = fn
	return s
}

// WithSearchCap overrides the maximum number of search results.
func (s *Server) WithSearchCap(n int) *Server {
	s.searchCap = n
	return s
}

// Register attaches API routes to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stocks", s.handleStocks)
	mux.HandleFunc("GET /api/indices", s.handleIndices)
	mux.HandleFunc("GET /api/stocks/{symbol}", s.handleStock)
	mux.HandleFunc("POST /api/stocks/batch", s.handleBatch)
	mux.HandleFunc("GET /api/stocks/{symbol}/history", s.handleHistory)
	mux.HandleFunc("GET /api/stocks/{symbol}/depth", s.handleDepth)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/market/gainers", s.handleGainers)
	mux.HandleFunc("GET /api/market/losers", s.handleLosers)
	mux.HandleFunc("GET /api/market/active", s.handleActive)
	mux.HandleFunc("GET /api/market/sectors", s.handleSectors)
	mux.HandleFunc("GET /api/market/overview", s.handleOverview)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	if s.ticks != nil {
		mux.HandleFunc("GET /api/stocks/{symbol}/ticks", s.handleTicks)
	}
	if s.ctrl != nil {
		mux.HandleFunc("GET /api/simulation/settings", s.handleGetSettings)
		mux.HandleFunc("PUT /api/simulation/settings", s.handlePutSettings)
		mux.HandleFunc("POST /api/simulation/reset", s.handleReset)
	}
}

// envelope is the response wrapper every endpoint uses.
type envelope map[string]any

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{"success": false, "error": msg})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseTimeParam parses an RFC3339 query parameter.
func parseTimeParam(r *http.Request, key string) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// RequestLogger assigns each request an ID and writes an access log line.
func RequestLogger(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		log.Info("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}
