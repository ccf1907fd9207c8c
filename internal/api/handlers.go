package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/market"
	"github.com/marketmock/nsesim/internal/recorder"
)

// rangeDays maps history range keywords to day counts.
var rangeDays = map[string]int{
	"1d":  1,
	"5d":  5,
	"1mo": 30,
	"3mo": 90,
	"6mo": 180,
	"1y":  365,
}

// handleStocks returns all non-index quotes.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	quotes := s.src.Quotes(r.Context())
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": quotes, "count": len(quotes)})
}

// handleIndices returns the index quotes.
func (s *Server) handleIndices(w http.ResponseWriter, r *http.Request) {
	indices := s.src.Indices(r.Context())
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": indices})
}

// handleStock returns a single quote, resolving bare symbols against the
// default market suffix.
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	q, ok := s.src.Lookup(r.Context(), r.PathValue("symbol"))
	if !ok {
		writeError(w, http.StatusNotFound, "Stock not found")
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": q})
}

// handleBatch resolves a list of symbols, dropping the unknown ones.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbols == nil {
		writeError(w, http.StatusBadRequest, "symbols must be an array")
		return
	}

	quotes := make([]market.Quote, 0, len(req.Symbols))
	for _, sym := range req.Symbols {
		if q, ok := s.src.Lookup(r.Context(), sym); ok {
			quotes = append(quotes, q)
		}
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": quotes, "count": len(quotes)})
}

// handleHistory returns the candle series for a symbol over a named range.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rangeKey := r.URL.Query().Get("range")
	if rangeKey == "" {
		rangeKey = "1mo"
	}
	days, ok := rangeDays[rangeKey]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid range: "+rangeKey)
		return
	}

	candles, ok := s.src.History(r.Context(), r.PathValue("symbol"), days)
	if !ok {
		writeError(w, http.StatusNotFound, "Stock not found")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"data":    candles,
		"count":   len(candles),
		"range":   rangeKey,
	})
}

type depthLevel struct {
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Orders   int     `json:"orders"`
}

// handleDepth returns a 5-level synthetic order book around the current
// price. Levels step out by 0.05% per level on each side.
func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	q, ok := s.src.Lookup(r.Context(), r.PathValue("symbol"))
	if !ok {
		writeError(w, http.StatusNotFound, "Stock not found")
		return
	}

	bids := make([]depthLevel, 0, 5)
	asks := make([]depthLevel, 0, 5)
	for level := 1; level <= 5; level++ {
		offset := 0.0005 * float64(level)
		bids = append(bids, depthLevel{
			Price:    q.Price * (1 - offset),
			Quantity: s.rnd.IntRange(100, 5100),
			Orders:   s.rnd.IntRange(1, 25),
		})
		asks = append(asks, depthLevel{
			Price:    q.Price * (1 + offset),
			Quantity: s.rnd.IntRange(100, 5100),
			Orders:   s.rnd.IntRange(1, 25),
		})
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"data": envelope{
			"symbol":    q.Symbol,
			"bids":      bids,
			"asks":      asks,
			"timestamp": time.Now().UnixMilli(),
		},
	})
}

// handleSearch matches the query case-insensitively against symbol, name
// and sector across stocks and indices.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	needle := strings.ToLower(query)

	all := append(s.src.Quotes(r.Context()), s.src.Indices(r.Context())...)
	matches := make([]market.Quote, 0, s.searchCap)
	for _, q := range all {
		if len(matches) >= s.searchCap {
			break
		}
		if strings.Contains(strings.ToLower(q.Symbol), needle) ||
			strings.Contains(strings.ToLower(q.Name), needle) ||
			strings.Contains(strings.ToLower(q.Sector), needle) {
			matches = append(matches, q)
		}
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": matches, "count": len(matches)})
}

// topQuotes returns up to n stocks ordered by the given less function.
func (s *Server) topQuotes(ctx context.Context, n int, less func(a, b market.Quote) bool) []market.Quote {
	quotes := s.src.Quotes(ctx)
	sort.SliceStable(quotes, func(i, j int) bool { return less(quotes[i], quotes[j]) })
	if len(quotes) > n {
		quotes = quotes[:n]
	}
	return quotes
}

func (s *Server) handleGainers(w http.ResponseWriter, r *http.Request) {
	top := s.topQuotes(r.Context(), 10, func(a, b market.Quote) bool {
		return a.ChangePercent > b.ChangePercent
	})
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": top})
}

func (s *Server) handleLosers(w http.ResponseWriter, r *http.Request) {
	top := s.topQuotes(r.Context(), 10, func(a, b market.Quote) bool {
		return a.ChangePercent < b.ChangePercent
	})
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": top})
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	top := s.topQuotes(r.Context(), 10, func(a, b market.Quote) bool {
		return a.Volume > b.Volume
	})
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": top})
}

type sectorSummary struct {
	Sector           string  `json:"sector"`
	AvgChangePercent float64 `json:"avgChangePercent"`
	Count            int     `json:"count"`
	TopSymbol        string  `json:"topSymbol"`
}

// handleSectors aggregates per-sector breadth: average change percent,
// constituent count, and the best performer.
func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	byName := make(map[string]*sectorSummary)
	topChange := make(map[string]float64)

	for _, q := range s.src.Quotes(r.Context()) {
		sum, ok := byName[q.Sector]
		if !ok {
			sum = &sectorSummary{Sector: q.Sector}
			byName[q.Sector] = sum
			topChange[q.Sector] = q.ChangePercent
			sum.TopSymbol = q.Symbol
		}
		sum.AvgChangePercent += q.ChangePercent
		sum.Count++
		if q.ChangePercent > topChange[q.Sector] {
			topChange[q.Sector] = q.ChangePercent
			sum.TopSymbol = q.Symbol
		}
	}

	out := make([]sectorSummary, 0, len(byName))
	for _, sum := range byName {
		sum.AvgChangePercent /= float64(sum.Count)
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sector < out[j].Sector })

	writeJSON(w, http.StatusOK, envelope{"success": true, "data": out})
}

// handleOverview returns indices, breadth counts, total volume, and the
// best and worst performers.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	quotes := s.src.Quotes(r.Context())

	var advances, declines, unchanged int
	var totalVolume int64
	var topGainer, topLoser *market.Quote
	for i := range quotes {
		q := &quotes[i]
		switch {
		case q.Change > 0:
			advances++
		case q.Change < 0:
			declines++
		default:
			unchanged++
		}
		totalVolume += q.Volume
		if topGainer == nil || q.ChangePercent > topGainer.ChangePercent {
			topGainer = q
		}
		if topLoser == nil || q.ChangePercent < topLoser.ChangePercent {
			topLoser = q
		}
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"data": envelope{
			"indices":      s.src.Indices(r.Context()),
			"advances":     advances,
			"declines":     declines,
			"unchanged":    unchanged,
			"totalVolume":  totalVolume,
			"topGainer":    topGainer,
			"topLoser":     topLoser,
			"marketStatus": s.src.Status(time.Now()),
		},
	})
}

// handleTicks returns recorded ticks for a symbol from the journal.
func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	q, ok := s.src.Lookup(r.Context(), r.PathValue("symbol"))
	if !ok {
		writeError(w, http.StatusNotFound, "Stock not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ticks, err := s.ticks.QueryTicks(ctx, recorder.TickFilter{
		Symbol: q.Symbol,
		Limit:  parseIntParam(r, "limit", 100),
		Offset: parseIntParam(r, "offset", 0),
		From:   parseTimeParam(r, "from"),
		To:     parseTimeParam(r, "to"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": ticks, "count": len(ticks)})
}

// handleHealth reports liveness plus symbol count and market status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := envelope{
		"status":       "ok",
		"uptime":       time.Since(s.startAt).Truncate(time.Second).String(),
		"symbols":      len(catalog.All()),
		"marketStatus": s.src.Status(time.Now()),
	}
	if s.clients != nil {
		health["clients"] = s.clients()
	}
	writeJSON(w, http.StatusOK, health)
}
