package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/engine"
	"github.com/marketmock/nsesim/internal/market"
)

// Source serves quotes proxied from an upstream provider with short-lived
// caching. The in-memory store doubles as the cache: each refresh merges
// upstream values into it, and when the upstream is unreachable the last
// merged values keep being served. History stays synthetic, anchored at the
// last known price via the store's read-side overlay.
type Source struct {
	store  *market.Store
	client *Client
	log    *slog.Logger

	symbols []string
	ttl     time.Duration

	mu        sync.Mutex
	lastFetch time.Time
	fetched   map[string]bool
}

// NewSource creates a live quote source over an initialized store.
func NewSource(store *market.Store, client *Client, entries []catalog.Entry, ttl time.Duration, log *slog.Logger) *Source {
	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}
	return &Source{
		store:   store,
		client:  client,
		log:     log,
		symbols: symbols,
		ttl:     ttl,
		fetched: make(map[string]bool, len(entries)),
	}
}

// refresh fetches upstream quotes at most once per TTL window and merges
// them into the store. Failures leave the cached state untouched.
func (s *Source) refresh(ctx context.Context) {
	s.mu.Lock()
	if time.Since(s.lastFetch) < s.ttl {
		s.mu.Unlock()
		return
	}
	s.lastFetch = time.Now()
	s.mu.Unlock()

	quotes, err := s.client.FetchQuotes(ctx, s.symbols)
	if err != nil {
		s.log.Warn("upstream fetch failed, serving cached quotes", "error", err)
		return
	}

	now := time.Now()
	for sym, uq := range quotes {
		cur, ok := s.store.Get(sym)
		if !ok {
			continue
		}
		s.store.Replace(sym, merge(cur, uq, now))
		s.mu.Lock()
		s.fetched[sym] = true
		s.mu.Unlock()
	}
}

// merge overlays upstream fields onto the current quote, keeping catalog
// metadata and skipping fields the provider omitted.
func merge(cur market.Quote, uq upstreamQuote, now time.Time) market.Quote {
	cur.Price = uq.RegularMarketPrice
	if uq.RegularMarketPreviousClose > 0 {
		cur.PreviousClose = uq.RegularMarketPreviousClose
	}
	if uq.RegularMarketOpen > 0 {
		cur.Open = uq.RegularMarketOpen
	}
	if uq.RegularMarketDayHigh > 0 {
		cur.High = uq.RegularMarketDayHigh
	}
	if uq.RegularMarketDayLow > 0 {
		cur.Low = uq.RegularMarketDayLow
	}
	if uq.RegularMarketVolume > 0 {
		cur.Volume = uq.RegularMarketVolume
	}
	if uq.Bid > 0 {
		cur.Bid = uq.Bid
	} else {
		cur.Bid = cur.Price * 0.9995
	}
	if uq.Ask > 0 {
		cur.Ask = uq.Ask
	} else {
		cur.Ask = cur.Price * 1.0005
	}
	if uq.BidSize > 0 {
		cur.BidSize = uq.BidSize
	}
	if uq.AskSize > 0 {
		cur.AskSize = uq.AskSize
	}
	cur.Change = cur.Price - cur.PreviousClose
	if cur.PreviousClose != 0 {
		cur.ChangePercent = cur.Change / cur.PreviousClose * 100
	}
	cur.LastUpdated = now
	return cur
}

func (s *Source) isFetched(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetched[symbol]
}

func (s *Source) filterFetched(quotes []market.Quote) []market.Quote {
	out := quotes[:0]
	for _, q := range quotes {
		if s.isFetched(q.Symbol) {
			out = append(out, q)
		}
	}
	return out
}

// Quotes returns all non-index quotes that have been seen upstream.
func (s *Source) Quotes(ctx context.Context) []market.Quote {
	s.refresh(ctx)
	return s.filterFetched(s.store.Stocks())
}

// Indices returns all index quotes that have been seen upstream.
func (s *Source) Indices(ctx context.Context) []market.Quote {
	s.refresh(ctx)
	return s.filterFetched(s.store.Indices())
}

// Lookup resolves and returns a single quote. Symbols never seen upstream
// are reported as absent.
func (s *Source) Lookup(ctx context.Context, symbol string) (market.Quote, bool) {
	s.refresh(ctx)
	resolved := catalog.Resolve(symbol)
	if !s.isFetched(resolved) {
		return market.Quote{}, false
	}
	return s.store.Get(resolved)
}

// History returns the synthetic candle series anchored at the last known
// live price.
func (s *Source) History(ctx context.Context, symbol string, days int) ([]market.HistoryCandle, bool) {
	s.refresh(ctx)
	return s.store.History(catalog.Resolve(symbol), days, time.Now())
}

// Status classifies the real market calendar; the live variant has no
// always-open override.
func (s *Source) Status(now time.Time) engine.MarketStatus {
	return engine.Status(false, now)
}
