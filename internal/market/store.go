package market

import (
	"sync"
	"time"

	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/rng"
)

// Store holds the process-wide quote and history state for every catalog
// symbol. The simulation engine is the sole writer; HTTP handlers read
// concurrently. Each quote is replaced as a whole record under the lock, so
// a reader sees either the pre-tick or the post-tick record, never a mix.
type Store struct {
	mu        sync.RWMutex
	quotes    map[string]Quote
	histories map[string][]HistoryCandle

	entries     []catalog.Entry
	bySymbol    map[string]catalog.Entry
	rnd         rng.Source
	historyDays int
}

// NewStore creates a store for the given catalog. Call Init before serving.
func NewStore(entries []catalog.Entry, rnd rng.Source, historyDays int) *Store {
	bySymbol := make(map[string]catalog.Entry, len(entries))
	for _, e := range entries {
		bySymbol[e.Symbol] = e
	}
	return &Store{
		quotes:      make(map[string]Quote, len(entries)),
		histories:   make(map[string][]HistoryCandle, len(entries)),
		entries:     entries,
		bySymbol:    bySymbol,
		rnd:         rnd,
		historyDays: historyDays,
	}
}

// Init seeds every catalog symbol with a randomized quote around its base
// price and synthesizes its historical candle series.
func (s *Store) Init(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		vol := catalog.Volatility(e.Sector)
		price := e.BasePrice + s.rnd.FloatRange(-1, 1)*vol*e.BasePrice
		open := e.BasePrice * (1 + s.rnd.FloatRange(-0.005, 0.005))

		q := Quote{
			Symbol:        e.Symbol,
			Name:          e.Name,
			Sector:        string(e.Sector),
			Price:         price,
			PreviousClose: e.BasePrice,
			Open:          open,
			High:          max(price, open) * (1 + s.rnd.FloatRange(0, 0.005)),
			Low:           min(price, open) * (1 - s.rnd.FloatRange(0, 0.005)),
			Volume:        int64(s.rnd.IntRange(1_000_000, 10_999_999)),
			Change:        price - e.BasePrice,
			ChangePercent: (price - e.BasePrice) / e.BasePrice * 100,
		}
		q.RefreshDerived(s.rnd, now)

		s.quotes[e.Symbol] = q
		s.histories[e.Symbol] = Synthesize(s.rnd, e.BasePrice, e.Sector, s.historyDays, now)
	}
}

// Reset discards all simulated state and reseeds from the catalog,
// equivalent to a process restart of the simulation.
func (s *Store) Reset(now time.Time) {
	s.Init(now)
}

// Get returns the quote for an exact catalog symbol.
func (s *Store) Get(symbol string) (Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[symbol]
	return q, ok
}

// Replace swaps in a new quote record for a symbol wholesale.
// Unknown symbols are ignored.
func (s *Store) Replace(symbol string, q Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[symbol]; !ok {
		return
	}
	s.quotes[symbol] = q
}

// Entry returns the catalog entry backing a symbol.
func (s *Store) Entry(symbol string) (catalog.Entry, bool) {
	e, ok := s.bySymbol[symbol]
	return e, ok
}

// Stocks returns a snapshot of all non-index quotes in catalog order.
func (s *Store) Stocks() []Quote {
	return s.snapshot(false)
}

// Indices returns a snapshot of all index quotes in catalog order.
func (s *Store) Indices() []Quote {
	return s.snapshot(true)
}

func (s *Store) snapshot(indices bool) []Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Quote, 0, len(s.entries))
	for _, e := range s.entries {
		if e.IsIndex() != indices {
			continue
		}
		if q, ok := s.quotes[e.Symbol]; ok {
			out = append(out, q)
		}
	}
	return out
}

// History returns the candle series for a symbol filtered to the last `days`
// days, with the live quote overlaid onto today's candle. The overlay is a
// read-side view: the stored series is never mutated.
func (s *Store) History(symbol string, days int, now time.Time) ([]HistoryCandle, bool) {
	s.mu.RLock()
	stored, ok := s.histories[symbol]
	q, qok := s.quotes[symbol]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	cutoff := now.UnixMilli() - int64(days)*86_400_000
	candles := make([]HistoryCandle, 0, len(stored))
	for _, c := range stored {
		if c.Timestamp >= cutoff {
			candles = append(candles, c)
		}
	}
	if !qok {
		return candles, true
	}

	today := now.Format(candleDateLayout)
	if n := len(candles); n > 0 && candles[n-1].Date == today {
		last := &candles[n-1]
		last.Close = q.Price
		last.High = max(last.High, q.High)
		last.Low = min(last.Low, q.Low)
		last.Volume = q.Volume
	} else {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		candles = append(candles, HistoryCandle{
			Date:      today,
			Timestamp: midnight.UnixMilli(),
			Open:      q.Open,
			High:      q.High,
			Low:       q.Low,
			Close:     q.Price,
			Volume:    q.Volume,
		})
	}
	return candles, true
}
