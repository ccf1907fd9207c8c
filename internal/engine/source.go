package engine

import (
	"context"
	"time"

	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/market"
)

// Source adapts the store and settings controller to the read surface the
// API serves in the simulation variant.
type Source struct {
	Store *market.Store
	Ctrl  *Controller
}

func (s *Source) Quotes(ctx context.Context) []market.Quote {
	return s.Store.Stocks()
}

func (s *Source) Indices(ctx context.Context) []market.Quote {
	return s.Store.Indices()
}

func (s *Source) Lookup(ctx context.Context, symbol string) (market.Quote, bool) {
	return s.Store.Get(catalog.Resolve(symbol))
}

func (s *Source) History(ctx context.Context, symbol string, days int) ([]market.HistoryCandle, bool) {
	return s.Store.History(catalog.Resolve(symbol), days, time.Now())
}

func (s *Source) Status(now time.Time) MarketStatus {
	return Status(s.Ctrl.Get().AlwaysOpen, now)
}
