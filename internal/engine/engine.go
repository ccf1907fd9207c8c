package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/market"
	"github.com/marketmock/nsesim/internal/rng"
)

// Engine advances every symbol's quote on a recurring timer using
// tick-quantized random walks with sector-dependent volatility.
//
// All tick execution happens on the Run goroutine, so two ticks can never
// overlap, and a settings change rebinds the timer in the same select loop
// before the next tick fires.
type Engine struct {
	store  *market.Store
	ctrl   *Controller
	rnd    rng.Source
	log    *slog.Logger
	onTick func([]market.Quote)
}

// New creates an engine over the given store and settings controller.
func New(store *market.Store, ctrl *Controller, rnd rng.Source, log *slog.Logger) *Engine {
	return &Engine{store: store, ctrl: ctrl, rnd: rnd, log: log}
}

// OnTick registers a callback invoked with the quotes updated by each tick.
// Must be set before Run.
func (e *Engine) OnTick(fn func([]market.Quote)) {
	e.onTick = fn
}

// Run drives the tick loop until ctx is cancelled. Settings changes reset
// the ticker to the new cadence immediately.
func (e *Engine) Run(ctx context.Context) {
	interval := e.ctrl.Get().Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info("simulation engine started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			e.log.Info("simulation engine stopped")
			return
		case <-e.ctrl.Changed():
			interval = e.ctrl.Get().Interval()
			ticker.Reset(interval)
			e.log.Info("simulation engine rescheduled", "interval", interval.String())
		case <-ticker.C:
			updated := e.Tick(time.Now())
			if e.onTick != nil && len(updated) > 0 {
				e.onTick(updated)
			}
		}
	}
}

// Tick runs one update pass over every symbol in the store and returns the
// quotes that actually moved. When the market is closed the pass is a no-op.
func (e *Engine) Tick(now time.Time) []market.Quote {
	s := e.ctrl.Get()
	if !Status(s.AlwaysOpen, now).Open {
		return nil
	}

	var updated []market.Quote
	for _, q := range e.snapshot() {
		next, moved := e.tickQuote(s, q, now)
		if !moved {
			continue
		}
		e.store.Replace(next.Symbol, next)
		updated = append(updated, next)
	}
	return updated
}

func (e *Engine) snapshot() []market.Quote {
	stocks := e.store.Stocks()
	return append(stocks, e.store.Indices()...)
}

// tickQuote applies one tick-quantized random step to a snapshot of a quote.
// The second return is false when the symbol sat out this tick.
func (e *Engine) tickQuote(s Settings, q market.Quote, now time.Time) (market.Quote, bool) {
	vol := catalog.Volatility(catalog.Sector(q.Sector)) * s.Speed * s.VolatilityMultiplier

	numTicks := e.rnd.IntRange(1, s.MaxTickMultiplier)
	tickValue := s.PriceTickSize * float64(numTicks)

	// Illiquid periods: the higher the effective volatility, the more likely
	// the symbol moves at all.
	movementChance := 0.7 + vol*5
	if e.rnd.Float64() > movementChance {
		return q, false
	}

	delta := tickValue
	if e.rnd.FloatRange(-1, 1) < 0 {
		delta = -tickValue
	}

	// Floor at half the pre-update price so the walk can never collapse
	// through zero.
	q.Price = max(q.Price+delta, q.Price*0.5)
	q.High = max(q.High, q.Price)
	q.Low = min(q.Low, q.Price)
	q.Change = q.Price - q.PreviousClose
	q.ChangePercent = q.Change / q.PreviousClose * 100
	q.Volume += int64(e.rnd.IntRange(0, 50_000))
	q.RefreshDerived(e.rnd, now)
	return q, true
}
