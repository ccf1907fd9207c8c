package recorder

import (
	"context"
	"log/slog"
	"time"

	"github.com/marketmock/nsesim/internal/market"
)

// Tick is one journaled price update for one symbol.
type Tick struct {
	Symbol        string    `bson:"symbol"         json:"symbol"`
	Price         float64   `bson:"price"          json:"price"`
	Change        float64   `bson:"change"         json:"change"`
	ChangePercent float64   `bson:"change_percent" json:"changePercent"`
	Volume        int64     `bson:"volume"         json:"volume"`
	RecordedAt    time.Time `bson:"recorded_at"    json:"recordedAt"`
}

const (
	flushInterval = time.Second
	maxBatch      = 256
)

// Recorder journals applied ticks to MongoDB through a buffered channel so
// the engine never blocks on the database. Ticks are dropped when the buffer
// fills. The journal is write-only from the simulation's point of view; it
// is never read back to seed state.
type Recorder struct {
	store *Store
	log   *slog.Logger
	ch    chan Tick
}

// New creates a recorder over the given store.
func New(store *Store, log *slog.Logger) *Recorder {
	return &Recorder{
		store: store,
		log:   log,
		ch:    make(chan Tick, 4096),
	}
}

// Record enqueues the updated quotes for journaling. Non-blocking: entries
// are dropped rather than stalling the tick loop.
func (r *Recorder) Record(quotes []market.Quote) {
	for _, q := range quotes {
		t := Tick{
			Symbol:        q.Symbol,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangePercent,
			Volume:        q.Volume,
			RecordedAt:    q.LastUpdated,
		}
		select {
		case r.ch <- t:
		default:
			// buffer full, tick dropped
		}
	}
}

// Run drains the channel and writes batches until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Tick, 0, maxBatch)
	for {
		select {
		case <-ctx.Done():
			r.flush(batch)
			return
		case t := <-r.ch:
			batch = append(batch, t)
			if len(batch) >= maxBatch {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (r *Recorder) flush(batch []Tick) {
	if len(batch) == 0 {
		return
	}
	docs := make([]any, len(batch))
	for i, t := range batch {
		docs[i] = t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := r.store.DB().Collection("ticks").InsertMany(ctx, docs); err != nil {
		r.log.Warn("tick journal write failed", "count", len(batch), "error", err)
	}
}
