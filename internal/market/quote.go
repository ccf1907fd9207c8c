package market

import (
	"time"

	"github.com/marketmock/nsesim/internal/rng"
)

// spreadFactor is the bid/ask offset fraction applied to the current price.
const spreadFactor = 0.0005

// Quote is the current tradable-price snapshot for one symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Sector        string    `json:"sector"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previousClose"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Volume        int64     `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Bid           float64   `json:"bid"`
	Ask           float64   `json:"ask"`
	BidSize       int       `json:"bidSize"`
	AskSize       int       `json:"askSize"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// RefreshDerived recomputes the spread-derived and display fields
// from the current price.
func (q *Quote) RefreshDerived(rnd rng.Source, now time.Time) {
	q.Bid = q.Price * (1 - spreadFactor)
	q.Ask = q.Price * (1 + spreadFactor)
	q.BidSize = rnd.IntRange(100, 1099)
	q.AskSize = rnd.IntRange(100, 1099)
	q.LastUpdated = now
}

// HistoryCandle is one day's OHLCV bar in a historical series.
type HistoryCandle struct {
	Date      string  `json:"date"`
	Timestamp int64   `json:"timestamp"` // unix millis at midnight UTC
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}
