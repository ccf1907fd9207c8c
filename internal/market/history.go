package market

import (
	"time"

	"github.com/marketmock/nsesim/internal/catalog"
	"github.com/marketmock/nsesim/internal/rng"
)

const candleDateLayout = "2006-01-02"

// Synthesize generates a randomized daily candle series anchored at a base
// price, walked forward over the last `days` days and skipping weekends.
// The series is chronologically ascending, newest last. The walk starts from
// a random offset of the base price and mean-reverts gently toward it.
func Synthesize(rnd rng.Source, basePrice float64, sector catalog.Sector, days int, now time.Time) []HistoryCandle {
	vol := catalog.Volatility(sector)
	current := basePrice * rnd.FloatRange(0.7, 1.1)

	candles := make([]HistoryCandle, 0, days)
	for i := days; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		trend := (basePrice - current) * 0.001
		delta := rnd.FloatRange(-1, 1)*(2*vol)*current + trend

		open := current
		// Floor at half the opening price so the walk can never collapse
		// through zero.
		close := max(current+delta, current*0.5)
		high := max(open, close) * (1 + rnd.FloatRange(0, 1)*vol)
		low := min(open, close) * (1 - rnd.FloatRange(0, 1)*vol)

		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		candles = append(candles, HistoryCandle{
			Date:      midnight.Format(candleDateLayout),
			Timestamp: midnight.UnixMilli(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    int64(rnd.IntRange(500_000, 10_500_000)),
		})

		current = close
	}
	return candles
}
