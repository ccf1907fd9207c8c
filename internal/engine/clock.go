package engine

import "time"

// MarketStatus classifies whether trading is live at a wall-clock instant.
type MarketStatus struct {
	Open    bool   `json:"open"`
	Session string `json:"session,omitempty"`
	Reason  string `json:"reason"`
}

// NSE session boundaries, minutes from midnight IST.
const (
	preMarketStart = 9 * 60
	regularStart   = 9*60 + 15
	regularEnd     = 15*60 + 30
	postMarketEnd  = 16 * 60
)

var istZone = time.FixedZone("IST", 5*3600+30*60)

// Status classifies the market state at `now`. With alwaysOpen set the
// market is open unconditionally, tagged as simulated. Otherwise the Indian
// trading calendar applies: closed on weekends, pre-market 9:00-9:15 IST,
// regular session 9:15-15:30, post-market 15:30-16:00.
func Status(alwaysOpen bool, now time.Time) MarketStatus {
	if alwaysOpen {
		return MarketStatus{Open: true, Session: "simulated", Reason: "simulation always-open"}
	}

	ist := now.In(istZone)
	if wd := ist.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return MarketStatus{Open: false, Reason: "weekend"}
	}

	mins := ist.Hour()*60 + ist.Minute()
	switch {
	case mins < preMarketStart:
		return MarketStatus{Open: false, Reason: "before market hours"}
	case mins < regularStart:
		return MarketStatus{Open: true, Session: "pre-market", Reason: "pre-market session"}
	case mins < regularEnd:
		return MarketStatus{Open: true, Session: "regular", Reason: "regular trading session"}
	case mins < postMarketEnd:
		return MarketStatus{Open: true, Session: "post-market", Reason: "post-market session"}
	default:
		return MarketStatus{Open: false, Reason: "after market hours"}
	}
}
