package engine

import (
	"sync"
	"time"
)

// Settings is the mutable configuration record controlling engine cadence
// and aggressiveness. It is read by every simulation tick and mutated only
// through Controller.Apply.
type Settings struct {
	Speed                float64 `json:"speed"`
	VolatilityMultiplier float64 `json:"volatilityMultiplier"`
	UpdateIntervalMS     int     `json:"updateInterval"`
	AlwaysOpen           bool    `json:"alwaysOpen"`
	PriceTickSize        float64 `json:"priceTickSize"`
	MaxTickMultiplier    int     `json:"maxTickMultiplier"`
}

// DefaultSettings returns the startup configuration.
func DefaultSettings() Settings {
	return Settings{
		Speed:                1,
		VolatilityMultiplier: 1,
		UpdateIntervalMS:     2000,
		AlwaysOpen:           true,
		PriceTickSize:        0.05,
		MaxTickMultiplier:    2,
	}
}

// Interval returns the effective tick cadence: updateInterval scaled down by
// speed, floored at 500ms.
func (s Settings) Interval() time.Duration {
	iv := time.Duration(float64(s.UpdateIntervalMS)/s.Speed) * time.Millisecond
	if iv < 500*time.Millisecond {
		iv = 500 * time.Millisecond
	}
	return iv
}

// allowedTickSizes is the enumerated set of valid price tick sizes.
var allowedTickSizes = map[float64]bool{
	0.01: true,
	0.05: true,
	0.10: true,
	0.25: true,
	0.50: true,
	1.00: true,
}

// ValidTickSize reports whether v is in the allowed tick-size set.
func ValidTickSize(v float64) bool {
	return allowedTickSizes[v]
}

// Update carries a partial settings change. Nil fields are untouched;
// out-of-bound fields are silently ignored.
type Update struct {
	Speed                *float64 `json:"speed"`
	VolatilityMultiplier *float64 `json:"volatilityMultiplier"`
	UpdateIntervalMS     *int     `json:"updateInterval"`
	AlwaysOpen           *bool    `json:"alwaysOpen"`
	PriceTickSize        *float64 `json:"priceTickSize"`
	MaxTickMultiplier    *int     `json:"maxTickMultiplier"`
}

// Controller guards the settings singleton and signals the engine when an
// accepted change requires rescheduling.
type Controller struct {
	mu       sync.RWMutex
	settings Settings
	changed  chan struct{}
}

// NewController creates a controller seeded with the given settings.
func NewController(s Settings) *Controller {
	return &Controller{settings: s, changed: make(chan struct{}, 1)}
}

// Get returns a snapshot copy of the current settings.
func (c *Controller) Get() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Apply validates each provided field against its bounds and applies the
// valid ones. Invalid fields are dropped, not errors. If any field actually
// changed value, the engine is signaled to rebind its timer.
func (c *Controller) Apply(u Update) Settings {
	c.mu.Lock()
	changed := false

	if u.Speed != nil && *u.Speed > 0 && *u.Speed <= 10 && *u.Speed != c.settings.Speed {
		c.settings.Speed = *u.Speed
		changed = true
	}
	if u.VolatilityMultiplier != nil && *u.VolatilityMultiplier > 0 && *u.VolatilityMultiplier <= 5 &&
		*u.VolatilityMultiplier != c.settings.VolatilityMultiplier {
		c.settings.VolatilityMultiplier = *u.VolatilityMultiplier
		changed = true
	}
	if u.UpdateIntervalMS != nil && *u.UpdateIntervalMS >= 500 && *u.UpdateIntervalMS <= 10000 &&
		*u.UpdateIntervalMS != c.settings.UpdateIntervalMS {
		c.settings.UpdateIntervalMS = *u.UpdateIntervalMS
		changed = true
	}
	if u.AlwaysOpen != nil && *u.AlwaysOpen != c.settings.AlwaysOpen {
		c.settings.AlwaysOpen = *u.AlwaysOpen
		changed = true
	}
	if u.PriceTickSize != nil && allowedTickSizes[*u.PriceTickSize] &&
		*u.PriceTickSize != c.settings.PriceTickSize {
		c.settings.PriceTickSize = *u.PriceTickSize
		changed = true
	}
	if u.MaxTickMultiplier != nil && *u.MaxTickMultiplier >= 1 && *u.MaxTickMultiplier <= 10 &&
		*u.MaxTickMultiplier != c.settings.MaxTickMultiplier {
		c.settings.MaxTickMultiplier = *u.MaxTickMultiplier
		changed = true
	}

	out := c.settings
	c.mu.Unlock()

	if changed {
		c.signal()
	}
	return out
}

// Changed delivers a signal after each accepted settings change.
func (c *Controller) Changed() <-chan struct{} {
	return c.changed
}

func (c *Controller) signal() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}
