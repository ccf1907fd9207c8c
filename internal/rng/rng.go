package rng

import (
	"sync"
	"time"
)

// Source is the randomness seam used by the simulation. Tests substitute
// fixed-outcome implementations to force specific walks.
type Source interface {
	// Float64 returns a uniformly distributed float64 in [0, 1).
	Float64() float64
	// FloatRange returns a uniformly distributed float64 in [min, max).
	FloatRange(min, max float64) float64
	// IntRange returns a uniformly distributed int in [min, max].
	IntRange(min, max int) int
}

// PCG is a seedable pseudo-random generator using PCG-XSH-RR.
// It is safe for concurrent use.
type PCG struct {
	mu    sync.Mutex
	state uint64
	inc   uint64
}

// New creates a new PRNG with the given seed. If seed is 0, uses current time.
func New(seed int64) *PCG {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &PCG{}
	// PCG requires odd increment
	r.inc = uint64(seed)<<1 | 1
	r.state = 0
	r.step()
	r.state += uint64(seed)
	r.step()
	return r
}

func (r *PCG) step() {
	r.state = r.state*6364136223846793005 + r.inc
}

// Uint32 returns a uniformly distributed uint32.
func (r *PCG) Uint32() uint32 {
	r.mu.Lock()
	old := r.state
	r.step()
	r.mu.Unlock()

	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return (xorshifted >> rot) | (xorshifted << ((-rot) & 31))
}

// Float64 returns a uniformly distributed float64 in [0, 1).
func (r *PCG) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}

// FloatRange returns a uniformly distributed float64 in [min, max).
func (r *PCG) FloatRange(min, max float64) float64 {
	if min >= max {
		return min
	}
	return min + r.Float64()*(max-min)
}

// Intn returns a uniformly distributed int in [0, n).
func (r *PCG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint32() % uint32(n))
}

// IntRange returns a uniformly distributed int in [min, max].
func (r *PCG) IntRange(min, max int) int {
	if min >= max {
		return min
	}
	return min + r.Intn(max-min+1)
}
