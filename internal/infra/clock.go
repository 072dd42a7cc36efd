package infra

import (
	"sync"
	"time"

	"econ_go/pkg/quant"
)

// Clock is the time source for order expiry and the sweep cadence.
// It is injected rather than read from time.Now so the expiry policy stays
// decoupled from simulation time-scaling: the exchange always advances at
// whatever pace the wired clock advances.
type Clock interface {
	Now() quant.TimeStamp
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() quant.TimeStamp {
	return quant.TS(time.Now())
}

// ManualClock is a test clock advanced explicitly.
type ManualClock struct {
	mu  sync.Mutex
	now quant.TimeStamp
}

// NewManualClock starts a manual clock at the given instant.
func NewManualClock(start quant.TimeStamp) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() quant.TimeStamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += quant.DurationTS(d)
}

// Set jumps the clock to an absolute instant.
func (c *ManualClock) Set(ts quant.TimeStamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = ts
}
