package escrow

import (
	"sync"
	"time"

	"github.com/xraph/escrow/types"
)

// Clock supplies the logical tick the engine timestamps deadlines with. The
// engine reads it once per operation, so every comparison inside an operation
// sees the same instant. Implementations must be monotonic.
type Clock interface {
	Now() types.Tick
}

// TickClock is the default clock: one tick per wall-clock second since the
// Unix epoch.
type TickClock struct{}

func (TickClock) Now() types.Tick {
	return types.Tick(time.Now().Unix())
}

// ManualClock is a controllable clock for tests and deterministic hosts.
type ManualClock struct {
	mu   sync.Mutex
	tick types.Tick
}

// NewManualClock returns a ManualClock starting at the given tick.
func NewManualClock(start types.Tick) *ManualClock {
	return &ManualClock{tick: start}
}

func (c *ManualClock) Now() types.Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Advance moves the clock forward by d ticks.
func (c *ManualClock) Advance(d uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = c.tick.Add(d)
}

// Set jumps the clock to t. Setting the clock backwards is the caller's
// mistake; the engine assumes ticks never decrease.
func (c *ManualClock) Set(t types.Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = t
}
