package types

// Tick is a point on the engine's monotonic logical clock. Deadlines
// (session start windows, permit expiries, stall windows) are expressed as
// Tick comparisons, never as blocking waits. The hosting environment decides
// what one tick means (a block height, a second, an injected counter); the
// engine only requires that ticks never move backwards.
type Tick uint64

// Before reports whether t is strictly earlier than other.
func (t Tick) Before(other Tick) bool { return t < other }

// After reports whether t is strictly later than other.
func (t Tick) After(other Tick) bool { return t > other }

// Add advances the tick by d, saturating at the maximum representable value.
// Deadline arithmetic saturates rather than wrapping: a deadline past the end
// of the clock simply never passes.
func (t Tick) Add(d uint64) Tick {
	if uint64(t) > ^uint64(0)-d {
		return Tick(^uint64(0))
	}
	return t + Tick(d)
}
