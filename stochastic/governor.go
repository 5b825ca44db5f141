package stochastic

import "math"

// Unbounded is the iteration count of a loop that never runs out.
const Unbounded uint64 = math.MaxUint64

// Governor tracks how many more times a loop may fire.
type Governor struct {
	remaining uint64
}

// NewGovernor creates a Governor that allows n fires. Pass Unbounded for a
// loop without limit.
func NewGovernor(n uint64) Governor {
	return Governor{remaining: n}
}

// ShouldFire tells whether another fire is allowed.
func (g *Governor) ShouldFire() bool {
	return g.remaining == Unbounded || g.remaining > 0
}

// Consume reserves one fire. It never goes below zero.
func (g *Governor) Consume() {
	if g.remaining == Unbounded || g.remaining == 0 {
		return
	}

	g.remaining--
}

// Remaining returns the number of fires left, or Unbounded.
func (g *Governor) Remaining() uint64 {
	return g.remaining
}

// IsUnbounded tells whether the loop has no limit.
func (g *Governor) IsUnbounded() bool {
	return g.remaining == Unbounded
}

// Set replaces the number of fires left.
func (g *Governor) Set(n uint64) {
	g.remaining = n
}

// SetUnbounded removes the limit.
func (g *Governor) SetUnbounded() {
	g.remaining = Unbounded
}
