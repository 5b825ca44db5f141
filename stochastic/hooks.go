package stochastic

import (
	"github.com/sarchlab/randloop/sim/hooking"
	"github.com/sarchlab/randloop/sim/timing"
)

// HookPosBeforeFire is triggered after an iteration is reserved and before the
// callback runs.
var HookPosBeforeFire = &hooking.HookPos{Name: "BeforeFire"}

// HookPosAfterFire is triggered after the callback runs and the next tick is
// scheduled.
var HookPosAfterFire = &hooking.HookPos{Name: "AfterFire"}

// HookPosExhausted is triggered when the iteration budget runs out and the
// scheduler stops itself.
var HookPosExhausted = &hooking.HookPos{Name: "Exhausted"}

// FireInfo is the Detail of the scheduler hooks.
type FireInfo struct {
	Scheduler string
	Time      timing.VTimeInTick
	Remaining uint64
	Muted     bool

	// NextDelay is the sampled delay in seconds until the next tick. It is
	// only set at HookPosAfterFire, and only when a next tick was scheduled.
	NextDelay float64
	Scheduled bool
}
