package tracing

import (
	"log"

	"github.com/sarchlab/randloop/sim/hooking"
	"github.com/sarchlab/randloop/stochastic"
)

// FireLogger is a hook that prints one line per scheduler fire.
type FireLogger struct {
	*log.Logger

	clock TimeConverter
}

// NewFireLogger creates a FireLogger that writes to logger. The clock
// converts fire ticks into seconds.
func NewFireLogger(logger *log.Logger, clock TimeConverter) *FireLogger {
	return &FireLogger{
		Logger: logger,
		clock:  clock,
	}
}

// Func prints fires and exhaustion.
func (h *FireLogger) Func(ctx hooking.HookCtx) {
	info, ok := ctx.Detail.(stochastic.FireInfo)
	if !ok {
		return
	}

	sec := seconds(h.clock, info.Time)

	switch ctx.Pos {
	case stochastic.HookPosAfterFire:
		if info.Scheduled {
			h.Printf("%.6f, %d, %s, fire, next in %.6f",
				sec, info.Time, info.Scheduler, info.NextDelay)
			return
		}

		h.Printf("%.6f, %d, %s, fire", sec, info.Time, info.Scheduler)
	case stochastic.HookPosExhausted:
		h.Printf("%.6f, %d, %s, exhausted", sec, info.Time, info.Scheduler)
	}
}
