// Package tracing provides hooks that observe the fires of stochastic
// schedulers, either by logging them or by recording them into a
// datarecording.DataRecorder.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/randloop/sim/hooking"
	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/timeunit"
)

// NamedHookable is a hookable object with a name, like a stochastic
// Scheduler.
type NamedHookable interface {
	hooking.Hookable
	Name() string
}

// TimeConverter provides the conversion settings used to turn ticks into
// seconds.
type TimeConverter interface {
	Converter() timeunit.Converter
}

// Attach adds hook to domain. Attaching the same hook twice panics.
func Attach(domain NamedHookable, hook hooking.Hook) {
	comparable := reflect.TypeOf(hook).Comparable()

	for _, h := range domain.Hooks() {
		if comparable && reflect.TypeOf(h) == reflect.TypeOf(hook) && h == hook {
			panic(fmt.Sprintf(
				"domain %s already has hook %s",
				domain.Name(), reflect.TypeOf(hook)))
		}
	}

	domain.AcceptHook(hook)
}

func seconds(c TimeConverter, tick timing.VTimeInTick) float64 {
	if c == nil {
		return 0
	}

	return c.Converter().TicksToSeconds(tick)
}
