package timing

import (
	"log"
	"reflect"

	"github.com/sarchlab/randloop/sim/hooking"
)

// EventLogger writes one line per dispatched event: the tick, the event type
// and, when the handler has a name, the handler it goes to.
type EventLogger struct {
	logger *log.Logger
}

// NewEventLogger creates an EventLogger writing to logger. Attach it to an
// engine with AcceptHook.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

type named interface {
	Name() string
}

// Func logs events as they are about to be handled.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	target := "-"
	if handler, ok := evt.Handler().(named); ok {
		target = handler.Name()
	}

	h.logger.Printf("tick %d: %s -> %s", evt.Time(), reflect.TypeOf(evt), target)
}
