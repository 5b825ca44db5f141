package tracing

import (
	"github.com/sarchlab/randloop/datarecording"
	"github.com/sarchlab/randloop/sim/hooking"
	"github.com/sarchlab/randloop/stochastic"
)

// FireEntry is a row of the fire table.
type FireEntry struct {
	Scheduler string
	Event     string
	Tick      uint64
	Seconds   float64
	Muted     bool
	NextDelay float64

	// Remaining is -1 for schedulers without an iteration limit.
	Remaining int64
}

// The values of FireEntry.Event.
const (
	EventFire      = "fire"
	EventExhausted = "exhausted"
)

// FireRecorder is a hook that writes scheduler fires into a DataRecorder.
type FireRecorder struct {
	backend   datarecording.DataRecorder
	clock     TimeConverter
	tableName string
}

// NewFireRecorder creates a FireRecorder and the table it writes to.
func NewFireRecorder(
	backend datarecording.DataRecorder,
	clock TimeConverter,
	tableName string,
) *FireRecorder {
	if tableName == "" {
		tableName = "fires"
	}

	backend.CreateTable(tableName, FireEntry{})

	return &FireRecorder{
		backend:   backend,
		clock:     clock,
		tableName: tableName,
	}
}

// TableName returns the table the recorder writes to.
func (r *FireRecorder) TableName() string {
	return r.tableName
}

// Func records fires and exhaustion.
func (r *FireRecorder) Func(ctx hooking.HookCtx) {
	info, ok := ctx.Detail.(stochastic.FireInfo)
	if !ok {
		return
	}

	var event string
	switch ctx.Pos {
	case stochastic.HookPosAfterFire:
		event = EventFire
	case stochastic.HookPosExhausted:
		event = EventExhausted
	default:
		return
	}

	remaining := int64(-1)
	if info.Remaining != stochastic.Unbounded {
		remaining = int64(info.Remaining)
	}

	r.backend.InsertData(r.tableName, FireEntry{
		Scheduler: info.Scheduler,
		Event:     event,
		Tick:      uint64(info.Time),
		Seconds:   seconds(r.clock, info.Time),
		Muted:     info.Muted,
		NextDelay: info.NextDelay,
		Remaining: remaining,
	})
}

// Flush writes the buffered rows.
func (r *FireRecorder) Flush() {
	r.backend.Flush()
}
