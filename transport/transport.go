// Package transport provides the musical transport clock: a tick-based
// timeline that callbacks can be scheduled on.
package transport

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sarchlab/randloop/sim/id"
	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/timeline"
	"github.com/sarchlab/randloop/timeunit"
)

// Callback is invoked by the transport at the tick it was scheduled for. A
// returned error stops the transport run that dispatched it.
type Callback func(now timing.VTimeInTick) error

// Handle identifies a scheduled callback.
type Handle string

var (
	// ErrPastTime is returned when an absolute time earlier than the current
	// tick is scheduled.
	ErrPastTime = errors.New("transport: time is in the past")

	// ErrNotRunning is returned when the transport is advanced while it is
	// stopped or paused.
	ErrNotRunning = errors.New("transport: transport is not started")
)

type callbackEvent struct {
	*timing.EventBase
	handle   Handle
	callback Callback
}

// Transport is the shared clock. Callbacks run on the engine one after
// another, in tick order, and in scheduling order within the same tick.
type Transport struct {
	name   string
	engine timing.Engine
	ids    id.IDGenerator

	lock      sync.Mutex
	converter timeunit.Converter
	pending   map[Handle]*callbackEvent
	state     *timeline.StateTimeline
}

// Name returns the name of the transport.
func (t *Transport) Name() string {
	return t.name
}

// Engine returns the engine that dispatches the transport's callbacks.
func (t *Transport) Engine() timing.Engine {
	return t.engine
}

// Now returns the current tick.
func (t *Transport) Now() timing.VTimeInTick {
	return t.engine.CurrentTime()
}

// Seconds returns the current time in seconds.
func (t *Transport) Seconds() float64 {
	return t.Converter().TicksToSeconds(t.Now())
}

// Converter returns the time conversion settings currently in effect.
func (t *Transport) Converter() timeunit.Converter {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.converter
}

// SetBPM changes the tempo. Callbacks that are already scheduled keep their
// tick positions.
func (t *Transport) SetBPM(bpm float64) error {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return fmt.Errorf("transport: invalid bpm %v", bpm)
	}

	t.lock.Lock()
	t.converter.BPM = bpm
	t.lock.Unlock()

	return nil
}

// ToTicks returns the tick length of a time, ignoring any relative prefix.
func (t *Transport) ToTicks(at timeunit.Time) (timing.VTimeInTick, error) {
	return t.Converter().ToTicks(at)
}

// ToSeconds returns the length of a time in seconds.
func (t *Transport) ToSeconds(at timeunit.Time) (float64, error) {
	return t.Converter().ToSeconds(at)
}

// Resolve turns a time into an absolute tick. Relative times are offsets from
// now; a positive offset always lands at least one tick after now.
func (t *Transport) Resolve(at timeunit.Time) (timing.VTimeInTick, error) {
	expr, err := timeunit.Parse(at)
	if err != nil {
		return 0, err
	}

	now := t.Now()
	ticks := t.Converter().ExprTicks(expr)

	if !expr.Relative {
		abs := timing.VTimeInTick(math.Round(ticks))
		if abs < now {
			return 0, fmt.Errorf("%w: %q resolves to tick %d, now %d",
				ErrPastTime, string(at), abs, now)
		}

		return abs, nil
	}

	if ticks == 0 {
		return now, nil
	}

	offset := timing.VTimeInTick(math.Round(ticks))
	if offset == 0 {
		offset = 1
	}

	return now + offset, nil
}

// Schedule arranges for cb to be called at the given time.
func (t *Transport) Schedule(cb Callback, at timeunit.Time) (Handle, error) {
	tick, err := t.Resolve(at)
	if err != nil {
		return "", err
	}

	return t.ScheduleAt(cb, tick)
}

// ScheduleAt arranges for cb to be called at an absolute tick.
func (t *Transport) ScheduleAt(
	cb Callback,
	tick timing.VTimeInTick,
) (Handle, error) {
	now := t.Now()
	if tick < now {
		return "", fmt.Errorf("%w: tick %d, now %d", ErrPastTime, tick, now)
	}

	evt := &callbackEvent{
		EventBase: timing.NewEventBase(tick, t),
		handle:    Handle(t.ids.Generate()),
		callback:  cb,
	}

	t.lock.Lock()
	t.pending[evt.handle] = evt
	t.lock.Unlock()

	t.engine.Schedule(evt)

	return evt.handle, nil
}

// Clear cancels a scheduled callback. It returns false if the callback has
// already run or was never scheduled.
func (t *Transport) Clear(h Handle) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.pending[h]; !ok {
		return false
	}

	delete(t.pending, h)

	return true
}

// Pending returns the number of callbacks waiting to run.
func (t *Transport) Pending() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.pending)
}

// Handle runs a scheduled callback. Cleared callbacks are dropped.
func (t *Transport) Handle(e timing.Event) error {
	evt, ok := e.(*callbackEvent)
	if !ok {
		return fmt.Errorf("transport: unexpected event type %T", e)
	}

	t.lock.Lock()
	_, live := t.pending[evt.handle]
	delete(t.pending, evt.handle)
	t.lock.Unlock()

	if !live {
		return nil
	}

	return evt.callback(evt.Time())
}

// Start starts the transport at the current tick.
func (t *Transport) Start() {
	t.state.SetStateAtTime(timeline.Started, t.Now())
}

// Stop stops the transport at the current tick. Scheduled callbacks stay
// scheduled; they run once the transport is started and advanced again.
func (t *Transport) Stop() {
	t.state.SetStateAtTime(timeline.Stopped, t.Now())
}

// Pause pauses the transport at the current tick.
func (t *Transport) Pause() {
	t.state.SetStateAtTime(timeline.Paused, t.Now())
}

// State returns the state of the transport at the current tick.
func (t *Transport) State() timeline.State {
	return t.state.StateAt(t.Now())
}

// RunUntil dispatches every callback scheduled at or before tick and moves
// the clock to tick.
func (t *Transport) RunUntil(tick timing.VTimeInTick) error {
	if t.State() != timeline.Started {
		return ErrNotRunning
	}

	return t.engine.RunUntil(tick)
}

// RunFor advances the clock by a duration.
func (t *Transport) RunFor(d timeunit.Time) error {
	tick, err := t.Resolve(timeunit.Relative(d))
	if err != nil {
		return err
	}

	return t.RunUntil(tick)
}
