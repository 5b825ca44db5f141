// Package trigger implements a schedulable event: a callback that is started
// and stopped along the transport timeline, optionally looping over a region,
// with playback-rate scaling, probability-gated firing, and humanization.
package trigger

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/timeline"
	"github.com/sarchlab/randloop/timeunit"
	"github.com/sarchlab/randloop/transport"
)

// ErrDisposed is returned when a disposed Trigger is started.
var ErrDisposed = errors.New("trigger: trigger is disposed")

// Clock is the part of the transport a Trigger schedules itself on.
type Clock interface {
	Now() timing.VTimeInTick
	Resolve(at timeunit.Time) (timing.VTimeInTick, error)
	ToTicks(at timeunit.Time) (timing.VTimeInTick, error)
	ScheduleAt(cb transport.Callback, tick timing.VTimeInTick) (transport.Handle, error)
	Clear(h transport.Handle) bool
}

// Source provides uniform random numbers in [0, 1).
type Source interface {
	Float64() float64
}

// Trigger fires a callback at its start time and, when looping, once per
// loop period until it is stopped.
type Trigger struct {
	name  string
	clock Clock
	rand  Source

	lock         sync.Mutex
	callback     transport.Callback
	loop         bool
	loopStart    timing.VTimeInTick
	loopEnd      timing.VTimeInTick
	playbackRate float64
	probability  float64
	mute         bool
	humanize     timing.VTimeInTick
	startOffset  timing.VTimeInTick
	state        *timeline.StateTimeline
	scheduled    map[transport.Handle]timing.VTimeInTick
	disposed     bool
}

// Name returns the name of the trigger.
func (t *Trigger) Name() string {
	return t.name
}

// Start starts the trigger at the given time. Starting a trigger that is
// already started at that time does nothing.
func (t *Trigger) Start(at timeunit.Time) error {
	tick, err := t.clock.Resolve(at)
	if err != nil {
		return err
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.disposed {
		return ErrDisposed
	}

	if t.state.StateAt(tick) == timeline.Started {
		return nil
	}

	t.state.SetStateAtTime(timeline.Started, tick)

	return t.scheduleFireLocked(tick, tick)
}

// Stop stops the trigger at the given time. Transitions and pending fires at
// or after that time are dropped first, so a start that has not happened yet
// is withdrawn.
func (t *Trigger) Stop(at timeunit.Time) error {
	tick, err := t.clock.Resolve(at)
	if err != nil {
		return err
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.state.Cancel(tick)
	t.clearScheduledFromLocked(tick)
	t.state.SetStateAtTime(timeline.Stopped, tick)

	return nil
}

// Cancel removes every state transition at or after the given time and
// clears all pending fires.
func (t *Trigger) Cancel(after timeunit.Time) error {
	tick, err := t.clock.Resolve(after)
	if err != nil {
		return err
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.state.Cancel(tick)
	t.clearScheduledLocked()

	return nil
}

// Dispose clears all pending fires and releases the callback.
func (t *Trigger) Dispose() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.clearScheduledLocked()
	t.callback = nil
	t.disposed = true
}

// State returns the state of the trigger at the current tick.
func (t *Trigger) State() timeline.State {
	return t.StateAt(t.clock.Now())
}

// StateAt returns the state of the trigger at tick.
func (t *Trigger) StateAt(tick timing.VTimeInTick) timeline.State {
	return t.state.StateAt(tick)
}

// Loop returns whether the trigger repeats over its loop region.
func (t *Trigger) Loop() bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.loop
}

// SetLoop turns looping on or off for fires that happen after the call.
func (t *Trigger) SetLoop(loop bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.loop = loop
}

// Mute returns whether the callback is suppressed.
func (t *Trigger) Mute() bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.mute
}

// SetMute suppresses or re-enables the callback.
func (t *Trigger) SetMute(mute bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.mute = mute
}

// PlaybackRate returns the speed the loop region is played at.
func (t *Trigger) PlaybackRate() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.playbackRate
}

// SetPlaybackRate changes the playback speed. A rate of 2 plays the loop
// region twice as fast.
func (t *Trigger) SetPlaybackRate(rate float64) error {
	if err := validatePlaybackRate(rate); err != nil {
		return err
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.playbackRate = rate

	return nil
}

// Probability returns the chance that a due fire invokes the callback.
func (t *Trigger) Probability() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.probability
}

// SetProbability changes the chance that a due fire invokes the callback.
func (t *Trigger) SetProbability(p float64) error {
	if err := validateProbability(p); err != nil {
		return err
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.probability = p

	return nil
}

// LoopRegion returns the loop bounds in ticks.
func (t *Trigger) LoopRegion() (start, end timing.VTimeInTick) {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.loopStart, t.loopEnd
}

// StartOffset returns the configured start offset in ticks.
func (t *Trigger) StartOffset() timing.VTimeInTick {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.startOffset
}

func (t *Trigger) loopPeriodLocked() timing.VTimeInTick {
	length := float64(t.loopEnd - t.loopStart)
	period := timing.VTimeInTick(math.Round(length / t.playbackRate))
	if period == 0 {
		period = 1
	}

	return period
}

func (t *Trigger) scheduleFireLocked(
	tick, startedAt timing.VTimeInTick,
) error {
	var handle transport.Handle

	fire := func(now timing.VTimeInTick) error {
		t.lock.Lock()
		delete(t.scheduled, handle)
		t.lock.Unlock()

		return t.fire(now, startedAt)
	}

	h, err := t.clock.ScheduleAt(fire, tick)
	if err != nil {
		return err
	}

	handle = h
	t.scheduled[h] = tick

	return nil
}

// fire runs one due fire of the run that started at startedAt.
func (t *Trigger) fire(now, startedAt timing.VTimeInTick) error {
	t.lock.Lock()

	if t.disposed || !t.isCurrentRunLocked(now, startedAt) {
		t.lock.Unlock()
		return nil
	}

	if t.loop {
		if err := t.scheduleFireLocked(now+t.loopPeriodLocked(), startedAt); err != nil {
			t.lock.Unlock()
			return err
		}
	}

	cb := t.callback
	invoke := !t.mute && cb != nil && t.passesProbabilityLocked()
	fireTime := t.humanizeLocked(now)

	t.lock.Unlock()

	if !invoke {
		return nil
	}

	return cb(fireTime)
}

func (t *Trigger) isCurrentRunLocked(now, startedAt timing.VTimeInTick) bool {
	if t.state.StateAt(now) != timeline.Started {
		return false
	}

	last, ok := t.state.LastState(timeline.Started, now)

	return ok && last.Time == startedAt
}

func (t *Trigger) passesProbabilityLocked() bool {
	if t.probability >= 1 {
		return true
	}

	return t.rand.Float64() < t.probability
}

func (t *Trigger) humanizeLocked(now timing.VTimeInTick) timing.VTimeInTick {
	if t.humanize == 0 {
		return now
	}

	span := float64(t.humanize)
	jitter := math.Round((t.rand.Float64()*2 - 1) * span)

	shifted := float64(now) + jitter
	if shifted < 0 {
		return 0
	}

	return timing.VTimeInTick(shifted)
}

func (t *Trigger) clearScheduledLocked() {
	for h := range t.scheduled {
		t.clock.Clear(h)
	}

	t.scheduled = make(map[transport.Handle]timing.VTimeInTick)
}

func (t *Trigger) clearScheduledFromLocked(from timing.VTimeInTick) {
	for h, tick := range t.scheduled {
		if tick < from {
			continue
		}

		t.clock.Clear(h)
		delete(t.scheduled, h)
	}
}

func validatePlaybackRate(rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("trigger: playback rate must be positive, got %v", rate)
	}

	return nil
}

func validateProbability(p float64) error {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return fmt.Errorf("trigger: probability must be within [0, 1], got %v", p)
	}

	return nil
}
