// Package stochastic provides a recurring scheduler whose intervals are drawn
// at random. A Scheduler invokes its callback, samples the next delay from a
// Range under a Distribution, and asks the transport to call it again after
// that delay, until it is stopped or runs out of iterations.
package stochastic

import (
	"fmt"
	"sync"

	"github.com/sarchlab/randloop/sim/hooking"
	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/timeline"
	"github.com/sarchlab/randloop/timeunit"
	"github.com/sarchlab/randloop/transport"
	"github.com/sarchlab/randloop/trigger"
)

// Callback is invoked with the tick of each fire.
type Callback func(now timing.VTimeInTick)

// Clock is the transport a Scheduler runs on.
type Clock interface {
	trigger.Clock

	Schedule(cb transport.Callback, at timeunit.Time) (transport.Handle, error)
}

// EventPrimitive is the start/stop lifecycle a Scheduler delegates to. Its
// single fire at the start time runs the scheduler's first tick.
type EventPrimitive interface {
	Start(at timeunit.Time) error
	Stop(at timeunit.Time) error
	Dispose()
}

// PrimitiveFactory creates the EventPrimitive of a Scheduler. The primitive
// must call onFire when it fires.
type PrimitiveFactory func(name string, onFire transport.Callback) (EventPrimitive, error)

type loopState int

const (
	loopStopped loopState = iota
	loopRunning
)

// Scheduler fires a callback at randomly spaced times along the transport.
//
// Ticks that are already queued on the transport when the scheduler stops are
// not retracted. Every tick checks, when it comes due, that the scheduler is
// still running and that it belongs to the current run.
type Scheduler struct {
	*hooking.HookableBase

	name      string
	clock     Clock
	primitive EventPrimitive
	sampler   *Sampler

	lock         sync.Mutex
	callback     Callback
	interval     Range
	distribution Distribution
	mute         bool
	governor     Governor
	loop         loopState
	generation   uint64
	state        *timeline.StateTimeline
	disposed     bool

	// Forwarded to the primitive at construction. The scheduler's own timing
	// does not use them.
	playbackRate float64
	probability  float64
	startOffset  timing.VTimeInTick
	loopStart    timing.VTimeInTick
	loopEnd      timing.VTimeInTick
}

// Name returns the name of the scheduler.
func (s *Scheduler) Name() string {
	return s.name
}

// Start begins the loop at the given time; Now starts it at the current tick.
// An absolute time earlier than the current tick is refused with
// transport.ErrPastTime rather than moved to now. Range and distribution
// problems are reported here rather than at the first tick. Starting a
// running scheduler does nothing. If the primitive cannot start, the
// scheduler stays stopped.
func (s *Scheduler) Start(at timeunit.Time) error {
	tick, err := s.clock.Resolve(at)
	if err != nil {
		return err
	}

	s.lock.Lock()

	if s.disposed {
		s.lock.Unlock()
		return ErrDisposed
	}

	if s.loop == loopRunning {
		s.lock.Unlock()
		return nil
	}

	if err := s.validateLocked(); err != nil {
		s.lock.Unlock()
		return err
	}

	s.lock.Unlock()

	if err := s.primitive.Start(at); err != nil {
		return err
	}

	s.lock.Lock()
	s.loop = loopRunning
	s.generation++
	s.state.SetStateAtTime(timeline.Started, tick)
	s.lock.Unlock()

	return nil
}

// Stop ends the loop. No tick runs the callback once Stop has been called,
// even if the given time is in the future. Transitions at or after the stop
// time are dropped, so a start that has not happened yet is withdrawn, and
// the timeline records Stopped at that time.
func (s *Scheduler) Stop(at timeunit.Time) error {
	tick, err := s.clock.Resolve(at)
	if err != nil {
		return err
	}

	s.lock.Lock()
	s.loop = loopStopped
	s.state.Cancel(tick)
	s.state.SetStateAtTime(timeline.Stopped, tick)
	s.lock.Unlock()

	return s.primitive.Stop(at)
}

// Dispose releases the callback and the primitive. A disposed scheduler
// cannot be started again.
func (s *Scheduler) Dispose() {
	s.lock.Lock()
	s.callback = nil
	s.loop = loopStopped
	s.disposed = true
	s.lock.Unlock()

	s.primitive.Dispose()
}

func (s *Scheduler) onPrimitiveFire(now timing.VTimeInTick) error {
	s.lock.Lock()
	gen := s.generation
	s.lock.Unlock()

	return s.tick(now, gen)
}

func (s *Scheduler) tickOf(gen uint64) transport.Callback {
	return func(now timing.VTimeInTick) error {
		return s.tick(now, gen)
	}
}

func (s *Scheduler) activeLocked(gen uint64) bool {
	return !s.disposed && s.loop == loopRunning && gen == s.generation
}

// tick runs one cycle: reserve an iteration, invoke the callback, and schedule
// the next tick.
func (s *Scheduler) tick(now timing.VTimeInTick, gen uint64) error {
	s.lock.Lock()

	if !s.activeLocked(gen) {
		s.lock.Unlock()
		return nil
	}

	if !s.governor.ShouldFire() {
		exhausted := s.markExhaustedLocked(now)
		s.lock.Unlock()

		return s.finishExhausted(exhausted)
	}

	s.governor.Consume()

	info := FireInfo{
		Scheduler: s.name,
		Time:      now,
		Remaining: s.governor.Remaining(),
		Muted:     s.mute,
	}
	cb := s.callback

	s.lock.Unlock()

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosBeforeFire,
		Item:   s,
		Detail: info,
	})

	if !info.Muted && cb != nil {
		cb(now)
	}

	return s.scheduleNext(now, gen, info)
}

func (s *Scheduler) scheduleNext(
	now timing.VTimeInTick,
	gen uint64,
	info FireInfo,
) error {
	s.lock.Lock()

	if !s.activeLocked(gen) {
		s.lock.Unlock()
		s.invokeAfterFire(info)

		return nil
	}

	if !s.governor.ShouldFire() {
		exhausted := s.markExhaustedLocked(now)
		s.lock.Unlock()
		s.invokeAfterFire(info)

		return s.finishExhausted(exhausted)
	}

	delay, err := s.sampler.Sample(s.interval.Min, s.interval.Max, s.distribution)

	s.lock.Unlock()

	if err != nil {
		return fmt.Errorf("scheduler %s: %w", s.name, err)
	}

	_, err = s.clock.Schedule(s.tickOf(gen), timeunit.Relative(timeunit.Seconds(delay)))
	if err != nil {
		return fmt.Errorf("scheduler %s: %w", s.name, err)
	}

	info.NextDelay = delay
	info.Scheduled = true
	s.invokeAfterFire(info)

	return nil
}

func (s *Scheduler) invokeAfterFire(info FireInfo) {
	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosAfterFire,
		Item:   s,
		Detail: info,
	})
}

// markExhaustedLocked stops the loop because the iteration budget ran out.
// The transition is recorded at now, like an explicit Stop.
func (s *Scheduler) markExhaustedLocked(now timing.VTimeInTick) FireInfo {
	s.loop = loopStopped
	s.state.SetStateAtTime(timeline.Stopped, now)

	return FireInfo{
		Scheduler: s.name,
		Time:      now,
		Remaining: s.governor.Remaining(),
		Muted:     s.mute,
	}
}

func (s *Scheduler) finishExhausted(info FireInfo) error {
	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosExhausted,
		Item:   s,
		Detail: info,
	})

	return s.primitive.Stop(timeunit.Ticks(info.Time))
}

func (s *Scheduler) validateLocked() error {
	if err := s.interval.Validate(); err != nil {
		return err
	}

	return s.distribution.validate()
}

// State returns whether the scheduler is started at the current tick.
func (s *Scheduler) State() timeline.State {
	return s.StateAt(s.clock.Now())
}

// StateAt returns whether the scheduler is started at tick.
func (s *Scheduler) StateAt(tick timing.VTimeInTick) timeline.State {
	return s.state.StateAt(tick)
}

// IsLooping tells whether the scheduler is currently cycling.
func (s *Scheduler) IsLooping() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.loop == loopRunning
}

// Range returns the interval delays are drawn from.
func (s *Scheduler) Range() Range {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.interval
}

// SetRange replaces both bounds of the interval.
func (s *Scheduler) SetRange(r Range) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.lock.Lock()
	s.interval = r
	s.lock.Unlock()

	return nil
}

// SetRangeMax sets the interval to [0, max].
func (s *Scheduler) SetRangeMax(max float64) error {
	return s.SetRange(UpTo(max))
}

// Distribution returns the distribution delays are drawn under.
func (s *Scheduler) Distribution() Distribution {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.distribution
}

// SetDistribution changes the distribution used for the next delays.
func (s *Scheduler) SetDistribution(d Distribution) error {
	if err := d.validate(); err != nil {
		return err
	}

	s.lock.Lock()
	s.distribution = d
	s.lock.Unlock()

	return nil
}

// Iterations returns the number of fires left, or Unbounded.
func (s *Scheduler) Iterations() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.governor.Remaining()
}

// SetIterations replaces the number of fires left. Pass Unbounded to loop
// until stopped.
func (s *Scheduler) SetIterations(n uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.governor.Set(n)
}

// SetUnboundedIterations lets the scheduler fire until it is stopped.
func (s *Scheduler) SetUnboundedIterations() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.governor.SetUnbounded()
}

// Mute returns whether the callback is suppressed.
func (s *Scheduler) Mute() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.mute
}

// SetMute suppresses or re-enables the callback. Muted ticks still consume
// iterations.
func (s *Scheduler) SetMute(mute bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mute = mute
}

// PlaybackRate returns the playback rate forwarded to the primitive.
func (s *Scheduler) PlaybackRate() float64 {
	return s.playbackRate
}

// Probability returns the probability forwarded to the primitive.
func (s *Scheduler) Probability() float64 {
	return s.probability
}

// StartOffset returns the start offset, in ticks, forwarded to the primitive.
func (s *Scheduler) StartOffset() timing.VTimeInTick {
	return s.startOffset
}

// LoopRegion returns the loop bounds, in ticks, forwarded to the primitive.
func (s *Scheduler) LoopRegion() (start, end timing.VTimeInTick) {
	return s.loopStart, s.loopEnd
}
