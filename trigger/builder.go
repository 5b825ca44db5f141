package trigger

import (
	"math/rand"
	"time"

	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/timeline"
	"github.com/sarchlab/randloop/timeunit"
	"github.com/sarchlab/randloop/transport"
)

// Builder can help building triggers.
type Builder struct {
	clock        Clock
	rand         Source
	callback     transport.Callback
	loop         bool
	loopStart    timeunit.Time
	loopEnd      timeunit.Time
	playbackRate float64
	probability  float64
	mute         bool
	humanize     timeunit.Time
	startOffset  timeunit.Time
}

// MakeBuilder creates a Builder for a non-looping trigger with a one-measure
// loop region, a playback rate of 1, and a probability of 1.
func MakeBuilder() Builder {
	return Builder{
		loopStart:    "0",
		loopEnd:      "1m",
		playbackRate: 1,
		probability:  1,
		humanize:     "0i",
		startOffset:  "0i",
	}
}

// WithClock sets the transport the trigger schedules itself on.
func (b Builder) WithClock(c Clock) Builder {
	b.clock = c
	return b
}

// WithRand sets the random source used for probability and humanization.
func (b Builder) WithRand(r Source) Builder {
	b.rand = r
	return b
}

// WithCallback sets the function invoked on each fire.
func (b Builder) WithCallback(cb transport.Callback) Builder {
	b.callback = cb
	return b
}

// WithLoop makes the trigger repeat over its loop region.
func (b Builder) WithLoop(loop bool) Builder {
	b.loop = loop
	return b
}

// WithLoopStart sets the beginning of the loop region.
func (b Builder) WithLoopStart(t timeunit.Time) Builder {
	b.loopStart = t
	return b
}

// WithLoopEnd sets the end of the loop region.
func (b Builder) WithLoopEnd(t timeunit.Time) Builder {
	b.loopEnd = t
	return b
}

// WithPlaybackRate sets the speed the loop region is played at.
func (b Builder) WithPlaybackRate(rate float64) Builder {
	b.playbackRate = rate
	return b
}

// WithProbability sets the chance that a due fire invokes the callback.
func (b Builder) WithProbability(p float64) Builder {
	b.probability = p
	return b
}

// WithMute suppresses the callback.
func (b Builder) WithMute(mute bool) Builder {
	b.mute = mute
	return b
}

// WithHumanize shifts each callback time by a random amount within the given
// span.
func (b Builder) WithHumanize(span timeunit.Time) Builder {
	b.humanize = span
	return b
}

// WithStartOffset sets the offset into the event at which playback starts.
func (b Builder) WithStartOffset(t timeunit.Time) Builder {
	b.startOffset = t
	return b
}

// Build creates the trigger.
func (b Builder) Build(name string) (*Trigger, error) {
	if err := validatePlaybackRate(b.playbackRate); err != nil {
		return nil, err
	}

	if err := validateProbability(b.probability); err != nil {
		return nil, err
	}

	ticks, err := b.convert(b.loopStart, b.loopEnd, b.humanize, b.startOffset)
	if err != nil {
		return nil, err
	}

	loopStart, loopEnd := ticks[0], ticks[1]
	if loopEnd < loopStart {
		loopStart, loopEnd = loopEnd, loopStart
	}

	r := b.rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	t := &Trigger{
		name:         name,
		clock:        b.clock,
		rand:         r,
		callback:     b.callback,
		loop:         b.loop,
		loopStart:    loopStart,
		loopEnd:      loopEnd,
		playbackRate: b.playbackRate,
		probability:  b.probability,
		mute:         b.mute,
		humanize:     ticks[2],
		startOffset:  ticks[3],
		state:        timeline.NewStateTimeline(timeline.Stopped),
		scheduled:    make(map[transport.Handle]timing.VTimeInTick),
	}

	return t, nil
}

func (b Builder) convert(times ...timeunit.Time) ([]timing.VTimeInTick, error) {
	ticks := make([]timing.VTimeInTick, len(times))
	for i, t := range times {
		v, err := b.clock.ToTicks(t)
		if err != nil {
			return nil, err
		}

		ticks[i] = v
	}

	return ticks, nil
}
