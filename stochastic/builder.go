package stochastic

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sarchlab/randloop/sim/hooking"
	"github.com/sarchlab/randloop/sim/id"
	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/timeline"
	"github.com/sarchlab/randloop/timeunit"
	"github.com/sarchlab/randloop/transport"
	"github.com/sarchlab/randloop/trigger"
)

// Builder can help building schedulers.
type Builder struct {
	clock        Clock
	rand         Source
	callback     Callback
	interval     Range
	distribution Distribution
	mute         bool
	iterations   uint64
	skew         float64
	maxResamples int
	playbackRate float64
	probability  float64
	startOffset  timeunit.Time
	loopStart    timeunit.Time
	loopEnd      timeunit.Time
	factory      PrimitiveFactory
}

// MakeBuilder creates a Builder with a no-op callback, a range of [1, 2]
// seconds, the uniform distribution, a playback rate of 1, and unbounded
// iterations.
func MakeBuilder() Builder {
	return Builder{
		callback:     func(timing.VTimeInTick) {},
		interval:     Range{Min: 1, Max: 2},
		distribution: Uniform,
		iterations:   Unbounded,
		skew:         1,
		maxResamples: DefaultMaxResamples,
		playbackRate: 1,
		probability:  1,
		startOffset:  "0i",
		loopStart:    "0",
		loopEnd:      "1m",
	}
}

// WithClock sets the transport the scheduler runs on.
func (b Builder) WithClock(c Clock) Builder {
	b.clock = c
	return b
}

// WithRand sets the random source. If not set, a source seeded from the wall
// clock is used.
func (b Builder) WithRand(r Source) Builder {
	b.rand = r
	return b
}

// WithCallback sets the function invoked on each fire.
func (b Builder) WithCallback(cb Callback) Builder {
	b.callback = cb
	return b
}

// WithRange sets the interval, in seconds, delays are drawn from.
func (b Builder) WithRange(min, max float64) Builder {
	b.interval = Range{Min: min, Max: max}
	return b
}

// WithRangeMax sets the interval to [0, max] seconds.
func (b Builder) WithRangeMax(max float64) Builder {
	b.interval = UpTo(max)
	return b
}

// WithDistribution sets the distribution delays are drawn under.
func (b Builder) WithDistribution(d Distribution) Builder {
	b.distribution = d
	return b
}

// WithMute suppresses the callback while still consuming iterations.
func (b Builder) WithMute(mute bool) Builder {
	b.mute = mute
	return b
}

// WithIterations limits the number of fires.
func (b Builder) WithIterations(n uint64) Builder {
	b.iterations = n
	return b
}

// WithSkew sets the exponent applied to gaussian samples.
func (b Builder) WithSkew(skew float64) Builder {
	b.skew = skew
	return b
}

// WithMaxResamples bounds gaussian rejection sampling.
func (b Builder) WithMaxResamples(n int) Builder {
	b.maxResamples = n
	return b
}

// WithPlaybackRate sets the playback rate forwarded to the primitive.
func (b Builder) WithPlaybackRate(rate float64) Builder {
	b.playbackRate = rate
	return b
}

// WithProbability sets the firing probability forwarded to the primitive.
func (b Builder) WithProbability(p float64) Builder {
	b.probability = p
	return b
}

// WithStartOffset sets the start offset forwarded to the primitive.
func (b Builder) WithStartOffset(t timeunit.Time) Builder {
	b.startOffset = t
	return b
}

// WithLoopStart sets the loop start forwarded to the primitive.
func (b Builder) WithLoopStart(t timeunit.Time) Builder {
	b.loopStart = t
	return b
}

// WithLoopEnd sets the loop end forwarded to the primitive.
func (b Builder) WithLoopEnd(t timeunit.Time) Builder {
	b.loopEnd = t
	return b
}

// WithPrimitiveFactory replaces the trigger the scheduler delegates its
// lifecycle to.
func (b Builder) WithPrimitiveFactory(f PrimitiveFactory) Builder {
	b.factory = f
	return b
}

// Build creates the scheduler. An empty name is replaced by a unique one.
// The range and distribution are validated here.
func (b Builder) Build(name string) (*Scheduler, error) {
	if name == "" {
		name = "Random-" + id.NewXIDGenerator().Generate()
	}

	if err := b.interval.Validate(); err != nil {
		return nil, err
	}

	if err := b.distribution.validate(); err != nil {
		return nil, err
	}

	if b.clock == nil {
		return nil, fmt.Errorf("%w: scheduler %s has no clock",
			ErrConfiguration, name)
	}

	if b.skew <= 0 || math.IsNaN(b.skew) || math.IsInf(b.skew, 0) {
		return nil, fmt.Errorf("%w: skew must be positive, got %v",
			ErrConfiguration, b.skew)
	}

	if b.maxResamples <= 0 {
		return nil, fmt.Errorf("%w: resampling budget must be positive, got %d",
			ErrConfiguration, b.maxResamples)
	}

	r := b.rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	sampler := NewSampler(r)
	sampler.Skew = b.skew
	sampler.MaxResamples = b.maxResamples

	s := &Scheduler{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		clock:        b.clock,
		sampler:      sampler,
		callback:     b.callback,
		interval:     b.interval,
		distribution: b.distribution,
		mute:         b.mute,
		governor:     NewGovernor(b.iterations),
		state:        timeline.NewStateTimeline(timeline.Stopped),
		playbackRate: b.playbackRate,
		probability:  b.probability,
	}

	var err error
	if s.startOffset, err = b.clock.ToTicks(b.startOffset); err != nil {
		return nil, err
	}

	if s.loopStart, err = b.clock.ToTicks(b.loopStart); err != nil {
		return nil, err
	}

	if s.loopEnd, err = b.clock.ToTicks(b.loopEnd); err != nil {
		return nil, err
	}

	factory := b.factory
	if factory == nil {
		factory = b.triggerFactory(r)
	}

	s.primitive, err = factory(name+".Trigger", s.onPrimitiveFire)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (b Builder) triggerFactory(r Source) PrimitiveFactory {
	return func(name string, onFire transport.Callback) (EventPrimitive, error) {
		t, err := trigger.MakeBuilder().
			WithClock(b.clock).
			WithRand(r).
			WithCallback(onFire).
			WithLoop(false).
			WithLoopStart(b.loopStart).
			WithLoopEnd(b.loopEnd).
			WithStartOffset(b.startOffset).
			WithPlaybackRate(b.playbackRate).
			WithProbability(b.probability).
			WithMute(false).
			WithHumanize("0i").
			Build(name)
		if err != nil {
			return nil, err
		}

		return t, nil
	}
}
