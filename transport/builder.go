package transport

import (
	"log"

	"github.com/sarchlab/randloop/sim/id"
	"github.com/sarchlab/randloop/sim/timing"
	"github.com/sarchlab/randloop/timeline"
	"github.com/sarchlab/randloop/timeunit"
)

// Builder can help building transports.
type Builder struct {
	engine    timing.Engine
	converter timeunit.Converter
}

// MakeBuilder creates a Builder with 120 BPM, 192 PPQ, and 4/4 time.
func MakeBuilder() Builder {
	return Builder{
		converter: timeunit.NewConverter(),
	}
}

// WithEngine sets the engine that dispatches callbacks. If not set, a new
// SerialEngine is used.
func (b Builder) WithEngine(e timing.Engine) Builder {
	b.engine = e
	return b
}

// WithBPM sets the tempo.
func (b Builder) WithBPM(bpm float64) Builder {
	b.converter.BPM = bpm
	return b
}

// WithPPQ sets the number of ticks per quarter note.
func (b Builder) WithPPQ(ppq int) Builder {
	b.converter.PPQ = ppq
	return b
}

// WithTimeSignature sets the number of beats per measure.
func (b Builder) WithTimeSignature(beats int) Builder {
	b.converter.TimeSignature = beats
	return b
}

// Build creates the transport. The transport starts out stopped.
func (b Builder) Build(name string) *Transport {
	c := b.converter
	if c.BPM <= 0 || c.PPQ <= 0 || c.TimeSignature <= 0 {
		log.Panicf("transport: bpm %v, ppq %d, and time signature %d "+
			"must be positive", c.BPM, c.PPQ, c.TimeSignature)
	}

	engine := b.engine
	if engine == nil {
		engine = timing.NewSerialEngine()
	}

	return &Transport{
		name:      name,
		engine:    engine,
		ids:       id.NewIDGenerator(),
		converter: b.converter,
		pending:   make(map[Handle]*callbackEvent),
		state:     timeline.NewStateTimeline(timeline.Stopped),
	}
}
