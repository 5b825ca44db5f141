package timeunit

import (
	"math"

	"github.com/sarchlab/randloop/sim/timing"
)

// Default transport settings.
const (
	DefaultBPM           = 120.0
	DefaultPPQ           = 192
	DefaultTimeSignature = 4
)

// Converter turns Times into ticks and seconds for a given tempo, resolution,
// and time signature. The zero value is not usable; use NewConverter.
type Converter struct {
	BPM           float64
	PPQ           int
	TimeSignature int
}

// NewConverter creates a Converter with 120 BPM, 192 ticks per quarter note,
// and four beats per measure.
func NewConverter() Converter {
	return Converter{
		BPM:           DefaultBPM,
		PPQ:           DefaultPPQ,
		TimeSignature: DefaultTimeSignature,
	}
}

// SecondsPerTick returns the duration of one tick.
func (c Converter) SecondsPerTick() float64 {
	return 60 / (c.BPM * float64(c.PPQ))
}

// SecondsToTicks converts seconds into a fractional tick count.
func (c Converter) SecondsToTicks(sec float64) float64 {
	return sec * c.BPM * float64(c.PPQ) / 60
}

// TicksToSeconds converts ticks into seconds.
func (c Converter) TicksToSeconds(ticks timing.VTimeInTick) float64 {
	return float64(ticks) * 60 / (c.BPM * float64(c.PPQ))
}

// ExprTicks returns the fractional tick length of an Expr.
func (c Converter) ExprTicks(e Expr) float64 {
	switch e.Unit {
	case UnitSeconds:
		return c.SecondsToTicks(e.Value)
	case UnitQuarters:
		return (e.Bars*float64(c.TimeSignature) + e.Value) * float64(c.PPQ)
	default:
		return e.Value
	}
}

// ToTicks returns the tick length of t, rounded to the nearest tick. A
// relative prefix is ignored; callers that need an absolute position add the
// current time themselves.
func (c Converter) ToTicks(t Time) (timing.VTimeInTick, error) {
	e, err := Parse(t)
	if err != nil {
		return 0, err
	}

	return timing.VTimeInTick(math.Round(c.ExprTicks(e))), nil
}

// ToSeconds returns the length of t in seconds.
func (c Converter) ToSeconds(t Time) (float64, error) {
	e, err := Parse(t)
	if err != nil {
		return 0, err
	}

	if e.Unit == UnitSeconds {
		return e.Value, nil
	}

	return c.ExprTicks(e) * 60 / (c.BPM * float64(c.PPQ)), nil
}
