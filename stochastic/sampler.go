package stochastic

import (
	"fmt"
	"math"
)

// DefaultMaxResamples bounds the gaussian rejection loop.
const DefaultMaxResamples = 100

// Source provides uniform random numbers in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Sampler draws random numbers within a range under a Distribution.
type Sampler struct {
	src Source

	// Skew is the exponent applied to normalized gaussian samples before they
	// are stretched onto the range. Values above 1 pull samples toward the
	// minimum.
	Skew float64

	// MaxResamples is the number of gaussian draws attempted before
	// ErrResamplingExhausted is returned. Draws with a zero component count
	// against the same budget.
	MaxResamples int
}

// NewSampler creates a Sampler with a skew of 1.
func NewSampler(src Source) *Sampler {
	return &Sampler{
		src:          src,
		Skew:         1,
		MaxResamples: DefaultMaxResamples,
	}
}

// Sample draws a number in [min, max] under kind.
func (s *Sampler) Sample(min, max float64, kind Distribution) (float64, error) {
	return s.SampleWithSkew(min, max, kind, s.Skew)
}

// SampleWithSkew draws a number in [min, max] under kind with an explicit
// skew.
func (s *Sampler) SampleWithSkew(
	min, max float64,
	kind Distribution,
	skew float64,
) (float64, error) {
	if err := validateBounds(min, max); err != nil {
		return 0, err
	}

	if err := kind.validate(); err != nil {
		return 0, err
	}

	switch kind {
	case Gaussian:
		return s.gaussian(min, max, skew)
	default:
		return s.uniform(min, max), nil
	}
}

func (s *Sampler) uniform(min, max float64) float64 {
	return clamp(min+s.src.Float64()*(max-min), min, max)
}

// gaussian uses the Box-Muller transform. The standard normal is scaled so
// that nearly all of its mass lands in [0, 1]; draws outside are rejected.
func (s *Sampler) gaussian(min, max, skew float64) (float64, error) {
	if skew <= 0 || math.IsNaN(skew) || math.IsInf(skew, 0) {
		return 0, fmt.Errorf("%w: skew must be positive, got %v",
			ErrConfiguration, skew)
	}

	for attempt := 0; attempt < s.MaxResamples; attempt++ {
		u := s.src.Float64()
		v := s.src.Float64()
		if u == 0 || v == 0 {
			continue
		}

		z := math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)

		t := z/10 + 0.5
		if t < 0 || t > 1 {
			continue
		}

		t = math.Pow(t, skew)

		return clamp(t*(max-min)+min, min, max), nil
	}

	return 0, fmt.Errorf("%w: no gaussian draw within [%v, %v] after %d attempts",
		ErrResamplingExhausted, min, max, s.MaxResamples)
}

func validateBounds(min, max float64) error {
	for _, v := range []float64{min, max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: range bound %v is not finite",
				ErrConfiguration, v)
		}
	}

	if min > max {
		return fmt.Errorf("%w: range min %v is greater than max %v",
			ErrConfiguration, min, max)
	}

	return nil
}

// clamp absorbs floating-point rounding at the range edges.
func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(v, max))
}
