package stochastic

import "fmt"

// Range is the interval, in seconds, that delays between fires are drawn
// from. It is a value; changing a scheduler's range replaces it.
type Range struct {
	Min float64
	Max float64
}

// UpTo returns the range [0, max].
func UpTo(max float64) Range {
	return Range{Min: 0, Max: max}
}

// Validate reports whether r can be used as a delay range: both bounds finite,
// 0 <= Min <= Max, and Max > 0.
func (r Range) Validate() error {
	if err := validateBounds(r.Min, r.Max); err != nil {
		return err
	}

	if r.Min < 0 {
		return fmt.Errorf("%w: range min %v is negative", ErrConfiguration, r.Min)
	}

	if r.Max == 0 {
		return fmt.Errorf("%w: range [%v, %v] is empty", ErrConfiguration, r.Min, r.Max)
	}

	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("[%v, %v]", r.Min, r.Max)
}
