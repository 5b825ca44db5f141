package stochastic

import (
	"fmt"
	"strings"
)

// Distribution selects the algorithm that draws the next interval.
type Distribution string

// The recognized distributions. PowerLaw is recognized but rejected with
// ErrUnimplemented.
const (
	Uniform  Distribution = "uniform"
	Gaussian Distribution = "gaussian"
	PowerLaw Distribution = "powerlaw"
)

// ParseDistribution maps a name or alias ("u", "gauss", "power") to a
// Distribution.
func ParseDistribution(name string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "u", "uniform":
		return Uniform, nil
	case "gauss", "gaussian":
		return Gaussian, nil
	case "power", "powerlaw":
		return PowerLaw, nil
	default:
		return "", fmt.Errorf("%w: unknown distribution %q",
			ErrConfiguration, name)
	}
}

// validate reports whether d can be sampled.
func (d Distribution) validate() error {
	switch d {
	case Uniform, Gaussian:
		return nil
	case PowerLaw:
		return fmt.Errorf("%w: %s", ErrUnimplemented, d)
	default:
		return fmt.Errorf("%w: unknown distribution %q", ErrConfiguration, string(d))
	}
}
