package stochastic

import "errors"

var (
	// ErrConfiguration reports an unusable range, distribution, or skew.
	ErrConfiguration = errors.New("stochastic: invalid configuration")

	// ErrUnimplemented reports a distribution that is recognized but has no
	// sampling rule.
	ErrUnimplemented = errors.New("stochastic: distribution not implemented")

	// ErrResamplingExhausted reports that rejection sampling gave up before
	// producing a value within range.
	ErrResamplingExhausted = errors.New("stochastic: resampling budget exhausted")

	// ErrDisposed is returned when a disposed Scheduler is started.
	ErrDisposed = errors.New("stochastic: scheduler is disposed")
)
