package domain

import "errors"

var (
	// ErrMalformedQuote marks input rejected at the graph boundary:
	// bad currency codes, non-positive rates, non-finite logarithms.
	ErrMalformedQuote = errors.New("malformed quote")

	// ErrInconsistentCycle marks a detection pass whose reconstructed
	// cycle failed verification. The pass is abandoned; the graph stays.
	ErrInconsistentCycle = errors.New("inconsistent cycle reconstruction")
)
