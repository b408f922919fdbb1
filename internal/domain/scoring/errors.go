package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrImpossibleTiming rejects submissions faster than any human could read
	// the question.
	ErrImpossibleTiming = errors.New("invalid answer timing")
)
