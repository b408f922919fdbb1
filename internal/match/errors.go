package match

import "errors"

// Sentinel kinds surfaced to clients through the transport layer.
var (
	ErrMatchNotFound  = errors.New("match not found or not active")
	ErrNotParticipant = errors.New("not a participant in this match")
	ErrInvalidTiming  = errors.New("invalid answer timing")
	ErrRateLimited    = errors.New("too many submissions, slow down")
)
