package repository

import "errors"

// Sentinel kinds for gateway errors.
var (
	ErrMatchNotFound = errors.New("match not found or not active")
	ErrWriteFailed   = errors.New("gateway write failed")
)
