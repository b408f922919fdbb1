package auth

import "errors"

// ErrInvalidToken is returned when a token is malformed or its signature
// does not verify.
var ErrInvalidToken = errors.New("invalid token")
