package auth

import "errors"

// Authentication failures are expected control flow, not faults. Callers
// match with errors.Is; only ErrTransient is worth retrying.
var (
	ErrInvalid   = errors.New("invalid token")
	ErrExpired   = errors.New("token expired")
	ErrRevoked   = errors.New("token revoked")
	ErrTransient = errors.New("token store unavailable")
)
