package sentinel

import "errors"

// Store and upstream errors. Dependencies return these (optionally wrapped)
// so services can translate them into domain errors exactly once.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("stale write")
	ErrUnavailable  = errors.New("unavailable")
)
