package processor

import "errors"

// Sentinel errors for registration and target parsing.
var (
	ErrEmptyID       = errors.New("processor id cannot be empty")
	ErrDuplicateID   = errors.New("processor id already registered")
	ErrNilFactory    = errors.New("processor factory cannot be nil")
	ErrUnknownFormat = errors.New("unknown export format")
	ErrInvalidTarget = errors.New("invalid render target")
)
