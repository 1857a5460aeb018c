package renderer

import "errors"

// Sentinel errors for renderer failures.
var (
	ErrUnavailable   = errors.New("renderer not available")
	ErrTimeout       = errors.New("renderer timed out")
	ErrToolFailed    = errors.New("renderer exited with error")
	ErrEmptyOutput   = errors.New("renderer produced no output")
	ErrInvalidOutput = errors.New("renderer output is not valid")
)
