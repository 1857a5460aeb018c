package mdz

import "errors"

// Sentinel errors for engine operations.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidAssets = errors.New("invalid asset path")
	ErrEmptyOutput   = errors.New("output path cannot be empty")
)
