package bundle

import "errors"

// Sentinel errors for bundle operations.
var (
	ErrCorrupt      = errors.New("bundle is corrupt or not an mdz archive")
	ErrMissingMain  = errors.New("bundle has no main document")
	ErrMetadata     = errors.New("bundle metadata is not a valid YAML mapping")
	ErrUnsafePath   = errors.New("bundle entry path escapes the bundle")
	ErrInvalidLevel = errors.New("invalid compression level")
	ErrTooLarge     = errors.New("bundle entry exceeds maximum size")
)
