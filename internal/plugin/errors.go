package plugin

import "errors"

// Sentinel errors for plugin loading.
var (
	ErrBadEntryPoint = errors.New("plugin has no valid Register entry point")
	ErrManifest      = errors.New("invalid plugin manifest")
	ErrNotDirectory  = errors.New("plugin path is not a directory")
)
