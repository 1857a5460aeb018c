package main

import (
	"errors"
	"os"

	mdz "github.com/alnah/go-mdz"
	"github.com/alnah/go-mdz/internal/bundle"
	"github.com/alnah/go-mdz/internal/config"
	"github.com/alnah/go-mdz/internal/dateutil"
	"github.com/alnah/go-mdz/internal/logger"
	"github.com/alnah/go-mdz/processor"
)

// Exit codes for the mdz CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Command completed
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBundle  = 4 // Corrupt bundle or missing main document
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Bundle format errors (exit 4)
	if errors.Is(err, bundle.ErrCorrupt) ||
		errors.Is(err, bundle.ErrMissingMain) ||
		errors.Is(err, bundle.ErrMetadata) ||
		errors.Is(err, bundle.ErrUnsafePath) ||
		errors.Is(err, bundle.ErrTooLarge) {
		return ExitBundle
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, logger.ErrInvalidLevel) ||
		errors.Is(err, logger.ErrInvalidEncoding) ||
		errors.Is(err, mdz.ErrInvalidConfig) ||
		errors.Is(err, mdz.ErrInvalidAssets) ||
		errors.Is(err, processor.ErrInvalidTarget) ||
		errors.Is(err, processor.ErrUnknownFormat) ||
		errors.Is(err, bundle.ErrInvalidLevel) ||
		errors.Is(err, dateutil.ErrInvalidFormat) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	return ExitGeneral
}
