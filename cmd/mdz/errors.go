package main

import (
	"errors"
	"strings"

	"github.com/alnah/go-mdz/internal/bundle"
	"github.com/alnah/go-mdz/internal/hints"
	"github.com/alnah/go-mdz/internal/renderer"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoInput            = errors.New("no input specified")
	ErrReadInput          = errors.New("failed to read input file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// hintedError carries an actionable hint alongside its cause.
type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string { return e.err.Error() + e.hint }
func (e *hintedError) Unwrap() error { return e.err }

func withHint(err error, hint string) error {
	if err == nil || hint == "" {
		return err
	}
	return &hintedError{err: err, hint: hint}
}

// describe formats err for the terminal, adding a hint for known failures
// that do not already carry one.
func describe(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "\n  hint:") {
		return msg
	}
	switch {
	case errors.Is(err, bundle.ErrCorrupt):
		msg += hints.ForCorruptBundle()
	case errors.Is(err, bundle.ErrMissingMain):
		msg += hints.ForMissingMain(bundle.MainEntry)
	case errors.Is(err, renderer.ErrTimeout):
		msg += hints.ForTimeout()
	}
	return msg
}
