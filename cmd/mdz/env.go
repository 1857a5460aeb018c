package main

import (
	"io"
	"os"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	mdz "github.com/alnah/go-mdz"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Stdin   io.Reader
	Getenv  func(string) string
	Environ func() []string

	// LookBrowser locates a Chrome/Chromium binary for doctor.
	LookBrowser func() (string, bool)

	// EngineOptions are appended after the options built from config.
	EngineOptions []mdz.Option
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:         time.Now,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Stdin:       os.Stdin,
		Getenv:      os.Getenv,
		Environ:     os.Environ,
		LookBrowser: launcher.LookPath,
	}
}
