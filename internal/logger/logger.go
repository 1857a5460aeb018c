// Package logger builds the zap loggers used by the CLI and library.
package logger

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ErrInvalidLevel    = errors.New("invalid log level")
	ErrInvalidEncoding = errors.New("invalid log encoding")
)

// New creates a logger writing to stderr at the given level
// (debug, info, warn, error) with the given encoding (console, json).
// Empty values default to warn and console.
func New(level, encoding string) (*zap.Logger, error) {
	config, err := buildConfig(level, encoding)
	if err != nil {
		return nil, err
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// NewTo is like New but writes to w.
func NewTo(w io.Writer, level, encoding string) (*zap.Logger, error) {
	config, err := buildConfig(level, encoding)
	if err != nil {
		return nil, err
	}

	var enc zapcore.Encoder
	if config.Encoding == "json" {
		enc = zapcore.NewJSONEncoder(config.EncoderConfig)
	} else {
		enc = zapcore.NewConsoleEncoder(config.EncoderConfig)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), config.Level)), nil
}

func buildConfig(level, encoding string) (zap.Config, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zap.Config{}, err
	}

	var config zap.Config
	switch strings.ToLower(encoding) {
	case "", "console":
		config = zap.NewDevelopmentConfig()
		config.Development = false
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		config = zap.NewProductionConfig()
	default:
		return zap.Config{}, fmt.Errorf("%w: %q", ErrInvalidEncoding, encoding)
	}

	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	config.DisableStacktrace = true
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config, nil
}

// ParseLevel converts a level name to a zap level. Empty means warn.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel, nil
	case "info":
		return zap.InfoLevel, nil
	case "", "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zap.WarnLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
