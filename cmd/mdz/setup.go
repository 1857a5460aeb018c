package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	mdz "github.com/alnah/go-mdz"
	"github.com/alnah/go-mdz/internal/config"
	"github.com/alnah/go-mdz/internal/fileutil"
	"github.com/alnah/go-mdz/internal/hints"
	"github.com/alnah/go-mdz/internal/logger"
)

// loadConfig resolves configuration with precedence
// flags > MDZ_* variables > config file > defaults.
func loadConfig(flags commonFlags, env *Environment) (*config.Config, *envOverrides, error) {
	overrides := loadEnvOverrides(env.Getenv)
	if !flags.quiet && env.Environ != nil {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	cfg := config.DefaultConfig()
	name := flags.config
	if name == "" {
		name = overrides.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
				return nil, nil, withHint(err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, nil, err
		}
		cfg = loaded
	}

	overrides.apply(cfg)
	switch {
	case flags.verbose:
		cfg.Log.Level = "debug"
	case flags.quiet:
		cfg.Log.Level = "error"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, overrides, nil
}

// session is the configured state shared by one command run.
type session struct {
	engine    *mdz.Engine
	cfg       *config.Config
	overrides *envOverrides
	log       *zap.Logger
}

// openSession loads configuration, applies adjust in order, and builds the
// logger and engine.
func openSession(flags commonFlags, env *Environment, adjust ...func(*config.Config)) (*session, error) {
	cfg, overrides, err := loadConfig(flags, env)
	if err != nil {
		return nil, err
	}
	for _, fn := range adjust {
		fn(cfg)
	}
	if len(adjust) > 0 {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log, err := logger.NewTo(env.Stderr, cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}
	opts := append([]mdz.Option{mdz.WithConfig(cfg), mdz.WithLogger(log)}, env.EngineOptions...)
	eng, err := mdz.NewEngine(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing engine: %w", err)
	}
	return &session{engine: eng, cfg: cfg, overrides: overrides, log: log}, nil
}
