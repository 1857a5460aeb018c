package mdz

import (
	"go.uber.org/zap"

	"github.com/alnah/go-mdz/internal/config"
	"github.com/alnah/go-mdz/internal/renderer"
)

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	cfg        *config.Config
	logger     *zap.Logger
	runner     renderer.Runner
	resolver   *renderer.Resolver
	pluginDirs []string
}

// WithConfig sets the configuration. Nil keeps config.DefaultConfig().
func WithConfig(cfg *config.Config) Option {
	return func(o *engineOptions) {
		if cfg != nil {
			o.cfg = cfg
		}
	}
}

// WithLogger sets the engine logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRunner sets the command runner used for external renderers.
func WithRunner(r renderer.Runner) Option {
	return func(o *engineOptions) {
		if r != nil {
			o.runner = r
		}
	}
}

// WithResolver replaces the tool resolver. It takes precedence over
// WithRunner.
func WithResolver(r *renderer.Resolver) Option {
	return func(o *engineOptions) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithPluginDirs adds plugin directories after those in the configuration.
func WithPluginDirs(dirs ...string) Option {
	return func(o *engineOptions) {
		o.pluginDirs = append(o.pluginDirs, dirs...)
	}
}
