package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mdz/internal/fileutil"
	"github.com/alnah/go-mdz/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength  = 4096 // PATH_MAX on Linux
	MaxTitleLength = 200  // Preview page title
	MaxNameLength  = 100  // Renderer names, style names
	MaxPluginDirs  = 32
	MaxAssetPaths  = 1024
)

// Bounds for renderer timeouts and compression levels.
const (
	DefaultRendererTimeout = 15 * time.Second
	MaxRendererTimeout     = 5 * time.Minute
	DefaultBundleLevel     = 3
	MinBundleLevel         = 1
	MaxBundleLevel         = 22
)

// Config holds all configuration for processing, previewing and bundling.
type Config struct {
	Math      MathConfig      `yaml:"math"`
	Preview   PreviewConfig   `yaml:"preview"`
	Renderers RenderersConfig `yaml:"renderers"`
	Plugins   PluginsConfig   `yaml:"plugins"`
	Bundle    BundleConfig    `yaml:"bundle"`
	Assets    AssetsConfig    `yaml:"assets"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
}

// MathConfig selects the client-side typesetting engine.
type MathConfig struct {
	Engine string `yaml:"engine"` // "mathjax" (default) or "katex"
}

// PreviewConfig defines preview page options.
type PreviewConfig struct {
	ScriptHost bool   `yaml:"scriptHost"` // Host executes scripts (live diagram widgets)
	Title      string `yaml:"title"`      // Empty = first heading, then filename
	Style      string `yaml:"style"`      // Stylesheet name in assets (default: "preview")
	Highlight  string `yaml:"highlight"`  // Chroma style for code blocks (default: "github")
}

// RenderersConfig defines external renderer options.
type RenderersConfig struct {
	Timeout  string   `yaml:"timeout"`  // Go duration, e.g. "15s"
	Disabled []string `yaml:"disabled"` // Tool names forced unavailable
}

// PluginsConfig lists directories scanned for plugins.
type PluginsConfig struct {
	Dirs []string `yaml:"dirs"`
}

// BundleConfig defines bundle compression options.
type BundleConfig struct {
	Level int `yaml:"level"` // zstd effort, 1-22 (default: 3)
}

// AssetsConfig defines asset loading and resolution options.
type AssetsConfig struct {
	BasePath string            `yaml:"basePath"` // Empty = use embedded assets
	Paths    map[string]string `yaml:"paths"`    // Logical image path -> file
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = same as source
}

// LogConfig defines logging options.
type LogConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // console, json
}

// RendererTimeout returns the parsed renderer timeout, or the default when unset.
func (c *Config) RendererTimeout() time.Duration {
	if c.Renderers.Timeout == "" {
		return DefaultRendererTimeout
	}
	d, err := time.ParseDuration(c.Renderers.Timeout)
	if err != nil || d <= 0 {
		return DefaultRendererTimeout
	}
	return d
}

// BundleLevel returns the configured compression level, or the default when unset.
func (c *Config) BundleLevel() int {
	if c.Bundle.Level == 0 {
		return DefaultBundleLevel
	}
	return c.Bundle.Level
}

// Validate checks enumerations, bounds and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Math.Engine) {
	case "", "mathjax", "katex":
	default:
		return fmt.Errorf("%w: math.engine %q (must be mathjax or katex)", ErrInvalidValue, c.Math.Engine)
	}

	if err := validateFieldLength("preview.title", c.Preview.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("preview.style", c.Preview.Style, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("preview.highlight", c.Preview.Highlight, MaxNameLength); err != nil {
		return err
	}

	if c.Renderers.Timeout != "" {
		d, err := time.ParseDuration(c.Renderers.Timeout)
		if err != nil {
			return fmt.Errorf("%w: renderers.timeout %q: %v", ErrInvalidValue, c.Renderers.Timeout, err)
		}
		if d <= 0 || d > MaxRendererTimeout {
			return fmt.Errorf("%w: renderers.timeout must be between 0 and %s, got %s", ErrInvalidValue, MaxRendererTimeout, d)
		}
	}
	for i, name := range c.Renderers.Disabled {
		if err := validateFieldLength(fmt.Sprintf("renderers.disabled[%d]", i), name, MaxNameLength); err != nil {
			return err
		}
	}

	if len(c.Plugins.Dirs) > MaxPluginDirs {
		return fmt.Errorf("%w: plugins.dirs has %d entries (max %d)", ErrInvalidValue, len(c.Plugins.Dirs), MaxPluginDirs)
	}
	for i, dir := range c.Plugins.Dirs {
		if err := validateFieldLength(fmt.Sprintf("plugins.dirs[%d]", i), dir, MaxPathLength); err != nil {
			return err
		}
	}

	if c.Bundle.Level != 0 && (c.Bundle.Level < MinBundleLevel || c.Bundle.Level > MaxBundleLevel) {
		return fmt.Errorf("%w: bundle.level must be between %d and %d, got %d", ErrInvalidValue, MinBundleLevel, MaxBundleLevel, c.Bundle.Level)
	}

	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}
	if len(c.Assets.Paths) > MaxAssetPaths {
		return fmt.Errorf("%w: assets.paths has %d entries (max %d)", ErrInvalidValue, len(c.Assets.Paths), MaxAssetPaths)
	}
	for key, path := range c.Assets.Paths {
		if err := validateFieldLength("assets.paths["+key+"]", path, MaxPathLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Encoding) {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log.encoding %q (must be console or json)", ErrInvalidValue, c.Log.Encoding)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Math:      MathConfig{Engine: "mathjax"},
		Preview:   PreviewConfig{ScriptHost: true, Style: "preview", Highlight: "github"},
		Renderers: RenderersConfig{Timeout: DefaultRendererTimeout.String()},
		Bundle:    BundleConfig{Level: DefaultBundleLevel},
		Log:       LogConfig{Level: "warn", Encoding: "console"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the candidate locations for a config name, in lookup order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-mdz", name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries the current directory, then ~/.config/go-mdz/, each with .yaml then .yml.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
