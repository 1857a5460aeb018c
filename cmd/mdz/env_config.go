package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-mdz/internal/config"
)

// Recognized environment variables.
const (
	envConfig     = "MDZ_CONFIG"      // config file name or path
	envLogLevel   = "MDZ_LOG_LEVEL"   // debug, info, warn, error
	envPluginDirs = "MDZ_PLUGIN_DIRS" // path-list separated plugin directories
	envWorkers    = "MDZ_WORKERS"     // render workers
	envContainer  = "MDZ_CONTAINER"   // "1" forces container detection in doctor
)

var knownEnvVars = map[string]bool{
	envConfig:     true,
	envLogLevel:   true,
	envPluginDirs: true,
	envWorkers:    true,
	envContainer:  true,
}

// envOverrides holds configuration read from MDZ_* variables.
type envOverrides struct {
	ConfigPath string
	LogLevel   string
	PluginDirs []string
	Workers    int
}

// loadEnvOverrides reads MDZ_* variables. Unparsable numbers are ignored.
func loadEnvOverrides(getenv func(string) string) *envOverrides {
	o := &envOverrides{
		ConfigPath: getenv(envConfig),
		LogLevel:   getenv(envLogLevel),
	}
	if dirs := getenv(envPluginDirs); dirs != "" {
		for _, d := range filepath.SplitList(dirs) {
			if d = strings.TrimSpace(d); d != "" {
				o.PluginDirs = append(o.PluginDirs, d)
			}
		}
	}
	if workers := getenv(envWorkers); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			o.Workers = w
		}
	}
	return o
}

// warnUnknownEnvVars reports MDZ_* variables that are not recognized.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "MDZ_") && !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// apply layers the overrides on top of the file configuration.
// Plugin directories are appended to the configured ones.
func (o *envOverrides) apply(cfg *config.Config) {
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	cfg.Plugins.Dirs = append(cfg.Plugins.Dirs, o.PluginDirs...)
}
