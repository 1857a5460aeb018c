package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-mdz/internal/renderer"
	"github.com/alnah/go-mdz/processor"
)

// RegisterFunc is the entry point every plugin provides.
type RegisterFunc = func(*processor.Registry) error

// Failure records one file or directory that could not be loaded.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes a Load call.
type Report struct {
	Loaded []string // plugin file paths, in load order
	Failed []Failure
}

// Loader registers plugins into a registry.
type Loader struct {
	registry *processor.Registry
	resolver *renderer.Resolver
	logger   *zap.Logger

	openGo func(path string) (RegisterFunc, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load failures.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithResolver sets the resolver shared by manifest dialects.
func WithResolver(r *renderer.Resolver) Option {
	return func(ld *Loader) {
		if r != nil {
			ld.resolver = r
		}
	}
}

// NewLoader creates a Loader for registry.
func NewLoader(registry *processor.Registry, opts ...Option) *Loader {
	ld := &Loader{
		registry: registry,
		logger:   zap.NewNop(),
		openGo:   openGoPlugin,
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.resolver == nil {
		ld.resolver = renderer.NewResolver(nil)
	}
	return ld
}

// Load scans dirs in order and registers every plugin found.
func (ld *Loader) Load(dirs ...string) Report {
	var rep Report
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		ld.loadDir(dir, &rep)
	}
	return rep
}

func (ld *Loader) loadDir(dir string, rep *Report) {
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}
	if err != nil {
		ld.fail(rep, dir, err)
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		ld.fail(rep, dir, err)
		return
	}
	slices.SortFunc(entries, func(a, b os.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		var register RegisterFunc
		switch strings.ToLower(filepath.Ext(name)) {
		case ".so":
			register, err = ld.openGo(path)
		case ".yaml", ".yml":
			register, err = ld.openManifest(path)
		default:
			continue
		}
		if err == nil {
			err = safeRegister(register, ld.registry)
		}
		if err != nil {
			ld.fail(rep, path, err)
			continue
		}
		ld.logger.Debug("plugin loaded", zap.String("path", path))
		rep.Loaded = append(rep.Loaded, path)
	}
}

func (ld *Loader) fail(rep *Report, path string, err error) {
	ld.logger.Warn("plugin not loaded", zap.String("path", path), zap.Error(err))
	rep.Failed = append(rep.Failed, Failure{Path: path, Err: err})
}

func safeRegister(register RegisterFunc, reg *processor.Registry) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("register panic: %v", rec)
		}
	}()
	return register(reg)
}
