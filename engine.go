package mdz

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/alnah/go-mdz/internal/assets"
	"github.com/alnah/go-mdz/internal/config"
	"github.com/alnah/go-mdz/internal/pipeline"
	"github.com/alnah/go-mdz/internal/plugin"
	"github.com/alnah/go-mdz/internal/processors/chart"
	"github.com/alnah/go-mdz/internal/processors/diagram"
	"github.com/alnah/go-mdz/internal/processors/imageref"
	"github.com/alnah/go-mdz/internal/processors/mathexpr"
	"github.com/alnah/go-mdz/internal/processors/media"
	"github.com/alnah/go-mdz/internal/processors/table"
	"github.com/alnah/go-mdz/internal/renderer"
	"github.com/alnah/go-mdz/processor"
)

// Document is one Markdown source.
type Document struct {
	Text    string
	BaseDir string // directory relative references resolve against
	Name    string // source file name, used for the preview title
}

// Engine renders documents through a processor registry. It is safe for
// concurrent use.
type Engine struct {
	cfg      *config.Config
	registry *processor.Registry
	resolver *renderer.Resolver
	builder  *pipeline.Builder
	plugins  plugin.Report
	logger   *zap.Logger
}

// NewEngine creates an Engine with the built-in processors and any plugins
// found in the configured directories. Plugin failures are logged and
// reported by Plugins; they do not fail construction.
func NewEngine(opts ...Option) (*Engine, error) {
	o := engineOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg == nil {
		o.cfg = config.DefaultConfig()
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	resolver := o.resolver
	if resolver == nil {
		resolver = renderer.NewResolver(o.runner)
	}
	for _, name := range o.cfg.Renderers.Disabled {
		resolver.Disable(name)
	}

	loader, err := assets.NewResolver(o.cfg.Assets.BasePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssets, err)
	}

	registry := processor.NewRegistry(processor.WithLogger(o.logger))
	if err := RegisterBuiltins(registry, resolver); err != nil {
		return nil, err
	}

	dirs := slices.Concat(o.cfg.Plugins.Dirs, o.pluginDirs)
	report := plugin.NewLoader(registry,
		plugin.WithLogger(o.logger),
		plugin.WithResolver(resolver),
	).Load(dirs...)
	if len(dirs) > 0 {
		o.logger.Info("plugins loaded",
			zap.Int("loaded", len(report.Loaded)), zap.Int("failed", len(report.Failed)))
	}

	builder := pipeline.NewBuilder(registry,
		pipeline.WithLoader(loader),
		pipeline.WithHighlightStyle(o.cfg.Preview.Highlight),
		pipeline.WithLogger(o.logger),
	)

	return &Engine{
		cfg:      o.cfg,
		registry: registry,
		resolver: resolver,
		builder:  builder,
		plugins:  report,
		logger:   o.logger,
	}, nil
}

// RegisterBuiltins registers the built-in processors with their default
// priorities. Diagram processors share resolver.
func RegisterBuiltins(reg *processor.Registry, resolver *renderer.Resolver) error {
	mermaid, plantuml := diagram.Mermaid(), diagram.PlantUML()
	builtins := []struct {
		id       string
		factory  processor.Factory
		priority int
	}{
		{mermaid.ID, diagram.NewFactory(mermaid, resolver), mermaid.Priority},
		{mathexpr.ID, mathexpr.New, mathexpr.Priority},
		{imageref.ID, imageref.New, imageref.Priority},
		{table.ID, table.New, table.Priority},
		{media.ID, media.New, media.Priority},
		{chart.ID, chart.New, chart.Priority},
		{plantuml.ID, diagram.NewFactory(plantuml, resolver), plantuml.Priority},
	}
	for _, b := range builtins {
		if err := reg.Register(b.id, b.factory, b.priority); err != nil {
			return fmt.Errorf("registering %s: %w", b.id, err)
		}
	}
	return nil
}

// Registry returns the engine's processor registry.
func (e *Engine) Registry() *processor.Registry {
	return e.registry
}

// Plugins returns the outcome of plugin discovery.
func (e *Engine) Plugins() plugin.Report {
	return e.plugins
}

// ProcessorConfig returns the processor configuration shared by every
// document the engine renders.
func (e *Engine) ProcessorConfig() processor.Config {
	return processor.Config{
		MathEngine:        e.cfg.Math.Engine,
		AssetPaths:        e.cfg.Assets.Paths,
		RendererTimeout:   e.cfg.RendererTimeout(),
		ScriptHost:        e.cfg.Preview.ScriptHost,
		DisabledRenderers: e.cfg.Renderers.Disabled,
		HighlightStyle:    e.cfg.Preview.Highlight,
		Logger:            e.logger,
	}
}

// Process rewrites every detected span of doc for target and returns the
// new text. Markdown outside the spans is left as written.
func (e *Engine) Process(doc Document, target processor.Target) string {
	return e.registry.Process(doc.Text, target, e.ProcessorConfig())
}

// Export processes doc for a static format backend.
func (e *Engine) Export(doc Document, format processor.Format) string {
	return e.Process(doc, processor.Export(format))
}

// Preview renders doc as a complete HTML page including every script and
// stylesheet the processors need.
func (e *Engine) Preview(ctx context.Context, doc Document) (string, error) {
	return e.builder.Page(ctx, doc.Text, e.ProcessorConfig(), pipeline.PageOptions{
		Title:      e.cfg.Preview.Title,
		SourceName: doc.Name,
		BaseDir:    absDir(doc.BaseDir),
		Style:      e.cfg.Preview.Style,
	})
}

// absDir makes dir absolute when possible; empty stays empty.
func absDir(dir string) string {
	if dir == "" {
		return ""
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// Dependency is the status of one processor's external tools.
type Dependency struct {
	Processor string
	Tools     []string
	Available bool
}

// Dependencies reports each registered processor's tools and whether they
// are usable, in registry order.
func (e *Engine) Dependencies() []Dependency {
	cfg := e.ProcessorConfig()
	status := e.registry.CheckDependencies(cfg)
	entries := e.registry.Processors(cfg)

	deps := make([]Dependency, 0, len(status))
	seen := make(map[string]bool)
	for _, entry := range entries {
		seen[entry.ID] = true
		deps = append(deps, Dependency{
			Processor: entry.ID,
			Tools:     entry.Processor.Dependencies(),
			Available: status[entry.ID],
		})
	}
	// Processors whose factory failed.
	for _, id := range e.registry.IDs() {
		if !seen[id] {
			deps = append(deps, Dependency{Processor: id})
		}
	}
	return deps
}

// Tools resolves the built-in external renderers, including their version.
func (e *Engine) Tools(ctx context.Context) []renderer.Resolution {
	tools := []renderer.Tool{renderer.Mermaid(), renderer.PlantUML()}
	out := make([]renderer.Resolution, len(tools))
	for i, t := range tools {
		out[i] = e.resolver.Resolve(ctx, t)
	}
	return out
}
