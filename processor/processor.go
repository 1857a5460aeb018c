package processor

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Processor detects one family of content blocks and rewrites them.
//
// Detect must be pure: the same text always yields the same spans, and the
// spans of one call never overlap. Render methods never panic on malformed
// payloads; they return a visible fragment that keeps the raw payload.
// Instances are shared across renders, so they must not mutate state
// observable by Detect or the render methods after construction, except
// through internally synchronized caches.
type Processor interface {
	Detect(text string) []Span
	RenderPreview(span Span) string
	RenderExport(span Span, format Format) string

	// Scripts and Styles list resources the preview page must include once.
	Scripts() []string
	Styles() []string

	// Dependencies names external tools; CheckDependencies reports whether
	// they are usable. Neither blocks detection or rendering.
	Dependencies() []string
	CheckDependencies() bool
}

// Factory builds a processor for a configuration.
type Factory func(cfg Config) (Processor, error)

// Math engines understood by the math processor.
const (
	EngineMathJax = "mathjax"
	EngineKaTeX   = "katex"
)

// Config is the configuration injected into processor factories.
// Instances are memoized by Key, so two configs with equal keys share
// processor instances. Per-document state such as the source directory is
// not part of Config; callers apply it around the registry.
type Config struct {
	MathEngine        string
	AssetPaths        map[string]string // logical path -> resolved path
	RendererTimeout   time.Duration
	ScriptHost        bool // preview host executes scripts
	DisabledRenderers []string
	HighlightStyle    string // chroma style name
	Logger            *zap.Logger
}

// Key returns a stable string identifying the configuration. The logger is
// not part of the key: instances keep the logger of the first config that
// created them.
func (c Config) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "engine=%s;timeout=%s;script=%t;style=%s;",
		c.MathEngine, c.RendererTimeout, c.ScriptHost, c.HighlightStyle)

	disabled := slices.Clone(c.DisabledRenderers)
	slices.Sort(disabled)
	fmt.Fprintf(&b, "disabled=%q;", disabled)

	for _, k := range slices.Sorted(maps.Keys(c.AssetPaths)) {
		fmt.Fprintf(&b, "asset=%q:%q;", k, c.AssetPaths[k])
	}
	return b.String()
}

// Log returns the configured logger, or a no-op logger.
func (c Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// RendererDisabled reports whether the named external renderer is forced off.
func (c Config) RendererDisabled(name string) bool {
	return slices.Contains(c.DisabledRenderers, name)
}

// Engine returns the math engine, defaulting to MathJax.
func (c Config) Engine() string {
	if strings.EqualFold(c.MathEngine, EngineKaTeX) {
		return EngineKaTeX
	}
	return EngineMathJax
}
