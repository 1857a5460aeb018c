// Package diagram renders fenced diagram blocks (Mermaid, PlantUML, and
// dialects declared by plugin manifests) through external compilers.
package diagram

import (
	"bytes"
	"context"
	"crypto/sha256"
	"html"
	"regexp"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"go.uber.org/zap"

	"github.com/alnah/go-mdz/internal/renderer"
	"github.com/alnah/go-mdz/processor"
)

// maxCached bounds the per-processor render cache.
const maxCached = 128

type result struct {
	svg []byte
	err error
}

// Processor detects and renders one diagram dialect.
type Processor struct {
	dialect    Dialect
	adapter    *renderer.Adapter // nil when disabled by configuration
	scriptHost bool
	style      string
	logger     *zap.Logger
	fence      *regexp.Regexp

	mu    sync.Mutex
	cache map[[sha256.Size]byte]result
}

// NewFactory returns a factory for d. All instances share resolver, so the
// tool is located at most once per process.
func NewFactory(d Dialect, resolver *renderer.Resolver) processor.Factory {
	fence := processor.FencePattern(d.Fences...)
	return func(cfg processor.Config) (processor.Processor, error) {
		p := &Processor{
			dialect:    d,
			scriptHost: cfg.ScriptHost,
			style:      cfg.HighlightStyle,
			logger:     cfg.Log().With(zap.String("processor", d.ID)),
			fence:      fence,
			cache:      make(map[[sha256.Size]byte]result),
		}
		if !cfg.RendererDisabled(d.Tool.Name) && !cfg.RendererDisabled(d.ID) {
			timeout := cfg.RendererTimeout
			if d.Timeout > 0 {
				timeout = d.Timeout
			}
			p.adapter = renderer.NewAdapter(d.Tool, resolver, timeout, p.logger)
		}
		return p, nil
	}
}

// Detect returns one span per fenced block tagged with the dialect.
func (p *Processor) Detect(text string) []processor.Span {
	blocks := processor.FindFenced(p.fence, text)
	spans := make([]processor.Span, len(blocks))
	for i, b := range blocks {
		spans[i] = processor.Span{
			Start:   b.Start,
			End:     b.End,
			Kind:    p.dialect.Kind,
			Payload: b.Body,
			Flags:   processor.Flags{Block: true, Lang: b.Tag},
		}
	}
	return spans
}

// RenderPreview embeds the rendered SVG, else a live widget when the host
// runs scripts, else the highlighted source with an unavailability note.
func (p *Processor) RenderPreview(span processor.Span) string {
	svg, err := p.render(span.Payload)
	if err == nil {
		return p.figure(svg)
	}
	if p.scriptHost && p.dialect.LiveWidget != nil {
		return p.dialect.LiveWidget(span.Payload)
	}
	return p.sourceFallback(span)
}

// RenderExport embeds SVG for formats that accept markup and emits a
// labeled placeholder with the original source otherwise.
func (p *Processor) RenderExport(span processor.Span, format processor.Format) string {
	if format.SupportsMarkup() {
		if svg, err := p.render(span.Payload); err == nil {
			return p.figure(svg)
		}
	}
	return processor.Placeholder(p.dialect.Label+" Placeholder", lang(span, p.dialect), span.Payload)
}

func lang(span processor.Span, d Dialect) string {
	if span.Flags.Lang != "" {
		return span.Flags.Lang
	}
	return d.Fences[0]
}

func (p *Processor) figure(svg []byte) string {
	if i := bytes.Index(svg, []byte("<svg")); i > 0 {
		svg = svg[i:]
	}
	return `<div class="diagram diagram-` + p.dialect.ID + `">` + string(bytes.TrimSpace(svg)) + `</div>`
}

// render runs the external tool once per distinct source.
func (p *Processor) render(src string) ([]byte, error) {
	if p.adapter == nil {
		return nil, renderer.ErrUnavailable
	}
	if p.dialect.Prepare != nil {
		src = p.dialect.Prepare(src)
	}
	key := sha256.Sum256([]byte(src))

	p.mu.Lock()
	if r, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return r.svg, r.err
	}
	p.mu.Unlock()

	svg, err := p.adapter.Render(context.Background(), src)

	p.mu.Lock()
	if len(p.cache) >= maxCached {
		clear(p.cache)
	}
	p.cache[key] = result{svg: svg, err: err}
	p.mu.Unlock()
	return svg, err
}

func (p *Processor) sourceFallback(span processor.Span) string {
	var buf bytes.Buffer
	buf.WriteString(`<div class="diagram-fallback"><p class="diagram-note">`)
	buf.WriteString(html.EscapeString(p.dialect.Label + " renderer unavailable; showing source."))
	buf.WriteString(`</p>`)
	if err := p.highlight(&buf, span.Payload); err != nil {
		buf.WriteString(`<pre><code>` + html.EscapeString(span.Payload) + `</code></pre>`)
	}
	buf.WriteString(`</div>`)
	return buf.String()
}

func (p *Processor) highlight(buf *bytes.Buffer, src string) error {
	lexer := lexers.Get(p.dialect.Lexer)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(p.style)
	if style == nil {
		style = styles.Fallback
	}
	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(false)).Format(&out, style, iterator); err != nil {
		return err
	}
	buf.Write(out.Bytes())
	return nil
}

// Scripts returns the live widget scripts in a scriptable host.
func (p *Processor) Scripts() []string {
	if p.scriptHost && p.dialect.LiveWidget != nil {
		return p.dialect.WidgetScripts
	}
	return nil
}

// Styles is empty; diagram classes are styled by the page stylesheet.
func (p *Processor) Styles() []string { return nil }

// Dependencies names the external compiler.
func (p *Processor) Dependencies() []string {
	return []string{p.dialect.Tool.Command}
}

// CheckDependencies reports whether the compiler was found.
func (p *Processor) CheckDependencies() bool {
	return p.adapter != nil && p.adapter.Available(context.Background())
}
