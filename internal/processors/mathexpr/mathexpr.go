// Package mathexpr detects TeX math delimited by $...$ and $$...$$.
package mathexpr

import (
	"bytes"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/alnah/go-mdz/processor"
)

// ID and Priority are the registry defaults for the math processor.
const (
	ID       = "math"
	Priority = 20
)

// matchTimeout bounds one regexp2 search.
const matchTimeout = 2 * time.Second

// pattern matches display math first, then inline math. A "$" preceded by a
// backslash is literal. Inline math may not start or end with whitespace,
// may not span lines, and its closing "$" may not be followed by a digit,
// so prices like "$5 and $10" are left alone.
const pattern = `(?<![\\$])\$\$(?<display>.+?)(?<![\\$])\$\$(?!\$)` +
	`|(?<![\\$])\$(?![\s$])(?<inline>[^$\n]+?)(?<![\s\\])\$(?![$\d])`

var delimiters = func() *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.Singleline)
	re.MatchTimeout = matchTimeout
	return re
}()

const (
	mathJaxConfig = `<script>window.MathJax = {tex: {inlineMath: [['\\(', '\\)']], displayMath: [['\\[', '\\]']], processEscapes: true}};</script>`
	mathJaxLoader = `<script id="MathJax-script" async src="https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js"></script>`

	katexStyle      = `<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/katex@0.16.8/dist/katex.min.css">`
	katexScript     = `<script defer src="https://cdn.jsdelivr.net/npm/katex@0.16.8/dist/katex.min.js"></script>`
	katexAutoRender = `<script defer src="https://cdn.jsdelivr.net/npm/katex@0.16.8/dist/contrib/auto-render.min.js" onload="renderMathInElement(document.body, {delimiters: [{left: '\\(', right: '\\)', display: false}, {left: '\\[', right: '\\]', display: true}]});"></script>`
)

// Processor rewrites math spans.
type Processor struct {
	engine string
	logger *zap.Logger

	mu     sync.Mutex
	mathml goldmark.Markdown
}

// New creates a math processor for cfg.
func New(cfg processor.Config) (processor.Processor, error) {
	return &Processor{
		engine: cfg.Engine(),
		logger: cfg.Log(),
		mathml: goldmark.New(goldmark.WithExtensions(treeblood.MathML())),
	}, nil
}

// Detect returns math spans outside code blocks and inline code.
func (p *Processor) Detect(text string) []processor.Span {
	if !strings.Contains(text, "$") {
		return nil
	}

	runes := []rune(text)
	offsets := byteOffsets(text, len(runes))
	code := processor.CodeRegions(text)

	var spans []processor.Span
	for pos := 0; pos < len(runes); {
		m, err := delimiters.FindRunesMatchStartingAt(runes, pos)
		if err != nil {
			p.logger.Warn("math detection aborted", zap.Error(err))
			break
		}
		if m == nil {
			break
		}

		start, end := offsets[m.Index], offsets[m.Index+m.Length]
		if processor.Intersects(code, start, end) {
			pos = m.Index + 1
			continue
		}

		span := processor.Span{Start: start, End: end, Kind: processor.KindMath}
		if g := m.GroupByName("display"); g != nil && len(g.Captures) > 0 {
			span.Payload = g.String()
			span.Flags.Block = true
		} else {
			span.Payload = m.GroupByName("inline").String()
		}
		spans = append(spans, span)
		pos = m.Index + m.Length
	}
	return spans
}

// byteOffsets maps rune indexes of text to byte offsets; the extra final
// entry is len(text).
func byteOffsets(text string, n int) []int {
	offsets := make([]int, 0, n+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

// RenderPreview emits \(...\) or \[...\] for the client-side engine.
func (p *Processor) RenderPreview(span processor.Span) string {
	tex := html.EscapeString(span.Payload)
	if span.Flags.Block {
		return `<div class="math display">\[` + tex + `\]</div>`
	}
	return `<span class="math inline">\(` + tex + `\)</span>`
}

// RenderExport emits MathML for HTML and EPUB, and the original
// delimiters for formats whose backends typeset TeX themselves.
func (p *Processor) RenderExport(span processor.Span, format processor.Format) string {
	switch format {
	case processor.FormatHTML, processor.FormatEPUB:
		if out, ok := p.toMathML(span); ok {
			return out
		}
		return p.RenderPreview(span)
	case processor.FormatPDF, processor.FormatLaTeX, processor.FormatDOCX:
		return original(span)
	default:
		return original(span)
	}
}

func original(span processor.Span) string {
	if span.Flags.Block {
		return "$$" + span.Payload + "$$"
	}
	return "$" + span.Payload + "$"
}

func (p *Processor) toMathML(span processor.Span) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	if err := p.mathml.Convert([]byte(original(span)), &buf); err != nil {
		p.logger.Warn("MathML conversion failed", zap.Error(err), zap.String("tex", span.Payload))
		return "", false
	}
	out := strings.TrimSpace(buf.String())
	out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	if !strings.Contains(out, "<math") {
		return "", false
	}
	return strings.TrimSpace(out), true
}

// Scripts returns the engine loader, configured for \( \) and \[ \].
func (p *Processor) Scripts() []string {
	if p.engine == processor.EngineKaTeX {
		return []string{katexScript, katexAutoRender}
	}
	return []string{mathJaxConfig, mathJaxLoader}
}

// Styles returns the KaTeX stylesheet when KaTeX is the engine.
func (p *Processor) Styles() []string {
	if p.engine == processor.EngineKaTeX {
		return []string{katexStyle}
	}
	return nil
}

// Dependencies is empty: typesetting happens in the preview host.
func (p *Processor) Dependencies() []string { return nil }

// CheckDependencies always succeeds.
func (p *Processor) CheckDependencies() bool { return true }
