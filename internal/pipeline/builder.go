package pipeline

import (
	"context"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-mdz/internal/assets"
	"github.com/alnah/go-mdz/processor"
)

// PageOptions controls page assembly.
type PageOptions struct {
	Title      string // Empty = first heading, then SourceName
	SourceName string // Source file name, used for the title fallback
	BaseDir    string // Directory relative references resolve against; empty = no rewrite
	Style      string // Stylesheet name (default: assets.DefaultStyleName)
	Template   string // Template name (default: assets.DefaultTemplateName)
	Lang       string
}

// Builder turns Markdown into preview HTML through a processor registry.
type Builder struct {
	registry  *processor.Registry
	loader    assets.Loader
	converter HTMLConverter
	highlight string
	logger    *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLoader sets the asset loader (default: embedded assets).
func WithLoader(l assets.Loader) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.loader = l
		}
	}
}

// WithConverter replaces the Markdown converter.
func WithConverter(c HTMLConverter) BuilderOption {
	return func(b *Builder) {
		if c != nil {
			b.converter = c
		}
	}
}

// WithHighlightStyle sets the chroma style for fenced code.
func WithHighlightStyle(name string) BuilderOption {
	return func(b *Builder) {
		if name != "" {
			b.highlight = name
		}
	}
}

// WithLogger sets the builder logger.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder over reg.
func NewBuilder(reg *processor.Registry, opts ...BuilderOption) *Builder {
	b := &Builder{
		registry:  reg,
		loader:    assets.NewEmbeddedLoader(),
		highlight: DefaultHighlightStyle,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.converter == nil {
		b.converter = NewGoldmarkConverter(b.highlight)
	}
	return b
}

// Body converts text to an HTML body fragment: processor spans render
// through the registry, everything else through the Markdown converter.
// Relative references are rewritten against baseDir when it is set.
func (b *Builder) Body(ctx context.Context, text string, cfg processor.Config, baseDir string) (string, error) {
	text = NormalizeLineEndings(text)

	var st stash
	matches := b.registry.Detect(text, cfg)
	reps := make([]processor.Replacement, len(matches))
	for i, m := range matches {
		frag := b.registry.Render(m, processor.Preview())
		reps[i] = processor.Replacement{
			Start: m.Start,
			End:   m.End,
			Text:  st.put(frag, isBlock(text, m.Start, m.End)),
		}
	}
	text = processor.Splice(text, reps)
	b.logger.Debug("spans stashed", zap.Int("count", len(st.fragments)))

	text = compressBlankLines(convertHighlights(text))

	body, err := b.converter.ToHTML(ctx, text)
	if err != nil {
		return "", err
	}
	body = ConvertMarkPlaceholders(st.restore(body))

	body, err = RewriteRelativePaths(body, baseDir)
	if err != nil {
		return "", fmt.Errorf("rewriting paths: %w", err)
	}
	return body, nil
}

// Page renders text as a complete HTML document.
func (b *Builder) Page(ctx context.Context, text string, cfg processor.Config, opts PageOptions) (string, error) {
	body, err := b.Body(ctx, text, cfg, opts.BaseDir)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	styleName := opts.Style
	if styleName == "" {
		styleName = assets.DefaultStyleName
	}
	css, err := b.loader.LoadStyle(styleName)
	if err != nil {
		return "", fmt.Errorf("loading style: %w", err)
	}
	hlCSS, err := HighlightCSS(b.highlight)
	if err != nil {
		return "", err
	}

	tmplName := opts.Template
	if tmplName == "" {
		tmplName = assets.DefaultTemplateName
	}
	content, err := b.loader.LoadTemplate(tmplName)
	if err != nil {
		return "", fmt.Errorf("loading template: %w", err)
	}
	tmpl, err := NewPageTemplate(content)
	if err != nil {
		return "", err
	}

	var head []template.HTML
	for _, s := range b.registry.Styles(cfg) {
		head = append(head, template.HTML(s)) // #nosec G203 -- processor-owned markup
	}
	for _, s := range b.registry.Scripts(cfg) {
		head = append(head, template.HTML(s)) // #nosec G203 -- processor-owned markup
	}

	return tmpl.Render(Page{
		Lang:  opts.Lang,
		Title: pageTitle(opts, body),
		Style: template.CSS(sanitizeCSS(css + "\n" + hlCSS)), // #nosec G203 -- trusted stylesheet
		Head:  head,
		Body:  template.HTML(body), // #nosec G203 -- goldmark output without raw HTML
	})
}

func pageTitle(opts PageOptions, body string) string {
	if t := strings.TrimSpace(opts.Title); t != "" {
		return t
	}
	if h := FirstHeading(body); h != "" {
		return h
	}
	if opts.SourceName != "" {
		base := filepath.Base(opts.SourceName)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return DefaultTitle
}
