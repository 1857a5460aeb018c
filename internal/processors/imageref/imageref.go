// Package imageref rewrites image references and inline SVG.
//
// Three forms are recognized outside code: Markdown images
// ![alt](src "title"), HTML <img> tags, and inline <svg> elements.
// Sources resolve through the configured asset path map.
package imageref

import (
	"html"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/alnah/go-mdz/internal/fileutil"
	"github.com/alnah/go-mdz/processor"
)

// Registry defaults.
const (
	ID       = "image"
	Priority = 30
)

var (
	markdownImage = regexp.MustCompile(`!\[([^\]\n]*)\]\(\s*(<[^>\n]*>|[^\s)]+)(?:\s+"([^"\n]*)")?\s*\)`)
	htmlImage     = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	inlineSVG     = regexp.MustCompile(`(?is)<svg\b.*?</svg\s*>`)
)

// Processor rewrites image references.
type Processor struct {
	assets map[string]string
	logger *zap.Logger
}

// New is a processor.Factory.
func New(cfg processor.Config) (processor.Processor, error) {
	return &Processor{
		assets: cfg.AssetPaths,
		logger: cfg.Log().With(zap.String("processor", ID)),
	}, nil
}

// Detect returns image and svg spans outside code, in text order.
// An <img> inside an inline SVG belongs to the SVG.
func (p *Processor) Detect(text string) []processor.Span {
	code := processor.CodeRegions(text)
	var spans []processor.Span

	for _, m := range inlineSVG.FindAllStringIndex(text, -1) {
		if processor.Intersects(code, m[0], m[1]) {
			continue
		}
		raw := text[m[0]:m[1]]
		spans = append(spans, processor.Span{
			Start: m[0], End: m[1], Kind: processor.KindSVG, Payload: raw,
			Flags: processor.Flags{Block: true, Title: svgTitle(raw)},
		})
	}

	for _, m := range markdownImage.FindAllStringSubmatchIndex(text, -1) {
		if processor.Intersects(code, m[0], m[1]) {
			continue
		}
		src := strings.TrimSuffix(strings.TrimPrefix(text[m[4]:m[5]], "<"), ">")
		var title string
		if m[6] >= 0 {
			title = text[m[6]:m[7]]
		}
		spans = appendDisjoint(spans, processor.Span{
			Start: m[0], End: m[1], Kind: processor.KindImage, Payload: text[m[0]:m[1]],
			Flags: processor.Flags{Alt: text[m[2]:m[3]], Src: src, Title: title},
		})
	}

	for _, m := range htmlImage.FindAllStringIndex(text, -1) {
		if processor.Intersects(code, m[0], m[1]) {
			continue
		}
		raw := text[m[0]:m[1]]
		attrs := imgAttrs(raw)
		if attrs.Src == "" {
			continue
		}
		spans = appendDisjoint(spans, processor.Span{
			Start: m[0], End: m[1], Kind: processor.KindImage, Payload: raw, Flags: attrs,
		})
	}

	slices.SortFunc(spans, func(a, b processor.Span) int { return a.Start - b.Start })
	return spans
}

func appendDisjoint(spans []processor.Span, s processor.Span) []processor.Span {
	for _, prev := range spans {
		if processor.Overlaps(prev, s) {
			return spans
		}
	}
	return append(spans, s)
}

func imgAttrs(tag string) processor.Flags {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tag))
	if err != nil {
		return processor.Flags{}
	}
	img := doc.Find("img").First()
	return processor.Flags{
		HTML:  true,
		Src:   img.AttrOr("src", ""),
		Alt:   img.AttrOr("alt", ""),
		Title: img.AttrOr("title", ""),
	}
}

func svgTitle(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	svg := doc.Find("svg").First()
	if t := strings.TrimSpace(svg.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(svg.AttrOr("aria-label", ""))
}

// RenderPreview emits an <img> with the resolved source, or the SVG as is.
func (p *Processor) RenderPreview(span processor.Span) string {
	if span.Kind == processor.KindSVG {
		return span.Payload
	}
	return p.imgTag(span)
}

// RenderExport keeps HTML for markup formats and Markdown image syntax for
// docx and latex. Inline SVG becomes a text placeholder for docx and latex.
func (p *Processor) RenderExport(span processor.Span, format processor.Format) string {
	if span.Kind == processor.KindSVG {
		if format.SupportsMarkup() {
			return "\n\n" + span.Payload + "\n\n"
		}
		return "\n\n" + svgPlaceholder(span.Flags.Title) + "\n\n"
	}

	switch format {
	case processor.FormatHTML, processor.FormatEPUB:
		return p.imgTag(span)
	case processor.FormatPDF:
		if span.Flags.HTML {
			return p.imgTag(span)
		}
	}
	alt := span.Flags.Alt
	if alt == "" && span.Flags.HTML {
		alt = "Image"
	}
	return markdown(alt, p.Resolve(span.Flags.Src), span.Flags.Title)
}

func svgPlaceholder(title string) string {
	if title == "" {
		return "[SVG Image]"
	}
	return "[SVG Image: " + title + "]"
}

func markdown(alt, src, title string) string {
	if strings.ContainsAny(src, " ()") {
		src = "<" + src + ">"
	}
	if title != "" {
		return "![" + alt + "](" + src + ` "` + strings.ReplaceAll(title, `"`, `\"`) + `")`
	}
	return "![" + alt + "](" + src + ")"
}

// imgTag builds an <img> element. HTML tags keep their other attributes.
func (p *Processor) imgTag(span processor.Span) string {
	src := p.Resolve(span.Flags.Src)
	if span.Flags.HTML {
		if tag, ok := rewriteSrc(span.Payload, src); ok {
			return tag
		}
	}
	var b strings.Builder
	b.WriteString(`<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(span.Flags.Alt) + `"`)
	if span.Flags.Title != "" {
		b.WriteString(` title="` + html.EscapeString(span.Flags.Title) + `"`)
	}
	b.WriteString(` class="markdown-image">`)
	return b.String()
}

func rewriteSrc(tag, src string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tag))
	if err != nil {
		return "", false
	}
	img := doc.Find("img").First()
	if img.Length() == 0 {
		return "", false
	}
	img.SetAttr("src", src)
	out, err := goquery.OuterHtml(img)
	if err != nil {
		return "", false
	}
	return out, true
}

// Resolve maps src through the asset paths: exact key, then a key with the
// same base name. Unknown sources are returned unchanged.
func (p *Processor) Resolve(src string) string {
	if !fileutil.IsLocalRef(src) || len(p.assets) == 0 {
		return src
	}
	if resolved, ok := p.assets[src]; ok {
		return resolved
	}
	clean := strings.TrimPrefix(path.Clean(strings.ReplaceAll(fileutil.LocalPath(src), `\`, "/")), "./")
	if resolved, ok := p.assets[clean]; ok {
		return resolved
	}
	base := path.Base(clean)
	for _, key := range sortedKeys(p.assets) {
		if path.Base(strings.ReplaceAll(key, `\`, "/")) == base {
			p.logger.Debug("asset resolved by base name", zap.String("src", src), zap.String("key", key))
			return p.assets[key]
		}
	}
	p.logger.Debug("no asset mapping", zap.String("src", src))
	return src
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// References returns the distinct local image sources in text, in order of
// first appearance. URLs and data URIs are excluded.
func References(text string) []string {
	p := &Processor{logger: zap.NewNop()}
	seen := make(map[string]bool)
	var refs []string
	for _, s := range p.Detect(text) {
		if s.Kind != processor.KindImage || !fileutil.IsLocalRef(s.Flags.Src) || seen[s.Flags.Src] {
			continue
		}
		seen[s.Flags.Src] = true
		refs = append(refs, s.Flags.Src)
	}
	return refs
}

// Scripts is empty.
func (p *Processor) Scripts() []string { return nil }

// Styles is empty.
func (p *Processor) Styles() []string { return nil }

// Dependencies is empty.
func (p *Processor) Dependencies() []string { return nil }

// CheckDependencies always succeeds.
func (p *Processor) CheckDependencies() bool { return true }
