// Package media handles HTML5 <video> and <audio> elements and embedded
// <iframe> content. Previews and markup exports keep the element; formats
// that cannot play or embed it get a text placeholder.
package media

import (
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/alnah/go-mdz/processor"
)

// Registry defaults.
const (
	ID       = "media"
	Priority = 50
)

type element struct {
	tag     string
	kind    processor.Kind
	label   string
	pattern *regexp.Regexp
}

var elements = []element{
	{"video", processor.KindVideo, "Video content", regexp.MustCompile(`(?is)<video\b[^>]*>.*?</video\s*>`)},
	{"audio", processor.KindAudio, "Audio content", regexp.MustCompile(`(?is)<audio\b[^>]*>.*?</audio\s*>`)},
	{"iframe", processor.KindEmbed, "Embedded content", regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>`)},
}

// Processor passes media elements through or replaces them with placeholders.
type Processor struct {
	logger *zap.Logger
}

// New is a processor.Factory.
func New(cfg processor.Config) (processor.Processor, error) {
	return &Processor{logger: cfg.Log().With(zap.String("processor", ID))}, nil
}

// Detect returns one span per media element outside code, in text order.
// An element nested in an earlier one belongs to it.
func (p *Processor) Detect(text string) []processor.Span {
	code := processor.CodeRegions(text)
	var spans []processor.Span
	for _, el := range elements {
		for _, m := range el.pattern.FindAllStringIndex(text, -1) {
			if processor.Intersects(code, m[0], m[1]) {
				continue
			}
			raw := text[m[0]:m[1]]
			spans = append(spans, processor.Span{
				Start: m[0], End: m[1], Kind: el.kind, Payload: raw,
				Flags: attrs(el.tag, raw),
			})
		}
	}

	slices.SortFunc(spans, func(a, b processor.Span) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return b.End - a.End
	})
	out := spans[:0]
	for _, s := range spans {
		if len(out) > 0 && processor.Overlaps(out[len(out)-1], s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// attrs reads the source and title of the element. A <video> or <audio>
// without src takes the first <source> child.
func attrs(tag, raw string) processor.Flags {
	flags := processor.Flags{Block: true, HTML: true, Lang: tag}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return flags
	}
	el := doc.Find(tag).First()
	flags.Src = el.AttrOr("src", "")
	if flags.Src == "" {
		flags.Src = el.Find("source").First().AttrOr("src", "")
	}
	flags.Title = strings.TrimSpace(el.AttrOr("title", el.AttrOr("aria-label", "")))
	return flags
}

// RenderPreview returns the element unchanged.
func (p *Processor) RenderPreview(span processor.Span) string {
	return span.Payload
}

// RenderExport keeps the element for html and epub. Other formats get a
// placeholder naming the media type and its title, when present.
func (p *Processor) RenderExport(span processor.Span, format processor.Format) string {
	switch format {
	case processor.FormatHTML, processor.FormatEPUB:
		return span.Payload
	}
	p.logger.Debug("media replaced by placeholder",
		zap.String("kind", string(span.Kind)), zap.String("format", string(format)), zap.String("src", span.Flags.Src))
	return "\n\n[" + Label(span) + "]\n\n"
}

// Label describes a media span for placeholders.
func Label(span processor.Span) string {
	label := "Embedded content"
	for _, el := range elements {
		if el.kind == span.Kind {
			label = el.label
			break
		}
	}
	if title := processor.PlainLabel(span.Flags.Title); title != "" {
		return label + ": " + title
	}
	return label
}

// Scripts is empty.
func (p *Processor) Scripts() []string { return nil }

// Styles is empty.
func (p *Processor) Styles() []string { return nil }

// Dependencies is empty; playback happens in the preview host.
func (p *Processor) Dependencies() []string { return nil }

// CheckDependencies always succeeds.
func (p *Processor) CheckDependencies() bool { return true }
