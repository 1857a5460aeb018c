// Package table renders fenced CSV and TSV blocks as tables.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/alnah/go-mdz/processor"
)

// Registry defaults.
const (
	ID       = "csv"
	Priority = 45
)

var errEmpty = errors.New("no rows")

var fence = processor.FencePattern("csv", "tsv")

const style = `<style>
.csv-table { overflow-x: auto; margin: 1em 0; }
.csv-table table { border-collapse: collapse; width: 100%; }
.csv-table th, .csv-table td { padding: 6px 10px; border: 1px solid #ddd; text-align: left; }
.csv-table thead { background-color: #f2f2f2; }
.csv-table tr:nth-child(even) { background-color: #f9f9f9; }
.csv-error { color: #b00020; font-style: italic; }
</style>`

// Processor renders delimited data blocks.
type Processor struct {
	logger *zap.Logger

	mu sync.Mutex
	md goldmark.Markdown
}

// New is a processor.Factory.
func New(cfg processor.Config) (processor.Processor, error) {
	return &Processor{
		logger: cfg.Log().With(zap.String("processor", ID)),
		md:     goldmark.New(goldmark.WithExtensions(extension.Table)),
	}, nil
}

// Detect returns one span per csv or tsv fenced block.
func (p *Processor) Detect(text string) []processor.Span {
	blocks := processor.FindFenced(fence, text)
	spans := make([]processor.Span, len(blocks))
	for i, b := range blocks {
		spans[i] = processor.Span{
			Start:   b.Start,
			End:     b.End,
			Kind:    processor.KindCSV,
			Payload: b.Body,
			Flags:   processor.Flags{Block: true, Lang: b.Tag},
		}
	}
	return spans
}

// RenderPreview renders the data as an HTML table.
func (p *Processor) RenderPreview(span processor.Span) string {
	rows, err := Parse(span.Payload, delimiter(span))
	if err != nil {
		p.logger.Warn("csv parse failed", zap.Error(err))
		return `<div class="csv-error"><p>` + html.EscapeString(fallbackText(err)) + `</p><pre><code>` +
			html.EscapeString(span.Payload) + `</code></pre></div>`
	}

	var buf bytes.Buffer
	p.mu.Lock()
	err = p.md.Convert([]byte(literalTable(rows)), &buf)
	p.mu.Unlock()
	if err != nil {
		p.logger.Warn("csv table conversion failed", zap.Error(err))
		return processor.ErrorFragment(processor.KindCSV, err.Error(), span.Payload)
	}
	return `<div class="csv-table">` + strings.TrimSpace(buf.String()) + `</div>`
}

// RenderExport renders a Markdown pipe table for every format.
func (p *Processor) RenderExport(span processor.Span, _ processor.Format) string {
	rows, err := Parse(span.Payload, delimiter(span))
	if err != nil {
		p.logger.Warn("csv parse failed", zap.Error(err))
		return "*" + fallbackText(err) + "*\n\n" + processor.Fence(span.Flags.Lang, span.Payload)
	}
	return PipeTable(rows)
}

func fallbackText(err error) string {
	if errors.Is(err, errEmpty) {
		return "The CSV block is empty."
	}
	return "Could not read the CSV block: " + err.Error() + "."
}

func delimiter(span processor.Span) rune {
	if span.Flags.Lang == "tsv" {
		return '\t'
	}
	return ','
}

// Parse reads delimited records. Rows shorter than the widest row are
// padded with empty cells.
func Parse(data string, comma rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	if comma == '\t' {
		r.LazyQuotes = true
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	if len(rows) == 0 {
		return nil, errEmpty
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows, nil
}

var newlines = regexp.MustCompile(`\s*\r?\n\s*`)

// PipeTable formats rows as a GFM table; the first row is the header.
func PipeTable(rows [][]string) string {
	return formatTable(rows, escapePipes)
}

// literalTable is PipeTable with every ASCII punctuation character escaped,
// so goldmark renders cells as plain text: no raw HTML, emphasis or links.
func literalTable(rows [][]string) string {
	return formatTable(rows, escapePunct)
}

func formatTable(rows [][]string, escape func(string) string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	writeRow(&b, rows[0], escape)
	b.WriteString("\n|")
	for range rows[0] {
		b.WriteString(" --- |")
	}
	for _, row := range rows[1:] {
		b.WriteString("\n")
		writeRow(&b, row, escape)
	}
	return b.String()
}

func writeRow(b *strings.Builder, row []string, escape func(string) string) {
	b.WriteString("|")
	for _, cell := range row {
		cell = newlines.ReplaceAllString(strings.TrimSpace(cell), " ")
		b.WriteString(" " + escape(cell) + " |")
	}
}

func escapePipes(cell string) string {
	return strings.ReplaceAll(cell, "|", `\|`)
}

// asciiPunct is the set CommonMark allows to be backslash-escaped.
const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func escapePunct(cell string) string {
	var b strings.Builder
	for _, r := range cell {
		if strings.ContainsRune(asciiPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Scripts is empty.
func (p *Processor) Scripts() []string { return nil }

// Styles returns the table stylesheet.
func (p *Processor) Styles() []string { return []string{style} }

// Dependencies is empty; parsing is in-process.
func (p *Processor) Dependencies() []string { return nil }

// CheckDependencies always succeeds.
func (p *Processor) CheckDependencies() bool { return true }
