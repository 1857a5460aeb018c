package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// ErrPageRender indicates the page template failed to parse or execute.
var ErrPageRender = errors.New("page template rendering failed")

// DefaultTitle is used when neither an explicit title, a heading nor a
// source name is available.
const DefaultTitle = "Document"

// Page is the data passed to the page template.
type Page struct {
	Lang  string
	Title string
	Style template.CSS
	Head  []template.HTML
	Body  template.HTML
}

// PageTemplate renders full HTML documents.
type PageTemplate struct {
	tmpl *template.Template
}

// NewPageTemplate parses an html/template page. The template receives a Page.
func NewPageTemplate(content string) (*PageTemplate, error) {
	tmpl, err := template.New("page").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return &PageTemplate{tmpl: tmpl}, nil
}

// Render executes the template.
func (p *PageTemplate) Render(page Page) (string, error) {
	if page.Lang == "" {
		page.Lang = "en"
	}
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}

// sanitizeCSS escapes sequences that could close the <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// HighlightCSS returns the chroma stylesheet for class-based highlighting
// in the named style, falling back to the default style.
func HighlightCSS(name string) (string, error) {
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("writing highlight css: %w", err)
	}
	return buf.String(), nil
}

// FirstHeading returns the text of the first h1 to h6 in an HTML fragment.
func FirstHeading(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("h1, h2, h3, h4, h5, h6").First().Text())
}
