// Package chart renders Plotly and Chart.js specifications as client-side
// visualizations in previews and as text placeholders in exports.
package chart

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/alnah/go-mdz/processor"
)

// Registry defaults.
const (
	ID       = "visualization"
	Priority = 60
)

const (
	plotlyScript  = `<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>`
	chartJSScript = `<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.4/dist/chart.umd.min.js"></script>`
)

// namespace seeds the deterministic element ids.
var namespace = uuid.MustParse("6f1c3b7e-2a4d-5e8f-9b0a-1c2d3e4f5a6b")

var fence = processor.FencePattern("plotly", "chartjs")

// Processor renders visualization blocks.
type Processor struct {
	logger *zap.Logger
}

// New is a processor.Factory.
func New(cfg processor.Config) (processor.Processor, error) {
	return &Processor{logger: cfg.Log().With(zap.String("processor", ID))}, nil
}

// Detect returns one span per plotly or chartjs fenced block.
func (p *Processor) Detect(text string) []processor.Span {
	blocks := processor.FindFenced(fence, text)
	spans := make([]processor.Span, len(blocks))
	for i, b := range blocks {
		kind := processor.KindVisualizationPlotly
		if b.Tag == "chartjs" {
			kind = processor.KindVisualizationChartJS
		}
		spans[i] = processor.Span{
			Start:   b.Start,
			End:     b.End,
			Kind:    kind,
			Payload: b.Body,
			Flags:   processor.Flags{Block: true, Lang: b.Tag},
		}
	}
	return spans
}

// ElementID returns the deterministic DOM id for a specification.
func ElementID(kind processor.Kind, payload string) string {
	return "viz-" + uuid.NewSHA1(namespace, []byte(string(kind)+"\x00"+payload)).String()
}

// RenderPreview emits a container, the specification as inert JSON, and
// an init script. Malformed specifications get an error block and no script.
func (p *Processor) RenderPreview(span processor.Span) string {
	if err := validate(span.Payload); err != nil {
		p.logger.Warn("invalid visualization spec", zap.String("kind", string(span.Kind)), zap.Error(err))
		return fmt.Sprintf(
			`<div class="visualization-error" data-kind="%s"><strong>Invalid %s specification:</strong> %s<pre><code>%s</code></pre></div>`,
			span.Kind, span.Flags.Lang, html.EscapeString(err.Error()), html.EscapeString(span.Payload))
	}

	id := ElementID(span.Kind, span.Payload)
	data := id + "-data"

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="visualization visualization-%s">`, span.Flags.Lang)
	if span.Kind == processor.KindVisualizationChartJS {
		fmt.Fprintf(&b, `<canvas id="%s" width="800" height="400"></canvas>`, id)
	} else {
		fmt.Fprintf(&b, `<div id="%s" class="plotly-visualization" style="width: 100%%; height: 400px;"></div>`, id)
	}
	fmt.Fprintf(&b, `<script type="application/json" id="%s">%s</script>`, data, inertJSON(span.Payload))
	b.WriteString("<script>(function () {")
	fmt.Fprintf(&b, `var el = document.getElementById(%q); var spec = JSON.parse(document.getElementById(%q).textContent);`, id, data)
	if span.Kind == processor.KindVisualizationChartJS {
		b.WriteString(` new Chart(el.getContext("2d"), spec);`)
	} else {
		b.WriteString(` Plotly.newPlot(el, spec.data || [], spec.layout || {}, spec.config || {});`)
	}
	b.WriteString("})();</script></div>")
	return b.String()
}

// RenderExport returns a labeled placeholder for every format. The
// specification itself is dropped so exports never carry script.
func (p *Processor) RenderExport(span processor.Span, _ processor.Format) string {
	return "\n\n[" + Label(span) + "]\n\n"
}

// Label describes a specification: the Plotly layout title or the Chart.js
// chart type, when present. Markup characters are removed from the user
// value so the placeholder stays plain text in every format.
func Label(span processor.Span) string {
	if span.Kind == processor.KindVisualizationChartJS {
		if t := gjson.Get(span.Payload, "type"); t.Type == gjson.String {
			if name := processor.PlainLabel(t.Str); name != "" {
				return "Chart.js Visualization: " + name
			}
		}
		return "Chart.js Visualization"
	}
	title := gjson.Get(span.Payload, "layout.title")
	if title.IsObject() {
		title = title.Get("text")
	}
	if title.Type == gjson.String {
		if name := processor.PlainLabel(title.Str); name != "" {
			return "Plotly Visualization: " + name
		}
	}
	return "Plotly Visualization"
}

func validate(payload string) error {
	if strings.TrimSpace(payload) == "" {
		return fmt.Errorf("empty specification")
	}
	if !gjson.Valid(payload) {
		return fmt.Errorf("malformed JSON")
	}
	if !gjson.Parse(payload).IsObject() {
		return fmt.Errorf("specification must be a JSON object")
	}
	return nil
}

// inertJSON keeps the specification from closing its script element.
func inertJSON(s string) string {
	s = strings.ReplaceAll(s, "</", `<\/`)
	return strings.ReplaceAll(s, "<!--", `\u003c!--`)
}

// Scripts returns the Plotly and Chart.js loaders.
func (p *Processor) Scripts() []string { return []string{plotlyScript, chartJSScript} }

// Styles is empty.
func (p *Processor) Styles() []string { return nil }

// Dependencies is empty; rendering happens in the preview host.
func (p *Processor) Dependencies() []string { return nil }

// CheckDependencies always succeeds.
func (p *Processor) CheckDependencies() bool { return true }
