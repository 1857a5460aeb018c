package diagram_test

import (
	"context"
	"errors"
	"html"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-mdz/internal/processors/diagram"
	"github.com/alnah/go-mdz/internal/renderer"
	"github.com/alnah/go-mdz/processor"
)

const fakeSVG = `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"><text>ok</text></svg>`

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// fakeRunner writes a fixed SVG to the last argument and records inputs.
type fakeRunner struct {
	mu      sync.Mutex
	inputs  []string
	renders int
	fail    bool
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, string, error) {
	if len(args) == 1 && args[0] == "--version" {
		return "fake 1.0\n", "", nil
	}
	f.mu.Lock()
	f.renders++
	f.inputs = append(f.inputs, args[0])
	f.mu.Unlock()
	if f.fail {
		return "", "syntax error", errors.New("exit status 1")
	}
	return "", "", os.WriteFile(args[len(args)-1], []byte(fakeSVG), 0o600)
}

func resolverWith(runner renderer.Runner, found bool) *renderer.Resolver {
	r := renderer.NewResolver(runner)
	r.LookPath = func(file string) (string, error) {
		if found {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("not found")
	}
	r.FileExists = func(string) bool { return false }
	return r
}

// testDialect is Mermaid with a tool whose last argument is the output path.
func testDialect() diagram.Dialect {
	d := diagram.Mermaid()
	d.Tool = renderer.Tool{
		Name:        "fake-mmdc",
		Command:     "fake-mmdc",
		VersionArgs: []string{"--version"},
		InputExt:    "mmd",
		OutputExt:   "svg",
		Args:        func(in, out string) []string { return []string{in, out} },
	}
	return d
}

func newProc(t *testing.T, d diagram.Dialect, res *renderer.Resolver, cfg processor.Config) processor.Processor {
	t.Helper()
	p, err := diagram.NewFactory(d, res)(cfg)
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	return p
}

// ---------------------------------------------------------------------------
// TestDetect - Fenced block recognition
// ---------------------------------------------------------------------------

func TestDetect(t *testing.T) {
	t.Parallel()

	text := "# T\n\n```mermaid\ngraph TD\nA-->B\n```\n\n```go\nx\n```\n\n```mermaid\nsequenceDiagram\n```\n"
	p := newProc(t, diagram.Mermaid(), resolverWith(&fakeRunner{}, false), processor.Config{})

	spans := p.Detect(text)
	if len(spans) != 2 {
		t.Fatalf("Detect() returned %d spans, want 2", len(spans))
	}
	if spans[0].Payload != "graph TD\nA-->B" {
		t.Errorf("payload = %q", spans[0].Payload)
	}
	for _, s := range spans {
		if s.Kind != processor.KindMermaid || !s.Flags.Block {
			t.Errorf("span = %+v, want block mermaid", s)
		}
		if !strings.HasPrefix(text[s.Start:s.End], "```mermaid") || !strings.HasSuffix(text[s.Start:s.End], "```") {
			t.Errorf("span text = %q", text[s.Start:s.End])
		}
	}
}

func TestDetect_SkipsExampleInsideLongerFence(t *testing.T) {
	t.Parallel()

	text := "Usage:\n\n````markdown\n```mermaid\ngraph TD\n```\n````\n\n```mermaid\nA-->B\n```\n"
	p := newProc(t, diagram.Mermaid(), resolverWith(&fakeRunner{}, false), processor.Config{})

	spans := p.Detect(text)
	if len(spans) != 1 || spans[0].Payload != "A-->B" {
		t.Fatalf("Detect() = %+v, want only the top-level block", spans)
	}
	got := p.RenderExport(spans[0], processor.FormatDOCX)
	out := processor.Splice(text, []processor.Replacement{{Start: spans[0].Start, End: spans[0].End, Text: got}})
	if !strings.Contains(out, "````markdown\n```mermaid\ngraph TD\n```\n````") {
		t.Errorf("documentation example was rewritten: %q", out)
	}
}

func TestDetect_PlantUMLTags(t *testing.T) {
	t.Parallel()

	text := "```plantuml\nA -> B\n```\n\n```puml\nC -> D\n```\n"
	p := newProc(t, diagram.PlantUML(), resolverWith(&fakeRunner{}, false), processor.Config{})

	spans := p.Detect(text)
	if len(spans) != 2 {
		t.Fatalf("Detect() returned %d spans, want 2", len(spans))
	}
	if spans[1].Flags.Lang != "puml" || spans[1].Kind != processor.KindPlantUML {
		t.Errorf("span = %+v", spans[1])
	}
}

// ---------------------------------------------------------------------------
// TestRenderExport - Placeholders and SVG
// ---------------------------------------------------------------------------

func TestRenderExport_UnavailableUsesPlaceholders(t *testing.T) {
	t.Parallel()

	text := "```mermaid\ngraph TD\nA-->B\n```\n\ntext\n\n```mermaid\npie\n```\n"
	reg := processor.NewRegistry()
	if err := reg.Register("mermaid", diagram.NewFactory(diagram.Mermaid(), resolverWith(&fakeRunner{}, false)), 10); err != nil {
		t.Fatal(err)
	}

	for _, f := range processor.Formats() {
		got := reg.Process(text, processor.Export(f), processor.Config{})
		if n := strings.Count(got, "[Mermaid Diagram Placeholder]"); n != 2 {
			t.Errorf("%s: %d placeholders, want 2:\n%s", f, n, got)
		}
		if !strings.Contains(got, "graph TD\nA-->B") || !strings.Contains(got, "pie") {
			t.Errorf("%s: sources not preserved:\n%s", f, got)
		}
	}
}

func TestRenderExport_EmbedsSVG(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := newProc(t, testDialect(), resolverWith(runner, true), processor.Config{})
	span := p.Detect("```mermaid\ngraph TD\n```")[0]

	got := p.RenderExport(span, processor.FormatHTML)
	if !strings.HasPrefix(got, `<div class="diagram diagram-mermaid"><svg`) {
		t.Errorf("RenderExport(html) = %q", got)
	}
	if strings.Contains(got, "<?xml") {
		t.Error("XML prolog should be stripped")
	}

	got = p.RenderExport(span, processor.FormatDOCX)
	if !strings.HasPrefix(got, "[Mermaid Diagram Placeholder]") {
		t.Errorf("RenderExport(docx) = %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestRenderPreview - Degradation tiers
// ---------------------------------------------------------------------------

func TestRenderPreview(t *testing.T) {
	t.Parallel()

	src := "```mermaid\ngraph TD\nA-->B\n```"

	tests := []struct {
		name       string
		found      bool
		scriptHost bool
		want       string
		wantScript bool
	}{
		{name: "rendered svg", found: true, want: `<div class="diagram diagram-mermaid"><svg`},
		{name: "live widget", scriptHost: true, want: `<div class="mermaid">graph TD`, wantScript: true},
		{name: "source fallback", want: "renderer unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newProc(t, testDialect(), resolverWith(&fakeRunner{}, tt.found), processor.Config{ScriptHost: tt.scriptHost})
			got := p.RenderPreview(p.Detect(src)[0])
			if !strings.Contains(got, tt.want) {
				t.Errorf("RenderPreview() = %q, want substring %q", got, tt.want)
			}
			if gotScript := len(p.Scripts()) > 0; gotScript != tt.wantScript {
				t.Errorf("Scripts() present = %v, want %v", gotScript, tt.wantScript)
			}
		})
	}
}

func TestRenderPreview_FallbackKeepsSource(t *testing.T) {
	t.Parallel()

	p := newProc(t, testDialect(), resolverWith(&fakeRunner{}, false), processor.Config{})
	got := p.RenderPreview(p.Detect("```mermaid\nA-->B\n```")[0])
	if text := html.UnescapeString(tagPattern.ReplaceAllString(got, "")); !strings.Contains(text, "A-->B") {
		t.Errorf("fallback lost source: %q", got)
	}
	if strings.Contains(got, "A-->B") {
		t.Error("source must be HTML-escaped")
	}
}

// ---------------------------------------------------------------------------
// TestRender - Caching, failures, and temp files
// ---------------------------------------------------------------------------

func TestRender_CachesPerSource(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := newProc(t, testDialect(), resolverWith(runner, true), processor.Config{})
	span := p.Detect("```mermaid\ngraph TD\n```")[0]

	for range 3 {
		p.RenderPreview(span)
		p.RenderExport(span, processor.FormatPDF)
	}
	if runner.renders != 1 {
		t.Errorf("tool ran %d times, want 1", runner.renders)
	}
}

func TestRender_ToolFailureDegrades(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fail: true}
	p := newProc(t, testDialect(), resolverWith(runner, true), processor.Config{})
	span := p.Detect("```mermaid\nbroken\n```")[0]

	got := p.RenderExport(span, processor.FormatHTML)
	if !strings.HasPrefix(got, "[Mermaid Diagram Placeholder]") {
		t.Errorf("RenderExport() = %q", got)
	}
}

func TestRender_RemovesTempFiles(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := newProc(t, testDialect(), resolverWith(runner, true), processor.Config{})
	p.RenderExport(p.Detect("```mermaid\ngraph LR\n```")[0], processor.FormatHTML)

	if len(runner.inputs) != 1 {
		t.Fatalf("inputs = %v", runner.inputs)
	}
	if _, err := os.Stat(runner.inputs[0]); !os.IsNotExist(err) {
		t.Errorf("temp input %s still exists", runner.inputs[0])
	}
}

func TestDisabledRenderer(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := newProc(t, testDialect(), resolverWith(runner, true), processor.Config{DisabledRenderers: []string{"mermaid"}})

	if p.CheckDependencies() {
		t.Error("CheckDependencies() = true for disabled renderer")
	}
	p.RenderExport(p.Detect("```mermaid\ngraph LR\n```")[0], processor.FormatHTML)
	if runner.renders != 0 {
		t.Errorf("disabled renderer ran %d times", runner.renders)
	}
}

func TestDependencies(t *testing.T) {
	t.Parallel()

	res := resolverWith(&fakeRunner{}, false)
	if got := newProc(t, diagram.Mermaid(), res, processor.Config{}).Dependencies(); len(got) != 1 || got[0] != "mmdc" {
		t.Errorf("Mermaid Dependencies() = %v", got)
	}
	if got := newProc(t, diagram.PlantUML(), res, processor.Config{}).Dependencies(); len(got) != 1 || got[0] != "plantuml" {
		t.Errorf("PlantUML Dependencies() = %v", got)
	}
}
