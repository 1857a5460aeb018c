package processor_test

import (
	"strings"
	"testing"

	"github.com/alnah/go-mdz/processor"
)

// ---------------------------------------------------------------------------
// TestFindFenced - Fenced block detection
// ---------------------------------------------------------------------------

func TestFindFenced(t *testing.T) {
	t.Parallel()

	re := processor.FencePattern("csv", "tsv")

	tests := []struct {
		name      string
		text      string
		wantTags  []string
		wantBody  []string
		wantWhole []string
	}{
		{
			name:      "single block",
			text:      "before\n```csv\na,b\n1,2\n```\nafter",
			wantTags:  []string{"csv"},
			wantBody:  []string{"a,b\n1,2"},
			wantWhole: []string{"```csv\na,b\n1,2\n```"},
		},
		{
			name:     "two blocks stay separate",
			text:     "```csv\na\n```\ntext\n```tsv\nb\n```",
			wantTags: []string{"csv", "tsv"},
			wantBody: []string{"a", "b"},
		},
		{
			name:     "empty body",
			text:     "```csv\n```",
			wantTags: []string{"csv"},
			wantBody: []string{""},
		},
		{
			name: "other tag ignored",
			text: "```csvx\na\n```\n```python\nb\n```",
		},
		{
			name: "indented fence ignored",
			text: "  ```csv\na\n  ```",
		},
		{
			name: "example inside longer fence ignored",
			text: "````markdown\n```csv\na\n```\n````",
		},
		{
			name: "example inside tilde fence ignored",
			text: "~~~\n```csv\na\n```\n~~~",
		},
		{
			name:     "block after enclosing fence found",
			text:     "````markdown\n```csv\na\n```\n````\n\n```csv\nb\n```",
			wantTags: []string{"csv"},
			wantBody: []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := processor.FindFenced(re, tt.text)
			if len(got) != len(tt.wantTags) {
				t.Fatalf("found %d blocks, want %d: %+v", len(got), len(tt.wantTags), got)
			}
			for i, f := range got {
				if f.Tag != tt.wantTags[i] {
					t.Errorf("block %d tag = %q, want %q", i, f.Tag, tt.wantTags[i])
				}
				if f.Body != tt.wantBody[i] {
					t.Errorf("block %d body = %q, want %q", i, f.Body, tt.wantBody[i])
				}
				if tt.wantWhole != nil && tt.text[f.Start:f.End] != tt.wantWhole[i] {
					t.Errorf("block %d span = %q, want %q", i, tt.text[f.Start:f.End], tt.wantWhole[i])
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFence - Fence length adapts to body
// ---------------------------------------------------------------------------

func TestFence(t *testing.T) {
	t.Parallel()

	if got := processor.Fence("mermaid", "a-->b"); got != "```mermaid\na-->b\n```" {
		t.Errorf("Fence() = %q", got)
	}
	got := processor.Fence("md", "x\n```\ny")
	if !strings.HasPrefix(got, "````md\n") || !strings.HasSuffix(got, "\n````") {
		t.Errorf("Fence() should lengthen the fence, got %q", got)
	}
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	got := processor.Placeholder("Mermaid Diagram Placeholder", "mermaid", "graph TD; A-->B")
	if !strings.HasPrefix(got, "[Mermaid Diagram Placeholder]") {
		t.Errorf("placeholder label missing: %q", got)
	}
	if !strings.Contains(got, "graph TD; A-->B") {
		t.Errorf("placeholder should keep source verbatim: %q", got)
	}
}

func TestPlainLabel(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"Sales 2024", "Sales 2024"},
		{"<script>alert(1)</script>", "scriptalert(1)/script"},
		{"  a\n\tb  ", "a b"},
		{"[x] & `y`", "x y"},
		{"<>", ""},
	}
	for _, tt := range tests {
		if got := processor.PlainLabel(tt.in); got != tt.want {
			t.Errorf("PlainLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestErrorFragment(t *testing.T) {
	t.Parallel()

	got := processor.ErrorFragment(processor.KindVisualizationPlotly, "invalid JSON", `{"a": <b>}`)
	for _, want := range []string{`class="mdz-error"`, `data-kind="visualization-plotly"`, "invalid JSON", "{&#34;a&#34;: &lt;b&gt;}"} {
		if !strings.Contains(got, want) {
			t.Errorf("ErrorFragment() missing %q in %q", want, got)
		}
	}
}

// ---------------------------------------------------------------------------
// TestCodeRegions - Fenced and inline code ranges
// ---------------------------------------------------------------------------

func TestCodeRegions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "inline code",
			text: "a `$x$` b",
			want: []string{"`$x$`"},
		},
		{
			name: "double backtick span",
			text: "a ``x ` y`` b",
			want: []string{"``x ` y``"},
		},
		{
			name: "unclosed backtick",
			text: "a `b c",
			want: nil,
		},
		{
			name: "fenced block",
			text: "x\n```go\n$a$\n```\ny",
			want: []string{"```go\n$a$\n```\n"},
		},
		{
			name: "tilde fence",
			text: "~~~\n$a$\n~~~",
			want: []string{"~~~\n$a$\n~~~"},
		},
		{
			name: "unclosed fence runs to end",
			text: "a\n```\n$x$",
			want: []string{"```\n$x$"},
		},
		{
			name: "inline before and after fence",
			text: "`a`\n```\nb\n```\n`c`",
			want: []string{"`a`", "```\nb\n```\n", "`c`"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			regions := processor.CodeRegions(tt.text)
			if len(regions) != len(tt.want) {
				t.Fatalf("found %d regions, want %d: %+v", len(regions), len(tt.want), regions)
			}
			for i, r := range regions {
				if got := tt.text[r.Start:r.End]; got != tt.want[i] {
					t.Errorf("region %d = %q, want %q", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestIntersects(t *testing.T) {
	t.Parallel()

	regions := []processor.Region{{Start: 2, End: 5}, {Start: 10, End: 12}}

	tests := []struct {
		start, end int
		want       bool
	}{
		{0, 2, false},
		{0, 3, true},
		{4, 8, true},
		{5, 10, false},
		{11, 11, true},
		{12, 20, false},
	}
	for _, tt := range tests {
		if got := processor.Intersects(regions, tt.start, tt.end); got != tt.want {
			t.Errorf("Intersects(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestEnclosed(t *testing.T) {
	t.Parallel()

	regions := []processor.Region{{Start: 2, End: 5}, {Start: 10, End: 12}}

	tests := []struct {
		pos  int
		want bool
	}{
		{0, false},
		{2, false},
		{3, true},
		{5, false},
		{11, true},
		{12, false},
	}
	for _, tt := range tests {
		if got := processor.Enclosed(regions, tt.pos); got != tt.want {
			t.Errorf("Enclosed(%d) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestOverlaps - Span overlap semantics
// ---------------------------------------------------------------------------

func TestOverlaps(t *testing.T) {
	t.Parallel()

	span := func(s, e int) processor.Span { return processor.Span{Start: s, End: e} }

	tests := []struct {
		name string
		a, b processor.Span
		want bool
	}{
		{name: "disjoint", a: span(0, 2), b: span(3, 5), want: false},
		{name: "adjacent", a: span(0, 2), b: span(2, 5), want: false},
		{name: "sharing bytes", a: span(0, 3), b: span(2, 5), want: true},
		{name: "nested", a: span(0, 10), b: span(2, 5), want: true},
		{name: "identical", a: span(1, 4), b: span(1, 4), want: true},
		{name: "empty inside", a: span(0, 10), b: span(5, 5), want: true},
		{name: "empty at edge", a: span(0, 10), b: span(10, 10), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := processor.Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := processor.Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps is not symmetric for %+v, %+v", tt.a, tt.b)
			}
		})
	}
}
