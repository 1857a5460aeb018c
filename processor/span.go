package processor

// Kind identifies the syntax a span belongs to.
type Kind string

const (
	KindMath                 Kind = "math"
	KindMermaid              Kind = "mermaid"
	KindPlantUML             Kind = "plantuml"
	KindCSV                  Kind = "csv"
	KindImage                Kind = "image"
	KindSVG                  Kind = "svg"
	KindVisualizationPlotly  Kind = "visualization-plotly"
	KindVisualizationChartJS Kind = "visualization-chartjs"
	KindVideo                Kind = "video"
	KindAudio                Kind = "audio"
	KindEmbed                Kind = "embed"
)

// Flags carries kind-specific attributes captured during detection.
type Flags struct {
	Block bool   // display math, fenced block, or standalone element
	Lang  string // fence tag
	Alt   string // image alt text
	Title string // image title
	Src   string // image source as written
	HTML  bool   // image written as an <img> tag
	Extra map[string]string
}

// Span is a half-open byte range [Start, End) of the text it was detected in.
// Spans are only meaningful against that exact text.
type Span struct {
	Start   int
	End     int
	Kind    Kind
	Payload string
	Flags   Flags
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Valid reports whether the span lies within a text of length n.
func (s Span) Valid(n int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End <= n
}

// Overlaps reports whether two spans share at least one byte, or whether
// an empty span falls strictly inside the other. Adjacent spans do not overlap.
func Overlaps(a, b Span) bool {
	if a.Start == a.End || b.Start == b.End {
		return (a.Start > b.Start && a.Start < b.End) || (b.Start > a.Start && b.Start < a.End)
	}
	return a.Start < b.End && b.Start < a.End
}
