package diagram

import (
	"html"
	"strings"
	"time"

	"github.com/alnah/go-mdz/internal/renderer"
	"github.com/alnah/go-mdz/processor"
)

// Dialect describes one diagram language.
type Dialect struct {
	ID       string // registry id
	Kind     processor.Kind
	Fences   []string // fence tags, e.g. "mermaid"
	Label    string   // placeholder label, e.g. "Mermaid Diagram"
	Lexer    string   // chroma lexer for the source fallback
	Priority int
	Tool     renderer.Tool
	Timeout  time.Duration // overrides the configured renderer timeout

	// Prepare adjusts the source before it is handed to the tool.
	Prepare func(src string) string

	// LiveWidget renders the source client-side in a scriptable preview
	// host; nil when the dialect has no browser renderer.
	LiveWidget    func(src string) string
	WidgetScripts []string
}

const (
	mermaidScript = `<script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>`
	mermaidInit   = `<script>document.addEventListener("DOMContentLoaded", function () { mermaid.initialize({startOnLoad: true}); });</script>`
)

// Mermaid returns the Mermaid dialect, rendered by mmdc or mermaid.js.
func Mermaid() Dialect {
	return Dialect{
		ID:       "mermaid",
		Kind:     processor.KindMermaid,
		Fences:   []string{"mermaid"},
		Label:    "Mermaid Diagram",
		Lexer:    "mermaid",
		Priority: 10,
		Tool:     renderer.Mermaid(),
		LiveWidget: func(src string) string {
			return `<div class="mermaid">` + html.EscapeString(src) + `</div>`
		},
		WidgetScripts: []string{mermaidScript, mermaidInit},
	}
}

// PlantUML returns the PlantUML dialect. Sources without @start/@end
// markers are wrapped in @startuml/@enduml.
func PlantUML() Dialect {
	return Dialect{
		ID:       "plantuml",
		Kind:     processor.KindPlantUML,
		Fences:   []string{"plantuml", "puml"},
		Label:    "PlantUML Diagram",
		Lexer:    "plaintext",
		Priority: 70,
		Tool:     renderer.PlantUML(),
		Prepare:  wrapStartUML,
	}
}

func wrapStartUML(src string) string {
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, "@start") {
		return src
	}
	return "@startuml\n" + src + "\n@enduml"
}
