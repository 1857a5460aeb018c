package renderer

import "path/filepath"

// Tool describes an external renderer and how to find and invoke it.
type Tool struct {
	Name    string // logical name, e.g. "mermaid"
	Command string // executable looked up on PATH

	// Fallbacks are alternate invocations tried in order when Command is
	// not on PATH. The first element is looked up on PATH; the rest become
	// an argument prefix. A fallback counts as available only if its
	// version probe succeeds.
	Fallbacks [][]string

	// Jars are conventional jar locations run with "java -jar" when neither
	// Command nor a fallback is found. A leading "~" is the home directory.
	Jars []string

	VersionArgs []string
	InputExt    string
	OutputExt   string

	// Args builds the tool arguments for one invocation.
	Args func(input, output string) []string
}

// Mermaid returns the mermaid-cli tool (mmdc), falling back to npx.
func Mermaid() Tool {
	return Tool{
		Name:        "mermaid",
		Command:     "mmdc",
		Fallbacks:   [][]string{{"npx", "--no-install", "mmdc"}},
		VersionArgs: []string{"--version"},
		InputExt:    "mmd",
		OutputExt:   "svg",
		Args: func(input, output string) []string {
			return []string{"-i", input, "-o", output, "-b", "transparent", "-w", "800", "-H", "600"}
		},
	}
}

// PlantUML returns the PlantUML tool, falling back to plantuml.jar.
// PlantUML names its output after the input, in the -o directory.
func PlantUML() Tool {
	return Tool{
		Name:    "plantuml",
		Command: "plantuml",
		Jars: []string{
			"~/plantuml.jar",
			"/usr/local/bin/plantuml.jar",
			"/usr/share/plantuml/plantuml.jar",
			"/usr/bin/plantuml.jar",
			`C:\Program Files\PlantUML\plantuml.jar`,
			`C:\PlantUML\plantuml.jar`,
		},
		VersionArgs: []string{"-version"},
		InputExt:    "puml",
		OutputExt:   "svg",
		Args: func(input, output string) []string {
			return []string{"-tsvg", "-o", filepath.Dir(output), input}
		},
	}
}
