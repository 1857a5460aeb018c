// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-mdz/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// installHints maps renderer tool names to install instructions.
var installHints = map[string]string{
	"mermaid":  "install with: npm install -g @mermaid-js/mermaid-cli",
	"plantuml": "install plantuml, or install Java and place plantuml.jar in your home directory",
}

// ForRenderer returns an install hint for a missing diagram renderer.
// Unknown tools get a generic PATH hint.
func ForRenderer(tool string) string {
	if hint, ok := installHints[tool]; ok {
		return format(hint)
	}
	return format("make sure " + tool + " is on your PATH")
}

// ForBrowser returns hints for locating the headless browser used by the
// PDF backend. Detects CI/Docker environment and suggests relevant variables.
func ForBrowser() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the renderer timeout.
func ForTimeout() string {
	return format("for large diagrams, raise renderers.timeout in the config file")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-mdz/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-mdz") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForCorruptBundle returns a hint for archives that cannot be decompressed.
func ForCorruptBundle() string {
	return format("the file is not a zstd-compressed tar archive; create bundles with 'mdz pack'")
}

// ForMissingMain returns a hint for archives without a main document.
func ForMissingMain(name string) string {
	return format("the archive is readable but has no " + name + " entry")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
