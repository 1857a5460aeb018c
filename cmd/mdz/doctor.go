package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdz/internal/hints"
	"github.com/alnah/go-mdz/internal/renderer"
)

// browserVersionTimeout bounds the Chrome --version probe.
const browserVersionTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status     string          `json:"status"` // "ready", "warnings", "errors"
	Renderers  []rendererInfo  `json:"renderers"`
	Processors []processorInfo `json:"processors"`
	Plugins    pluginInfo      `json:"plugins"`
	Chrome     chromeInfo      `json:"chrome"`
	Env        envInfo         `json:"environment"`
	System     systemInfo      `json:"system"`
	Warnings   []string        `json:"warnings,omitempty"`
	Errors     []string        `json:"errors,omitempty"`
}

// rendererInfo holds the resolution of one external diagram renderer.
type rendererInfo struct {
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Command string `json:"command,omitempty"`
	Version string `json:"version,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// processorInfo holds one registered processor's dependency status.
type processorInfo struct {
	ID        string   `json:"id"`
	Tools     []string `json:"tools,omitempty"`
	Available bool     `json:"available"`
}

// pluginInfo summarizes plugin discovery.
type pluginInfo struct {
	Loaded []string `json:"loaded,omitempty"`
	Failed []string `json:"failed,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results. The browser is only
// needed by PDF backends that print HTML, so its absence is a warning.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	BrowserBin    string `json:"rod_browser_bin,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	var common commonFlags
	var jsonOutput bool
	fs := newFlagSet("doctor", &common)
	fs.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	if err := parseFlags(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return runHelp([]string{"doctor"}, env)
		}
		fmt.Fprintf(env.Stderr, "error: %s\n", describe(err))
		return ExitUsage
	}

	result := runDoctor(ctx, common, env)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, common commonFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	common.quiet = true
	s, err := openSession(common, env)
	if err != nil {
		result.Errors = append(result.Errors, "Configuration: "+describe(err))
	} else {
		checkRenderers(ctx, s, result)
		checkPlugins(s, result)
	}
	checkChrome(ctx, env, result)
	checkEnvironment(env, result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkRenderers resolves the external diagram tools and reports each
// processor's dependency status. Missing tools are warnings: their
// processors fall back to highlighted source.
func checkRenderers(ctx context.Context, s *session, result *doctorResult) {
	for _, res := range s.engine.Tools(ctx) {
		info := rendererInfo{Name: res.Tool, Found: res.Available, Reason: res.Reason}
		if res.Available {
			info.Command = res.Command()
			info.Version = res.Version
		} else {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s renderer not available: %s%s", res.Tool, res.Reason, hints.ForRenderer(res.Tool)))
		}
		result.Renderers = append(result.Renderers, info)
	}

	for _, dep := range s.engine.Dependencies() {
		result.Processors = append(result.Processors, processorInfo{
			ID:        dep.Processor,
			Tools:     dep.Tools,
			Available: dep.Available,
		})
	}
}

// checkPlugins reports plugin discovery. A plugin that failed to load is
// an error: the user asked for it explicitly.
func checkPlugins(s *session, result *doctorResult) {
	report := s.engine.Plugins()
	result.Plugins.Loaded = report.Loaded
	for _, f := range report.Failed {
		msg := fmt.Sprintf("%s: %v", f.Path, f.Err)
		result.Plugins.Failed = append(result.Plugins.Failed, msg)
		result.Errors = append(result.Errors, "Plugin failed: "+msg)
	}
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(ctx context.Context, env *Environment, result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = env.LookBrowser()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; HTML-to-PDF backends will not work"+hints.ForBrowser())
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	ctx, cancel := context.WithTimeout(ctx, browserVersionTimeout)
	defer cancel()
	var runner renderer.ExecRunner
	out, _, err := runner.Run(ctx, chromePath, "--version")
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
		return
	}
	result.Chrome.Version = strings.TrimSpace(out)
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(env *Environment, result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env.Getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv(envContainer) == "1" {
		return true, envContainer + "=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for renderer files is writable.
func checkSystem(result *doctorResult) {
	f, err := os.CreateTemp("", "mdz-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdz doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Renderers")
	for _, info := range r.Renderers {
		if info.Found {
			fmt.Fprintf(w, "  [OK] %s: %s", info.Name, info.Command)
			if info.Version != "" {
				fmt.Fprintf(w, " (%s)", info.Version)
			}
			fmt.Fprintln(w)
		} else {
			fmt.Fprintf(w, "  [WARN] %s: not available\n", info.Name)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Processors")
	for _, p := range r.Processors {
		status := "[OK]"
		if !p.Available {
			status = "[WARN]"
		}
		fmt.Fprintf(w, "  %s %s", status, p.ID)
		if len(p.Tools) > 0 {
			fmt.Fprintf(w, " (needs %s)", strings.Join(p.Tools, ", "))
		}
		fmt.Fprintln(w)
	}
	if len(r.Plugins.Loaded) > 0 {
		fmt.Fprintf(w, "  [OK] %d plugin(s) loaded\n", len(r.Plugins.Loaded))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings (diagrams fall back to source)")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
