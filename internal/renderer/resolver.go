package renderer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-mdz/internal/fileutil"
)

// versionTimeout bounds the version probe run during resolution.
const versionTimeout = 10 * time.Second

// Resolution is the cached outcome of locating a tool.
type Resolution struct {
	Tool      string
	Path      string   // executable to run
	Prefix    []string // arguments placed before the tool arguments
	Version   string
	Available bool
	Reason    string // why the tool is unavailable
}

// Command returns the full invocation as display text.
func (r Resolution) Command() string {
	return strings.TrimSpace(r.Path + " " + strings.Join(r.Prefix, " "))
}

// Resolver locates tools once and caches the outcome.
// Its function fields may be replaced before first use to fake discovery.
type Resolver struct {
	LookPath   func(file string) (string, error)
	FileExists func(path string) bool
	HomeDir    func() (string, error)
	Runner     Runner

	mu       sync.Mutex
	cache    map[string]Resolution
	disabled map[string]bool
}

// NewResolver creates a Resolver backed by the real PATH and filesystem.
func NewResolver(runner Runner) *Resolver {
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Resolver{
		LookPath:   exec.LookPath,
		FileExists: fileutil.FileExists,
		HomeDir:    os.UserHomeDir,
		Runner:     runner,
		cache:      make(map[string]Resolution),
		disabled:   make(map[string]bool),
	}
}

// Disable forces the named tool unavailable. It also drops any cached
// resolution for it.
func (r *Resolver) Disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled[name] = true
	delete(r.cache, name)
}

// Resolve locates tool, probing its version, and caches the result for
// the life of the Resolver. Later calls never search again.
func (r *Resolver) Resolve(ctx context.Context, tool Tool) Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.cache[tool.Name]; ok {
		return res
	}
	res := r.locate(ctx, tool)
	r.cache[tool.Name] = res
	return res
}

func (r *Resolver) locate(ctx context.Context, tool Tool) Resolution {
	res := Resolution{Tool: tool.Name}
	if r.disabled[tool.Name] {
		res.Reason = "disabled by configuration"
		return res
	}

	if tool.Command != "" {
		if path, err := r.LookPath(tool.Command); err == nil {
			res.Path = path
			res.Available = true
			res.Version, _ = r.version(ctx, path, nil, tool.VersionArgs)
			return res
		}
	}

	for _, fb := range tool.Fallbacks {
		if len(fb) == 0 {
			continue
		}
		path, err := r.LookPath(fb[0])
		if err != nil {
			continue
		}
		version, ok := r.version(ctx, path, fb[1:], tool.VersionArgs)
		if !ok {
			continue
		}
		res.Path, res.Prefix, res.Version, res.Available = path, fb[1:], version, true
		return res
	}

	if len(tool.Jars) > 0 {
		if java, err := r.LookPath("java"); err == nil {
			for _, jar := range tool.Jars {
				jar = r.expandHome(jar)
				if !r.FileExists(jar) {
					continue
				}
				prefix := []string{"-jar", jar}
				res.Path, res.Prefix, res.Available = java, prefix, true
				res.Version, _ = r.version(ctx, java, prefix, tool.VersionArgs)
				return res
			}
		}
	}

	res.Reason = tool.Command + " not found"
	return res
}

// version runs the tool's version command and returns its first output line.
func (r *Resolver) version(ctx context.Context, path string, prefix, args []string) (string, bool) {
	if len(args) == 0 {
		return "", true
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	stdout, stderr, err := r.Runner.Run(ctx, path, append(append([]string{}, prefix...), args...)...)
	if err != nil {
		return "", false
	}
	out := strings.TrimSpace(stdout)
	if out == "" {
		out = strings.TrimSpace(stderr)
	}
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line), true
}

func (r *Resolver) expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := r.HomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
