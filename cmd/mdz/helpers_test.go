package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	mdz "github.com/alnah/go-mdz"
	"github.com/alnah/go-mdz/internal/renderer"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment and fakes
// ---------------------------------------------------------------------------

// syncBuffer is a bytes.Buffer safe for the concurrent writes of render
// workers and the logger.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testEnv is an Environment with captured output and no external tools.
type testEnv struct {
	*Environment
	stdout *syncBuffer
	stderr *syncBuffer
	vars   map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	te := &testEnv{stdout: &syncBuffer{}, stderr: &syncBuffer{}, vars: map[string]string{}}
	te.Environment = &Environment{
		Now:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		Stdout: te.stdout,
		Stderr: te.stderr,
		Stdin:  strings.NewReader(""),
		Getenv: func(k string) string { return te.vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(te.vars))
			for k, v := range te.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		LookBrowser:   func() (string, bool) { return "", false },
		EngineOptions: []mdz.Option{mdz.WithResolver(noToolsResolver())},
	}
	return te
}

func (te *testEnv) run(args ...string) int {
	return runMain(context.Background(), append([]string{"mdz"}, args...), te.Environment)
}

// noToolsResolver finds no external command.
func noToolsResolver() *renderer.Resolver {
	r := renderer.NewResolver(nil)
	r.LookPath = func(string) (string, error) { return "", errors.New("not found") }
	r.FileExists = func(string) bool { return false }
	r.HomeDir = func() (string, error) { return "/home/test", nil }
	return r
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return tempDir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) // #nosec G304 -- test path
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
