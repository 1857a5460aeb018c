package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-mdz/internal/bundle"
)

// pngBytes is a minimal PNG signature; bundles store assets verbatim.
const pngBytes = "\x89PNG\r\n\x1a\n"

// ---------------------------------------------------------------------------
// TestPackUnpack - Bundle round trip through the CLI
// ---------------------------------------------------------------------------

func TestPackUnpack(t *testing.T) {
	t.Parallel()

	doc := "---\ntitle: Report\nauthor: Ada\n---\n# Report\n\n![chart](img/chart.png)\n\n![gone](img/missing.png)\n"
	dir := setupTestDir(t, map[string]string{
		"report.md":     doc,
		"img/chart.png": pngBytes,
	})
	input := filepath.Join(dir, "report.md")
	bundlePath := filepath.Join(dir, "report.mdz")

	te := newTestEnv(t)
	if code := te.run("pack", "-v", input); code != ExitSuccess {
		t.Fatalf("pack exit code = %d, stderr: %s", code, te.stderr.String())
	}
	if !strings.Contains(te.stdout.String(), "Created "+bundlePath+" (1 assets)") {
		t.Errorf("pack stdout = %q", te.stdout.String())
	}
	if !strings.Contains(te.stderr.String(), "img/missing.png not found") {
		t.Errorf("pack stderr = %q, want missing asset warning", te.stderr.String())
	}

	t.Run("unpack keeps text", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv(t)
		out := filepath.Join(t.TempDir(), "plain")

		if code := te.run("unpack", "-o", out, bundlePath); code != ExitSuccess {
			t.Fatalf("unpack exit code = %d, stderr: %s", code, te.stderr.String())
		}
		main := readFile(t, filepath.Join(out, "index.md"))
		if !strings.Contains(main, "](assets/") {
			t.Errorf("index.md = %q, want assets/ reference", main)
		}
		if strings.Contains(main, "title: Report") {
			t.Error("front matter should be stored as metadata, not in index.md")
		}
		if !strings.Contains(te.stdout.String(), "title: Report") {
			t.Errorf("unpack stdout = %q, want metadata listing", te.stdout.String())
		}
	})

	t.Run("unpack localize", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv(t)
		out := filepath.Join(t.TempDir(), "local")

		if code := te.run("unpack", "--localize", "-q", "-o", out, bundlePath); code != ExitSuccess {
			t.Fatalf("unpack exit code = %d, stderr: %s", code, te.stderr.String())
		}
		main := readFile(t, filepath.Join(out, "index.md"))
		abs, err := filepath.Abs(out)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(main, abs) {
			t.Errorf("index.md = %q, want references under %s", main, abs)
		}
		if te.stdout.String() != "" {
			t.Errorf("quiet unpack printed %q", te.stdout.String())
		}
	})

	t.Run("unpack default directory", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv(t)
		copyPath := filepath.Join(t.TempDir(), "copy.mdz")
		if err := os.WriteFile(copyPath, []byte(readFile(t, bundlePath)), 0o600); err != nil {
			t.Fatal(err)
		}

		if code := te.run("unpack", copyPath); code != ExitSuccess {
			t.Fatalf("unpack exit code = %d, stderr: %s", code, te.stderr.String())
		}
		if _, err := os.Stat(filepath.Join(strings.TrimSuffix(copyPath, ".mdz"), "index.md")); err != nil {
			t.Errorf("expected extraction next to bundle: %v", err)
		}
	})
}

func TestPack_Options(t *testing.T) {
	t.Parallel()

	t.Run("explicit output and level", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv(t)
		dir := setupTestDir(t, map[string]string{"a.md": "# A\n"})
		out := filepath.Join(dir, "custom.mdz")

		if code := te.run("pack", "-q", "-l", "19", "-o", out, filepath.Join(dir, "a.md")); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, te.stderr.String())
		}
		if _, err := os.Stat(out); err != nil {
			t.Errorf("bundle not written: %v", err)
		}
	})

	t.Run("level out of range", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv(t)
		dir := setupTestDir(t, map[string]string{"a.md": "# A\n"})

		if code := te.run("pack", "-l", "30", filepath.Join(dir, "a.md")); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv(t)

		if code := te.run("pack", filepath.Join(t.TempDir(), "none.md")); code != ExitIO {
			t.Errorf("exit code = %d, want %d", code, ExitIO)
		}
	})

	t.Run("unpack missing bundle", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv(t)

		if code := te.run("unpack", filepath.Join(t.TempDir(), "none.mdz")); code != ExitIO {
			t.Errorf("exit code = %d, want %d", code, ExitIO)
		}
	})
}

// ---------------------------------------------------------------------------
// TestStampDate - Date metadata
// ---------------------------------------------------------------------------

func TestStampDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)

	t.Run("unchanged", func(t *testing.T) {
		t.Parallel()
		for _, text := range []string{
			"---\ntitle: A\n---\nbody",
			"---\ndate: 2020-01-01\n---\nbody",
			"body",
		} {
			got, err := stampDate(text, "", now)
			if err != nil || got != text {
				t.Errorf("stampDate(%q) = %q, %v; want unchanged", text, got, err)
			}
		}
	})

	tests := []struct {
		name     string
		text     string
		value    string
		wantDate string
		wantBody string
	}{
		{"auto resolved", "---\ndate: auto\n---\nbody", "", "2026-01-02", "body"},
		{"flag overrides", "---\ndate: 1999-01-01\n---\nbody", "auto:european", "02/01/2026", "body"},
		{"flag sets date", "---\ntitle: A\n---\nbody", "auto:long", "January 2, 2026", "body"},
		{"flag adds front matter", "# Title\n", "v1 draft", "v1 draft", "# Title\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := stampDate(tt.text, tt.value, now)
			if err != nil {
				t.Fatalf("stampDate() error = %v", err)
			}
			meta, body, err := bundle.SplitFrontMatter(got)
			if err != nil {
				t.Fatalf("result front matter invalid: %v\n%s", err, got)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			var date any
			for _, item := range meta {
				if item.Key == dateKey {
					date = item.Value
				}
			}
			if fmt.Sprint(date) != tt.wantDate {
				t.Errorf("date = %v, want %q (text %q)", date, tt.wantDate, got)
			}
		})
	}

	t.Run("invalid pattern", func(t *testing.T) {
		t.Parallel()
		_, err := stampDate("body", "auto:[x", now)
		if exitCodeFor(err) != ExitUsage {
			t.Errorf("error = %v, want usage error", err)
		}
	})
}

func TestPack_DateFlag(t *testing.T) {
	t.Parallel()
	te := newTestEnv(t)
	dir := setupTestDir(t, map[string]string{"a.md": "# A\n"})
	bundlePath := filepath.Join(dir, "a.mdz")

	if code := te.run("pack", "-q", "--date", "auto", filepath.Join(dir, "a.md")); code != ExitSuccess {
		t.Fatalf("pack exit code = %d, stderr: %s", code, te.stderr.String())
	}
	if code := te.run("unpack", "-o", filepath.Join(dir, "out"), bundlePath); code != ExitSuccess {
		t.Fatalf("unpack exit code = %d, stderr: %s", code, te.stderr.String())
	}
	if !strings.Contains(te.stdout.String(), "date: 2026-01-02") {
		t.Errorf("stdout = %q, want stamped date from env.Now", te.stdout.String())
	}
}
