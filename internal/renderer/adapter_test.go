package renderer

// Notes:
// - The fake runner writes the output file itself, so these tests cover the
//   adapter contract (temp files, timeout, exit status, output checks)
//   without any external tool installed.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestAdapterRender - Success and failure paths
// ---------------------------------------------------------------------------

func TestAdapterRender_Success(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fn: writeOutput(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)}
	r := newFakeResolver(runner, map[string]string{"echo-render": "/bin/echo-render"})
	a := NewAdapter(echoTool(), r, time.Second, nil)

	out, err := a.Render(context.Background(), "graph TD; A-->B")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(out), "<svg") {
		t.Errorf("output = %q", out)
	}
}

func TestAdapterRender_RemovesTempFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(context.Context, string, []string) (string, string, error)
	}{
		{name: "success", fn: writeOutput("<svg></svg>")},
		{name: "tool failure", fn: func(_ context.Context, _ string, args []string) (string, string, error) {
			if args[0] == "--version" {
				return "1", "", nil
			}
			_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o600)
			return "", "syntax error", errors.New("exit status 1")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen []string
			runner := &fakeRunner{fn: func(ctx context.Context, name string, args []string) (string, string, error) {
				if args[0] != "--version" {
					seen = append(seen, args...)
				}
				return tt.fn(ctx, name, args)
			}}
			r := newFakeResolver(runner, map[string]string{"echo-render": "/bin/echo-render"})
			a := NewAdapter(echoTool(), r, time.Second, nil)

			_, _ = a.Render(context.Background(), "source")

			if len(seen) != 2 {
				t.Fatalf("expected input and output args, got %v", seen)
			}
			for _, p := range seen {
				if _, err := os.Stat(p); !os.IsNotExist(err) {
					t.Errorf("temp file %s still exists", p)
				}
			}
			if filepath.Dir(seen[0]) != filepath.Dir(seen[1]) {
				t.Errorf("output %s should sit next to input %s", seen[1], seen[0])
			}
		})
	}
}

func TestAdapterRender_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		found   map[string]string
		fn      func(context.Context, string, []string) (string, string, error)
		timeout time.Duration
		wantErr error
	}{
		{
			name:    "tool missing",
			found:   nil,
			wantErr: ErrUnavailable,
		},
		{
			name:  "non-zero exit",
			found: map[string]string{"echo-render": "/bin/echo-render"},
			fn: func(_ context.Context, _ string, args []string) (string, string, error) {
				return "", "Parse error on line 1", errors.New("exit status 1")
			},
			wantErr: ErrToolFailed,
		},
		{
			name:  "no output file",
			found: map[string]string{"echo-render": "/bin/echo-render"},
			fn: func(context.Context, string, []string) (string, string, error) {
				return "", "", nil
			},
			wantErr: ErrEmptyOutput,
		},
		{
			name:    "empty output file",
			found:   map[string]string{"echo-render": "/bin/echo-render"},
			fn:      writeOutput(""),
			wantErr: ErrEmptyOutput,
		},
		{
			name:    "output without svg",
			found:   map[string]string{"echo-render": "/bin/echo-render"},
			fn:      writeOutput("PNG"),
			wantErr: ErrInvalidOutput,
		},
		{
			name:  "timeout",
			found: map[string]string{"echo-render": "/bin/echo-render"},
			fn: func(ctx context.Context, _ string, args []string) (string, string, error) {
				if args[0] == "--version" {
					return "1", "", nil
				}
				<-ctx.Done()
				return "", "", ctx.Err()
			},
			timeout: 20 * time.Millisecond,
			wantErr: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newFakeResolver(&fakeRunner{fn: tt.fn}, tt.found)
			timeout := tt.timeout
			if timeout == 0 {
				timeout = time.Second
			}
			a := NewAdapter(echoTool(), r, timeout, nil)

			_, err := a.Render(context.Background(), "source")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Render() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAdapterRender_ToolFailedCarriesStderr(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{fn: func(_ context.Context, _ string, args []string) (string, string, error) {
		return "", "Parse error on line 3", errors.New("exit status 1")
	}}
	r := newFakeResolver(runner, map[string]string{"echo-render": "/bin/echo-render"})
	a := NewAdapter(echoTool(), r, time.Second, nil)

	_, err := a.Render(context.Background(), "bad")
	if err == nil || !strings.Contains(err.Error(), "Parse error on line 3") {
		t.Errorf("error should include stderr, got %v", err)
	}
}

func TestAdapterRender_UnavailableShortCircuits(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	r := newFakeResolver(runner, nil)
	a := NewAdapter(echoTool(), r, time.Second, nil)

	for i := 0; i < 3; i++ {
		if _, err := a.Render(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("Render() error = %v, want ErrUnavailable", err)
		}
	}
	if runner.callCount() != 0 {
		t.Errorf("runner called %d times, want 0", runner.callCount())
	}
}

func TestAdapterRender_UsesPrefix(t *testing.T) {
	t.Parallel()

	var got []string
	runner := &fakeRunner{fn: func(ctx context.Context, name string, args []string) (string, string, error) {
		if args[len(args)-1] == "-version" {
			return "PlantUML version 1", "", nil
		}
		got = append([]string{name}, args...)
		// PlantUML writes <input basename>.svg into the -o directory.
		input := args[len(args)-1]
		out := strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
		return "", "", os.WriteFile(out, []byte("<svg/>"), 0o600)
	}}
	r := newFakeResolver(runner, map[string]string{"java": "/usr/bin/java"})
	r.FileExists = func(p string) bool { return p == "/usr/local/bin/plantuml.jar" }
	a := NewAdapter(PlantUML(), r, time.Second, nil)

	if _, err := a.Render(context.Background(), "@startuml\nA -> B\n@enduml"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(got) < 5 || got[0] != "/usr/bin/java" || got[1] != "-jar" || got[3] != "-tsvg" {
		t.Errorf("invocation = %v", got)
	}
}
