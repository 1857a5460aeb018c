package renderer

import (
	"context"
	"errors"
	"os"
	"sync"
)

// fakeRunner records calls and delegates behavior to fn.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(ctx context.Context, name string, args []string) (string, string, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	if f.fn == nil {
		return "", "", nil
	}
	return f.fn(ctx, name, args)
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// lookPathFrom fakes exec.LookPath over a fixed set of names.
func lookPathFrom(found map[string]string) func(string) (string, error) {
	return func(file string) (string, error) {
		if p, ok := found[file]; ok {
			return p, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func newFakeResolver(runner Runner, found map[string]string) *Resolver {
	r := NewResolver(runner)
	r.LookPath = lookPathFrom(found)
	r.FileExists = func(string) bool { return false }
	r.HomeDir = func() (string, error) { return "/home/test", nil }
	return r
}

// echoTool writes its output to the last argument.
func echoTool() Tool {
	return Tool{
		Name:        "echo",
		Command:     "echo-render",
		VersionArgs: []string{"--version"},
		InputExt:    "txt",
		OutputExt:   "svg",
		Args: func(input, output string) []string {
			return []string{input, output}
		},
	}
}

// writeOutput makes a runner function that writes content to the output argument.
func writeOutput(content string) func(context.Context, string, []string) (string, string, error) {
	return func(_ context.Context, _ string, args []string) (string, string, error) {
		if len(args) > 0 && args[0] == "--version" {
			return "echo-render 1.2.3\n", "", nil
		}
		out := args[len(args)-1]
		return "", "", os.WriteFile(out, []byte(content), 0o600)
	}
}
