package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mdz/internal/fileutil"
)

// DefaultTimeout bounds one renderer invocation when Adapter.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// maxStderr caps the stderr text carried in errors and logs.
const maxStderr = 2048

// Adapter renders source text with one external tool.
type Adapter struct {
	Tool     Tool
	Resolver *Resolver
	Runner   Runner
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewAdapter creates an Adapter sharing resolver's runner.
func NewAdapter(tool Tool, resolver *Resolver, timeout time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{Tool: tool, Resolver: resolver, Runner: resolver.Runner, Timeout: timeout, Logger: logger}
}

// Resolution returns the cached tool resolution.
func (a *Adapter) Resolution(ctx context.Context) Resolution {
	return a.Resolver.Resolve(ctx, a.Tool)
}

// Available reports whether the tool was found.
func (a *Adapter) Available(ctx context.Context) bool {
	return a.Resolution(ctx).Available
}

// Render writes source to a temporary input file, runs the tool under the
// timeout, and returns the output file contents. Both temporary files are
// removed before Render returns.
func (a *Adapter) Render(ctx context.Context, source string) ([]byte, error) {
	res := a.Resolution(ctx)
	if !res.Available {
		return nil, fmt.Errorf("%w: %s: %s", ErrUnavailable, a.Tool.Name, res.Reason)
	}

	input, cleanup, err := fileutil.WriteTempFile(source, a.Tool.InputExt)
	if err != nil {
		return nil, a.fail(err, "")
	}
	defer cleanup()

	output, err := fileutil.SiblingPath(input, a.Tool.OutputExt)
	if err != nil {
		return nil, a.fail(err, "")
	}
	defer func() { _ = os.Remove(output) }()

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, res.Prefix...), a.Tool.Args(input, output)...)
	_, stderr, err := a.Runner.Run(runCtx, res.Path, args...)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, a.fail(fmt.Errorf("%w after %s", ErrTimeout, timeout), stderr)
	}
	if err != nil {
		return nil, a.fail(fmt.Errorf("%w: %v: %s", ErrToolFailed, err, truncate(stderr)), stderr)
	}

	data, err := os.ReadFile(output) // #nosec G304 -- path derived from our own temp file
	if err != nil || len(data) == 0 {
		return nil, a.fail(ErrEmptyOutput, stderr)
	}
	if a.Tool.OutputExt == "svg" && !bytes.Contains(data, []byte("<svg")) {
		return nil, a.fail(fmt.Errorf("%w: missing <svg> element", ErrInvalidOutput), stderr)
	}
	return data, nil
}

func (a *Adapter) fail(err error, stderr string) error {
	a.Logger.Warn("renderer failed",
		zap.String("tool", a.Tool.Name),
		zap.String("stderr", truncate(stderr)),
		zap.Error(err))
	return err
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		return s[:maxStderr] + "..."
	}
	return s
}
