package bundle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-mdz/internal/fileutil"
)

// Option configures Create and Extract.
type Option func(*options)

type options struct {
	level  int
	logger *zap.Logger
}

// WithLevel sets the zstd compression level, 1 (fastest) to 22 (smallest).
func WithLevel(level int) Option {
	return func(o *options) { o.level = level }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{level: DefaultLevel, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Create encodes b and writes it to path atomically.
func Create(path string, b *Bundle, opts ...Option) error {
	o := newOptions(opts)

	var buf bytes.Buffer
	if err := Encode(&buf, b, o.level); err != nil {
		return err
	}
	if err := fileutil.AtomicWrite(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	o.logger.Info("bundle created",
		zap.String("path", path), zap.Int("assets", len(b.Assets)),
		zap.Int("level", o.level), zap.Int("bytes", buf.Len()))
	return nil
}

// Open decodes the bundle stored at path.
func Open(path string) (*Bundle, error) {
	f, err := os.Open(path) // #nosec G304 -- bundle path is user-provided
	if err != nil {
		return nil, fmt.Errorf("opening bundle: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Extract decodes the bundle at path and writes its entries under dir.
// It returns the bundle, with Text exactly as stored, and a map from each
// entry name ("index.md", "assets/img/a.png", ...) to its absolute path.
// Extra entries keep their archive name.
// On failure no extracted file is left behind.
func Extract(path, dir string, opts ...Option) (*Bundle, map[string]string, error) {
	o := newOptions(opts)

	b, err := Open(path)
	if err != nil {
		return nil, nil, err
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	_, statErr := os.Stat(root)
	createdRoot := os.IsNotExist(statErr)

	paths := make(map[string]string)
	var written []string
	fail := func(err error) (*Bundle, map[string]string, error) {
		for _, p := range written {
			_ = os.Remove(p)
		}
		if createdRoot {
			_ = os.RemoveAll(root)
		}
		return nil, nil, err
	}

	write := func(name string, data []byte) error {
		clean, err := cleanName(name)
		if err != nil {
			return err
		}
		target := filepath.Join(root, filepath.FromSlash(clean))
		if !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return fmt.Errorf("%w: %q", ErrUnsafePath, name)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return fmt.Errorf("creating directory for %s: %w", name, err)
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		written = append(written, target)
		paths[clean] = target
		return nil
	}

	if err := write(MainEntry, []byte(b.Text)); err != nil {
		return fail(err)
	}
	if len(b.Metadata) > 0 {
		meta, err := marshalMetadata(b.Metadata)
		if err != nil {
			return fail(err)
		}
		if err := write(MetadataEntry, meta); err != nil {
			return fail(err)
		}
	}
	for _, name := range sortedAssets(b) {
		if err := write(AssetRef(name), b.Assets[name]); err != nil {
			return fail(err)
		}
	}
	for _, name := range sortedKeys(b.Extra) {
		if err := write(name, b.Extra[name]); err != nil {
			return fail(err)
		}
	}

	o.logger.Info("bundle extracted", zap.String("path", path), zap.String("dir", root), zap.Int("assets", len(b.Assets)))
	return b, paths, nil
}
