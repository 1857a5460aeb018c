package bundle

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/alnah/go-mdz/internal/yamlutil"
)

// Entry names.
const (
	MainEntry     = "index.md"
	MetadataEntry = "metadata.yaml"
	AssetDir      = "assets"
)

// Compression levels, on the zstd scale.
const (
	DefaultLevel = 3
	MinLevel     = 1
	MaxLevel     = 22
)

// MaxEntrySize bounds one decoded entry.
var MaxEntrySize int64 = 512 << 20

// epoch is the modification time stamped on every entry.
var epoch = time.Unix(0, 0).UTC()

// Bundle is a document with its metadata and assets.
type Bundle struct {
	Text string

	// Metadata keeps key order. Decoded integers are int; see
	// yamlutil.UnmarshalOrdered.
	Metadata yamlutil.MapSlice

	Assets map[string][]byte // slash-separated path under AssetDir -> content

	// Extra holds entries outside AssetDir other than the main document and
	// metadata, keyed by their full entry name. Older bundles stored images
	// at the archive root; they are written back under the same name so the
	// document's references stay valid.
	Extra map[string][]byte
}

// AssetRef returns the reference a document uses for the asset at rel.
func AssetRef(rel string) string {
	return AssetDir + "/" + rel
}

// Encode writes b to w as a zstd-compressed tar stream.
func Encode(w io.Writer, b *Bundle, level int) error {
	if level < MinLevel || level > MaxLevel {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidLevel, level, MinLevel, MaxLevel)
	}

	names := sortedAssets(b)
	for _, name := range names {
		if err := checkName(name); err != nil {
			return err
		}
	}
	extra := sortedKeys(b.Extra)
	for _, name := range extra {
		if err := checkExtraName(name); err != nil {
			return err
		}
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}
	tw := tar.NewWriter(zw)

	if err := writeEntry(tw, MainEntry, []byte(b.Text)); err != nil {
		_ = zw.Close()
		return err
	}
	if len(b.Metadata) > 0 {
		meta, err := marshalMetadata(b.Metadata)
		if err != nil {
			_ = zw.Close()
			return err
		}
		if err := writeEntry(tw, MetadataEntry, meta); err != nil {
			_ = zw.Close()
			return err
		}
	}
	for _, name := range names {
		if err := writeEntry(tw, AssetRef(name), b.Assets[name]); err != nil {
			_ = zw.Close()
			return err
		}
	}
	for _, name := range extra {
		if err := writeEntry(tw, name, b.Extra[name]); err != nil {
			_ = zw.Close()
			return err
		}
	}

	if err := tw.Close(); err != nil {
		_ = zw.Close()
		return fmt.Errorf("closing archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing compressor: %w", err)
	}
	return nil
}

func sortedAssets(b *Bundle) []string {
	return sortedKeys(b.Assets)
}

func sortedKeys(m map[string][]byte) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// checkName requires name to be a clean relative entry path.
func checkName(name string) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	if clean != name {
		return fmt.Errorf("%w: entry %q is not a clean relative path", ErrUnsafePath, name)
	}
	return nil
}

// checkExtraName also rejects names that collide with the fixed entries.
func checkExtraName(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if name == MainEntry || name == MetadataEntry || strings.HasPrefix(name, AssetDir+"/") {
		return fmt.Errorf("%w: extra entry %q collides with a reserved name", ErrUnsafePath, name)
	}
	return nil
}

func marshalMetadata(m yamlutil.MapSlice) ([]byte, error) {
	data, err := yamlutil.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadata, err)
	}
	return data, nil
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  epoch,
		Format:   tar.FormatPAX,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Decode reads a bundle from r. A stream that does not decompress or is
// not a tar archive yields ErrCorrupt; a valid archive without index.md
// yields ErrMissingMain. Entries outside assets/ other than the main
// document and metadata are kept in Extra under their own path.
func Decode(r io.Reader) (*Bundle, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	b := &Bundle{Assets: make(map[string][]byte), Extra: make(map[string][]byte)}
	var hasMain bool
	var meta []byte

	counted := &countingReader{r: zr}
	tr := tar.NewReader(counted)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			if counted.n == 0 {
				return nil, fmt.Errorf("%w: empty stream", ErrCorrupt)
			}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if hdr.Typeflag == tar.TypeDir {
			continue
		}
		if hdr.Typeflag != tar.TypeReg {
			return nil, fmt.Errorf("%w: unsupported entry type for %q", ErrCorrupt, hdr.Name)
		}
		name, err := cleanName(hdr.Name)
		if err != nil {
			return nil, err
		}
		if hdr.Size > MaxEntrySize {
			return nil, fmt.Errorf("%w: %s (%d bytes)", ErrTooLarge, name, hdr.Size)
		}
		data, err := io.ReadAll(io.LimitReader(tr, MaxEntrySize))
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrCorrupt, name, err)
		}

		switch {
		case name == MainEntry:
			b.Text, hasMain = string(data), true
		case name == MetadataEntry:
			meta = data
		case strings.HasPrefix(name, AssetDir+"/"):
			b.Assets[strings.TrimPrefix(name, AssetDir+"/")] = data
		default:
			b.Extra[name] = data
		}
	}

	if !hasMain {
		return nil, ErrMissingMain
	}
	if len(b.Extra) == 0 {
		b.Extra = nil
	}
	if len(bytes.TrimSpace(meta)) > 0 {
		m, err := yamlutil.UnmarshalOrdered(meta)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMetadata, err)
		}
		b.Metadata = m
	}
	return b, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// cleanName validates an entry path: relative, slash-separated, and not
// escaping the bundle root.
func cleanName(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "\\\x00") || path.IsAbs(name) || hasDriveLetter(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return clean, nil
}

func hasDriveLetter(name string) bool {
	return len(name) >= 2 && name[1] == ':'
}
