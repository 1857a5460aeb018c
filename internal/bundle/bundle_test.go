package bundle

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/alnah/go-mdz/internal/yamlutil"
)

// pngBytes is a 1x1 PNG header followed by bytes that are not valid UTF-8.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0xff, 0xfe, 0x80, 0x00}

func sampleBundle() *Bundle {
	return &Bundle{
		Text: "---\ntitle: x\n---\n# Doc\n\n![logo](assets/img/logo.png)\n",
		Metadata: yamlutil.MapSlice{
			{Key: "title", Value: "Quarterly report"},
			{Key: "version", Value: 3},
			{Key: "offset", Value: -2},
			{Key: "draft", Value: true},
			{Key: "author", Value: yamlutil.MapSlice{
				{Key: "name", Value: "Ada"},
				{Key: "email", Value: "ada@example.com"},
			}},
		},
		Assets: map[string][]byte{
			"img/logo.png":   pngBytes,
			"data/table.csv": []byte("a,b\n1,2\n"),
		},
	}
}

// rawArchive builds a zstd-compressed tar from name/content pairs.
func rawArchive(t *testing.T, entries ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	tw := tar.NewWriter(zw)
	for i := 0; i+1 < len(entries); i += 2 {
		hdr := &tar.Header{Typeflag: tar.TypeReg, Name: entries[i], Mode: 0o644, Size: int64(len(entries[i+1]))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(entries[i+1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// TestEncodeDecode - Round trip
// ---------------------------------------------------------------------------

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, level := range []int{MinLevel, DefaultLevel, 9, MaxLevel} {
		want := sampleBundle()
		var buf bytes.Buffer
		if err := Encode(&buf, want, level); err != nil {
			t.Fatalf("Encode(level %d) error = %v", level, err)
		}
		got, err := Decode(&buf)
		if err != nil {
			t.Fatalf("Decode(level %d) error = %v", level, err)
		}

		if got.Text != want.Text {
			t.Errorf("level %d: Text = %q, want %q", level, got.Text, want.Text)
		}
		if !reflect.DeepEqual(got.Assets, want.Assets) {
			t.Errorf("level %d: Assets differ", level)
		}
		if !reflect.DeepEqual(got.Metadata, want.Metadata) {
			t.Errorf("level %d: Metadata = %#v, want %#v", level, got.Metadata, want.Metadata)
		}
	}
}

func TestEncode_Deterministic(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	if err := Encode(&a, sampleBundle(), DefaultLevel); err != nil {
		t.Fatal(err)
	}
	if err := Encode(&b, sampleBundle(), DefaultLevel); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("equal bundles encoded to different bytes")
	}
}

func TestEncode_NoMetadata(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Encode(&buf, &Bundle{Text: "plain"}, DefaultLevel); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "plain" || got.Metadata != nil || len(got.Assets) != 0 {
		t.Errorf("Decode() = %+v", got)
	}
}

// ---------------------------------------------------------------------------
// TestEncode - Errors
// ---------------------------------------------------------------------------

func TestEncode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		bundle  *Bundle
		level   int
		wantErr error
	}{
		{name: "level too low", bundle: &Bundle{}, level: 0, wantErr: ErrInvalidLevel},
		{name: "level too high", bundle: &Bundle{}, level: 23, wantErr: ErrInvalidLevel},
		{name: "escaping asset", bundle: &Bundle{Assets: map[string][]byte{"../x": nil}}, level: 3, wantErr: ErrUnsafePath},
		{name: "absolute asset", bundle: &Bundle{Assets: map[string][]byte{"/etc/x": nil}}, level: 3, wantErr: ErrUnsafePath},
		{name: "unclean asset", bundle: &Bundle{Assets: map[string][]byte{"a/./b": nil}}, level: 3, wantErr: ErrUnsafePath},
		{name: "escaping extra", bundle: &Bundle{Extra: map[string][]byte{"../x": nil}}, level: 3, wantErr: ErrUnsafePath},
		{name: "extra shadows main", bundle: &Bundle{Extra: map[string][]byte{"index.md": nil}}, level: 3, wantErr: ErrUnsafePath},
		{name: "extra inside assets", bundle: &Bundle{Extra: map[string][]byte{"assets/a.png": nil}}, level: 3, wantErr: ErrUnsafePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Encode(&bytes.Buffer{}, tt.bundle, tt.level)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDecode - Structural errors
// ---------------------------------------------------------------------------

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	notTar := func() []byte {
		var buf bytes.Buffer
		zw, _ := zstd.NewWriter(&buf)
		_, _ = zw.Write([]byte("this is not a tar archive, only some text that is long enough"))
		_ = zw.Close()
		return buf.Bytes()
	}()

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty", data: nil, wantErr: ErrCorrupt},
		{name: "not zstd", data: []byte("PK\x03\x04 zip file"), wantErr: ErrCorrupt},
		{name: "zstd but not tar", data: notTar, wantErr: ErrCorrupt},
		{name: "valid archive without main", data: rawArchive(t, "assets/a.png", "x"), wantErr: ErrMissingMain},
		{name: "bad metadata", data: rawArchive(t, "index.md", "x", "metadata.yaml", "- a\n- b\n"), wantErr: ErrMetadata},
		{name: "escaping entry", data: rawArchive(t, "index.md", "x", "../../evil", "x"), wantErr: ErrUnsafePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode_CorruptAndMissingAreDistinct(t *testing.T) {
	t.Parallel()

	_, corrupt := Decode(bytes.NewReader([]byte("garbage")))
	_, missing := Decode(bytes.NewReader(rawArchive(t, "notes.txt", "x")))

	if errors.Is(corrupt, ErrMissingMain) || errors.Is(missing, ErrCorrupt) {
		t.Errorf("errors overlap: corrupt=%v missing=%v", corrupt, missing)
	}
}

func TestDecode_LegacyLayout(t *testing.T) {
	t.Parallel()

	b, err := Decode(bytes.NewReader(rawArchive(t, "index.md", "![a](images/a.png)", "images/a.png", "png")))
	if err != nil {
		t.Fatal(err)
	}
	if string(b.Extra["images/a.png"]) != "png" || len(b.Assets) != 0 {
		t.Errorf("Extra = %v, Assets = %v, want images/a.png kept as an extra entry", b.Extra, b.Assets)
	}
}

func TestExtract_LegacyLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "old.mdz")
	data := rawArchive(t, "index.md", "![a](images/a.png)", "images/a.png", "png")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	b, paths, err := Extract(path, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	p, ok := paths["images/a.png"]
	if !ok {
		t.Fatalf("paths = %v, want images/a.png under its archive name", paths)
	}
	if got, err := os.ReadFile(p); err != nil || string(got) != "png" {
		t.Errorf("extracted content = %q, %v", got, err)
	}
	if _, ok := paths["assets/images/a.png"]; ok {
		t.Error("legacy entry must not be moved under assets/")
	}

	if got, want := Localize(b.Text, paths), "![a]("+p+")"; got != want {
		t.Errorf("Localize() = %q, want %q", got, want)
	}
}

func TestEncode_ExtraRoundTrip(t *testing.T) {
	t.Parallel()

	want := &Bundle{Text: "![a](images/a.png)", Extra: map[string][]byte{"images/a.png": pngBytes}}
	var buf bytes.Buffer
	if err := Encode(&buf, want, DefaultLevel); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(got.Extra, want.Extra) || len(got.Assets) != 0 {
		t.Errorf("Extra = %v, Assets = %v", got.Extra, got.Assets)
	}
}

// ---------------------------------------------------------------------------
// TestCreateExtract - Files on disk
// ---------------------------------------------------------------------------

func TestCreateExtract(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.mdz")
	want := sampleBundle()

	if err := Create(path, want, WithLevel(19)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	out := filepath.Join(dir, "out")
	got, paths, err := Extract(path, out)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if got.Text != want.Text || !reflect.DeepEqual(got.Assets, want.Assets) {
		t.Error("extracted bundle differs")
	}
	for _, name := range []string{MainEntry, MetadataEntry, "assets/img/logo.png", "assets/data/table.csv"} {
		p, ok := paths[name]
		if !ok {
			t.Errorf("paths missing %s", name)
			continue
		}
		if !filepath.IsAbs(p) {
			t.Errorf("path %s is not absolute", p)
		}
	}
	data, err := os.ReadFile(paths["assets/img/logo.png"])
	if err != nil || !bytes.Equal(data, pngBytes) {
		t.Errorf("binary asset not byte-identical: %v", err)
	}
}

func TestCreate_InvalidLevel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.mdz")
	if err := Create(path, sampleBundle(), WithLevel(30)); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Create() error = %v, want ErrInvalidLevel", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed Create left a file behind")
	}
}

func TestExtract_CorruptLeavesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.mdz")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")

	if _, _, err := Extract(path, out); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Extract() error = %v, want ErrCorrupt", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("Extract created output for a corrupt bundle")
	}
}

func TestExtract_MissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := Extract(filepath.Join(t.TempDir(), "none.mdz"), t.TempDir())
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Extract() error = %v, want not exist", err)
	}
}
