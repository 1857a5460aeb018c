package mdz

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/alnah/go-mdz/internal/bundle"
	"github.com/alnah/go-mdz/internal/fileutil"
	"github.com/alnah/go-mdz/internal/processors/imageref"
	"github.com/alnah/go-mdz/internal/yamlutil"
)

// PackResult describes a written bundle.
type PackResult struct {
	Path    string
	Assets  []string // asset paths inside the bundle, sorted
	Missing []string // local references whose files could not be read
}

// Pack writes doc to a bundle at out. Front matter becomes the bundle
// metadata; every readable local image becomes an asset and its reference
// is rewritten to "assets/<path>". Unreadable references are left as
// written and listed in the result.
func (e *Engine) Pack(doc Document, out string) (*PackResult, error) {
	if out == "" {
		return nil, ErrEmptyOutput
	}
	meta, body, err := bundle.SplitFrontMatter(doc.Text)
	if err != nil {
		return nil, err
	}

	var resolve func(string) string
	if p, err := imageref.New(e.ProcessorConfig()); err == nil {
		if img, ok := p.(*imageref.Processor); ok {
			resolve = img.Resolve
		}
	}

	text, files, missing := bundle.Collect(body, absDir(doc.BaseDir), imageref.References(body), resolve)
	for _, ref := range missing {
		e.logger.Warn("asset not found, reference kept", zap.String("ref", ref))
	}

	b := &bundle.Bundle{Text: text, Metadata: meta, Assets: files}
	if err := bundle.Create(out, b, bundle.WithLevel(e.cfg.BundleLevel()), bundle.WithLogger(e.logger)); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	return &PackResult{Path: out, Assets: names, Missing: missing}, nil
}

// Unpacked is an extracted bundle.
type Unpacked struct {
	Text     string            // main document, localized when requested
	Metadata yamlutil.MapSlice // nil when the bundle has none
	Files    map[string]string // entry name -> absolute extracted path
}

// MainPath returns the extracted main document path.
func (u *Unpacked) MainPath() string {
	return u.Files[bundle.MainEntry]
}

// Unpack extracts the bundle at path into dir. With localize, asset
// references in the main document are rewritten to the extracted absolute
// paths, both in the returned text and in the extracted file.
func (e *Engine) Unpack(path, dir string, localize bool) (*Unpacked, error) {
	b, files, err := bundle.Extract(path, dir, bundle.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}

	text := b.Text
	if localize {
		text = bundle.Localize(b.Text, files)
		if text != b.Text {
			if err := fileutil.AtomicWrite(files[bundle.MainEntry], []byte(text), 0o600); err != nil {
				return nil, fmt.Errorf("localizing %s: %w", bundle.MainEntry, err)
			}
		}
	}
	return &Unpacked{Text: text, Metadata: b.Metadata, Files: files}, nil
}
