package processor

import (
	"fmt"
	"strings"
)

// Format is a static export format.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatHTML  Format = "html"
	FormatEPUB  Format = "epub"
	FormatDOCX  Format = "docx"
	FormatLaTeX Format = "latex"
)

// Formats lists every supported export format.
func Formats() []Format {
	return []Format{FormatPDF, FormatHTML, FormatEPUB, FormatDOCX, FormatLaTeX}
}

// ParseFormat converts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// SupportsMarkup reports whether the format's backend accepts inline HTML
// and SVG in its input.
func (f Format) SupportsMarkup() bool {
	switch f {
	case FormatHTML, FormatEPUB, FormatPDF:
		return true
	default:
		return false
	}
}

// Mode distinguishes the interactive preview from static exports.
type Mode int

const (
	ModePreview Mode = iota
	ModeExport
)

// Target is the rendering context of one Process call.
type Target struct {
	Mode   Mode
	Format Format // set only for ModeExport
}

// Preview returns the preview target.
func Preview() Target { return Target{Mode: ModePreview} }

// Export returns the export target for f.
func Export(f Format) Target { return Target{Mode: ModeExport, Format: f} }

// IsPreview reports whether t is the preview target.
func (t Target) IsPreview() bool { return t.Mode == ModePreview }

// String returns "preview" or "export:<format>".
func (t Target) String() string {
	if t.IsPreview() {
		return "preview"
	}
	return "export:" + string(t.Format)
}

// ParseTarget parses "preview" or "export:<format>". A bare format name
// is accepted as shorthand for its export target.
func ParseTarget(s string) (Target, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "preview" {
		return Preview(), nil
	}
	name, ok := strings.CutPrefix(s, "export:")
	if !ok {
		name = s
	}
	f, err := ParseFormat(name)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return Export(f), nil
}
