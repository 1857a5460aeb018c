package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-mdz/internal/fileutil"
	"github.com/alnah/go-mdz/internal/processors/diagram"
	"github.com/alnah/go-mdz/internal/renderer"
	"github.com/alnah/go-mdz/internal/yamlutil"
	"github.com/alnah/go-mdz/processor"
)

// Manifest declares a diagram dialect rendered by an external command.
type Manifest struct {
	ID          string   `yaml:"id"`
	Priority    *int     `yaml:"priority"`
	Fence       []string `yaml:"fence"`
	Label       string   `yaml:"label"`
	Command     string   `yaml:"command"`
	Candidates  []string `yaml:"candidates"` // alternative executables
	VersionArgs []string `yaml:"version_args"`
	Args        []string `yaml:"args"` // {input}, {output}, {outdir} are substituted
	InputExt    string   `yaml:"input_ext"`
	OutputExt   string   `yaml:"output_ext"`
	Timeout     string   `yaml:"timeout"`
}

var validID = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ParseManifest decodes and validates a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yamlutil.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if !validID.MatchString(m.ID) {
		return fmt.Errorf("%w: id %q must be lowercase letters, digits, '-' or '_'", ErrManifest, m.ID)
	}
	if m.Command == "" {
		return fmt.Errorf("%w: %s: command is required", ErrManifest, m.ID)
	}
	if len(m.Args) == 0 {
		return fmt.Errorf("%w: %s: args are required", ErrManifest, m.ID)
	}
	joined := strings.Join(m.Args, " ")
	if !strings.Contains(joined, "{input}") {
		return fmt.Errorf("%w: %s: args must reference {input}", ErrManifest, m.ID)
	}
	if !strings.Contains(joined, "{output}") && !strings.Contains(joined, "{outdir}") {
		return fmt.Errorf("%w: %s: args must reference {output} or {outdir}", ErrManifest, m.ID)
	}
	for _, f := range m.Fence {
		if !validID.MatchString(f) {
			return fmt.Errorf("%w: %s: invalid fence tag %q", ErrManifest, m.ID, f)
		}
	}
	for _, ext := range []string{m.InputExt, m.OutputExt} {
		if ext == "" {
			continue
		}
		if err := fileutil.ValidateExtension(ext); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrManifest, m.ID, err)
		}
	}
	if m.Timeout != "" {
		if d, err := time.ParseDuration(m.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("%w: %s: invalid timeout %q", ErrManifest, m.ID, m.Timeout)
		}
	}
	return nil
}

// Dialect converts the manifest into a diagram dialect.
func (m *Manifest) Dialect() diagram.Dialect {
	fences := m.Fence
	if len(fences) == 0 {
		fences = []string{m.ID}
	}
	label := m.Label
	if label == "" {
		label = m.ID + " Diagram"
	}
	priority := processor.DefaultPriority
	if m.Priority != nil {
		priority = *m.Priority
	}
	inExt, outExt := m.InputExt, m.OutputExt
	if inExt == "" {
		inExt = "txt"
	}
	if outExt == "" {
		outExt = "svg"
	}
	timeout, _ := time.ParseDuration(m.Timeout)

	fallbacks := make([][]string, 0, len(m.Candidates))
	for _, c := range m.Candidates {
		fallbacks = append(fallbacks, strings.Fields(c))
	}

	args := m.Args
	return diagram.Dialect{
		ID:       m.ID,
		Kind:     processor.Kind(m.ID),
		Fences:   fences,
		Label:    label,
		Lexer:    fences[0],
		Priority: priority,
		Timeout:  timeout,
		Tool: renderer.Tool{
			Name:        m.ID,
			Command:     m.Command,
			Fallbacks:   fallbacks,
			VersionArgs: m.VersionArgs,
			InputExt:    inExt,
			OutputExt:   outExt,
			Args: func(input, output string) []string {
				return expandArgs(args, input, output)
			},
		},
	}
}

func expandArgs(args []string, input, output string) []string {
	r := strings.NewReplacer("{input}", input, "{output}", output, "{outdir}", filepath.Dir(output))
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

func (ld *Loader) openManifest(path string) (RegisterFunc, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from a configured plugin directory
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	d := m.Dialect()
	return func(reg *processor.Registry) error {
		return reg.Register(d.ID, diagram.NewFactory(d, ld.resolver), d.Priority)
	}, nil
}
