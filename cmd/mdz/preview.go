package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	mdz "github.com/alnah/go-mdz"
	"github.com/alnah/go-mdz/internal/config"
	"github.com/alnah/go-mdz/internal/fileutil"
)

// previewFlags holds all flags for the preview command.
type previewFlags struct {
	common commonFlags
	output string
	title  string
}

func runPreview(ctx context.Context, args []string, env *Environment) error {
	flags := &previewFlags{}
	fs := newFlagSet("preview", &flags.common)
	fs.StringVarP(&flags.output, "output", "o", "", "output HTML file (default: stdout)")
	fs.StringVar(&flags.title, "title", "", "page title (default: first heading)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	input, err := singleArg(fs)
	if err != nil {
		return err
	}

	doc, err := readDocument(input, env.Stdin)
	if err != nil {
		return err
	}

	s, err := openSession(flags.common, env, func(cfg *config.Config) {
		if flags.title != "" {
			cfg.Preview.Title = flags.title
		}
	})
	if err != nil {
		return err
	}

	page, err := s.engine.Preview(ctx, doc)
	if err != nil {
		return err
	}

	if flags.output == "" || flags.output == stdoutPath {
		if _, err := io.WriteString(env.Stdout, page); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		return nil
	}
	if err := fileutil.AtomicWrite(flags.output, []byte(page), filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s\n", flags.output)
	}
	return nil
}

// readDocument loads a markdown file, or stdin for "-". Relative
// references in stdin input resolve against the working directory.
func readDocument(input string, stdin io.Reader) (mdz.Document, error) {
	if input == stdoutPath {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return mdz.Document{}, fmt.Errorf("%w: stdin: %w", ErrReadInput, err)
		}
		wd, _ := os.Getwd()
		return mdz.Document{Text: string(data), BaseDir: wd}, nil
	}

	if err := validateMarkdownExtension(input); err != nil {
		return mdz.Document{}, err
	}
	data, err := os.ReadFile(input) // #nosec G304 -- user-provided input path
	if err != nil {
		return mdz.Document{}, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return mdz.Document{
		Text:    string(data),
		BaseDir: filepath.Dir(input),
		Name:    filepath.Base(input),
	}, nil
}
