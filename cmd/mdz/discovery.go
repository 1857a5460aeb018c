package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	mdz "github.com/alnah/go-mdz"
	"github.com/alnah/go-mdz/processor"
)

// stdoutPath selects standard output instead of a file.
const stdoutPath = "-"

// FileToRender represents a single file to process.
type FileToRender struct {
	InputPath  string
	OutputPath string
}

// discoverFiles finds all markdown files under inputPath. outputDir may
// name a single .md file when inputPath is a file.
func discoverFiles(inputPath, outputDir string, target processor.Target) ([]FileToRender, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateMarkdownExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "", target)
		return []FileToRender{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToRender
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !isMarkdown(path) || isRenderOutput(path) {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath, target)
		files = append(files, FileToRender{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// outputSuffix names rendered files: "doc.md" becomes "doc.html.md" for
// export:html and "doc.preview.md" for the preview target.
func outputSuffix(target processor.Target) string {
	if target.IsPreview() {
		return ".preview.md"
	}
	return "." + string(target.Format) + ".md"
}

// isRenderOutput reports whether path looks like a previous render result,
// so re-running over a directory does not render its own outputs.
func isRenderOutput(path string) bool {
	name := strings.TrimSuffix(filepath.Base(path), ".md")
	if strings.HasSuffix(name, ".preview") {
		return true
	}
	for _, f := range processor.Formats() {
		if strings.HasSuffix(name, "."+string(f)) {
			return true
		}
	}
	return false
}

// resolveOutputPath determines the output path for a markdown file.
func resolveOutputPath(inputPath, outputDir, baseInputDir string, target processor.Target) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext) + outputSuffix(target)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}

	if outputDir == stdoutPath || (baseInputDir == "" && isMarkdown(outputDir)) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), base)
		}
	}

	return filepath.Join(outputDir, base)
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	if !isMarkdown(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mdz.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mdz.MaxWorkers)
	}
	return nil
}
