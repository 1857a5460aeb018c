package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	mdz "github.com/alnah/go-mdz"
	"github.com/alnah/go-mdz/internal/hints"
	"github.com/alnah/go-mdz/processor"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// defaultRenderTarget is used when --target is not given.
const defaultRenderTarget = "export:html"

// Processor renders one document for a target.
type Processor interface {
	Process(doc mdz.Document, target processor.Target) string
}

// Compile-time interface implementation check.
var _ Processor = (*mdz.Engine)(nil)

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common  commonFlags
	target  string
	output  string
	workers int
}

// RenderResult holds the outcome of a single render.
type RenderResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

func parseRenderFlags(args []string) (*renderFlags, []string, error) {
	f := &renderFlags{}
	fs := newFlagSet("render", &f.common)
	fs.StringVarP(&f.target, "target", "t", defaultRenderTarget, "preview or export:<format>")
	fs.StringVarP(&f.output, "output", "o", "", "output file, directory, or - for stdout")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	if err := parseFlags(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, inputs, err := parseRenderFlags(args)
	if err != nil {
		return err
	}
	target, err := processor.ParseTarget(flags.target)
	if err != nil {
		return err
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if len(inputs) == 0 {
		return ErrNoInput
	}

	s, err := openSession(flags.common, env)
	if err != nil {
		return err
	}

	outputDir := flags.output
	if outputDir == "" {
		outputDir = s.cfg.Output.DefaultDir
	}

	var files []FileToRender
	for _, input := range inputs {
		found, err := discoverFiles(input, outputDir, target)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found", ErrNoInput)
	}
	if outputDir == stdoutPath && len(files) > 1 {
		return fmt.Errorf("%w: -o - needs a single input file, got %d", ErrUsage, len(files))
	}

	workers := flags.workers
	if workers == 0 {
		workers = s.overrides.Workers
	}
	workers = mdz.ResolveWorkers(workers)
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Rendering %d file(s) for %s with %d worker(s)\n", len(files), target, workers)
	}

	results := renderBatch(ctx, s.engine, files, target, workers, env)
	if failed := printResults(results, flags.common.quiet || outputDir == stdoutPath, flags.common.verbose, env); failed > 0 {
		return fmt.Errorf("%d of %d files failed: %w", failed, len(results), firstError(results))
	}
	return nil
}

// renderBatch processes files concurrently with the given number of workers.
// Results keep the order of files.
func renderBatch(ctx context.Context, proc Processor, files []FileToRender, target processor.Target, workers int, env *Environment) []RenderResult {
	if len(files) == 0 {
		return nil
	}
	workers = min(max(workers, 1), len(files))

	results := make([]RenderResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = RenderResult{InputPath: files[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = renderFile(proc, files[idx], target, env)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// renderFile processes a single file and returns the result.
func renderFile(proc Processor, f FileToRender, target processor.Target, env *Environment) RenderResult {
	start := time.Now()
	result := RenderResult{InputPath: f.InputPath, OutputPath: f.OutputPath}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrReadInput, err)
		result.Duration = time.Since(start)
		return result
	}

	out := proc.Process(mdz.Document{
		Text:    string(content),
		BaseDir: filepath.Dir(f.InputPath),
		Name:    filepath.Base(f.InputPath),
	}, target)

	if f.OutputPath == stdoutPath {
		if _, err := fmt.Fprint(env.Stdout, out); err != nil {
			result.Err = fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		result.Duration = time.Since(start)
		return result
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		result.Err = withHint(fmt.Errorf("%w: creating output directory: %w", ErrWriteOutput, err), hints.ForOutputDirectory())
		result.Duration = time.Since(start)
		return result
	}
	// #nosec G306 -- rendered documents are meant to be readable
	if err := os.WriteFile(f.OutputPath, []byte(out), filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	result.Duration = time.Since(start)
	return result
}

// printResults outputs render results and returns the number of failures.
func printResults(results []RenderResult, quiet, verbose bool, env *Environment) int {
	var succeeded, failed int

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		succeeded++
		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", succeeded, failed)
	}

	return failed
}

func firstError(results []RenderResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return errors.New("unknown failure")
}
