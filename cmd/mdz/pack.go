package main

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-mdz/internal/bundle"
	"github.com/alnah/go-mdz/internal/config"
	"github.com/alnah/go-mdz/internal/dateutil"
	"github.com/alnah/go-mdz/internal/yamlutil"
)

// bundleExt is the file extension of document bundles.
const bundleExt = ".mdz"

// packFlags holds all flags for the pack command.
type packFlags struct {
	common commonFlags
	output string
	level  int
	date   string
}

// unpackFlags holds all flags for the unpack command.
type unpackFlags struct {
	common   commonFlags
	output   string
	localize bool
}

func runPack(args []string, env *Environment) error {
	flags := &packFlags{}
	fs := newFlagSet("pack", &flags.common)
	fs.StringVarP(&flags.output, "output", "o", "", "bundle path (default: <input>.mdz)")
	fs.IntVarP(&flags.level, "level", "l", 0, "zstd level 1-22 (0 = config)")
	fs.StringVar(&flags.date, "date", "", "set the date metadata: literal, auto, or auto:FORMAT")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	input, err := singleArg(fs)
	if err != nil {
		return err
	}
	if input == stdoutPath {
		return fmt.Errorf("%w: pack needs a file, relative image paths resolve against it", ErrUsage)
	}

	doc, err := readDocument(input, nil)
	if err != nil {
		return err
	}
	if doc.Text, err = stampDate(doc.Text, flags.date, env.Now()); err != nil {
		return err
	}

	s, err := openSession(flags.common, env, func(cfg *config.Config) {
		if flags.level != 0 {
			cfg.Bundle.Level = flags.level
		}
	})
	if err != nil {
		return err
	}

	out := flags.output
	if out == "" {
		out = trimExt(input) + bundleExt
	}
	res, err := s.engine.Pack(doc, out)
	if err != nil {
		return err
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s (%d assets)\n", res.Path, len(res.Assets))
		if flags.common.verbose {
			for _, a := range res.Assets {
				fmt.Fprintf(env.Stdout, "  + %s\n", a)
			}
		}
	}
	for _, ref := range res.Missing {
		fmt.Fprintf(env.Stderr, "warning: %s not found, reference kept\n", ref)
	}
	return nil
}

func runUnpack(args []string, env *Environment) error {
	flags := &unpackFlags{}
	fs := newFlagSet("unpack", &flags.common)
	fs.StringVarP(&flags.output, "output", "o", "", "destination directory (default: bundle name)")
	fs.BoolVar(&flags.localize, "localize", false, "rewrite asset references to extracted paths")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	input, err := singleArg(fs)
	if err != nil {
		return err
	}

	s, err := openSession(flags.common, env)
	if err != nil {
		return err
	}

	dir := flags.output
	if dir == "" {
		dir = trimExt(input)
		if dir == input {
			dir += "_files"
		}
	}
	u, err := s.engine.Unpack(input, dir, flags.localize)
	if err != nil {
		return err
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Extracted %s (%d files)\n", u.MainPath(), len(u.Files))
		for _, item := range u.Metadata {
			fmt.Fprintf(env.Stdout, "  %v: %v\n", item.Key, item.Value)
		}
	}
	return nil
}

// dateKey is the front matter field holding the document date.
const dateKey = "date"

// stampDate sets the front matter date to value, or, when value is empty,
// resolves an existing "auto" date. Text without a date to set or resolve
// is returned unchanged.
func stampDate(text, value string, now time.Time) (string, error) {
	meta, body, err := bundle.SplitFrontMatter(text)
	if err != nil {
		return "", err
	}

	idx := slices.IndexFunc(meta, func(item yamlutil.MapItem) bool { return item.Key == dateKey })
	if value == "" {
		if idx < 0 {
			return text, nil
		}
		current, ok := meta[idx].Value.(string)
		if !ok || !dateutil.IsAuto(current) {
			return text, nil
		}
		value = current
	}

	date, err := dateutil.Resolve(value, now)
	if err != nil {
		return "", err
	}
	if idx < 0 {
		meta = append(meta, yamlutil.MapItem{Key: dateKey, Value: date})
	} else {
		meta[idx].Value = date
	}
	return bundle.JoinFrontMatter(meta, body)
}

func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
