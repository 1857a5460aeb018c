package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// newFlagSet returns a silent flag set: parse errors are returned, not
// printed, and -h surfaces as flag.ErrHelp.
func newFlagSet(name string, common *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	if common != nil {
		fs.StringVarP(&common.config, "config", "c", "", "config file name or path")
		fs.BoolVarP(&common.quiet, "quiet", "q", false, "only show errors")
		fs.BoolVarP(&common.verbose, "verbose", "v", false, "log debug details")
	}
	return fs
}

// parseFlags parses args and wraps failures as usage errors.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// singleArg returns the only positional argument.
func singleArg(fs *flag.FlagSet) (string, error) {
	switch fs.NArg() {
	case 0:
		return "", ErrNoInput
	case 1:
		return fs.Arg(0), nil
	default:
		return "", fmt.Errorf("%w: %s takes one input, got %d", ErrUsage, fs.Name(), fs.NArg())
	}
}
