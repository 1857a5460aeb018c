package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdz <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Rewrite math, diagrams, tables and charts for a target")
	fmt.Fprintln(w, "  preview    Build a standalone HTML preview page")
	fmt.Fprintln(w, "  pack       Bundle a document and its images into a .mdz file")
	fmt.Fprintln(w, "  unpack     Extract a .mdz bundle")
	fmt.Fprintln(w, "  doctor     Check renderers, plugins and system setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdz help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log debug details")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MDZ_CONFIG                Config file name or path")
	fmt.Fprintln(w, "  MDZ_LOG_LEVEL             debug, info, warn, error")
	fmt.Fprintln(w, "  MDZ_PLUGIN_DIRS           Extra plugin directories (path list)")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdz render <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rewrite every processed span of markdown files for a target. Files")
	fmt.Fprintln(w, "are written next to their source as <name>.<format>.md.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -t, --target <s>          preview or export:<format> (default export:html)")
	fmt.Fprintln(w, "                            Formats: pdf, html, epub, docx, latex")
	fmt.Fprintln(w, "  -o, --output <path>       Output file, directory, or - for stdout")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto, env MDZ_WORKERS)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printPreviewUsage prints usage for the preview command.
func printPreviewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdz preview <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build a complete HTML page with every script and stylesheet the")
	fmt.Fprintln(w, "document needs. Use - to read from stdin.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output HTML file (default: stdout)")
	fmt.Fprintln(w, "      --title <s>           Page title (default: first heading)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printPackUsage prints usage for the pack command.
func printPackUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdz pack <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Bundle a document, its front matter and its local images into a")
	fmt.Fprintln(w, "zstd-compressed archive.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Bundle path (default: <input>.mdz)")
	fmt.Fprintln(w, "  -l, --level <n>           Compression level 1-22 (0 = config)")
	fmt.Fprintln(w, "      --date <s>            Date metadata: literal, \"auto\", or \"auto:FORMAT\"")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "                            Presets: iso, european, us, long")
	fmt.Fprintln(w, "                            A front matter date of \"auto...\" is resolved too")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printUnpackUsage prints usage for the unpack command.
func printUnpackUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdz unpack <bundle> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extract a bundle into a directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <dir>        Destination (default: bundle name)")
	fmt.Fprintln(w, "      --localize            Point asset references at extracted files")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdz doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check external renderers, plugins, Chrome and the temp directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "preview":
		printPreviewUsage(env.Stdout)
	case "pack":
		printPackUsage(env.Stdout)
	case "unpack":
		printUnpackUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdz version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdz help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
