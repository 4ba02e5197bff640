package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	pflag "github.com/spf13/pflag"

	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/docdiff"
	"github.com/spicery/astdoc/pkg/kinds"
	"github.com/spicery/astdoc/pkg/logger"
	"github.com/spicery/astdoc/pkg/pipeline"
)

// Version is injected at build time via ldflags.
var Version = "dev"

const usage = `astdoc-diff - compare the syntax trees of two PHP files

Converts both files to documents and prints a line diff of their JSON
encodings, or an RFC 7386 merge patch with --patch. Exits 0 when the
documents are equal, 1 when they differ and 2 on errors.

Usage:
  astdoc-diff [options] <old-file> <new-file>

Options:
`

const (
	exitSame    = 0
	exitChanged = 1
	exitError   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var showHelp, showVersion, debug, patch, ignoreLines bool
	var kindsFile, colorMode string
	var context int

	flags := pflag.NewFlagSet("astdoc-diff", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "%s\n", usage)
		flags.PrintDefaults()
	}

	flags.BoolVarP(&showHelp, "help", "h", false, "Show help")
	flags.BoolVar(&showVersion, "version", false, "Show version")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	flags.BoolVar(&patch, "patch", false, "Print a JSON merge patch instead of a line diff")
	flags.BoolVar(&ignoreLines, "ignore-lines", false, "Ignore line numbers when comparing")
	flags.IntVarP(&context, "context", "U", 3, "Unchanged lines shown around changes (-1 for all)")
	flags.StringVar(&kindsFile, "kinds", "", "YAML file mapping kind codes to names (optional)")
	flags.StringVar(&colorMode, "color", "auto", "Colour output: auto, always or never")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		flags.Usage()
		return exitError
	}
	if showHelp {
		flags.Usage()
		return exitSame
	}
	if showVersion {
		fmt.Fprintf(stdout, "astdoc-diff version %s\n", Version)
		return exitSame
	}
	if debug {
		logger.Set(logger.New(stderr, true))
	}
	if flags.NArg() != 2 {
		fmt.Fprintf(stderr, "Usage: astdoc-diff [options] <old-file> <new-file>\n")
		return exitError
	}

	var colors *common.Colors
	switch colorMode {
	case "always":
		colors = common.NewColors()
	case "never":
		colors = common.PlainColors()
	case "auto":
		colors = common.PlainColors()
		if f, ok := stdout.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			colors = common.NewColors()
		}
	default:
		fmt.Fprintf(stderr, "Error: invalid --color value '%s' (expected auto, always or never)\n", colorMode)
		return exitError
	}

	var table *kinds.Table
	var err error
	if kindsFile != "" {
		table, err = kinds.Load(kindsFile)
	} else {
		table, err = kinds.ForVersion(kinds.CurrentVersion)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	p := pipeline.New(table)
	var docs [2]common.Document
	for i := range docs {
		docs[i], err = p.ConvertFile(flags.Arg(i))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", flags.Arg(i), err)
			return exitError
		}
		if ignoreLines {
			common.WalkObjects(docs[i], func(obj *common.Object, _ *common.Path) bool {
				obj.Lineno = 0
				return true
			})
		}
	}

	if patch {
		data, err := docdiff.MergePatch(docs[0], docs[1])
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		fmt.Fprintln(stdout, string(data))
		if string(data) == "{}" {
			return exitSame
		}
		return exitChanged
	}

	lines, err := docdiff.Lines(docs[0], docs[1])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if !docdiff.Changed(lines) {
		return exitSame
	}
	fmt.Fprintf(stdout, "%s\n%s\n", colors.Kind("--- "+flags.Arg(0)), colors.String("+++ "+flags.Arg(1)))
	if err := docdiff.WriteLines(stdout, lines, context, colors); err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return exitError
	}
	return exitChanged
}
