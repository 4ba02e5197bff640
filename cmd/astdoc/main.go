package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	pflag "github.com/spf13/pflag"

	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
	"github.com/spicery/astdoc/pkg/logger"
	"github.com/spicery/astdoc/pkg/pipeline"
)

// Version is injected at build time via ldflags.
var Version = "dev"

const usage = `astdoc - convert a PHP source file into a php-ast style document

Reads the file, parses it, and writes the syntax tree to stdout as objects
with the fields kind, flags, lineno and children.

Usage:
  astdoc [options] <file>

Options:
`

const DEFAULT_FORMAT = "JSON"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// isTerminal reports whether w is a terminal, for --color auto.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useColor resolves a --color setting.
func useColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return isTerminal(w), nil
	default:
		return false, fmt.Errorf("invalid --color value '%s' (expected auto, always or never)", mode)
	}
}

// loadTable returns the kinds table named by options, or the built-in one.
func loadTable(options *common.PrintOptions) (*kinds.Table, error) {
	if options.KindsFile != "" {
		return kinds.Load(options.KindsFile)
	}
	version := options.Version
	if version == 0 {
		version = kinds.CurrentVersion
	}
	return kinds.ForVersion(version)
}

func run(args []string, stdout, stderr io.Writer) int {
	var showHelp, showVersion, dumpKinds, debug bool
	var format, kindsFile, configFile, colorMode string
	var indent, trim int

	flags := pflag.NewFlagSet("astdoc", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "%s\n", usage)
		flags.PrintDefaults()
	}

	flags.BoolVarP(&showHelp, "help", "h", false, "Show help")
	flags.BoolVar(&showVersion, "version", false, "Show version")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	flags.BoolVar(&dumpKinds, "dump-kinds", false, "Print the kinds table as YAML and exit")
	flags.StringVarP(&format, "format", "f", DEFAULT_FORMAT, "Output format (JSON, YAML, ASCIITREE, DOT)")
	flags.IntVar(&indent, "indent", common.DefaultIndent, "Indentation step in spaces")
	flags.IntVar(&trim, "trim", 0, "Trim string values for display (ASCIITREE, DOT)")
	flags.StringVar(&kindsFile, "kinds", "", "YAML file mapping kind codes to names (optional)")
	flags.StringVar(&configFile, "config", "", "YAML file containing print options (optional)")
	flags.StringVar(&colorMode, "color", "auto", "Colour output: auto, always or never")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		flags.Usage()
		return 1
	}

	if showHelp {
		flags.Usage()
		return 0
	}

	if showVersion {
		fmt.Fprintf(stdout, "astdoc version %s\n", Version)
		return 0
	}

	if debug {
		logger.Set(logger.New(stderr, true))
	}

	// Options from the config file, overridden by explicit flags.
	options := &common.PrintOptions{}
	if configFile != "" {
		loaded, err := common.LoadPrintOptions(configFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		options = loaded
	}
	if flags.Changed("format") || options.Format == "" {
		options.Format = format
	}
	if flags.Changed("indent") || options.Indent == 0 {
		options.Indent = indent
	}
	if flags.Changed("trim") {
		options.TrimTokenOnOutput = trim
	}
	if flags.Changed("kinds") {
		options.KindsFile = kindsFile
	}
	if flags.Changed("color") || !options.Color {
		color, err := useColor(colorMode, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		options.Color = color
	}

	table, err := loadTable(options)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if dumpKinds {
		if err := table.WriteYAML(stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	// Exactly one positional argument: the file to convert.
	if flags.NArg() != 1 {
		fmt.Fprintf(stderr, "Usage: astdoc [options] <file>\n")
		return 1
	}
	path := flags.Arg(0)

	printFunc, err := common.PickPrintFunc(options.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	p := pipeline.New(table)
	if options.Version != 0 {
		p.Version = options.Version
	}
	doc, err := p.ConvertFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Render fully before writing so that failures leave stdout empty.
	var buf bytes.Buffer
	if err := printFunc(doc, options.IndentString(), &buf, options); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := buf.WriteTo(stdout); err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return 1
	}
	return 0
}
