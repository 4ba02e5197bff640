package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	pflag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/spicery/astdoc/pkg/checker"
	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/files"
	"github.com/spicery/astdoc/pkg/kinds"
	"github.com/spicery/astdoc/pkg/logger"
	"github.com/spicery/astdoc/pkg/pipeline"
	"github.com/spicery/astdoc/pkg/source"
	"github.com/spicery/astdoc/pkg/store"
	"github.com/spicery/astdoc/pkg/watcher"
)

// Version is injected at build time via ldflags.
var Version = "dev"

const usage = `astdoc-check - security checks over PHP syntax trees

Converts every PHP file under the given paths (default: the current
directory) to a document and evaluates the security rules against it.
Exits 1 when there are findings or files that fail to parse.

With --db every scan is recorded in a SQLite database: the document of
each file and the findings. --history lists the recorded scans.

Usage:
  astdoc-check [options] [path ...]
  astdoc-check [options] --git <url>

Options:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type settings struct {
	jobs        int
	minSeverity checker.Severity
	rules       []*checker.Rule
	asJSON      bool
	colors      *common.Colors
	store       *store.Store
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var showHelp, showVersion, debug, watch, asJSON, listRules, migrate, history bool
	var rulesFile, severity, exclude, kindsFile, colorMode, dbFile, gitURL string
	var jobs, gitDepth int

	flags := pflag.NewFlagSet("astdoc-check", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "%s\n", usage)
		flags.PrintDefaults()
	}

	flags.BoolVarP(&showHelp, "help", "h", false, "Show help")
	flags.BoolVar(&showVersion, "version", false, "Show version")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	flags.BoolVarP(&watch, "watch", "w", false, "Re-check files as they change (single directory only)")
	flags.BoolVar(&asJSON, "json", false, "Print findings as JSON")
	flags.BoolVar(&listRules, "list-rules", false, "List the rules and exit")
	flags.IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Files processed in parallel")
	flags.StringVar(&rulesFile, "rules", "", "YAML file containing rules (defaults to the built-in rules)")
	flags.StringVar(&severity, "severity", "info", "Minimum severity reported: info, warning or critical")
	flags.StringVar(&exclude, "exclude", "", "Regular expression of paths to skip")
	flags.StringVar(&kindsFile, "kinds", "", "YAML file mapping kind codes to names (optional)")
	flags.StringVar(&colorMode, "color", "auto", "Colour output: auto, always or never")
	flags.StringVar(&dbFile, "db", "", "SQLite database recording each scan (optional)")
	flags.BoolVar(&migrate, "migrate", false, "Allow migrating an existing --db to the current schema")
	flags.BoolVar(&history, "history", false, "List the scans recorded in --db and exit")
	flags.StringVar(&gitURL, "git", "", "Clone this git repository and check it instead of local paths")
	flags.IntVar(&gitDepth, "git-depth", 1, "Commits of history to clone with --git (0 for all)")

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
		fmt.Fprintf(stdout, "astdoc-check version %s\n", Version)
		return 0
	}
	if debug {
		logger.Set(logger.New(stderr, true))
	}

	var s settings
	var err error
	s.jobs, s.asJSON = jobs, asJSON
	if s.minSeverity, err = checker.ParseSeverity(severity); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if rulesFile != "" {
		s.rules, err = checker.LoadRules(rulesFile)
	} else {
		s.rules, err = checker.DefaultRuleSet()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	switch colorMode {
	case "always":
		s.colors = common.NewColors()
	case "never":
		s.colors = common.PlainColors()
	case "auto":
		s.colors = common.PlainColors()
		if f, ok := stdout.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			s.colors = common.NewColors()
		}
	default:
		fmt.Fprintf(stderr, "Error: invalid --color value '%s' (expected auto, always or never)\n", colorMode)
		return 1
	}

	if listRules {
		for _, rule := range s.rules {
			fmt.Fprintf(stdout, "%-12s %-9s %s\n", rule.ID, rule.Severity, rule.Title)
		}
		return 0
	}

	if dbFile != "" {
		if s.store, err = store.Open(dbFile); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer s.store.Close()
		if err := s.store.Prepare(migrate); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	} else if history {
		fmt.Fprintf(stderr, "Error: --history needs --db\n")
		return 1
	}
	if history {
		return printHistory(s.store, stdout, stderr)
	}

	var table *kinds.Table
	if kindsFile != "" {
		table, err = kinds.Load(kindsFile)
	} else {
		table, err = kinds.ForVersion(kinds.CurrentVersion)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	p := pipeline.New(table)

	roots := flags.Args()
	if gitURL != "" {
		if len(roots) > 0 {
			fmt.Fprintf(stderr, "Error: --git cannot be combined with paths\n")
			return 1
		}
		dir, err := source.CloneRepo(ctx, gitURL, gitDepth)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer os.RemoveAll(dir)
		roots = []string{dir}
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}
	paths, err := collect(roots, exclude)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	clean, err := check(ctx, p, &s, paths, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if !watch {
		if clean {
			return 0
		}
		return 1
	}

	if len(roots) != 1 {
		fmt.Fprintf(stderr, "Error: --watch needs exactly one directory\n")
		return 1
	}
	collector, err := files.NewCollector(roots[0], exclude)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "Watching %s for changes...\n", roots[0])
	err = watcher.Watch(ctx, watcher.Config{Root: roots[0], Match: collector.Matches}, func(changed []string) {
		if _, err := check(ctx, p, &s, changed, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// collect expands directories into their PHP files. Files named directly
// are kept whatever their extension.
func collect(roots []string, exclude string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot check '%s': %w", root, err)
		}
		if !info.IsDir() {
			paths = append(paths, root)
			continue
		}
		collector, err := files.NewCollector(root, exclude)
		if err != nil {
			return nil, err
		}
		found, err := collector.Collect()
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

// check converts and checks paths, reporting parse failures on stderr and
// findings on stdout. It returns true when there was nothing to report.
func check(ctx context.Context, p *pipeline.Pipeline, s *settings, paths []string, stdout, stderr io.Writer) (bool, error) {
	results, err := p.ConvertFiles(ctx, paths, s.jobs)
	if err != nil {
		return false, err
	}
	c := checker.NewChecker(s.rules, s.minSeverity)
	g, _ := errgroup.WithContext(ctx)
	if s.jobs > 0 {
		g.SetLimit(s.jobs)
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", r.Path, r.Err)
			failed++
			continue
		}
		g.Go(func() error {
			c.Check(r.Path, r.Doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	if s.asJSON {
		checker.SortFindings(c.Findings)
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(c.Findings); err != nil {
			return false, err
		}
		for _, bug := range c.Bugs {
			fmt.Fprintf(stderr, "Error: %s line %d: %s\n", bug.File, bug.Line, bug.Message)
		}
	} else {
		c.ReportFindings(stdout, s.colors)
	}
	logger.L().Debug("checked files", "files", len(paths), "failed", failed, "findings", len(c.Findings))
	if s.store != nil {
		checker.SortFindings(c.Findings)
		if _, err := s.store.SaveScan(results, c.Findings); err != nil {
			return false, err
		}
	}
	return failed == 0 && len(c.Findings) == 0 && len(c.Bugs) == 0, nil
}

func printHistory(db *store.Store, stdout, stderr io.Writer) int {
	scans, err := db.Scans()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, scan := range scans {
		fmt.Fprintf(stdout, "%4d  %s  %s  files=%d failed=%d findings=%d\n",
			scan.ID, scan.RunID, scan.StartedAt.Format(time.RFC3339), scan.Files, scan.Failed, scan.Findings)
	}
	return 0
}
