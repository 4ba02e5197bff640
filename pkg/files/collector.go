// Package files finds the PHP sources under a directory.
package files

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/spicery/astdoc/pkg/logger"
)

// DefaultExts are the extensions PHP projects keep source in.
var DefaultExts = []string{".php", ".module", ".inc"}

type Collector struct {
	Root    string
	Exclude *regexp.Regexp // Paths matching this are skipped; nil keeps all.
	Exts    map[string]bool
}

// NewCollector returns a collector for root using DefaultExts. An empty
// exclude pattern excludes nothing.
func NewCollector(root string, exclude string) (*Collector, error) {
	var re *regexp.Regexp
	if exclude != "" {
		var err error
		re, err = regexp.Compile(exclude)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern: %w", err)
		}
	}
	c := &Collector{
		Root:    root,
		Exclude: re,
		Exts:    map[string]bool{},
	}
	for _, ext := range DefaultExts {
		c.Exts[ext] = true
	}
	return c, nil
}

// Matches reports whether path has a collected extension and is not
// excluded.
func (c *Collector) Matches(path string) bool {
	if !c.Exts[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	return c.Exclude == nil || !c.Exclude.MatchString(filepath.ToSlash(path))
}

// Collect walks Root and returns the absolute paths of matching files in
// lexical order. A Root that is itself a file is returned when it matches.
// Unreadable subdirectories are skipped.
func (c *Collector) Collect() ([]string, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve '%s': %w", c.Root, err)
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.L().Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if c.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect files under '%s': %w", c.Root, err)
	}
	slices.Sort(files)
	logger.L().Debug("collected files", "root", root, "count", len(files))
	return files, nil
}
