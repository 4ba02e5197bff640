// Package watcher reports changed source files under a directory tree.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spicery/astdoc/pkg/logger"
)

const DefaultDebounce = 100 * time.Millisecond

type Config struct {
	// Root is the directory watched, along with all its subdirectories.
	Root string

	// Match selects the files worth reporting; nil reports every file.
	Match func(path string) bool

	// Debounce is the quiet period after the last event before a batch is
	// reported (default: DefaultDebounce).
	Debounce time.Duration
}

// Watcher batches file changes under a directory tree. Directories created
// while it runs are watched too.
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
}

// New starts watching config.Root. Events are only delivered once Run is
// called.
func New(config Config) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	info, err := os.Stat(config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to watch path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to watch path: '%s' is not a directory", config.Root)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{config: config, watcher: fsw}
	if err := w.addTree(config.Root, nil); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and every non-hidden directory below it. When found is
// set it is called with each matching file already present.
func (w *Watcher) addTree(dir string, found func(path string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			if found != nil && w.matches(path) {
				found(path)
			}
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory '%s': %w", path, err)
		}
		logger.L().Debug("watching directory", "path", path)
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return w.config.Match == nil || w.config.Match(path)
}

// Run delivers batches of changed files, sorted and without duplicates, to
// onChange until ctx is cancelled. onChange runs on the calling goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	pending := map[string]bool{}
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	queue := func(path string) {
		pending[path] = true
		if timer == nil {
			timer = time.NewTimer(w.config.Debounce)
		} else {
			timer.Reset(w.config.Debounce)
		}
		fire = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					// Files may land in a new directory before it is watched.
					if err := w.addTree(event.Name, queue); err != nil {
						logger.L().Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.matches(event.Name) {
				continue
			}
			logger.L().Debug("file event", "path", event.Name, "op", event.Op.String())
			queue(event.Name)

		case <-fire:
			fire = nil
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			clear(pending)
			slices.Sort(batch)
			onChange(batch)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.L().Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Watch is New followed by Run, closing the watcher when ctx is done.
func Watch(ctx context.Context, config Config, onChange func(paths []string)) error {
	w, err := New(config)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx, onChange)
}
