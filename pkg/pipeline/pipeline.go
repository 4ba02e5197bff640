// Package pipeline runs PHP source through the tokenizer, parser and
// serializer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
	"github.com/spicery/astdoc/pkg/logger"
	"github.com/spicery/astdoc/pkg/parser"
	"github.com/spicery/astdoc/pkg/serializer"
)

// MissingFileError reports an input path that does not exist.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file '%s' does not exist", e.Path)
}

func (e *MissingFileError) Unwrap() error {
	return fs.ErrNotExist
}

type Pipeline struct {
	Version    int // AST format version passed to the parser.
	serializer *serializer.Serializer
}

// New returns a pipeline parsing at kinds.CurrentVersion and naming kinds
// with table.
func New(table *kinds.Table) *Pipeline {
	return &Pipeline{Version: kinds.CurrentVersion, serializer: serializer.New(table)}
}

// Convert parses src and serializes the resulting tree.
func (p *Pipeline) Convert(src string) (common.Document, error) {
	root, err := parser.Parse(src, p.Version)
	if err != nil {
		return nil, err
	}
	return p.serializer.ToDocument(root)
}

// ReadFile returns the full contents of path.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified source files
	if errors.Is(err, fs.ErrNotExist) {
		return "", &MissingFileError{Path: path}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read '%s': %w", path, err)
	}
	return string(data), nil
}

func (p *Pipeline) ConvertFile(path string) (common.Document, error) {
	src, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Convert(src)
}

// Result is the outcome for one file of a batch. Err holds read and syntax
// errors, which do not stop the rest of the batch.
type Result struct {
	Path string
	Doc  common.Document
	Err  error
}

// ConvertFiles reads and parses paths concurrently, at most jobs at a time
// (no limit when jobs <= 0), then serializes the parsed trees with
// serializer.ToDocuments. Results keep the order of paths. Serialization
// failures mean the kind table is out of date and fail the whole batch.
func (p *Pipeline) ConvertFiles(ctx context.Context, paths []string, jobs int) ([]Result, error) {
	results := make([]Result, len(paths))
	roots := make([]common.Value, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	var mu sync.Mutex
	failed := 0
	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := ReadFile(path)
			if err == nil {
				roots[i], err = parser.Parse(src, p.Version)
			}
			if err != nil {
				results[i].Err = err
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Only trees that parsed go on to the serializer.
	var parsed []common.Value
	var index []int
	for i, root := range roots {
		if results[i].Err == nil {
			parsed = append(parsed, root)
			index = append(index, i)
		}
	}
	docs, err := p.serializer.ToDocuments(ctx, parsed, jobs)
	if err != nil {
		return nil, err
	}
	for j, doc := range docs {
		results[index[j]].Doc = doc
	}
	logger.L().Debug("converted files", "count", len(paths), "failed", failed, "jobs", jobs)
	return results, nil
}
