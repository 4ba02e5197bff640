// Package serializer turns syntax trees into documents.
//
// ToDocument is a pure function of its input and the kind table: scalars come
// back unchanged, every node becomes an Object whose children mirror the
// node's children key for key and in the same order. Trees are assumed to be
// trees; a node reachable twice is serialized twice and cycles are not
// detected. Recursion depth is bounded only by the goroutine stack.
package serializer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
	"github.com/spicery/astdoc/pkg/logger"
)

type Serializer struct {
	kinds *kinds.Table
}

func New(table *kinds.Table) *Serializer {
	return &Serializer{kinds: table}
}

// Kinds returns the table the serializer resolves names with.
func (s *Serializer) Kinds() *kinds.Table {
	return s.kinds
}

// ToDocument converts a syntax tree value into a document. It fails with
// *kinds.UnknownKindError when a node kind has no name, and with
// common.ErrUnsupportedValue for values that are neither scalars nor nodes.
func (s *Serializer) ToDocument(value common.Value) (common.Document, error) {
	// Scalars are checked before anything node-specific is touched.
	switch v := value.(type) {
	case nil:
		return common.Null(), nil
	case common.Scalar:
		return v, nil
	case *common.Node:
		if v == nil {
			return common.Null(), nil
		}
		obj, err := s.nodeToObject(v)
		if err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %T", common.ErrUnsupportedValue, value)
	}
}

func (s *Serializer) nodeToObject(node *common.Node) (*common.Object, error) {
	name, err := s.kinds.Name(node.Kind)
	if err != nil {
		return nil, fmt.Errorf("node on line %d: %w", node.Line, err)
	}
	obj := &common.Object{
		Kind:     name,
		Flags:    node.Flags,
		Lineno:   node.Line,
		Children: make([]common.Entry, 0, len(node.Children)),
	}
	for _, child := range node.Children {
		doc, err := s.ToDocument(child.Value)
		if err != nil {
			return nil, err
		}
		obj.Children = append(obj.Children, common.Entry{Key: child.Key, Value: doc})
	}
	return obj, nil
}

// ToDocuments converts independent trees concurrently, one goroutine per
// tree and at most limit at a time (no limit when limit <= 0). Results keep
// the order of roots. The first failure cancels the remaining work.
func (s *Serializer) ToDocuments(ctx context.Context, roots []common.Value, limit int) ([]common.Document, error) {
	docs := make([]common.Document, len(roots))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, root := range roots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := s.ToDocument(root)
			if err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.L().Debug("serialized trees", "count", len(roots), "limit", limit)
	return docs, nil
}
