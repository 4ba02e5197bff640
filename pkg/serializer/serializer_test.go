package serializer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
)

var docOptions = cmp.Options{
	cmp.Comparer(func(a, b common.Scalar) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b common.Key) bool { return a == b }),
}

func smallTable(t *testing.T) *kinds.Table {
	t.Helper()
	table, err := kinds.NewTable(110, map[common.Kind]string{
		5: "AST_STMT_LIST",
		7: "AST_ECHO",
	})
	if err != nil {
		t.Fatal(err)
	}
	return table
}

// scenarioTree is STMT_LIST(line 3) holding 42 and ECHO(line 4) holding "hi".
func scenarioTree() *common.Node {
	return common.NewNode(5, 0, 3).
		Append(common.Int(42)).
		Append(common.NewNode(7, 0, 4).Append(common.String("hi")))
}

func TestScenario(t *testing.T) {
	doc, err := New(smallTable(t)).ToDocument(scenarioTree())
	if err != nil {
		t.Fatalf("ToDocument failed: %v", err)
	}
	expected := &common.Object{
		Kind:   "AST_STMT_LIST",
		Flags:  0,
		Lineno: 3,
		Children: []common.Entry{
			{Key: common.IndexKey(0), Value: common.Int(42)},
			{Key: common.IndexKey(1), Value: &common.Object{
				Kind:   "AST_ECHO",
				Lineno: 4,
				Children: []common.Entry{
					{Key: common.IndexKey(0), Value: common.String("hi")},
				},
			}},
		},
	}
	if diff := cmp.Diff(expected, doc, docOptions); diff != "" {
		t.Errorf("Document mismatch (-expected +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := common.PrintASTJSON(doc, "    ", &buf, nil); err != nil {
		t.Fatal(err)
	}
	text := buf.String()
	positions := []int{
		strings.Index(text, `"AST_STMT_LIST"`),
		strings.Index(text, "42"),
		strings.Index(text, `"AST_ECHO"`),
		strings.Index(text, `"hi"`),
	}
	for i, pos := range positions {
		if pos < 0 {
			t.Fatalf("Missing item %d in:\n%s", i, text)
		}
		if i > 0 && pos <= positions[i-1] {
			t.Errorf("Item %d out of order in:\n%s", i, text)
		}
	}
}

func TestScalarsUnchanged(t *testing.T) {
	s := New(smallTable(t))
	scalars := []common.Scalar{
		common.String("x"), common.String(""), common.Int(-7), common.Float(1.5),
		common.Float(3), common.Bool(true), common.Bool(false), common.Null(),
	}
	for _, scalar := range scalars {
		doc, err := s.ToDocument(scalar)
		if err != nil {
			t.Fatalf("ToDocument(%v) failed: %v", scalar, err)
		}
		got, ok := doc.(common.Scalar)
		if !ok || !got.Equal(scalar) {
			t.Errorf("Expected %v unchanged, got %v", scalar, doc)
		}
	}
	doc, err := s.ToDocument(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := doc.(common.Scalar); !ok || !got.IsNull() {
		t.Errorf("Expected null for a nil value, got %v", doc)
	}
}

func TestEmptyChildren(t *testing.T) {
	doc, err := New(smallTable(t)).ToDocument(common.NewNode(7, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	obj := doc.(*common.Object)
	if obj.Children == nil || len(obj.Children) != 0 {
		t.Errorf("Expected empty non-nil children, got %#v", obj.Children)
	}
	var buf bytes.Buffer
	if err := common.PrintASTJSON(doc, "  ", &buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"children": []`) {
		t.Errorf("Expected empty children list, got %s", buf.String())
	}
}

func TestKeysAndOrderPreserved(t *testing.T) {
	node := common.NewNode(5, 2, 9).
		Set("var", common.NewNode(7, 0, 9)).
		Append(common.Int(1)).
		Set("expr", nil).
		Set("3", common.String("named three"))
	doc, err := New(smallTable(t)).ToDocument(node)
	if err != nil {
		t.Fatal(err)
	}
	obj := doc.(*common.Object)
	if obj.Flags != 2 || obj.Lineno != 9 {
		t.Errorf("Expected flags 2 line 9, got %d %d", obj.Flags, obj.Lineno)
	}
	if len(obj.Children) != len(node.Children) {
		t.Fatalf("Expected %d children, got %d", len(node.Children), len(obj.Children))
	}
	for i, entry := range obj.Children {
		if entry.Key != node.Children[i].Key {
			t.Errorf("Child %d: expected key %s, got %s", i, node.Children[i].Key, entry.Key)
		}
	}
	if null, ok := obj.Child("expr").(common.Scalar); !ok || !null.IsNull() {
		t.Errorf("Expected null expr, got %v", obj.Child("expr"))
	}
}

func TestUnknownKind(t *testing.T) {
	node := common.NewNode(5, 0, 1).Append(common.NewNode(99, 0, 2))
	doc, err := New(smallTable(t)).ToDocument(node)
	if doc != nil {
		t.Errorf("Expected no document, got %v", doc)
	}
	var unknown *kinds.UnknownKindError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected *kinds.UnknownKindError, got %v", err)
	}
	if unknown.Kind != 99 {
		t.Errorf("Expected kind 99, got %d", unknown.Kind)
	}
}

func TestUnknownRootKind(t *testing.T) {
	doc, err := New(smallTable(t)).ToDocument(common.NewNode(99, 0, 1))
	if err == nil {
		t.Fatal("Expected an error for kind 99")
	}
	if doc != nil {
		t.Errorf("Expected a nil document, got %#v", doc)
	}
}

func TestDeterministicAndAliasing(t *testing.T) {
	s := New(smallTable(t))
	shared := common.NewNode(7, 0, 2).Append(common.String("same"))
	tree := common.NewNode(5, 0, 1).Append(shared).Append(shared)

	first, err := s.ToDocument(tree)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.ToDocument(scenarioTree())
	if err != nil {
		t.Fatal(err)
	}
	third, err := s.ToDocument(scenarioTree())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(second, third, docOptions); diff != "" {
		t.Errorf("Expected equal documents (-first +second):\n%s", diff)
	}

	children := first.(*common.Object).Children
	a, b := children[0].Value.(*common.Object), children[1].Value.(*common.Object)
	if a == b {
		t.Error("Expected aliased nodes to become independent objects")
	}
	if diff := cmp.Diff(a, b, docOptions); diff != "" {
		t.Errorf("Expected aliased nodes to serialize equally:\n%s", diff)
	}
}

func TestToDocuments(t *testing.T) {
	s := New(smallTable(t))
	roots := []common.Value{
		scenarioTree(),
		common.Int(1),
		common.NewNode(7, 0, 8),
		nil,
	}
	docs, err := s.ToDocuments(context.Background(), roots, 2)
	if err != nil {
		t.Fatalf("ToDocuments failed: %v", err)
	}
	if len(docs) != len(roots) {
		t.Fatalf("Expected %d documents, got %d", len(roots), len(docs))
	}
	for i, root := range roots {
		expected, err := s.ToDocument(root)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(expected, docs[i], docOptions); diff != "" {
			t.Errorf("Document %d mismatch (-expected +got):\n%s", i, diff)
		}
	}

	_, err = s.ToDocuments(context.Background(), []common.Value{common.Int(1), common.NewNode(42, 0, 1)}, 0)
	var unknown *kinds.UnknownKindError
	if !errors.As(err, &unknown) {
		t.Errorf("Expected *kinds.UnknownKindError, got %v", err)
	}
}
