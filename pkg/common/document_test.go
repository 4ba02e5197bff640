package common

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var docOptions = cmp.Options{
	cmp.Comparer(func(a, b Scalar) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Key) bool { return a == b }),
}

// sample has positional, named and mixed children, nested objects and
// every scalar type.
func sample() *Object {
	return &Object{
		Kind:   "AST_STMT_LIST",
		Flags:  0,
		Lineno: 3,
		Children: []Entry{
			{Key: IndexKey(0), Value: Int(42)},
			{Key: IndexKey(1), Value: &Object{
				Kind:   "AST_ECHO",
				Lineno: 4,
				Children: []Entry{
					{Key: NameKey("expr"), Value: String("hi \"there\"\n")},
				},
			}},
			{Key: IndexKey(2), Value: &Object{
				Kind:   "AST_ARRAY",
				Flags:  3,
				Lineno: 5,
				Children: []Entry{
					{Key: IndexKey(0), Value: Float(2)},
					{Key: NameKey("a"), Value: Bool(true)},
					{Key: IndexKey(5), Value: Null()},
					{Key: NameKey("empty"), Value: &Object{Kind: "AST_ARG_LIST", Lineno: 5, Children: []Entry{}}},
				},
			}},
		},
	}
}

const sampleJSON = `{
    "kind": "AST_STMT_LIST",
    "flags": 0,
    "lineno": 3,
    "children": [
        42,
        {
            "kind": "AST_ECHO",
            "flags": 0,
            "lineno": 4,
            "children": {
                "expr": "hi \"there\"\n"
            }
        },
        {
            "kind": "AST_ARRAY",
            "flags": 3,
            "lineno": 5,
            "children": {
                "0": 2.0,
                "a": true,
                "5": null,
                "empty": {
                    "kind": "AST_ARG_LIST",
                    "flags": 0,
                    "lineno": 5,
                    "children": []
                }
            }
        }
    ]
}
`

func TestPrintASTJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintASTJSON(sample(), "    ", &buf, nil); err != nil {
		t.Fatalf("PrintASTJSON failed: %v", err)
	}
	if diff := cmp.Diff(sampleJSON, buf.String()); diff != "" {
		t.Errorf("JSON mismatch (-expected +got):\n%s", diff)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	docs := []Document{sample(), Int(1), String("x"), Null(), Float(0.5), Bool(false)}
	for _, doc := range docs {
		var buf bytes.Buffer
		if err := PrintASTJSON(doc, "  ", &buf, nil); err != nil {
			t.Fatalf("PrintASTJSON failed: %v", err)
		}
		back, err := ReadASTJSON(&buf)
		if err != nil {
			t.Fatalf("ReadASTJSON failed: %v", err)
		}
		if diff := cmp.Diff(doc, back, docOptions); diff != "" {
			t.Errorf("Round trip mismatch (-expected +got):\n%s", diff)
		}
	}
}

func TestPrintASTJSONNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1)} {
		var buf bytes.Buffer
		err := PrintASTJSON(Float(f), "  ", &buf, nil)
		if !errors.Is(err, ErrUnsupportedValue) {
			t.Errorf("Expected ErrUnsupportedValue for %v, got %v", f, err)
		}
	}
}

func TestPrintASTJSONInvalidUTF8(t *testing.T) {
	docs := []Document{
		String("a\xffb"),
		&Object{Kind: "AST_ECHO", Children: []Entry{{Key: IndexKey(0), Value: String("\xc3")}}},
		&Object{Kind: "AST_ECHO", Children: []Entry{{Key: NameKey("e\xff"), Value: Int(1)}}},
	}
	for _, doc := range docs {
		var buf bytes.Buffer
		err := PrintASTJSON(doc, "  ", &buf, nil)
		if !errors.Is(err, ErrUnsupportedValue) {
			t.Errorf("Expected ErrUnsupportedValue for %v, got %v", doc, err)
		}
	}

	var buf bytes.Buffer
	if err := PrintASTJSON(String("caf\u00e9 \U0001F600"), "  ", &buf, nil); err != nil {
		t.Fatalf("Expected valid UTF-8 to encode, got %v", err)
	}
	back, err := ReadASTJSON(&buf)
	if err != nil {
		t.Fatalf("ReadASTJSON failed: %v", err)
	}
	if s, ok := back.(Scalar); !ok || !s.Equal(String("caf\u00e9 \U0001F600")) {
		t.Errorf("Expected the string back unchanged, got %v", back)
	}
}

func TestPrintASTJSONSlashes(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintASTJSON(String("</script>"), "  ", &buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\"</script>\"\n" {
		t.Errorf("Expected slashes unescaped, got %s", buf.String())
	}
}

func TestReadASTJSONErrors(t *testing.T) {
	tests := []string{
		`{"kind": "X", "flags": 0, "lineno": 1}`,
		`{"kind": "X", "flags": 0, "lineno": 1, "children": [], "extra": 1}`,
		`{"kind": "X", "kind": "Y", "flags": 0, "lineno": 1, "children": []}`,
		`{"kind": 1, "flags": 0, "lineno": 1, "children": []}`,
		`{"kind": "X", "flags": 0, "lineno": 1, "children": 5}`,
		`[1, 2]`,
		`1 2`,
	}
	for _, input := range tests {
		if _, err := ReadASTJSON(strings.NewReader(input)); err == nil {
			t.Errorf("Expected error for %s", input)
		}
	}
}

func TestPrintASTYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintASTYAML(sample().Children[2].Value, "  ", &buf, nil); err != nil {
		t.Fatalf("PrintASTYAML failed: %v", err)
	}
	expected := `kind: AST_ARRAY
flags: 3
lineno: 5
children:
  0: 2.0
  a: true
  5: null
  empty:
    kind: AST_ARG_LIST
    flags: 0
    lineno: 5
    children: []
`
	if diff := cmp.Diff(expected, buf.String()); diff != "" {
		t.Errorf("YAML mismatch (-expected +got):\n%s", diff)
	}
}

func TestPrintASTAsciiTree(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintASTAsciiTree(sample(), "  ", &buf, &PrintOptions{TrimTokenOnOutput: 4}); err != nil {
		t.Fatalf("PrintASTAsciiTree failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"AST_STMT_LIST", "0: 42", "expr: \"hi …\"", "flags: 3", "5: null"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected tree containing %q, got:\n%s", want, out)
		}
	}
}

func TestPrintASTDOT(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintASTDOT(sample(), "  ", &buf, nil); err != nil {
		t.Fatalf("PrintASTDOT failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"digraph G {",
		`"node_0" [label="AST_STMT_LIST", shape="box", fillcolor="lightpink"];`,
		`"node_0" -> "node_1" [label="0"];`,
		`"node_3" [label="\"hi \\\"there\\\"\\n\"", shape="ellipse"`,
		`label="AST_ARRAY [3]"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected DOT containing %q, got:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "}\n") {
		t.Errorf("Expected DOT to end with a closing brace, got %q", out)
	}
}

func TestPickPrintFunc(t *testing.T) {
	for _, format := range append([]string{"", "json", "Yaml"}, Formats...) {
		if _, err := PickPrintFunc(format); err != nil {
			t.Errorf("Expected %q to be accepted, got %v", format, err)
		}
	}
	if _, err := PickPrintFunc("XML"); err == nil {
		t.Error("Expected XML to be rejected")
	}
}

func TestColorJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintASTJSON(sample(), "  ", &buf, &PrintOptions{Color: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("Expected ANSI escapes in coloured output")
	}
}

func TestLoadPrintOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	content := "option-format: YAML\noption-indent: 2\noption-color: true\noption-kinds: kinds.yaml\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	options, err := LoadPrintOptions(path)
	if err != nil {
		t.Fatalf("LoadPrintOptions failed: %v", err)
	}
	expected := &PrintOptions{Format: "YAML", Indent: 2, Color: true, KindsFile: "kinds.yaml"}
	if diff := cmp.Diff(expected, options); diff != "" {
		t.Errorf("Options mismatch (-expected +got):\n%s", diff)
	}
	if options.IndentString() != "  " {
		t.Errorf("Expected two spaces, got %q", options.IndentString())
	}
	if (*PrintOptions)(nil).IndentString() != "    " {
		t.Error("Expected default indent of four spaces")
	}
	if _, err := LoadPrintOptions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestWalkObjects(t *testing.T) {
	type visit struct {
		Kind   string
		Depth  int
		Parent string
		Key    string
	}
	var visits []visit
	WalkObjects(sample(), func(obj *Object, path *Path) bool {
		key := ""
		if path != nil {
			key = path.Key.String()
		}
		visits = append(visits, visit{obj.Kind, path.Depth(), path.ParentKind(), key})
		return obj.Kind != "AST_ARRAY"
	})
	expected := []visit{
		{"AST_STMT_LIST", 0, "", ""},
		{"AST_ECHO", 1, "AST_STMT_LIST", "1"},
		{"AST_ARRAY", 1, "AST_STMT_LIST", "2"},
	}
	if diff := cmp.Diff(expected, visits); diff != "" {
		t.Errorf("Visits mismatch (-expected +got):\n%s", diff)
	}
}

func TestObjectLookup(t *testing.T) {
	doc := sample()
	if !doc.IsList() {
		t.Error("Expected root children to be a list")
	}
	array := doc.Children[2].Value.(*Object)
	if array.IsList() {
		t.Error("Expected mixed children not to be a list")
	}
	if v, ok := array.Get(IndexKey(5)); !ok || !v.(Scalar).IsNull() {
		t.Errorf("Expected null at index 5, got %v", v)
	}
	if array.Child("a") == nil || array.Child("b") != nil {
		t.Error("Child lookup mismatch")
	}
}
