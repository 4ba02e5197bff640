package docdiff

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
	"github.com/spicery/astdoc/pkg/parser"
	"github.com/spicery/astdoc/pkg/serializer"
)

func parseDoc(t *testing.T, src string) common.Document {
	t.Helper()
	root, err := parser.Parse(src, kinds.CurrentVersion)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	table, err := kinds.ForVersion(kinds.CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := serializer.New(table).ToDocument(root)
	if err != nil {
		t.Fatalf("ToDocument failed: %v", err)
	}
	return doc
}

func TestLines(t *testing.T) {
	a := parseDoc(t, "<?php echo 1;")
	b := parseDoc(t, "<?php echo 2;")
	lines, err := Lines(a, b)
	if err != nil {
		t.Fatalf("Lines failed: %v", err)
	}
	if !Changed(lines) {
		t.Fatal("Expected a change")
	}
	var changes []Line
	for _, line := range lines {
		if line.Op != Equal {
			changes = append(changes, line)
		}
	}
	expected := []Line{
		{Op: Delete, Text: `        "expr": 1`},
		{Op: Insert, Text: `        "expr": 2`},
	}
	if diff := cmp.Diff(expected, changes); diff != "" {
		t.Errorf("Changes mismatch (-expected +got):\n%s", diff)
	}

	var out bytes.Buffer
	if err := WriteLines(&out, lines, 0, nil); err != nil {
		t.Fatalf("WriteLines failed: %v", err)
	}
	expectedOut := "@@\n-        \"expr\": 1\n+        \"expr\": 2\n@@\n"
	if out.String() != expectedOut {
		t.Errorf("Expected %q, got %q", expectedOut, out.String())
	}
}

func TestLinesIdentical(t *testing.T) {
	a := parseDoc(t, "<?php $x = [1, 'a' => 2.5];")
	b := parseDoc(t, "<?php\n$x = [1, 'a' => 2.5];")
	lines, err := Lines(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if Changed(lines) {
		t.Error("Expected no change for the same document")
	}
	var out bytes.Buffer
	if err := WriteLines(&out, lines, 0, nil); err != nil {
		t.Fatal(err)
	}
	if out.String() != "" {
		t.Errorf("Expected no output, got %q", out.String())
	}

	// Same source on another line differs only in lineno.
	lines, err = Lines(a, b)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range lines {
		if line.Op != Equal && !bytes.Contains([]byte(line.Text), []byte(`"lineno"`)) {
			t.Errorf("Expected only lineno changes, got %+v", line)
		}
	}
}

func TestMergePatch(t *testing.T) {
	a := parseDoc(t, "<?php\n$x = 1;\necho $x;")
	b := parseDoc(t, "<?php\n$x = 2;\necho $x;")
	patch, err := MergePatch(a, b)
	if err != nil {
		t.Fatalf("MergePatch failed: %v", err)
	}
	if !json.Valid(patch) {
		t.Fatalf("Expected valid JSON patch, got %s", patch)
	}
	patched, err := ApplyMergePatch(a, patch)
	if err != nil {
		t.Fatalf("ApplyMergePatch failed: %v", err)
	}
	same, err := Same(patched, b)
	if err != nil {
		t.Fatal(err)
	}
	if !same {
		t.Errorf("Expected patched document to equal target")
	}
	same, err = Same(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if same {
		t.Errorf("Expected different documents to differ")
	}
}

func TestMergePatchUnchanged(t *testing.T) {
	a := parseDoc(t, "<?php echo 'x';")
	patch, err := MergePatch(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if string(patch) != "{}" {
		t.Errorf("Expected empty patch, got %s", patch)
	}
}
