package kinds

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spicery/astdoc/pkg/common"
)

func TestForVersion(t *testing.T) {
	table, err := ForVersion(CurrentVersion)
	if err != nil {
		t.Fatalf("ForVersion failed: %v", err)
	}
	if table.Version() != CurrentVersion {
		t.Errorf("Expected version %d, got %d", CurrentVersion, table.Version())
	}
	tests := map[common.Kind]string{
		StmtList: "AST_STMT_LIST",
		Echo:     "AST_ECHO",
		Var:      "AST_VAR",
		Call:     "AST_CALL",
		Class:    "AST_CLASS",
		Ref:      "AST_REF",
	}
	for kind, expected := range tests {
		name, err := table.Name(kind)
		if err != nil {
			t.Errorf("Name(%d) failed: %v", kind, err)
		}
		if name != expected {
			t.Errorf("Expected %s, got %s", expected, name)
		}
		if code, ok := table.Code(expected); !ok || code != kind {
			t.Errorf("Expected Code(%s) = %d, got %d", expected, kind, code)
		}
	}
	if _, err := ForVersion(70); err == nil {
		t.Error("Expected unsupported version error")
	}
}

func TestUnknownKind(t *testing.T) {
	table, err := ForVersion(CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	_, err = table.Name(9999)
	var unknown *UnknownKindError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected *UnknownKindError, got %v", err)
	}
	if unknown.Kind != 9999 || unknown.Version != CurrentVersion {
		t.Errorf("Unexpected error fields %+v", unknown)
	}
	if err.Error() != "unknown node kind 9999 for AST version 110" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestNewTableRejectsBadNames(t *testing.T) {
	if _, err := NewTable(1, map[common.Kind]string{1: ""}); err == nil {
		t.Error("Expected error for an empty name")
	}
	_, err := NewTable(1, map[common.Kind]string{1: "A", 2: "A"})
	if err == nil || err.Error() != "kind name A is used by both 1 and 2" {
		t.Errorf("Expected duplicate name error, got %v", err)
	}
}

func TestNewTableCopiesInput(t *testing.T) {
	names := map[common.Kind]string{5: "AST_STMT_LIST"}
	table, err := NewTable(1, names)
	if err != nil {
		t.Fatal(err)
	}
	names[5] = "CHANGED"
	if name, _ := table.Name(5); name != "AST_STMT_LIST" {
		t.Errorf("Expected table to be unaffected by later edits, got %s", name)
	}
}

func TestParse(t *testing.T) {
	table, err := Parse([]byte("version: 3\nkinds:\n  AST_ECHO: 7\n  AST_STMT_LIST: 5\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := cmp.Diff([]common.Kind{5, 7}, table.Kinds()); diff != "" {
		t.Errorf("Kinds mismatch (-expected +got):\n%s", diff)
	}
	if table.Len() != 2 || table.Version() != 3 {
		t.Errorf("Expected 2 kinds at version 3, got %d at %d", table.Len(), table.Version())
	}

	bad := []string{
		"kinds:\n  AST_ECHO: 7\n",
		"version: 1\nkinds:\n  A: 7\n  B: 7\n",
		"version: [\n",
	}
	for _, input := range bad {
		if _, err := Parse([]byte(input)); err == nil {
			t.Errorf("Expected error for %q", input)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	table, err := ForVersion(CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := table.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "version: 110\nkinds:\n") {
		t.Errorf("Unexpected header %q", buf.String()[:min(40, buf.Len())])
	}

	path := filepath.Join(t.TempDir(), "kinds.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(table.Kinds(), loaded.Kinds()); diff != "" {
		t.Errorf("Kinds mismatch (-expected +got):\n%s", diff)
	}
	for _, kind := range table.Kinds() {
		expected, _ := table.Name(kind)
		got, _ := loaded.Name(kind)
		if got != expected {
			t.Errorf("Kind %d: expected %s, got %s", kind, expected, got)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read kind table") {
		t.Errorf("Expected read error, got %v", err)
	}
}
