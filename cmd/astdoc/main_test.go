package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runArgs(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestConvertFileToJSON(t *testing.T) {
	path := writeFile(t, "hello.php", "<?php\necho \"hi\";\n")
	code, stdout, stderr := runArgs(path)
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d (stderr: %s)", code, stderr)
	}
	expected := `{
    "kind": "AST_STMT_LIST",
    "flags": 0,
    "lineno": 1,
    "children": [
        {
            "kind": "AST_ECHO",
            "flags": 0,
            "lineno": 2,
            "children": {
                "expr": "hi"
            }
        }
    ]
}
`
	if stdout != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, stdout)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no arguments", nil, "Usage: astdoc"},
		{"two arguments", []string{"a.php", "b.php"}, "Usage: astdoc"},
		{"missing file", []string{"/no/such/dir/file.php"}, "Error: file '/no/such/dir/file.php' does not exist"},
		{"bad format", []string{"-f", "XML", "x.php"}, "Error: unknown format: XML"},
		{"bad color", []string{"--color", "sometimes", "x.php"}, "invalid --color value 'sometimes'"},
		{"unknown flag", []string{"--nope"}, "Error: unknown flag: --nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runArgs(tt.args...)
			if code != 1 {
				t.Errorf("Expected exit 1, got %d", code)
			}
			if stdout != "" {
				t.Errorf("Expected empty stdout, got %q", stdout)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("Expected stderr containing %q, got %q", tt.wantErr, stderr)
			}
		})
	}
}

func TestSyntaxErrorLeavesStdoutEmpty(t *testing.T) {
	path := writeFile(t, "bad.php", "<?php\necho 1;\necho ;\n")
	code, stdout, stderr := runArgs(path)
	if code != 1 {
		t.Errorf("Expected exit 1, got %d", code)
	}
	if stdout != "" {
		t.Errorf("Expected empty stdout, got %q", stdout)
	}
	expected := "Error: syntax error, unexpected token \";\" on line 3\n"
	if stderr != expected {
		t.Errorf("Expected %q, got %q", expected, stderr)
	}
}

func TestInvalidUTF8LeavesStdoutEmpty(t *testing.T) {
	path := writeFile(t, "latin1.php", "<?php echo 'caf\xe9';")
	code, stdout, stderr := runArgs(path)
	if code != 1 {
		t.Errorf("Expected exit 1, got %d", code)
	}
	if stdout != "" {
		t.Errorf("Expected empty stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "not valid UTF-8") {
		t.Errorf("Expected UTF-8 error, got %q", stderr)
	}
}

func TestFormatsAndOptions(t *testing.T) {
	path := writeFile(t, "x.php", "<?php $a = 1;")

	code, stdout, _ := runArgs("-f", "yaml", path)
	if code != 0 || !strings.Contains(stdout, "kind: AST_ASSIGN") {
		t.Errorf("Expected YAML with AST_ASSIGN, got %q", stdout)
	}

	code, stdout, _ = runArgs("--format", "ASCIITREE", path)
	if code != 0 || !strings.Contains(stdout, "AST_ASSIGN") {
		t.Errorf("Expected tree with AST_ASSIGN, got %q", stdout)
	}

	code, stdout, _ = runArgs("--indent", "2", path)
	if code != 0 || !strings.HasPrefix(stdout, "{\n  \"kind\": \"AST_STMT_LIST\"") {
		t.Errorf("Expected two-space indent, got %q", stdout)
	}

	config := writeFile(t, "options.yaml", "option-indent: 1\noption-format: JSON\n")
	code, stdout, _ = runArgs("--config", config, path)
	if code != 0 || !strings.HasPrefix(stdout, "{\n \"kind\"") {
		t.Errorf("Expected one-space indent from config, got %q", stdout)
	}

	code, stdout, _ = runArgs("--config", config, "--indent", "3", path)
	if code != 0 || !strings.HasPrefix(stdout, "{\n   \"kind\"") {
		t.Errorf("Expected flag to override config, got %q", stdout)
	}

	code, stdout, _ = runArgs("--color", "always", path)
	if code != 0 || !strings.Contains(stdout, "\x1b[") {
		t.Errorf("Expected ANSI colour codes, got %q", stdout)
	}
}

func TestCustomKindsTable(t *testing.T) {
	path := writeFile(t, "x.php", "<?php echo 1;")
	table := writeFile(t, "kinds.yaml", "version: 110\nkinds:\n  AST_STMT_LIST: 132\n")
	code, stdout, stderr := runArgs("--kinds", table, path)
	if code != 1 {
		t.Errorf("Expected exit 1, got %d", code)
	}
	if stdout != "" {
		t.Errorf("Expected empty stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "unknown node kind 283") {
		t.Errorf("Expected unknown kind error, got %q", stderr)
	}
}

func TestDumpKindsAndVersion(t *testing.T) {
	code, stdout, _ := runArgs("--dump-kinds")
	if code != 0 || !strings.Contains(stdout, "AST_ECHO") {
		t.Errorf("Expected kinds table, got %q", stdout)
	}

	code, stdout, _ = runArgs("--version")
	if code != 0 || stdout != "astdoc version dev\n" {
		t.Errorf("Expected version line, got %q", stdout)
	}

	code, _, stderr := runArgs("--help")
	if code != 0 || !strings.Contains(stderr, "Usage:") {
		t.Errorf("Expected usage on stderr, got %q", stderr)
	}
}
