package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
)

// shape renders a tree compactly: KIND/flags{key: value, ...}, with
// positional children written without their index.
func shape(t *testing.T, v common.Value) string {
	t.Helper()
	switch x := v.(type) {
	case nil:
		return "null"
	case common.Scalar:
		return x.String()
	case *common.Node:
		if x == nil {
			return "null"
		}
		table, err := kinds.ForVersion(kinds.CurrentVersion)
		if err != nil {
			t.Fatalf("ForVersion failed: %v", err)
		}
		name, err := table.Name(x.Kind)
		if err != nil {
			t.Fatalf("Unnamed kind: %v", err)
		}
		var b strings.Builder
		b.WriteString(name)
		if x.Flags != 0 {
			fmt.Fprintf(&b, "/%d", x.Flags)
		}
		b.WriteString("{")
		for i, child := range x.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			if child.Key.IsNamed() {
				b.WriteString(child.Key.Name() + ": ")
			}
			b.WriteString(shape(t, child.Value))
		}
		b.WriteString("}")
		return b.String()
	}
	t.Fatalf("Unexpected value %T", v)
	return ""
}

func mustParse(t *testing.T, src string) *common.Node {
	t.Helper()
	root, err := Parse(src, kinds.CurrentVersion)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return root
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name:     "echo",
			src:      "<?php echo 'hi';",
			expected: `AST_STMT_LIST{AST_ECHO{expr: "hi"}}`,
		},
		{
			name:     "assign from superglobal",
			src:      "<?php $x = $_GET['id'];",
			expected: `AST_STMT_LIST{AST_ASSIGN{var: AST_VAR{name: "x"}, expr: AST_DIM{expr: AST_VAR{name: "_GET"}, dim: "id"}}}`,
		},
		{
			name:     "call",
			src:      "<?php foo(1, $a);",
			expected: `AST_STMT_LIST{AST_CALL{expr: AST_NAME/1{name: "foo"}, args: AST_ARG_LIST{1, AST_VAR{name: "a"}}}}`,
		},
		{
			name:     "precedence",
			src:      "<?php $a = 1 + 2 * 3;",
			expected: `AST_STMT_LIST{AST_ASSIGN{var: AST_VAR{name: "a"}, expr: AST_BINARY_OP/1{left: 1, right: AST_BINARY_OP/3{left: 2, right: 3}}}}`,
		},
		{
			name:     "concat is left associative",
			src:      "<?php echo 'a' . $b . 'c';",
			expected: `AST_STMT_LIST{AST_ECHO{expr: AST_BINARY_OP/8{left: AST_BINARY_OP/8{left: "a", right: AST_VAR{name: "b"}}, right: "c"}}}`,
		},
		{
			name:     "ternary and constants",
			src:      "<?php $x = true ? null : -1;",
			expected: `AST_STMT_LIST{AST_ASSIGN{var: AST_VAR{name: "x"}, expr: AST_CONDITIONAL{cond: AST_CONST{name: AST_NAME/1{name: "true"}}, true: AST_CONST{name: AST_NAME/1{name: "null"}}, false: AST_UNARY_OP/262{expr: 1}}}}`,
		},
		{
			name:     "if else",
			src:      "<?php if ($a) { echo 1; } else echo 2;",
			expected: `AST_STMT_LIST{AST_IF{AST_IF_ELEM{cond: AST_VAR{name: "a"}, stmts: AST_STMT_LIST{AST_ECHO{expr: 1}}}, AST_IF_ELEM{cond: null, stmts: AST_STMT_LIST{AST_ECHO{expr: 2}}}}}`,
		},
		{
			name:     "foreach by reference",
			src:      "<?php foreach ($rows as $k => &$v) {}",
			expected: `AST_STMT_LIST{AST_FOREACH{expr: AST_VAR{name: "rows"}, value: AST_REF{var: AST_VAR{name: "v"}}, key: AST_VAR{name: "k"}, stmts: AST_STMT_LIST{}}}`,
		},
		{
			name:     "method call with interpolation",
			src:      `<?php $db->query("SELECT $id");`,
			expected: `AST_STMT_LIST{AST_METHOD_CALL{expr: AST_VAR{name: "db"}, method: "query", args: AST_ARG_LIST{AST_ENCAPS_LIST{"SELECT ", AST_VAR{name: "id"}}}}}`,
		},
		{
			name: "static access",
			src:  "<?php Foo::bar(); Foo::$x; Foo::C; Foo::class;",
			expected: `AST_STMT_LIST{` +
				`AST_STATIC_CALL{class: AST_NAME/1{name: "Foo"}, method: "bar", args: AST_ARG_LIST{}}, ` +
				`AST_STATIC_PROP{class: AST_NAME/1{name: "Foo"}, prop: "x"}, ` +
				`AST_CLASS_CONST{class: AST_NAME/1{name: "Foo"}, const: "C"}, ` +
				`AST_CLASS_NAME{class: AST_NAME/1{name: "Foo"}}}`,
		},
		{
			name:     "short array",
			src:      "<?php $a = ['k' => 1, 2];",
			expected: `AST_STMT_LIST{AST_ASSIGN{var: AST_VAR{name: "a"}, expr: AST_ARRAY/3{AST_ARRAY_ELEM{value: 1, key: "k"}, AST_ARRAY_ELEM{value: 2, key: null}}}}`,
		},
		{
			name:     "require once",
			src:      "<?php require_once 'x.php';",
			expected: `AST_STMT_LIST{AST_INCLUDE_OR_EVAL/16{expr: "x.php"}}`,
		},
		{
			name: "function declaration",
			src:  "<?php function f(int $a, &$b = null): ?string { return $a; }",
			expected: `AST_STMT_LIST{AST_FUNC_DECL{name: "f", docComment: null, params: AST_PARAM_LIST{` +
				`AST_PARAM{type: AST_TYPE/4{}, name: "a", default: null, attributes: null, docComment: null, hooks: null}, ` +
				`AST_PARAM/8{type: null, name: "b", default: AST_CONST{name: AST_NAME/1{name: "null"}}, attributes: null, docComment: null, hooks: null}}, ` +
				`stmts: AST_STMT_LIST{AST_RETURN{expr: AST_VAR{name: "a"}}}, ` +
				`returnType: AST_NULLABLE_TYPE{type: AST_TYPE/6{}}, attributes: null, __declId: 0}}`,
		},
		{
			name:     "inline html and short echo",
			src:      "<p><?= $x ?></p>",
			expected: `AST_STMT_LIST{AST_ECHO{expr: "<p>"}, AST_ECHO{expr: AST_VAR{name: "x"}}, AST_ECHO{expr: "</p>"}}`,
		},
		{
			name:     "echo list",
			src:      "<?php echo 1, 2;",
			expected: `AST_STMT_LIST{AST_STMT_LIST{AST_ECHO{expr: 1}, AST_ECHO{expr: 2}}}`,
		},
		{
			name: "class",
			src:  "<?php class A extends B { const X = 1; private $p = 2; public static function m() {} }",
			expected: `AST_STMT_LIST{AST_CLASS{name: "A", docComment: null, extends: AST_NAME/1{name: "B"}, implements: null, stmts: AST_STMT_LIST{` +
				`AST_CLASS_CONST_GROUP/1{const: AST_CLASS_CONST_DECL{AST_CONST_ELEM{name: "X", value: 1, docComment: null}}, attributes: null, type: null}, ` +
				`AST_PROP_GROUP/4{type: null, props: AST_PROP_DECL{AST_PROP_ELEM{name: "p", default: 2, docComment: null, hooks: null}}, attributes: null}, ` +
				`AST_METHOD/17{name: "m", docComment: null, params: AST_PARAM_LIST{}, stmts: AST_STMT_LIST{}, returnType: null, attributes: null, __declId: 0}}, ` +
				`attributes: null, type: null, __declId: 1}}`,
		},
		{
			name:     "isset with several arguments",
			src:      "<?php isset($a, $b);",
			expected: `AST_STMT_LIST{AST_BINARY_OP/259{left: AST_ISSET{var: AST_VAR{name: "a"}}, right: AST_ISSET{var: AST_VAR{name: "b"}}}}`,
		},
		{
			name:     "compound assignment and cast",
			src:      "<?php $s .= (string)$n;",
			expected: `AST_STMT_LIST{AST_ASSIGN_OP/8{var: AST_VAR{name: "s"}, expr: AST_CAST/6{expr: AST_VAR{name: "n"}}}}`,
		},
		{
			name:     "alternative syntax",
			src:      "<?php if ($a): ?>x<?php endif; ?>",
			expected: `AST_STMT_LIST{AST_IF{AST_IF_ELEM{cond: AST_VAR{name: "a"}, stmts: AST_STMT_LIST{AST_ECHO{expr: "x"}}}}}`,
		},
		{
			name:     "while with postfix increment",
			src:      "<?php while ($i < 10) $i++;",
			expected: `AST_STMT_LIST{AST_WHILE{cond: AST_BINARY_OP/20{left: AST_VAR{name: "i"}, right: 10}, stmts: AST_STMT_LIST{AST_POST_INC{var: AST_VAR{name: "i"}}}}}`,
		},
		{
			name:     "new with arguments",
			src:      "<?php $o = new \\App\\Model($id);",
			expected: `AST_STMT_LIST{AST_ASSIGN{var: AST_VAR{name: "o"}, expr: AST_NEW{class: AST_NAME{name: "App\\Model"}, args: AST_ARG_LIST{AST_VAR{name: "id"}}}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shape(t, mustParse(t, tt.src))
			if got != tt.expected {
				t.Errorf("Expected\n  %s\ngot\n  %s", tt.expected, got)
			}
		})
	}
}

func TestLineNumbers(t *testing.T) {
	root := mustParse(t, "<?php\n\n$a = 1;\necho $a;\n")
	if root.Len() != 2 {
		t.Fatalf("Expected 2 statements, got %d", root.Len())
	}
	expected := []int{3, 4}
	for i, child := range root.Children {
		node, ok := child.Value.(*common.Node)
		if !ok {
			t.Fatalf("Statement %d is not a node", i)
		}
		if node.Line != expected[i] {
			t.Errorf("Statement %d: expected line %d, got %d", i, expected[i], node.Line)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		src      string
		expected common.Scalar
	}{
		{"<?php 42;", common.Int(42)},
		{"<?php 0x1F;", common.Int(31)},
		{"<?php 0b11;", common.Int(3)},
		{"<?php 0755;", common.Int(493)},
		{"<?php 1_000;", common.Int(1000)},
		{"<?php 1.5;", common.Float(1.5)},
		{"<?php 9223372036854775808;", common.Float(9223372036854775808)},
	}
	for _, tt := range tests {
		root := mustParse(t, tt.src)
		got, ok := root.Children[0].Value.(common.Scalar)
		if !ok {
			t.Errorf("%s: expected scalar, got %T", tt.src, root.Children[0].Value)
			continue
		}
		if !got.Equal(tt.expected) {
			t.Errorf("%s: expected %s, got %s", tt.src, tt.expected, got)
		}
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		src     string
		message string
	}{
		{"<?php echo 1", "syntax error, unexpected end of file on line 1"},
		{"<?php $x = ;", `syntax error, unexpected token ";" on line 1`},
		{"<?php\nif ($a) {\n", "syntax error, unexpected end of file on line 2"},
		{"<?php 08;", "syntax error, invalid numeric literal on line 1"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.src, kinds.CurrentVersion)
		var syntaxErr *common.SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Errorf("%q: expected *common.SyntaxError, got %v", tt.src, err)
			continue
		}
		if err.Error() != tt.message {
			t.Errorf("%q: expected %q, got %q", tt.src, tt.message, err.Error())
		}
	}
}

func TestUnsupportedVersion(t *testing.T) {
	_, err := Parse("<?php echo 1;", 70)
	if err == nil {
		t.Fatal("Expected an error for version 70")
	}
	var syntaxErr *common.SyntaxError
	if errors.As(err, &syntaxErr) {
		t.Errorf("Expected a plain error, got syntax error %v", err)
	}
}
