package common

import (
	"fmt"
	"io"
	"strings"
)

type dotPrinter struct {
	output  io.Writer
	options *PrintOptions
	counter int
}

func PrintASTDOT(root Document, indentDelta string, output io.Writer, options *PrintOptions) error {
	p := &dotPrinter{output: output, options: options}

	// Initialize the DOT graph
	fmt.Fprintln(output, `digraph G {`)
	fmt.Fprintln(output, `  bgcolor="transparent";`)
	fmt.Fprintln(output, `  node [shape="box", style="filled", fontname="Ubuntu Mono"];`)

	// Recursively print the nodes and edges
	p.printNodeDOT(root, "", "")

	// Close the graph
	_, err := fmt.Fprintln(output, `}`)
	return err
}

func (p *dotPrinter) printNodeDOT(doc Document, parentID string, edgeLabel string) {
	// Node identifiers are sequential so that output is stable across runs.
	nodeID := fmt.Sprintf("node_%d", p.counter)
	p.counter++

	trim := 0
	if p.options != nil {
		trim = p.options.TrimTokenOnOutput
	}

	obj, isObject := doc.(*Object)
	if isObject && obj != nil {
		label := obj.Kind
		if obj.Flags != 0 {
			label = fmt.Sprintf("%s [%d]", obj.Kind, obj.Flags)
		}
		fillColor := tagColors[obj.Kind]
		if fillColor == "" {
			fillColor = "lightgray"
		}
		fmt.Fprintf(p.output, "  \"%s\" [label=\"%s\", shape=\"box\", fillcolor=\"%s\"];\n", nodeID, escapeDOTValue(label), fillColor)
	} else {
		label := "null"
		if s, ok := doc.(Scalar); ok {
			if str, isStr := s.AsString(); isStr {
				label = fmt.Sprintf("%q", TrimValue(str, trim))
			} else {
				label = s.String()
			}
		}
		fmt.Fprintf(p.output, "  \"%s\" [label=\"%s\", shape=\"ellipse\", fillcolor=\"%s\"];\n", nodeID, escapeDOTValue(label), scalarColor)
	}

	// If there's a parent node, add an edge
	if parentID != "" {
		fmt.Fprintf(p.output, "  \"%s\" -> \"%s\" [label=\"%s\"];\n", parentID, nodeID, escapeDOTValue(edgeLabel))
	}

	// Recurse for child nodes
	if isObject && obj != nil {
		for _, entry := range obj.Children {
			p.printNodeDOT(entry.Value, nodeID, entry.Key.String())
		}
	}
}

func escapeDOTValue(value string) string {
	// Escape special characters for DOT format
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}

const scalarColor = "lightgoldenrodyellow"

var tagColors = map[string]string{
	"AST_STMT_LIST":   "lightpink",
	"AST_FUNC_DECL":   "#FFD8E1",
	"AST_CLASS":       "#FFD8E1",
	"AST_METHOD":      "#FFD8E1",
	"AST_CALL":        "lightgreen",
	"AST_METHOD_CALL": "lightgreen",
	"AST_STATIC_CALL": "lightgreen",
	"AST_VAR":         "Honeydew",
	"AST_ARG_LIST":    "PaleTurquoise",
	"AST_BINARY_OP":   "#C0FFC0",
	"AST_ASSIGN":      "#C0FFC0",
	"AST_ECHO":        "LightSkyBlue",
}
