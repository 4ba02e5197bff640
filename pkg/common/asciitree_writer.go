package common

import (
	"fmt"
	"io"

	asciitree "github.com/thediveo/go-asciitree"
)

type AsciiNode struct {
	Label    string      `asciitree:"label"`
	Props    []string    `asciitree:"properties"`
	Children []AsciiNode `asciitree:"children"`
}

// convertToTree converts a document into an AsciiNode; prefix is the key the
// parent uses for it.
func convertToTree(doc Document, prefix string, options *PrintOptions) AsciiNode {
	trim := 0
	if options != nil {
		trim = options.TrimTokenOnOutput
	}
	obj, ok := doc.(*Object)
	if !ok || obj == nil {
		label := "null"
		if s, ok := doc.(Scalar); ok {
			if str, isStr := s.AsString(); isStr {
				label = fmt.Sprintf("%q", TrimValue(str, trim))
			} else {
				label = s.String()
			}
		}
		return AsciiNode{Label: prefix + label}
	}

	props := []string{
		fmt.Sprintf("flags: %d", obj.Flags),
		fmt.Sprintf("lineno: %d", obj.Lineno),
	}

	// Convert children recursively
	var children []AsciiNode
	for _, entry := range obj.Children {
		children = append(children, convertToTree(entry.Value, entry.Key.String()+": ", options))
	}
	return AsciiNode{
		Label:    prefix + obj.Kind,
		Props:    props,
		Children: children,
	}
}

func PrintASTAsciiTree(root Document, indentDelta string, output io.Writer, options *PrintOptions) error {
	_, err := fmt.Fprintln(output, asciitree.RenderFancy(convertToTree(root, "", options)))
	return err
}
