package common

import (
	"fmt"
	"io"
	"strings"
)

// PrintFunc renders a document in one output format.
type PrintFunc func(root Document, indentDelta string, output io.Writer, options *PrintOptions) error

// Formats lists the names accepted by PickPrintFunc.
var Formats = []string{"JSON", "YAML", "ASCIITREE", "DOT"}

func PickPrintFunc(format string) (PrintFunc, error) {
	switch strings.ToUpper(format) {
	case "", "JSON":
		return PrintASTJSON, nil
	case "YAML":
		return PrintASTYAML, nil
	case "ASCIITREE":
		return PrintASTAsciiTree, nil
	case "DOT":
		return PrintASTDOT, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}
