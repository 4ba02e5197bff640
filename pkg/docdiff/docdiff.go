// Package docdiff compares documents through their JSON encodings.
package docdiff

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/spicery/astdoc/pkg/common"
)

// Op says whether a diff line is shared, removed or added.
type Op int

const (
	Equal Op = iota
	Delete
	Insert
)

type Line struct {
	Op   Op
	Text string
}

func encode(doc common.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := common.PrintASTJSON(doc, "  ", &buf, nil); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Lines returns the line diff between the JSON encodings of a and b.
func Lines(a, b common.Document) ([]Line, error) {
	from, err := encode(a)
	if err != nil {
		return nil, err
	}
	to, err := encode(b)
	if err != nil {
		return nil, err
	}
	dmp := diffpatch.New()
	chars1, chars2, lines := dmp.DiffLinesToChars(string(from), string(to))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lines)

	var result []Line
	for _, diff := range diffs {
		op := Equal
		switch diff.Type {
		case diffpatch.DiffDelete:
			op = Delete
		case diffpatch.DiffInsert:
			op = Insert
		}
		for _, text := range strings.SplitAfter(diff.Text, "\n") {
			if text == "" {
				continue
			}
			result = append(result, Line{Op: op, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return result, nil
}

// Changed reports whether any line differs.
func Changed(lines []Line) bool {
	for _, line := range lines {
		if line.Op != Equal {
			return true
		}
	}
	return false
}

// WriteLines prints lines with "-", "+" or " " markers. With context >= 0
// only changed lines and that many neighbours are printed, and skipped runs
// next to printed lines show as "@@". Nothing is printed for unchanged
// documents in that mode.
func WriteLines(w io.Writer, lines []Line, context int, colors *common.Colors) error {
	if colors == nil {
		colors = common.PlainColors()
	}
	keep := make([]bool, len(lines))
	for i, line := range lines {
		if context < 0 || line.Op != Equal {
			for j := max(0, i-max(context, 0)); j <= min(len(lines)-1, i+max(context, 0)); j++ {
				keep[j] = true
			}
		}
	}
	skipped, printed := false, false
	for i, line := range lines {
		if !keep[i] {
			skipped = true
			continue
		}
		if skipped {
			if _, err := fmt.Fprintln(w, colors.Punct("@@")); err != nil {
				return err
			}
			skipped = false
		}
		var text string
		switch line.Op {
		case Delete:
			text = colors.Kind("-" + line.Text)
		case Insert:
			text = colors.String("+" + line.Text)
		default:
			text = " " + line.Text
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
		printed = true
	}
	if skipped && printed {
		if _, err := fmt.Fprintln(w, colors.Punct("@@")); err != nil {
			return err
		}
	}
	return nil
}

// MergePatch returns the RFC 7386 merge patch that turns a into b. Positional
// children are JSON arrays, which merge patches replace whole.
func MergePatch(a, b common.Document) ([]byte, error) {
	from, err := encode(a)
	if err != nil {
		return nil, err
	}
	to, err := encode(b)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to create merge patch: %w", err)
	}
	return patch, nil
}

// ApplyMergePatch applies a merge patch to doc and reads the result back.
// A patch value of null removes a key, so documents holding null children
// may not survive a MergePatch/ApplyMergePatch round trip.
func ApplyMergePatch(doc common.Document, patch []byte) (common.Document, error) {
	from, err := encode(doc)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(from, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to apply merge patch: %w", err)
	}
	return common.ReadASTJSON(bytes.NewReader(merged))
}

// Same reports whether a and b encode to equivalent JSON.
func Same(a, b common.Document) (bool, error) {
	from, err := encode(a)
	if err != nil {
		return false, err
	}
	to, err := encode(b)
	if err != nil {
		return false, err
	}
	return jsonpatch.Equal(from, to), nil
}
