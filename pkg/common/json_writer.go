package common

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// escapeJSONString ensures all strings in JSON are properly escaped.
func escapeJSONString(value string) string {
	var sb strings.Builder

	for _, r := range value {
		switch r {
		case '"':
			sb.WriteString("\\\"") // Escape double quotes
		case '\\':
			sb.WriteString("\\\\") // Escape backslashes
		case '\b':
			sb.WriteString("\\b") // Escape backspace
		case '\f':
			sb.WriteString("\\f") // Escape form feed
		case '\n':
			sb.WriteString("\\n") // Escape newline
		case '\r':
			sb.WriteString("\\r") // Escape carriage return
		case '\t':
			sb.WriteString("\\t") // Escape tab
		default:
			if r >= 0x20 && r <= 0x7E {
				sb.WriteRune(r) // Printable ASCII characters
			} else if r > 0xFFFF {
				r1, r2 := utf16.EncodeRune(r)
				fmt.Fprintf(&sb, "\\u%04x\\u%04x", r1, r2)
			} else {
				fmt.Fprintf(&sb, "\\u%04x", r) // Non-printable and Unicode characters
			}
		}
	}

	return sb.String()
}

type jsonPrinter struct {
	output io.Writer
	delta  string
	colors *Colors
	err    error
}

// quote returns value as a JSON string literal. JSON text must be UTF-8, so
// malformed strings fail rather than being repaired.
func (p *jsonPrinter) quote(value string) string {
	if !utf8.ValidString(value) {
		p.fail(fmt.Errorf("%w: string %q is not valid UTF-8", ErrUnsupportedValue, value))
		return ""
	}
	return "\"" + escapeJSONString(value) + "\""
}

func (p *jsonPrinter) print(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.output, s)
}

func (p *jsonPrinter) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// PrintASTJSON writes the document as indented JSON. Object fields always
// appear in the order kind, flags, lineno, children.
func PrintASTJSON(root Document, indentDelta string, output io.Writer, options *PrintOptions) error {
	p := &jsonPrinter{output: output, delta: indentDelta, colors: colorsFor(options)}
	p.printDocument(root, "")
	p.print("\n")
	return p.err
}

func (p *jsonPrinter) printDocument(doc Document, currentIndent string) {
	switch d := doc.(type) {
	case nil:
		p.print(p.colors.Literal("null"))
	case Scalar:
		p.printScalar(d)
	case *Object:
		if d == nil {
			p.print(p.colors.Literal("null"))
			return
		}
		p.printObject(d, currentIndent)
	default:
		p.fail(fmt.Errorf("%w: %T", ErrUnsupportedValue, doc))
	}
}

func (p *jsonPrinter) printScalar(s Scalar) {
	switch s.typ {
	case StringScalar:
		p.print(p.colors.String(p.quote(s.s)))
	case IntScalar:
		p.print(p.colors.Number(strconv.FormatInt(s.i, 10)))
	case FloatScalar:
		if math.IsNaN(s.f) || math.IsInf(s.f, 0) {
			p.fail(fmt.Errorf("%w: %v cannot be encoded as JSON", ErrUnsupportedValue, s.f))
			return
		}
		p.print(p.colors.Number(FormatFloat(s.f)))
	case BoolScalar:
		p.print(p.colors.Literal(strconv.FormatBool(s.b)))
	default:
		p.print(p.colors.Literal("null"))
	}
}

func (p *jsonPrinter) field(name string, indent string) {
	p.print(indent + p.colors.Field("\""+name+"\"") + ": ")
}

// printObject prints an object whose opening brace is already positioned.
func (p *jsonPrinter) printObject(obj *Object, currentIndent string) {
	// Precompute the next level of indentation
	nextIndent := currentIndent + p.delta

	p.print("{\n")
	p.field("kind", nextIndent)
	p.print(p.colors.Kind(p.quote(obj.Kind)))
	p.print(",\n")
	p.field("flags", nextIndent)
	p.print(p.colors.Number(strconv.Itoa(obj.Flags)))
	p.print(",\n")
	p.field("lineno", nextIndent)
	p.print(p.colors.Number(strconv.Itoa(obj.Lineno)))
	p.print(",\n")
	p.field("children", nextIndent)
	p.printChildren(obj.Children, nextIndent)
	p.print("\n" + currentIndent + "}")
}

// printChildren prints positional children 0..n-1 as a list and any other
// keying as a map, so names are never renumbered.
func (p *jsonPrinter) printChildren(entries []Entry, currentIndent string) {
	if len(entries) == 0 {
		p.print("[]")
		return
	}
	list := isList(entries)
	open, end := "{", "}"
	if list {
		open, end = "[", "]"
	}

	childIndent := currentIndent + p.delta
	p.print(open + "\n")
	for i, entry := range entries {
		p.print(childIndent)
		if !list {
			p.print(p.colors.Field(p.quote(entry.Key.String())) + ": ")
		}
		p.printDocument(entry.Value, childIndent)
		if i < len(entries)-1 {
			p.print(",\n") // Add a comma for all but the last child
		} else {
			p.print("\n")
		}
	}
	p.print(currentIndent + end)
}
