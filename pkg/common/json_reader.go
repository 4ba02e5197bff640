package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadASTJSON decodes a document written by PrintASTJSON, keeping the order
// and keying of children.
func ReadASTJSON(input io.Reader) (Document, error) {
	decoder := json.NewDecoder(input)
	decoder.UseNumber()
	r := &jsonReader{decoder: decoder}
	doc, err := r.readDocument()
	if err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after document")
	}
	return doc, nil
}

type jsonReader struct {
	decoder *json.Decoder
}

func (r *jsonReader) readDocument() (Document, error) {
	token, err := r.decoder.Token()
	if err != nil {
		return nil, err
	}
	switch t := token.(type) {
	case json.Delim:
		if t != '{' {
			return nil, fmt.Errorf("unexpected '%s' where a document was expected", t)
		}
		return r.readObject()
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(t)
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", token)
	}
}

func parseNumber(n json.Number) (Scalar, error) {
	text := n.String()
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Scalar{}, err
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Scalar{}, err
	}
	return Int(i), nil
}

// readObject reads the fields of an object after its opening brace.
func (r *jsonReader) readObject() (*Object, error) {
	obj := &Object{}
	seen := map[string]bool{}
	for r.decoder.More() {
		token, err := r.decoder.Token()
		if err != nil {
			return nil, err
		}
		name, _ := token.(string)
		if seen[name] {
			return nil, fmt.Errorf("duplicate field %q", name)
		}
		seen[name] = true
		switch name {
		case "kind":
			obj.Kind, err = r.readString()
		case "flags":
			obj.Flags, err = r.readInt()
		case "lineno":
			obj.Lineno, err = r.readInt()
		case "children":
			obj.Children, err = r.readChildren()
		default:
			return nil, fmt.Errorf("unexpected field %q in object", name)
		}
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
	}
	if _, err := r.decoder.Token(); err != nil {
		return nil, err
	}
	for _, name := range []string{"kind", "flags", "lineno", "children"} {
		if !seen[name] {
			return nil, fmt.Errorf("object is missing field %q", name)
		}
	}
	return obj, nil
}

func (r *jsonReader) readString() (string, error) {
	token, err := r.decoder.Token()
	if err != nil {
		return "", err
	}
	s, ok := token.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %v", token)
	}
	return s, nil
}

func (r *jsonReader) readInt() (int, error) {
	token, err := r.decoder.Token()
	if err != nil {
		return 0, err
	}
	n, ok := token.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected integer, got %v", token)
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, err
	}
	return i, nil
}

func (r *jsonReader) readChildren() ([]Entry, error) {
	token, err := r.decoder.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := token.(json.Delim)
	if !ok || (delim != '[' && delim != '{') {
		return nil, fmt.Errorf("expected list or map of children, got %v", token)
	}
	entries := []Entry{}
	for i := 0; r.decoder.More(); i++ {
		key := IndexKey(i)
		if delim == '{' {
			name, err := r.readString()
			if err != nil {
				return nil, err
			}
			key = ParseKey(name)
		}
		value, err := r.readDocument()
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
	if _, err := r.decoder.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}
