// Package kinds maps numeric syntax node kinds to their symbolic names.
//
// A Table is built once per process for a fixed AST format version and never
// modified afterwards, so it may be shared between goroutines.
package kinds

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/spicery/astdoc/pkg/common"
)

// CurrentVersion is the AST format version used by the command line tools.
const CurrentVersion = 110

// SupportedVersions lists the versions ForVersion knows about.
var SupportedVersions = []int{110}

// UnknownKindError means the table has no name for a kind code, which
// happens when the table is older than the parser that built the tree.
type UnknownKindError struct {
	Kind    common.Kind
	Version int
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown node kind %d for AST version %d", int(e.Kind), e.Version)
}

type Table struct {
	version int
	names   map[common.Kind]string
	codes   map[string]common.Kind
}

// NewTable copies names into a new table. Every name must be non-empty and
// unique.
func NewTable(version int, names map[common.Kind]string) (*Table, error) {
	t := &Table{
		version: version,
		names:   make(map[common.Kind]string, len(names)),
		codes:   make(map[string]common.Kind, len(names)),
	}
	for kind, name := range names {
		if name == "" {
			return nil, fmt.Errorf("kind %d has an empty name", int(kind))
		}
		if other, exists := t.codes[name]; exists {
			return nil, fmt.Errorf("kind name %s is used by both %d and %d", name, int(min(other, kind)), int(max(other, kind)))
		}
		t.names[kind] = name
		t.codes[name] = kind
	}
	return t, nil
}

// ForVersion returns the built-in table for an AST format version.
func ForVersion(version int) (*Table, error) {
	switch version {
	case 110:
		return NewTable(version, names110)
	default:
		return nil, fmt.Errorf("unsupported AST version %d (supported: %v)", version, SupportedVersions)
	}
}

func (t *Table) Version() int {
	return t.version
}

func (t *Table) Len() int {
	return len(t.names)
}

// Name resolves the symbolic name of kind. It never guesses: unknown codes
// fail with *UnknownKindError.
func (t *Table) Name(kind common.Kind) (string, error) {
	name, ok := t.names[kind]
	if !ok {
		return "", &UnknownKindError{Kind: kind, Version: t.version}
	}
	return name, nil
}

func (t *Table) Code(name string) (common.Kind, bool) {
	kind, ok := t.codes[name]
	return kind, ok
}

// Kinds returns all codes in ascending order.
func (t *Table) Kinds() []common.Kind {
	kinds := make([]common.Kind, 0, len(t.names))
	for kind := range t.names {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// tableFile is the YAML layout of a kind table.
type tableFile struct {
	Version int            `yaml:"version"`
	Kinds   map[string]int `yaml:"kinds"`
}

// Parse reads a table from YAML of the form
//
//	version: 110
//	kinds:
//	  AST_STMT_LIST: 132
func Parse(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Version <= 0 {
		return nil, fmt.Errorf("kind table has no version")
	}
	names := make(map[common.Kind]string, len(file.Kinds))
	for name, code := range file.Kinds {
		kind := common.Kind(code)
		if other, exists := names[kind]; exists {
			first, second := min(other, name), max(other, name)
			return nil, fmt.Errorf("kind %d is named both %s and %s", code, first, second)
		}
		names[kind] = name
	}
	return NewTable(file.Version, names)
}

// Load reads a YAML kind table from a file.
func Load(filename string) (*Table, error) {
	data, err := os.ReadFile(filename) // #nosec G304 - CLI tool reads user-specified config files
	if err != nil {
		return nil, fmt.Errorf("failed to read kind table '%s': %w", filename, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kind table '%s': %w", filename, err)
	}
	return t, nil
}

// WriteYAML writes the table in the format Parse reads, ordered by code.
func (t *Table) WriteYAML(w io.Writer) error {
	kindsNode := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, kind := range t.Kinds() {
		kindsNode.Content = append(kindsNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.names[kind]},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(int(kind))},
		)
	}
	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: "version"},
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(t.version)},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: "kinds"},
			kindsNode,
		},
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return err
	}
	return encoder.Close()
}
