package common

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// PrintASTYAML writes the document as YAML. A yaml.Node tree is built by hand
// so that object fields keep their fixed order.
func PrintASTYAML(root Document, indentDelta string, output io.Writer, options *PrintOptions) error {
	node, err := toYAMLNode(root)
	if err != nil {
		return err
	}
	encoder := yaml.NewEncoder(output)
	encoder.SetIndent(len(indentDelta))
	if err := encoder.Encode(node); err != nil {
		return err
	}
	return encoder.Close()
}

func yamlScalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func toYAMLNode(doc Document) (*yaml.Node, error) {
	switch d := doc.(type) {
	case nil:
		return yamlScalar("!!null", "null"), nil
	case Scalar:
		switch d.typ {
		case StringScalar:
			return yamlScalar("!!str", d.s), nil
		case IntScalar:
			return yamlScalar("!!int", strconv.FormatInt(d.i, 10)), nil
		case FloatScalar:
			switch {
			case math.IsNaN(d.f):
				return yamlScalar("!!float", ".nan"), nil
			case math.IsInf(d.f, 1):
				return yamlScalar("!!float", ".inf"), nil
			case math.IsInf(d.f, -1):
				return yamlScalar("!!float", "-.inf"), nil
			}
			return yamlScalar("!!float", FormatFloat(d.f)), nil
		case BoolScalar:
			return yamlScalar("!!bool", strconv.FormatBool(d.b)), nil
		default:
			return yamlScalar("!!null", "null"), nil
		}
	case *Object:
		if d == nil {
			return yamlScalar("!!null", "null"), nil
		}
		children, err := yamlChildren(d.Children)
		if err != nil {
			return nil, err
		}
		return &yaml.Node{
			Kind: yaml.MappingNode,
			Tag:  "!!map",
			Content: []*yaml.Node{
				yamlScalar("!!str", "kind"), yamlScalar("!!str", d.Kind),
				yamlScalar("!!str", "flags"), yamlScalar("!!int", strconv.Itoa(d.Flags)),
				yamlScalar("!!str", "lineno"), yamlScalar("!!int", strconv.Itoa(d.Lineno)),
				yamlScalar("!!str", "children"), children,
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, doc)
	}
}

func yamlChildren(entries []Entry) (*yaml.Node, error) {
	list := isList(entries)
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if list {
		node = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	}
	if len(entries) == 0 {
		node.Style = yaml.FlowStyle
	}
	for _, entry := range entries {
		value, err := toYAMLNode(entry.Value)
		if err != nil {
			return nil, err
		}
		if !list {
			tag := "!!str"
			if !entry.Key.IsNamed() {
				tag = "!!int"
			}
			node.Content = append(node.Content, yamlScalar(tag, entry.Key.String()))
		}
		node.Content = append(node.Content, value)
	}
	return node, nil
}
