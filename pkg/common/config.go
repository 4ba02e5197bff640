package common

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultIndent = 4

type PrintOptions struct {
	Format            string `yaml:"option-format,omitempty"`
	Indent            int    `yaml:"option-indent,omitempty"`
	Color             bool   `yaml:"option-color,omitempty"`
	TrimTokenOnOutput int    `yaml:"option-trim-token-on-output,omitempty"`
	KindsFile         string `yaml:"option-kinds,omitempty"`
	Version           int    `yaml:"option-ast-version,omitempty"`
}

// LoadPrintOptions reads print options from a YAML file.
func LoadPrintOptions(filename string) (*PrintOptions, error) {
	data, err := os.ReadFile(filename) // #nosec G304 - CLI tool reads user-specified config files
	if err != nil {
		return nil, fmt.Errorf("failed to read options file '%s': %w", filename, err)
	}

	var options PrintOptions
	if err := yaml.Unmarshal(data, &options); err != nil {
		return nil, fmt.Errorf("failed to parse options file '%s': %w", filename, err)
	}
	return &options, nil
}

// IndentString returns the indentation step, falling back to DefaultIndent.
func (o *PrintOptions) IndentString() string {
	n := DefaultIndent
	if o != nil && o.Indent > 0 {
		n = o.Indent
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

// TrimValue trims a string for display if trimming is enabled.
func TrimValue(value string, trimLength int) string {
	runes := []rune(value)
	if trimLength > 0 && len(runes) > trimLength {
		// Reserve space for Unicode ellipsis (1 character: "…")
		if trimLength >= 2 {
			return string(runes[:trimLength-1]) + "…"
		}
		// If trim length is too small for ellipsis, just truncate
		return string(runes[:trimLength])
	}
	return value
}
