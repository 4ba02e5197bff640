package tokenizer

import (
	"slices"
	"strings"
)

// TokenizerRules holds the vocabulary the tokenizer recognises.
type TokenizerRules struct {
	Keywords  map[string]bool
	Casts     map[string]string // spelling -> canonical cast name
	Operators []string          // longest first
	Marks     map[byte]bool
	Open      map[byte]bool
	Close     map[byte]bool
}

// DefaultRules returns the default tokenizer rules
func DefaultRules() *TokenizerRules {
	rules := &TokenizerRules{
		Keywords:  getDefaultKeywords(),
		Casts:     getDefaultCasts(),
		Operators: getDefaultOperators(),
		Marks:     map[byte]bool{',': true, ';': true},
		Open:      map[byte]bool{'(': true, '[': true, '{': true},
		Close:     map[byte]bool{')': true, ']': true, '}': true},
	}
	// Longest match wins, so longer operators are tried first.
	slices.SortStableFunc(rules.Operators, func(a, b string) int {
		return len(b) - len(a)
	})
	return rules
}

func (r *TokenizerRules) IsKeyword(word string) bool {
	return r.Keywords[strings.ToLower(word)]
}

func getDefaultKeywords() map[string]bool {
	words := []string{
		"abstract", "and", "array", "as", "break", "case", "catch", "class",
		"clone", "const", "continue", "declare", "default", "die", "do", "echo",
		"else", "elseif", "empty", "endfor", "endforeach", "endif", "endwhile",
		"eval", "exit", "extends", "final", "finally", "fn", "for", "foreach",
		"function", "global", "if", "implements", "include", "include_once",
		"instanceof", "insteadof", "interface", "isset", "list", "match",
		"namespace", "new", "or", "print", "private", "protected", "public",
		"readonly", "require", "require_once", "return", "static", "switch",
		"throw", "trait", "try", "unset", "use", "var", "while", "xor", "yield",
	}
	keywords := make(map[string]bool, len(words))
	for _, w := range words {
		keywords[w] = true
	}
	return keywords
}

func getDefaultCasts() map[string]string {
	return map[string]string{
		"int":     "int",
		"integer": "int",
		"bool":    "bool",
		"boolean": "bool",
		"float":   "float",
		"double":  "float",
		"real":    "float",
		"string":  "string",
		"binary":  "string",
		"array":   "array",
		"object":  "object",
		"unset":   "unset",
	}
}

func getDefaultOperators() []string {
	return []string{
		"<=>", "**=", "...", "<<=", ">>=", "===", "!==", "??=", "?->",
		"++", "--", "->", "=>", "::", "==", "!=", "<>", "<=", ">=", "&&", "||",
		"??", "+=", "-=", "*=", "/=", ".=", "%=", "&=", "|=", "^=", "<<", ">>", "**",
		"+", "-", "*", "/", "%", "=", "<", ">", "!", ".", "&", "|", "^", "~", "?", ":", "@",
	}
}
