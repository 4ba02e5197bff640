package common

import "strings"

// TokenType represents the different types of tokens.
type TokenType string

const (
	// Literal constants
	NumericLiteralTokenType     TokenType = "n" // Integer and float literals
	StringLiteralTokenType      TokenType = "s" // String literals with quotes and escapes
	InterpolatedStringTokenType TokenType = "i" // Double quoted strings with embedded variables e.g. "Hello, $name!"
	InlineHTMLTokenType         TokenType = "h" // Text outside of <?php ... ?>

	// Identifier tokens
	VariableTokenType TokenType = "V" // Variables ($name)
	NameTokenType     TokenType = "N" // Identifiers and qualified names (strlen, Foo\Bar)
	KeywordTokenType  TokenType = "K" // Reserved words (if, echo, function)

	// Other tokens
	OpenTagTokenType        TokenType = "<" // <?php and <?=
	CloseTagTokenType       TokenType = ">" // ?>
	OperatorTokenType       TokenType = "O" // Operators (+, ->, ===)
	CastTokenType           TokenType = "C" // Casts such as (int)
	OpenDelimiterTokenType  TokenType = "[" // Opening brackets/braces/parentheses
	CloseDelimiterTokenType TokenType = "]" // Closing brackets/braces/parentheses
	MarkTokenType           TokenType = "M" // Marks (commas, semicolons)
)

// Token represents a single token from PHP source code.
type Token struct {
	Text string    `json:"text"`
	Span Span      `json:"span"`
	Type TokenType `json:"type"`

	// Decoded value: string contents, variable name without '$', keyword or
	// cast name in lower case.
	Value *string `json:"value,omitempty"`

	// String token fields
	Quote     string   `json:"quote,omitempty"`
	Subtokens []*Token `json:"subtokens,omitempty"`

	// Numeric token fields
	Float bool `json:"float,omitempty"`
}

// SetQuote sets the quote type for a string token.
func (t *Token) SetQuote(r rune) {
	switch r {
	case '\'':
		t.Quote = "single"
	case '"':
		t.Quote = "double"
	case '`':
		t.Quote = "backtick"
	default:
		t.Quote = string(r)
	}
}

// NewToken creates a new token with the basic required fields.
func NewToken(text string, tokenType TokenType, span Span) *Token {
	return &Token{
		Text: text,
		Type: tokenType,
		Span: span,
	}
}

// NewValueToken creates a token that also carries a decoded value.
func NewValueToken(text string, tokenType TokenType, value string, span Span) *Token {
	return &Token{
		Text:  text,
		Type:  tokenType,
		Span:  span,
		Value: &value,
	}
}

// NewStringToken creates a new string token with interpreted value.
func NewStringToken(text, value string, span Span) *Token {
	return NewValueToken(text, StringLiteralTokenType, value, span)
}

// NewInterpolatedStringToken creates a new interpolated string token.
func NewInterpolatedStringToken(text string, subtokens []*Token, span Span) *Token {
	return &Token{
		Text:      text,
		Type:      InterpolatedStringTokenType,
		Span:      span,
		Subtokens: subtokens,
	}
}

// NewNumericToken creates a numeric token; isFloat separates 1.5 from 15.
func NewNumericToken(text string, isFloat bool, span Span) *Token {
	return &Token{
		Text:  text,
		Type:  NumericLiteralTokenType,
		Span:  span,
		Float: isFloat,
	}
}

// Val returns the decoded value, or the text when there is none.
func (t *Token) Val() string {
	if t.Value != nil {
		return *t.Value
	}
	return t.Text
}

// Is reports whether the token has the given type and text. Keywords and
// casts compare case-insensitively, as PHP does.
func (t *Token) Is(tokenType TokenType, text string) bool {
	if t == nil || t.Type != tokenType {
		return false
	}
	if tokenType == KeywordTokenType || tokenType == CastTokenType {
		return strings.EqualFold(t.Val(), text)
	}
	return t.Text == text
}

func (t *Token) Start() LineCol {
	return t.Span.Start()
}

// Describe returns the token as it would be quoted in an error message.
func (t *Token) Describe() string {
	switch t.Type {
	case VariableTokenType:
		return "variable \"" + t.Text + "\""
	case StringLiteralTokenType, InterpolatedStringTokenType:
		return "string content"
	case NumericLiteralTokenType:
		if t.Float {
			return "floating-point number \"" + t.Text + "\""
		}
		return "integer \"" + t.Text + "\""
	case NameTokenType:
		return "identifier \"" + t.Text + "\""
	case InlineHTMLTokenType:
		return "inline html"
	default:
		return "token \"" + t.Text + "\""
	}
}
