// Package tokenizer splits PHP source text into tokens.
package tokenizer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spicery/astdoc/pkg/common"
)

type Tokenizer struct {
	input  string
	pos    int // byte offset of the next unread character
	line   int
	col    int
	rules  *TokenizerRules
	tokens []*common.Token
}

func NewTokenizer(input string) *Tokenizer {
	return NewTokenizerWithRules(input, DefaultRules())
}

func NewTokenizerWithRules(input string, rules *TokenizerRules) *Tokenizer {
	return &Tokenizer{
		input: input,
		line:  1,
		col:   1,
		rules: rules,
	}
}

// Tokenize returns every token of the input. Errors are *common.SyntaxError.
func (t *Tokenizer) Tokenize() ([]*common.Token, error) {
	for t.pos < len(t.input) {
		if err := t.scanInlineHTML(); err != nil {
			return nil, err
		}
		if err := t.scanCode(); err != nil {
			return nil, err
		}
	}
	return t.tokens, nil
}

func (t *Tokenizer) here() common.LineCol {
	return common.LineCol{LineNo: t.line, ColNo: t.col}
}

func (t *Tokenizer) peekByte(offset int) byte {
	if t.pos+offset < len(t.input) {
		return t.input[t.pos+offset]
	}
	return 0
}

func (t *Tokenizer) hasPrefix(s string) bool {
	return strings.HasPrefix(t.input[t.pos:], s)
}

func (t *Tokenizer) hasPrefixFold(s string) bool {
	rest := t.input[t.pos:]
	return len(rest) >= len(s) && strings.EqualFold(rest[:len(s)], s)
}

// advance consumes n bytes, keeping line and column up to date.
func (t *Tokenizer) advance(n int) string {
	start := t.pos
	for i := 0; i < n && t.pos < len(t.input); i++ {
		if t.input[t.pos] == '\n' {
			t.line++
			t.col = 1
		} else {
			t.col++
		}
		t.pos++
	}
	return t.input[start:t.pos]
}

func (t *Tokenizer) emit(token *common.Token) {
	t.tokens = append(t.tokens, token)
}

func (t *Tokenizer) spanFrom(start common.LineCol) common.Span {
	return start.Span(t.here())
}

// scanInlineHTML consumes text up to and including the next open tag.
func (t *Tokenizer) scanInlineHTML() error {
	start := t.here()
	begin := t.pos
	for t.pos < len(t.input) {
		if t.hasPrefix("<?=") || (t.hasPrefixFold("<?php") && isTagEnd(t.peekByte(5))) {
			break
		}
		t.advance(1)
	}
	if t.pos > begin {
		text := t.input[begin:t.pos]
		t.emit(common.NewValueToken(text, common.InlineHTMLTokenType, text, t.spanFrom(start)))
	}
	if t.pos >= len(t.input) {
		return nil
	}
	start = t.here()
	if t.hasPrefix("<?=") {
		t.emit(common.NewToken(t.advance(3), common.OpenTagTokenType, t.spanFrom(start)))
		return nil
	}
	text := t.advance(5)
	if t.peekByte(0) == '\n' {
		t.advance(1)
	}
	t.emit(common.NewToken(text, common.OpenTagTokenType, t.spanFrom(start)))
	return nil
}

func isTagEnd(b byte) bool {
	return b == 0 || b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// scanCode consumes PHP code up to and including the next close tag.
func (t *Tokenizer) scanCode() error {
	for t.pos < len(t.input) {
		t.skipWhitespace()
		if t.pos >= len(t.input) {
			return nil
		}
		start := t.here()
		c := t.peekByte(0)
		switch {
		case t.hasPrefix("?>"):
			text := t.advance(2)
			// A single newline directly after the close tag belongs to it.
			if t.peekByte(0) == '\n' {
				t.advance(1)
			} else if t.hasPrefix("\r\n") {
				t.advance(2)
			}
			t.emit(common.NewToken(text, common.CloseTagTokenType, t.spanFrom(start)))
			return nil
		case c == '#' && t.peekByte(1) != '[', c == '/' && t.peekByte(1) == '/':
			t.skipLineComment()
		case c == '/' && t.peekByte(1) == '*':
			if err := t.skipBlockComment(start); err != nil {
				return err
			}
		case c == '$' && isIdentStart(t.peekByte(1)):
			t.advance(1)
			name := t.readIdent()
			t.emit(common.NewValueToken("$"+name, common.VariableTokenType, name, t.spanFrom(start)))
		case isIdentStart(c) || (c == '\\' && isIdentStart(t.peekByte(1))):
			t.scanName(start)
		case isDigit(c) || (c == '.' && isDigit(t.peekByte(1))):
			t.scanNumber(start)
		case c == '\'':
			if err := t.scanSingleQuoted(start); err != nil {
				return err
			}
		case c == '"':
			if err := t.scanDoubleQuoted(start); err != nil {
				return err
			}
		case c == '(' && t.tryScanCast(start):
		case t.rules.Marks[c]:
			t.emit(common.NewToken(t.advance(1), common.MarkTokenType, t.spanFrom(start)))
		case t.rules.Open[c]:
			t.emit(common.NewToken(t.advance(1), common.OpenDelimiterTokenType, t.spanFrom(start)))
		case t.rules.Close[c]:
			t.emit(common.NewToken(t.advance(1), common.CloseDelimiterTokenType, t.spanFrom(start)))
		default:
			if !t.scanOperator(start) {
				r, _ := utf8.DecodeRuneInString(t.input[t.pos:])
				return common.NewSyntaxError(start, "unexpected character %q", r)
			}
		}
	}
	return nil
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) {
		switch t.peekByte(0) {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			t.advance(1)
		default:
			return
		}
	}
}

// skipLineComment stops at the end of the line or before a close tag.
func (t *Tokenizer) skipLineComment() {
	for t.pos < len(t.input) && t.peekByte(0) != '\n' && !t.hasPrefix("?>") {
		t.advance(1)
	}
}

func (t *Tokenizer) skipBlockComment(start common.LineCol) error {
	end := strings.Index(t.input[t.pos+2:], "*/")
	if end < 0 {
		return common.NewSyntaxError(start, "unterminated comment starting")
	}
	t.advance(end + 4)
	return nil
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (t *Tokenizer) readIdent() string {
	begin := t.pos
	for t.pos < len(t.input) && isIdentChar(t.peekByte(0)) {
		t.advance(1)
	}
	return t.input[begin:t.pos]
}

// scanName reads an identifier, keyword or namespace-qualified name.
func (t *Tokenizer) scanName(start common.LineCol) {
	begin := t.pos
	if t.peekByte(0) == '\\' {
		t.advance(1)
	}
	t.readIdent()
	for t.peekByte(0) == '\\' && isIdentStart(t.peekByte(1)) {
		t.advance(1)
		t.readIdent()
	}
	text := t.input[begin:t.pos]
	if !strings.Contains(text, "\\") && t.rules.IsKeyword(text) {
		t.emit(common.NewValueToken(text, common.KeywordTokenType, strings.ToLower(text), t.spanFrom(start)))
		return
	}
	t.emit(common.NewToken(text, common.NameTokenType, t.spanFrom(start)))
}

func (t *Tokenizer) scanNumber(start common.LineCol) {
	begin := t.pos
	isFloat := false
	if t.peekByte(0) == '0' && strings.ContainsRune("xXbBoO", rune(t.peekByte(1))) {
		t.advance(2)
		for isHexDigit(t.peekByte(0)) || t.peekByte(0) == '_' {
			t.advance(1)
		}
		t.emit(common.NewNumericToken(t.input[begin:t.pos], false, t.spanFrom(start)))
		return
	}
	t.readDigits()
	if t.peekByte(0) == '.' && isDigit(t.peekByte(1)) || t.peekByte(0) == '.' && t.pos > begin && !isIdentStart(t.peekByte(1)) && t.peekByte(1) != '.' && t.peekByte(1) != '=' {
		isFloat = true
		t.advance(1)
		t.readDigits()
	}
	if c := t.peekByte(0); c == 'e' || c == 'E' {
		next := t.peekByte(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(t.peekByte(2))) {
			isFloat = true
			t.advance(2)
			t.readDigits()
		}
	}
	t.emit(common.NewNumericToken(t.input[begin:t.pos], isFloat, t.spanFrom(start)))
}

func (t *Tokenizer) readDigits() {
	for isDigit(t.peekByte(0)) || (t.peekByte(0) == '_' && isDigit(t.peekByte(1))) {
		t.advance(1)
	}
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// scanSingleQuoted handles '...' where only \\ and \' are escapes.
func (t *Tokenizer) scanSingleQuoted(start common.LineCol) error {
	begin := t.pos
	t.advance(1)
	var value strings.Builder
	for {
		if t.pos >= len(t.input) {
			return common.NewSyntaxError(start, "unterminated string")
		}
		c := t.peekByte(0)
		if c == '\'' {
			t.advance(1)
			break
		}
		if c == '\\' && (t.peekByte(1) == '\\' || t.peekByte(1) == '\'') {
			value.WriteByte(t.peekByte(1))
			t.advance(2)
			continue
		}
		value.WriteByte(c)
		t.advance(1)
	}
	token := common.NewStringToken(t.input[begin:t.pos], value.String(), t.spanFrom(start))
	token.SetQuote('\'')
	t.emit(token)
	return nil
}

// scanDoubleQuoted handles "..." with escapes and $name / {$name} / ${name}
// interpolation. Strings without interpolation become plain string tokens.
func (t *Tokenizer) scanDoubleQuoted(start common.LineCol) error {
	begin := t.pos
	t.advance(1)
	var parts []*common.Token
	var value strings.Builder
	partStart := t.here()
	flush := func() {
		if value.Len() > 0 {
			text := value.String()
			parts = append(parts, common.NewStringToken(text, text, t.spanFrom(partStart)))
			value.Reset()
		}
	}
	for {
		if t.pos >= len(t.input) {
			return common.NewSyntaxError(start, "unterminated string")
		}
		c := t.peekByte(0)
		switch {
		case c == '"':
			t.advance(1)
			flush()
			text := t.input[begin:t.pos]
			var token *common.Token
			if len(parts) == 1 && parts[0].Type == common.StringLiteralTokenType {
				token = common.NewStringToken(text, parts[0].Val(), t.spanFrom(start))
			} else if len(parts) == 0 {
				token = common.NewStringToken(text, "", t.spanFrom(start))
			} else {
				token = common.NewInterpolatedStringToken(text, parts, t.spanFrom(start))
			}
			token.SetQuote('"')
			t.emit(token)
			return nil
		case c == '\\':
			t.scanEscape(&value)
		case c == '$' && isIdentStart(t.peekByte(1)):
			flush()
			varStart := t.here()
			t.advance(1)
			name := t.readIdent()
			parts = append(parts, common.NewValueToken("$"+name, common.VariableTokenType, name, t.spanFrom(varStart)))
			partStart = t.here()
		case (c == '{' && t.peekByte(1) == '$' && isIdentStart(t.peekByte(2))) || (c == '$' && t.peekByte(1) == '{'):
			flush()
			varStart := t.here()
			t.advance(2)
			name := t.readIdent()
			if t.peekByte(0) != '}' {
				return common.NewSyntaxError(t.here(), "unsupported expression in string interpolation")
			}
			t.advance(1)
			parts = append(parts, common.NewValueToken("$"+name, common.VariableTokenType, name, t.spanFrom(varStart)))
			partStart = t.here()
		default:
			value.WriteByte(c)
			t.advance(1)
		}
	}
}

// scanEscape decodes one backslash sequence of a double quoted string.
// Unknown sequences are kept verbatim, as PHP does.
func (t *Tokenizer) scanEscape(value *strings.Builder) {
	next := t.peekByte(1)
	simple := map[byte]byte{
		'n': '\n', 't': '\t', 'r': '\r', 'v': '\v', 'e': 0x1b, 'f': '\f',
		'\\': '\\', '$': '$', '"': '"',
	}
	if b, ok := simple[next]; ok {
		value.WriteByte(b)
		t.advance(2)
		return
	}
	switch {
	case next >= '0' && next <= '7':
		n := 1
		for n < 3 && t.peekByte(1+n) >= '0' && t.peekByte(1+n) <= '7' {
			n++
		}
		code, _ := strconv.ParseUint(t.input[t.pos+1:t.pos+1+n], 8, 16)
		value.WriteByte(byte(code))
		t.advance(1 + n)
		return
	case next == 'x' && isHexDigit(t.peekByte(2)):
		n := 1
		if isHexDigit(t.peekByte(3)) {
			n = 2
		}
		code, _ := strconv.ParseUint(t.input[t.pos+2:t.pos+2+n], 16, 8)
		value.WriteByte(byte(code))
		t.advance(2 + n)
		return
	case next == 'u' && t.peekByte(2) == '{':
		end := strings.IndexByte(t.input[t.pos+3:], '}')
		if end > 0 {
			if code, err := strconv.ParseUint(t.input[t.pos+3:t.pos+3+end], 16, 32); err == nil && code <= utf8.MaxRune {
				value.WriteRune(rune(code))
				t.advance(4 + end)
				return
			}
		}
	}
	value.WriteByte('\\')
	t.advance(1)
}

// tryScanCast recognises casts such as (int) or ( string ).
func (t *Tokenizer) tryScanCast(start common.LineCol) bool {
	i := t.pos + 1
	for i < len(t.input) && (t.input[i] == ' ' || t.input[i] == '\t') {
		i++
	}
	wordStart := i
	for i < len(t.input) && isIdentChar(t.input[i]) {
		i++
	}
	word := strings.ToLower(t.input[wordStart:i])
	for i < len(t.input) && (t.input[i] == ' ' || t.input[i] == '\t') {
		i++
	}
	canonical, ok := t.rules.Casts[word]
	if !ok || i >= len(t.input) || t.input[i] != ')' {
		return false
	}
	text := t.advance(i + 1 - t.pos)
	t.emit(common.NewValueToken(text, common.CastTokenType, canonical, t.spanFrom(start)))
	return true
}

func (t *Tokenizer) scanOperator(start common.LineCol) bool {
	for _, op := range t.rules.Operators {
		if t.hasPrefix(op) {
			t.emit(common.NewToken(t.advance(len(op)), common.OperatorTokenType, t.spanFrom(start)))
			return true
		}
	}
	return false
}
