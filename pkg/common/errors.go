package common

import (
	"errors"
	"fmt"
)

// ErrUnsupportedValue is returned for values that are neither scalars nor
// syntax nodes.
var ErrUnsupportedValue = errors.New("unsupported value")

// SyntaxError reports source text the parser cannot accept.
type SyntaxError struct {
	Pos LineCol
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error, %s on line %d", e.Msg, e.Pos.LineNo)
}

func NewSyntaxError(pos LineCol, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
