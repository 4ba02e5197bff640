package common

import "fmt"

// LineCol is a 1-based source position; columns count bytes.
type LineCol struct {
	LineNo int
	ColNo  int
}

func (x LineCol) String() string {
	return fmt.Sprintf("%d:%d", x.LineNo, x.ColNo)
}

// Span returns the source range from x up to end.
func (x *LineCol) Span(end LineCol) Span {
	return Span{StartLine: x.LineNo, StartColumn: x.ColNo, EndLine: end.LineNo, EndColumn: end.ColNo}
}

// Span is the source range a token covers.
type Span struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

func (x *Span) Start() LineCol {
	return LineCol{LineNo: x.StartLine, ColNo: x.StartColumn}
}

func (x *Span) End() LineCol {
	return LineCol{LineNo: x.EndLine, ColNo: x.EndColumn}
}
