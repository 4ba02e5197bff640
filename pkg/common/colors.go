package common

import (
	"fmt"

	"github.com/fatih/color"
)

// Colors holds the sprint functions used for coloured output. The caller
// decides whether colour is wanted, so every attribute is force-enabled.
type Colors struct {
	Field   func(a ...any) string
	Kind    func(a ...any) string
	String  func(a ...any) string
	Number  func(a ...any) string
	Literal func(a ...any) string
	Punct   func(a ...any) string
}

func NewColors() *Colors {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintFunc()
	}
	return &Colors{
		Field:   mk(color.FgBlue),
		Kind:    mk(color.FgMagenta, color.Bold),
		String:  mk(color.FgGreen),
		Number:  mk(color.FgCyan),
		Literal: mk(color.FgYellow),
		Punct:   mk(color.Faint),
	}
}

// PlainColors returns pass-through functions.
func PlainColors() *Colors {
	plain := func(a ...any) string {
		return fmt.Sprint(a...)
	}
	return &Colors{Field: plain, Kind: plain, String: plain, Number: plain, Literal: plain, Punct: plain}
}

func colorsFor(options *PrintOptions) *Colors {
	if options != nil && options.Color {
		return NewColors()
	}
	return PlainColors()
}
