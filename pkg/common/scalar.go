package common

import (
	"fmt"
	"math"
	"strconv"
)

// ScalarType discriminates the five leaf shapes a Scalar can hold.
type ScalarType int

const (
	NullScalar ScalarType = iota
	StringScalar
	IntScalar
	FloatScalar
	BoolScalar
)

func (t ScalarType) String() string {
	switch t {
	case NullScalar:
		return "null"
	case StringScalar:
		return "string"
	case IntScalar:
		return "int"
	case FloatScalar:
		return "float"
	case BoolScalar:
		return "bool"
	default:
		return fmt.Sprintf("ScalarType(%d)", int(t))
	}
}

// Scalar is a leaf value: string, integer, float, boolean or null. The zero
// value is null. Scalars are comparable with ==.
type Scalar struct {
	typ ScalarType
	s   string
	i   int64
	f   float64
	b   bool
}

func Null() Scalar                { return Scalar{} }
func String(s string) Scalar      { return Scalar{typ: StringScalar, s: s} }
func Int(i int64) Scalar          { return Scalar{typ: IntScalar, i: i} }
func Float(f float64) Scalar      { return Scalar{typ: FloatScalar, f: f} }
func Bool(b bool) Scalar          { return Scalar{typ: BoolScalar, b: b} }
func (s Scalar) isValue()         {}
func (s Scalar) isDocument()      {}
func (s Scalar) Type() ScalarType { return s.typ }
func (s Scalar) IsNull() bool     { return s.typ == NullScalar }

// ScalarOf converts a plain Go value into a Scalar. Anything that is not nil,
// a string, a bool, an integer or a float fails with ErrUnsupportedValue.
func ScalarOf(v any) (Scalar, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Scalar:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return uintScalar(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return uintScalar(x)
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	default:
		return Scalar{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func uintScalar(u uint64) (Scalar, error) {
	if u > math.MaxInt64 {
		return Scalar{}, fmt.Errorf("%w: integer %d overflows int64", ErrUnsupportedValue, u)
	}
	return Int(int64(u)), nil
}

// Interface returns the Go value held: nil, string, int64, float64 or bool.
func (s Scalar) Interface() any {
	switch s.typ {
	case StringScalar:
		return s.s
	case IntScalar:
		return s.i
	case FloatScalar:
		return s.f
	case BoolScalar:
		return s.b
	default:
		return nil
	}
}

func (s Scalar) AsString() (string, bool) { return s.s, s.typ == StringScalar }
func (s Scalar) AsInt() (int64, bool)     { return s.i, s.typ == IntScalar }
func (s Scalar) AsFloat() (float64, bool) { return s.f, s.typ == FloatScalar }
func (s Scalar) AsBool() (bool, bool)     { return s.b, s.typ == BoolScalar }

// Equal reports whether two scalars hold the same type and value.
func (s Scalar) Equal(o Scalar) bool {
	return s == o
}

// String renders the scalar the way it reads in PHP-ish source: strings are
// quoted, floats always show a fractional part or exponent.
func (s Scalar) String() string {
	switch s.typ {
	case StringScalar:
		return strconv.Quote(s.s)
	case IntScalar:
		return strconv.FormatInt(s.i, 10)
	case FloatScalar:
		return FormatFloat(s.f)
	case BoolScalar:
		return strconv.FormatBool(s.b)
	default:
		return "null"
	}
}

// FormatFloat formats f so that it never reads back as an integer.
func FormatFloat(f float64) string {
	text := strconv.FormatFloat(f, 'g', -1, 64)
	for _, c := range text {
		switch c {
		case '.', 'e', 'E', 'N', 'I':
			return text
		}
	}
	return text + ".0"
}
