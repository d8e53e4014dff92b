package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrTypeMismatch is the panic value used when two values of different types
// are ordered, or when a value is read as a type it does not hold. Both are
// programming errors: callers must know the type of the attribute they read.
var ErrTypeMismatch = errors.New("value: type mismatch")

// Type identifies the payload held by a [Value].
type Type int

const (
	// TypeInvalid marks a value that failed validation or was never set.
	TypeInvalid Type = iota
	TypeBool
	TypeChar
	TypeInt
	TypeDouble
	TypeString
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeChar:    "char",
	TypeInt:     "int",
	TypeDouble:  "double",
	TypeString:  "string",
}

// String returns the lower-case type name.
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// Value is a tagged scalar: one of bool, char, int, double or string, or
// invalid. Values are immutable and safe to copy.
//
// The zero value is an invalid value.
type Value struct {
	t Type
	i int // bool, char and int payloads
	d float64
	s string
}

// Invalid returns the invalid value.
func Invalid() Value { return Value{} }

// FromBool returns a bool value.
func FromBool(b bool) Value {
	v := Value{t: TypeBool}
	if b {
		v.i = 1
	}
	return v
}

// FromChar returns a char value.
func FromChar(c byte) Value { return Value{t: TypeChar, i: int(c)} }

// FromInt returns an int value.
func FromInt(i int) Value { return Value{t: TypeInt, i: i} }

// FromDouble returns a double value.
func FromDouble(d float64) Value { return Value{t: TypeDouble, d: d} }

// FromString returns a string value.
func FromString(s string) Value { return Value{t: TypeString, s: s} }

// Type returns the payload type.
func (v Value) Type() Type { return v.t }

// IsValid reports whether v holds a payload.
func (v Value) IsValid() bool { return v.t != TypeInvalid }

func (v Value) IsBool() bool   { return v.t == TypeBool }
func (v Value) IsChar() bool   { return v.t == TypeChar }
func (v Value) IsInt() bool    { return v.t == TypeInt }
func (v Value) IsDouble() bool { return v.t == TypeDouble }
func (v Value) IsString() bool { return v.t == TypeString }

func (v Value) must(t Type) {
	if v.t != t {
		panic(fmt.Errorf("%w: read %s from %s value", ErrTypeMismatch, t, v.t))
	}
}

// Bool returns the bool payload. It panics if v is not a bool.
func (v Value) Bool() bool {
	v.must(TypeBool)
	return v.i != 0
}

// Char returns the char payload. It panics if v is not a char.
func (v Value) Char() byte {
	v.must(TypeChar)
	return byte(v.i)
}

// Int returns the int payload. It panics if v is not an int.
func (v Value) Int() int {
	v.must(TypeInt)
	return v.i
}

// Double returns the double payload. It panics if v is not a double.
func (v Value) Double() float64 {
	v.must(TypeDouble)
	return v.d
}

// Str returns the string payload. It panics if v is not a string.
func (v Value) Str() string {
	v.must(TypeString)
	return v.s
}

// Number returns int and double payloads as float64, for models that accept
// either. It panics for any other type.
func (v Value) Number() float64 {
	switch v.t {
	case TypeInt:
		return float64(v.i)
	case TypeDouble:
		return v.d
	}
	panic(fmt.Errorf("%w: %s value is not numeric", ErrTypeMismatch, v.t))
}

// String returns the textual form of v. Bools print as "1" or "0", doubles
// with eight significant digits, and the invalid value as "".
func (v Value) String() string {
	switch v.t {
	case TypeBool, TypeInt:
		return strconv.Itoa(v.i)
	case TypeChar:
		return string(rune(byte(v.i)))
	case TypeDouble:
		return strconv.FormatFloat(v.d, 'g', 8, 64)
	case TypeString:
		return v.s
	}
	return ""
}

// Text returns v in a form that parses back to the same value. It differs
// from String only for doubles, which are written with the fewest digits
// that round-trip exactly.
func (v Value) Text() string {
	if v.t == TypeDouble {
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	}
	return v.String()
}

// GoString makes %#v output readable in test failures.
func (v Value) GoString() string {
	if v.t == TypeString {
		return fmt.Sprintf("value.%s(%q)", v.t, v.s)
	}
	return fmt.Sprintf("value.%s(%s)", v.t, v.String())
}

// Equal reports whether v and o hold the same type and payload. Values of
// different types are never equal; doubles are compared with a relative
// tolerance of 1e-12 on 1+x.
func (v Value) Equal(o Value) bool {
	if v.t != o.t {
		return false
	}
	switch v.t {
	case TypeDouble:
		return fuzzyEqual(v.d, o.d)
	case TypeString:
		return v.s == o.s
	}
	return v.i == o.i
}

// Compare returns -1, 0 or +1 comparing v with o. It panics if the types
// differ or either value is invalid.
func (v Value) Compare(o Value) int {
	if v.t != o.t {
		panic(fmt.Errorf("%w: compare %s with %s", ErrTypeMismatch, v.t, o.t))
	}
	switch v.t {
	case TypeInvalid:
		panic(fmt.Errorf("%w: compare invalid values", ErrTypeMismatch))
	case TypeDouble:
		switch {
		case fuzzyEqual(v.d, o.d):
			return 0
		case v.d < o.d:
			return -1
		}
		return 1
	case TypeString:
		return strings.Compare(v.s, o.s)
	}
	switch {
	case v.i < o.i:
		return -1
	case v.i > o.i:
		return 1
	}
	return 0
}

func (v Value) Less(o Value) bool      { return v.Compare(o) < 0 }
func (v Value) LessEq(o Value) bool    { return v.Compare(o) <= 0 }
func (v Value) Greater(o Value) bool   { return v.Compare(o) > 0 }
func (v Value) GreaterEq(o Value) bool { return v.Compare(o) >= 0 }

func fuzzyEqual(a, b float64) bool {
	p1, p2 := 1+a, 1+b
	return math.Abs(p1-p2)*1e12 <= math.Min(math.Abs(p1), math.Abs(p2))
}

// ParseInt parses a base-10 integer. Malformed input yields the invalid value.
func ParseInt(s string) Value {
	i, err := strconv.Atoi(s)
	if err != nil {
		return Invalid()
	}
	return FromInt(i)
}

// ParseDouble parses a floating point number. Malformed input, NaN and
// infinities yield the invalid value.
func ParseDouble(s string) Value {
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) {
		return Invalid()
	}
	return FromDouble(d)
}

// ParseBool accepts "true"/"1" and "false"/"0", case-insensitively.
func ParseBool(s string) Value {
	switch strings.ToLower(s) {
	case "true", "1":
		return FromBool(true)
	case "false", "0":
		return FromBool(false)
	}
	return Invalid()
}
