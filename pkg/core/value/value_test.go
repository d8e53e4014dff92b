package value

import (
	"errors"
	"testing"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"invalid", Invalid(), ""},
		{"bool true", FromBool(true), "1"},
		{"bool false", FromBool(false), "0"},
		{"char", FromChar('a'), "a"},
		{"int", FromInt(-12), "-12"},
		{"double", FromDouble(0.5), "0.5"},
		{"double precision", FromDouble(1.0 / 3.0), "0.33333333"},
		{"double exponent", FromDouble(1e-5), "1e-05"},
		{"string", FromString("hello"), "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueText(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{FromDouble(1.0 / 3.0), "0.3333333333333333"},
		{FromDouble(0.123456789), "0.123456789"},
		{FromDouble(1e-5), "1e-05"},
		{FromBool(true), "1"},
		{FromInt(-4), "-4"},
		{FromString("a b"), "a b"},
	}
	for _, tt := range tests {
		if got := tt.v.Text(); got != tt.want {
			t.Errorf("%#v.Text() = %q, want %q", tt.v, got, tt.want)
		}
		if tt.v.IsDouble() && ParseDouble(tt.v.Text()).Double() != tt.v.Double() {
			t.Errorf("%#v does not survive Text then ParseDouble", tt.v)
		}
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same int", FromInt(3), FromInt(3), true},
		{"different int", FromInt(3), FromInt(4), false},
		{"int vs double", FromInt(1), FromDouble(1), false},
		{"bool vs int", FromBool(true), FromInt(1), false},
		{"fuzzy double", FromDouble(0.1 + 0.2), FromDouble(0.3), true},
		{"different double", FromDouble(0.3), FromDouble(0.31), false},
		{"strings", FromString("a"), FromString("a"), true},
		{"invalid pair", Invalid(), Invalid(), true},
		{"invalid vs int", Invalid(), FromInt(0), false},
		{"chars", FromChar('x'), FromChar('y'), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%#v.Equal(%#v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueOrdering(t *testing.T) {
	if !FromInt(1).Less(FromInt(2)) {
		t.Error("1 < 2 should hold")
	}
	if !FromDouble(2.5).Greater(FromDouble(-1)) {
		t.Error("2.5 > -1 should hold")
	}
	if !FromDouble(0.3).LessEq(FromDouble(0.1 + 0.2)) {
		t.Error("0.3 <= 0.1+0.2 should hold with fuzzy equality")
	}
	if FromDouble(0.3).Less(FromDouble(0.1 + 0.2)) {
		t.Error("0.3 < 0.1+0.2 should not hold with fuzzy equality")
	}
	if !FromString("abc").Less(FromString("abd")) {
		t.Error(`"abc" < "abd" should hold`)
	}
	if !FromBool(true).GreaterEq(FromBool(false)) {
		t.Error("true >= false should hold")
	}
	if FromChar('b').Compare(FromChar('a')) != 1 {
		t.Error("'b' should compare greater than 'a'")
	}
}

func TestValueCompareMismatchPanics(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
	}{
		{"int vs double", FromInt(1), FromDouble(1)},
		{"string vs char", FromString("a"), FromChar('a')},
		{"invalid", Invalid(), Invalid()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrTypeMismatch) {
					t.Fatalf("recover() = %v, want ErrTypeMismatch", r)
				}
			}()
			tt.a.Less(tt.b)
		})
	}
}

func TestValueAccessorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Int() on a double should panic")
		}
	}()
	FromDouble(1).Int()
}

func TestValueKindPredicates(t *testing.T) {
	tests := []struct {
		v                                   Value
		isBool, isChar, isInt, isDbl, isStr bool
	}{
		{FromBool(true), true, false, false, false, false},
		{FromChar('x'), false, true, false, false, false},
		{FromInt(3), false, false, true, false, false},
		{FromDouble(0.5), false, false, false, true, false},
		{FromString("a"), false, false, false, false, true},
		{Value{}, false, false, false, false, false},
	}
	for _, tt := range tests {
		got := [5]bool{tt.v.IsBool(), tt.v.IsChar(), tt.v.IsInt(), tt.v.IsDouble(), tt.v.IsString()}
		want := [5]bool{tt.isBool, tt.isChar, tt.isInt, tt.isDbl, tt.isStr}
		if got != want {
			t.Errorf("%#v: predicates = %v, want %v", tt.v, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		got  Value
		want Value
	}{
		{"int", ParseInt("42"), FromInt(42)},
		{"negative int", ParseInt("-7"), FromInt(-7)},
		{"bad int", ParseInt("4.2"), Invalid()},
		{"empty int", ParseInt(""), Invalid()},
		{"double", ParseDouble("4.25"), FromDouble(4.25)},
		{"double from int text", ParseDouble("4"), FromDouble(4)},
		{"nan", ParseDouble("NaN"), Invalid()},
		{"bad double", ParseDouble("x"), Invalid()},
		{"bool TRUE", ParseBool("TRUE"), FromBool(true)},
		{"bool 0", ParseBool("0"), FromBool(false)},
		{"bool yes", ParseBool("yes"), Invalid()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(tt.want) {
				t.Errorf("got %#v, want %#v", tt.got, tt.want)
			}
		})
	}
}

func TestNumber(t *testing.T) {
	if got := FromInt(3).Number(); got != 3 {
		t.Errorf("Number() = %v, want 3", got)
	}
	if got := FromDouble(1.5).Number(); got != 1.5 {
		t.Errorf("Number() = %v, want 1.5", got)
	}
}

func TestTypeString(t *testing.T) {
	if got := TypeDouble.String(); got != "double" {
		t.Errorf("TypeDouble.String() = %q", got)
	}
	if got := Type(99).String(); got != "unknown" {
		t.Errorf("Type(99).String() = %q", got)
	}
}
