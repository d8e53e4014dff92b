package attrs

import (
	"math"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/plexsim/pkg/core/prg"
	"github.com/matzehuels/plexsim/pkg/core/value"
)

// Kind is the concrete domain declared by a [Range].
type Kind int

const (
	// KindInvalid is the domain of a range that failed to parse. Every value
	// fails validation against it.
	KindInvalid Kind = iota

	// Single value domains.
	KindString
	KindNonEmptyString
	KindDirPath
	KindFilePath

	// Interval domains.
	KindBool
	KindIntRange
	KindDoubleRange

	// Set domains.
	KindIntSet
	KindDoubleSet
	KindStringSet
)

var kindNames = map[Kind]string{
	KindInvalid:        "invalid",
	KindString:         "string",
	KindNonEmptyString: "non-empty-string",
	KindDirPath:        "dirpath",
	KindFilePath:       "filepath",
	KindBool:           "bool",
	KindIntRange:       "int-range",
	KindDoubleRange:    "double-range",
	KindIntSet:         "int-set",
	KindDoubleSet:      "double-set",
	KindStringSet:      "string-set",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsSingle reports whether k accepts any value of its type (bool excluded).
func (k Kind) IsSingle() bool { return k >= KindInvalid && k <= KindFilePath }

// IsInterval reports whether k is bounded by a min and a max.
func (k Kind) IsInterval() bool { return k >= KindBool && k <= KindDoubleRange }

// IsSet reports whether k enumerates its legal values.
func (k Kind) IsSet() bool { return k >= KindIntSet && k <= KindStringSet }

// Range is the declared domain of one named attribute. It is immutable once
// parsed and safe for concurrent use.
type Range struct {
	id     int
	name   string
	kind   Kind
	min    value.Value
	max    value.Value
	values []value.Value
	str    string
}

// separators matches spaces around brackets, braces and commas.
var separators = regexp.MustCompile(` *([\[\](){},]) *`)

// ParseRange parses a domain string such as "int[0,10]" or "string{a,b}" for
// the attribute with the given id and name.
//
// ParseRange never fails: unparsable input yields a range of [KindInvalid],
// against which every value fails validation, and a warning is logged.
func ParseRange(id int, name, rangeStr string) *Range {
	s := strings.TrimSpace(separators.ReplaceAllString(rangeStr, "$1"))

	var r *Range
	switch {
	case s == "string":
		r = single(id, name, KindString)
	case s == "non-empty-string":
		r = single(id, name, KindNonEmptyString)
	case s == "dirpath":
		r = single(id, name, KindDirPath)
	case s == "filepath":
		r = single(id, name, KindFilePath)
	case strings.Contains(s, "{") && strings.HasSuffix(s, "}"):
		r = parseSet(id, name, s)
	case s == "bool" || (strings.Contains(s, "[") && strings.HasSuffix(s, "]")):
		r = parseInterval(id, name, s)
	}

	if r == nil {
		logger().Warn("unable to parse attribute range", "attr", name, "range", rangeStr)
		return single(id, name, KindInvalid)
	}
	return r
}

func single(id int, name string, kind Kind) *Range {
	r := &Range{id: id, name: name, kind: kind, min: value.FromString(""), max: value.FromString("")}
	if kind != KindInvalid {
		r.str = kind.String()
	}
	return r
}

func parseSet(id int, name, s string) *Range {
	open := strings.Index(s, "{")
	prefix, body := s[:open], s[open+1:len(s)-1]
	if body == "" || strings.ContainsAny(body, "{}") {
		return nil
	}
	items := strings.Split(body, ",")

	var kind Kind
	var parse func(string) value.Value
	switch prefix {
	case "int":
		kind, parse = KindIntSet, value.ParseInt
	case "double":
		kind, parse = KindDoubleSet, value.ParseDouble
	case "string":
		kind, parse = KindStringSet, value.FromString
	default:
		return nil
	}

	values := make([]value.Value, 0, len(items))
	for _, item := range items {
		v := parse(item)
		if !v.IsValid() {
			return nil
		}
		values = append(values, v)
	}

	r := &Range{
		id:     id,
		name:   name,
		kind:   kind,
		values: values,
		min:    slices.MinFunc(values, value.Value.Compare),
		max:    slices.MaxFunc(values, value.Value.Compare),
	}
	texts := make([]string, len(values))
	for i, v := range values {
		texts[i] = formatBound(v)
	}
	r.str = prefix + "{" + strings.Join(texts, ",") + "}"
	return r
}

func parseInterval(id int, name, s string) *Range {
	if s == "bool" {
		return &Range{id: id, name: name, kind: KindBool,
			min: value.FromBool(false), max: value.FromBool(true), str: "bool"}
	}

	open := strings.Index(s, "[")
	prefix, body := s[:open], s[open+1:len(s)-1]
	bounds := strings.Split(body, ",")
	if len(bounds) != 2 {
		return nil
	}

	var r *Range
	switch prefix {
	case "int":
		r = &Range{kind: KindIntRange, min: value.ParseInt(bounds[0])}
		if bounds[1] == "max" {
			r.max = value.FromInt(math.MaxInt32)
		} else {
			r.max = value.ParseInt(bounds[1])
		}
	case "double":
		r = &Range{kind: KindDoubleRange, min: value.ParseDouble(bounds[0])}
		if bounds[1] == "max" {
			r.max = value.FromDouble(math.MaxFloat64)
		} else {
			r.max = value.ParseDouble(bounds[1])
		}
	default:
		return nil
	}
	if !r.min.IsValid() || !r.max.IsValid() || r.min.Greater(r.max) {
		return nil
	}

	r.id, r.name = id, name
	r.str = prefix + "[" + formatBound(r.min) + "," + formatBound(r.max) + "]"
	return r
}

// formatBound writes numbers exactly, and the type's maximum as "max".
func formatBound(v value.Value) string {
	switch v.Type() {
	case value.TypeInt:
		if v.Int() == math.MaxInt32 {
			return "max"
		}
		return strconv.Itoa(v.Int())
	case value.TypeDouble:
		if v.Double() == math.MaxFloat64 {
			return "max"
		}
	}
	return v.Text()
}

// ID returns the attribute id within its scope.
func (r *Range) ID() int { return r.id }

// Name returns the attribute name.
func (r *Range) Name() string { return r.name }

// Kind returns the domain kind.
func (r *Range) Kind() Kind { return r.kind }

// IsValid reports whether the domain string was parsed successfully.
func (r *Range) IsValid() bool { return r.kind != KindInvalid }

// String returns the canonical domain string; parsing it yields an equal
// range. The invalid range prints as "".
func (r *Range) String() string { return r.str }

// Min returns the lower bound. Sets return their smallest element and single
// value domains the empty string.
func (r *Range) Min() value.Value { return r.min }

// Max returns the upper bound. Sets return their largest element and single
// value domains the empty string.
func (r *Range) Max() value.Value { return r.max }

// Values returns a copy of the elements of a set domain, in declaration order.
func (r *Range) Values() []value.Value { return slices.Clone(r.values) }

// Validate converts s into a value of this domain. It returns the invalid
// value when s is not legal.
func (r *Range) Validate(s string) value.Value {
	if r.kind == KindString {
		return value.FromString(s)
	}
	if s == "" {
		return value.Invalid()
	}

	switch r.kind {
	case KindNonEmptyString:
		return value.FromString(s)
	case KindBool:
		return value.ParseBool(s)
	case KindDirPath:
		if info, err := os.Stat(s); err == nil && info.IsDir() {
			return value.FromString(s)
		}
	case KindFilePath:
		if info, err := os.Stat(s); err == nil && info.Mode().IsRegular() {
			return value.FromString(s)
		}
	case KindIntRange:
		return r.within(value.ParseInt(s))
	case KindDoubleRange:
		return r.within(value.ParseDouble(s))
	case KindIntSet:
		return r.member(value.ParseInt(s))
	case KindDoubleSet:
		return r.member(value.ParseDouble(s))
	case KindStringSet:
		return r.member(value.FromString(s))
	}
	return value.Invalid()
}

func (r *Range) within(v value.Value) value.Value {
	if v.IsValid() && v.GreaterEq(r.min) && v.LessEq(r.max) {
		return v
	}
	return value.Invalid()
}

func (r *Range) member(v value.Value) value.Value {
	if v.IsValid() && slices.ContainsFunc(r.values, v.Equal) {
		return v
	}
	return value.Invalid()
}

// Rand draws a value from the domain. Intervals are drawn uniformly between
// their bounds; sets draw a uniform index. Single value domains return Min.
func (r *Range) Rand(p *prg.PRG) value.Value {
	switch r.kind {
	case KindBool:
		return value.FromBool(p.Bernoulli(0.5))
	case KindIntRange:
		return value.FromInt(p.Int(r.min.Int(), r.max.Int()))
	case KindDoubleRange:
		return value.FromDouble(p.Double(r.min.Double(), r.max.Double()))
	case KindIntSet, KindDoubleSet, KindStringSet:
		return r.values[p.Index(len(r.values))]
	}
	return r.min
}

// Next returns the value following v: the next set element, v+1 for numeric
// intervals, or the negation for bools. It wraps around at the upper end.
// Values outside the domain are returned unchanged.
func (r *Range) Next(v value.Value) value.Value {
	return r.step(v, 1)
}

// Prev is the inverse of [Range.Next].
func (r *Range) Prev(v value.Value) value.Value {
	return r.step(v, -1)
}

func (r *Range) step(v value.Value, dir int) value.Value {
	if !r.IsValid() || v.Type() != r.min.Type() {
		return v
	}
	switch r.kind {
	case KindBool:
		return value.FromBool(!v.Bool())
	case KindIntRange, KindDoubleRange:
		if v.Less(r.min) || v.Greater(r.max) {
			return v
		}
		first, last := r.min, r.max
		if dir < 0 {
			first, last = r.max, r.min
		}
		if v.Equal(last) {
			return first
		}
		if r.kind == KindIntRange {
			return value.FromInt(v.Int() + dir)
		}
		n := value.FromDouble(v.Double() + float64(dir))
		if (dir > 0 && n.Greater(r.max)) || (dir < 0 && n.Less(r.min)) {
			return last
		}
		return n
	case KindIntSet, KindDoubleSet, KindStringSet:
		i := slices.IndexFunc(r.values, v.Equal)
		if i < 0 {
			return v
		}
		n := len(r.values)
		return r.values[((i+dir)%n+n)%n]
	}
	return v
}
