package attrs

import (
	"slices"
	"strings"

	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

// Decl declares one attribute of a scope: its name and its domain string.
type Decl struct {
	Name  string `yaml:"name" toml:"name"`
	Range string `yaml:"range" toml:"range"`
}

// Scope is the ordered set of attribute ranges a plugin declares for its
// nodes, edges or parameters. Range ids equal their position in the scope.
//
// A nil *Scope is an empty scope.
type Scope struct {
	ranges []*Range
	byName map[string]*Range
}

// ParseScope parses decls in order, assigning ids 0..len(decls)-1. Invalid
// names, duplicate names and unparsable ranges are configuration errors.
func ParseScope(decls []Decl) (*Scope, error) {
	s := &Scope{
		ranges: make([]*Range, 0, len(decls)),
		byName: make(map[string]*Range, len(decls)),
	}
	for i, d := range decls {
		if err := perrors.ValidateAttrName(d.Name); err != nil {
			return nil, err
		}
		if _, dup := s.byName[d.Name]; dup {
			return nil, perrors.New(perrors.ErrCodeInvalidRange, "attribute %q declared twice", d.Name)
		}
		r := ParseRange(i, d.Name, d.Range)
		if !r.IsValid() {
			return nil, perrors.New(perrors.ErrCodeInvalidRange, "attribute %q: unable to parse range %q", d.Name, d.Range)
		}
		s.ranges = append(s.ranges, r)
		s.byName[d.Name] = r
	}
	return s, nil
}

// MustParseScope is like [ParseScope] but panics on error. It is meant for
// scopes declared in code by built-in plugins.
func MustParseScope(decls ...Decl) *Scope {
	s, err := ParseScope(decls)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of attributes.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ranges)
}

// IsEmpty reports whether the scope declares no attributes.
func (s *Scope) IsEmpty() bool { return s.Len() == 0 }

// Range returns the range with the given id. It panics if id is out of range.
func (s *Scope) Range(id int) *Range { return s.ranges[id] }

// Lookup returns the range named name.
func (s *Scope) Lookup(name string) (*Range, bool) {
	if s == nil {
		return nil, false
	}
	r, ok := s.byName[name]
	return r, ok
}

// Ranges returns the ranges in id order.
func (s *Scope) Ranges() []*Range {
	if s == nil {
		return nil
	}
	return slices.Clone(s.ranges)
}

// Names returns the attribute names in id order.
func (s *Scope) Names() []string {
	names := make([]string, s.Len())
	for i := range names {
		names[i] = s.ranges[i].Name()
	}
	return names
}

// Decls returns the canonical declarations of the scope.
func (s *Scope) Decls() []Decl {
	decls := make([]Decl, s.Len())
	for i := range decls {
		decls[i] = Decl{Name: s.ranges[i].Name(), Range: s.ranges[i].String()}
	}
	return decls
}

// String returns "name=range;name=range" in id order. Equal scopes print
// equal strings.
func (s *Scope) String() string {
	parts := make([]string, s.Len())
	for i, d := range s.Decls() {
		parts[i] = d.Name + "=" + d.Range
	}
	return strings.Join(parts, ";")
}

// Build validates textual values against the scope and returns the resulting
// attributes. Every attribute of the scope must be present in raw and raw must
// not name attributes outside the scope.
func (s *Scope) Build(raw map[string]string) (*Attributes, error) {
	for name := range raw {
		if _, ok := s.Lookup(name); !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidValue, "unknown attribute %q (expected one of %s)",
				name, strings.Join(s.Names(), ", "))
		}
	}

	a := New(s.Len())
	for _, r := range s.Ranges() {
		text, ok := raw[r.Name()]
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidValue, "missing attribute %q", r.Name())
		}
		v := r.Validate(text)
		if !v.IsValid() {
			return nil, perrors.New(perrors.ErrCodeInvalidValue, "attribute %q: %q is not in %s", r.Name(), text, r)
		}
		a.Replace(r.ID(), r.Name(), v)
	}
	return a, nil
}
