package attrs

import (
	"fmt"
	"slices"

	"github.com/matzehuels/plexsim/pkg/core/value"
)

// Attributes is an ordered bag of named values indexed by a dense id. The id
// of an attribute is fixed by the [Scope] it was built from and never changes.
//
// Attributes is not safe for concurrent mutation. Graph methods that mutate
// node or edge attributes hold the graph lock.
type Attributes struct {
	names  []string
	values []value.Value
}

// New returns attributes with size slots, all unnamed and invalid.
func New(size int) *Attributes {
	return &Attributes{
		names:  make([]string, size),
		values: make([]value.Value, size),
	}
}

// FromPairs builds attributes from parallel name and value slices. It panics
// if the lengths differ.
func FromPairs(names []string, values []value.Value) *Attributes {
	if len(names) != len(values) {
		panic(fmt.Sprintf("attrs: %d names for %d values", len(names), len(values)))
	}
	return &Attributes{names: slices.Clone(names), values: slices.Clone(values)}
}

// Size returns the number of slots.
func (a *Attributes) Size() int { return len(a.values) }

// IsEmpty reports whether a has no slots.
func (a *Attributes) IsEmpty() bool { return len(a.values) == 0 }

func (a *Attributes) check(id int) {
	if id < 0 || id >= len(a.values) {
		panic(fmt.Sprintf("attrs: id %d out of range [0,%d)", id, len(a.values)))
	}
}

// Replace sets the name and value of slot id. It panics if id is out of range.
func (a *Attributes) Replace(id int, name string, v value.Value) {
	a.check(id)
	a.names[id] = name
	a.values[id] = v
}

// SetValue sets the value of slot id keeping its name. It panics if id is out
// of range.
func (a *Attributes) SetValue(id int, v value.Value) {
	a.check(id)
	a.values[id] = v
}

// Name returns the name of slot id.
func (a *Attributes) Name(id int) string {
	a.check(id)
	return a.names[id]
}

// Value returns the value of slot id.
func (a *Attributes) Value(id int) value.Value {
	a.check(id)
	return a.values[id]
}

// ValueByName returns the value named name, or def if there is none.
func (a *Attributes) ValueByName(name string, def value.Value) value.Value {
	if i := a.IndexOf(name); i >= 0 {
		return a.values[i]
	}
	return def
}

// IndexOf returns the id of name, or -1.
func (a *Attributes) IndexOf(name string) int {
	return slices.Index(a.names, name)
}

// Contains reports whether a has an attribute called name.
func (a *Attributes) Contains(name string) bool {
	return a.IndexOf(name) >= 0
}

// Names returns a copy of the attribute names in id order.
func (a *Attributes) Names() []string { return slices.Clone(a.names) }

// Values returns a copy of the values in id order.
func (a *Attributes) Values() []value.Value { return slices.Clone(a.values) }

// Clone returns a deep copy.
func (a *Attributes) Clone() *Attributes {
	return &Attributes{names: slices.Clone(a.names), values: slices.Clone(a.values)}
}

// Equal reports whether both bags have the same names and equal values.
func (a *Attributes) Equal(o *Attributes) bool {
	if !slices.Equal(a.names, o.names) {
		return false
	}
	return slices.EqualFunc(a.values, o.values, value.Value.Equal)
}
