package attrs

import (
	"testing"

	"github.com/matzehuels/plexsim/pkg/core/value"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

func TestParseScope(t *testing.T) {
	s, err := ParseScope([]Decl{
		{Name: "strategy", Range: "int{0,1}"},
		{Name: "score", Range: "double[0, max]"},
	})
	if err != nil {
		t.Fatalf("ParseScope() error: %v", err)
	}

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	r, ok := s.Lookup("score")
	if !ok || r.ID() != 1 {
		t.Fatalf("Lookup(score) = %v, %v; want id 1", r, ok)
	}
	if got := s.String(); got != "strategy=int{0,1};score=double[0,max]" {
		t.Errorf("String() = %q", got)
	}
	if names := s.Names(); len(names) != 2 || names[0] != "strategy" {
		t.Errorf("Names() = %v", names)
	}
}

func TestParseScopeErrors(t *testing.T) {
	tests := []struct {
		name  string
		decls []Decl
	}{
		{"bad range", []Decl{{Name: "a", Range: "int[5,1]"}}},
		{"duplicate", []Decl{{Name: "a", Range: "bool"}, {Name: "a", Range: "bool"}}},
		{"bad name", []Decl{{Name: "a_b", Range: "bool"}}},
		{"empty name", []Decl{{Name: "", Range: "bool"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScope(tt.decls)
			if err == nil {
				t.Fatal("expected error")
			}
			if s != nil {
				t.Error("scope should be nil on error")
			}
		})
	}
}

func TestNilScope(t *testing.T) {
	var s *Scope
	if s.Len() != 0 || !s.IsEmpty() {
		t.Error("nil scope should be empty")
	}
	if _, ok := s.Lookup("x"); ok {
		t.Error("nil scope should not find anything")
	}
	if s.String() != "" {
		t.Errorf("String() = %q, want empty", s.String())
	}
}

func TestScopeBuild(t *testing.T) {
	s := MustParseScope(Decl{"width", "int[1,100]"}, Decl{"periodic", "bool"})

	a, err := s.Build(map[string]string{"width": "10", "periodic": "true"})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := a.Value(0); !got.Equal(value.FromInt(10)) {
		t.Errorf("width = %#v, want 10", got)
	}
	if got := a.Name(1); got != "periodic" {
		t.Errorf("Name(1) = %q, want periodic", got)
	}

	tests := []struct {
		name string
		raw  map[string]string
	}{
		{"missing", map[string]string{"width": "10"}},
		{"unknown", map[string]string{"width": "10", "periodic": "1", "height": "3"}},
		{"out of range", map[string]string{"width": "0", "periodic": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Build(tt.raw)
			if !perrors.Is(err, perrors.ErrCodeInvalidValue) {
				t.Errorf("Build() error = %v, want INVALID_VALUE", err)
			}
		})
	}
}

func TestMustParseScopePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustParseScope(Decl{"x", "nonsense"})
}
