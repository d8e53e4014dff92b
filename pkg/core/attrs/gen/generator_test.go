package gen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	gopterGen "github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/value"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

func nowakScope() *attrs.Scope {
	return attrs.MustParseScope(
		attrs.Decl{Name: "strategy", Range: "int{0,1}"},
		attrs.Decl{Name: "score", Range: "double[0,100]"},
		attrs.Decl{Name: "live", Range: "bool"},
	)
}

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		cmd  string
		want string
		size int
	}{
		{"5", "*5;min", 5},
		{"*5;min", "*5;min", 5},
		{"*2;max", "*2;max", 2},
		{"*3;rand_42", "*3;rand_42", 3},
		{"*min", "*1;min", 1},
		{"*rand_0", "*1;rand_0", 1},
		{"#4;strategy_min;score_max;live_rand_9", "#4;strategy_min;score_max;live_rand_9", 4},
		{"#2;live_value_true;strategy_value_1;score_value_2.5", "#2;live_value_1;strategy_value_1;score_value_2.5", 2},
		{"#1;live_value_false;strategy_max;score_min", "#1;live_value_0;strategy_max;score_min", 1},
		{"#strategy_min;score_min;live_min", "#1;strategy_min;score_min;live_min", 1},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			g, err := Parse(nowakScope(), tt.cmd)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if got := g.Command(); got != tt.want {
				t.Errorf("Command() = %q, want %q", got, tt.want)
			}
			if g.Size() != tt.size {
				t.Errorf("Size() = %d, want %d", g.Size(), tt.size)
			}
			again, err := Parse(nowakScope(), g.Command())
			if err != nil {
				t.Fatalf("re-parse error: %v", err)
			}
			if again.Command() != g.Command() {
				t.Errorf("re-parse Command() = %q, want %q", again.Command(), g.Command())
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
	}{
		{"zero size", "*0;min"},
		{"negative bare", "-3"},
		{"zero bare", "0"},
		{"no function", "*3"},
		{"unknown function", "*3;median"},
		{"two functions", "*3;min;max"},
		{"value for star", "*3;value_1"},
		{"negative seed", "*3;rand_-1"},
		{"minus zero seed", "*3;rand_-0"},
		{"leading zero seed", "*3;rand_01"},
		{"missing seed", "*3;rand"},
		{"min with input", "*3;min_4"},
		{"missing attribute", "#3;strategy_min;score_min"},
		{"unknown attribute", "#3;strategy_min;score_min;age_min"},
		{"repeated attribute", "#3;strategy_min;strategy_max;score_min"},
		{"bad function", "#3;strategy_mean;score_min;live_min"},
		{"no function", "#3;strategy;score_min;live_min"},
		{"value outside set", "#3;strategy_value_2;score_min;live_min"},
		{"value outside interval", "#3;strategy_min;score_value_101;live_min"},
		{"bad hash seed", "#3;strategy_rand_01;score_min;live_min"},
		{"not a command", "hello"},
		{"missing file", "/does/not/exist.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(nowakScope(), tt.cmd)
			if g != nil {
				t.Error("generator should be nil on error")
			}
			if !perrors.Is(err, perrors.ErrCodeInvalidCommand) {
				t.Errorf("Parse(%q) error = %v, want INVALID_COMMAND", tt.cmd, err)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(nowakScope(), "")
	if !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("error = %v, want ErrEmptyCommand", err)
	}
}

func TestParseHashEmptyScope(t *testing.T) {
	if _, err := Parse(nil, "#3;a_min"); err == nil {
		t.Error("expected error for '#' with an empty scope")
	}
	g, err := Parse(nil, "*3;min")
	if err != nil {
		t.Fatalf("'*' with an empty scope: %v", err)
	}
	rows, _ := g.Create(nil)
	if len(rows) != 3 || rows[0].Size() != 0 {
		t.Errorf("rows = %d (size %d), want 3 empty rows", len(rows), rows[0].Size())
	}
}

func TestCreateMinMax(t *testing.T) {
	scope := nowakScope()
	for _, tt := range []struct {
		cmd  string
		want []value.Value
	}{
		{"*2;min", []value.Value{value.FromInt(0), value.FromDouble(0), value.FromBool(false)}},
		{"*2;max", []value.Value{value.FromInt(1), value.FromDouble(100), value.FromBool(true)}},
		{"#2;score_value_7;live_max;strategy_min", []value.Value{value.FromInt(0), value.FromDouble(7), value.FromBool(true)}},
	} {
		g, err := Parse(scope, tt.cmd)
		if err != nil {
			t.Fatal(err)
		}
		rows, err := g.Create(nil)
		if err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			for id, want := range tt.want {
				if got := row.Value(id); !got.Equal(want) {
					t.Errorf("%s row %d attr %d = %#v, want %#v", tt.cmd, i, id, got, want)
				}
				if row.Name(id) != scope.Range(id).Name() {
					t.Errorf("%s row %d attr %d name = %q", tt.cmd, i, id, row.Name(id))
				}
			}
		}
	}
}

func TestCreateIsDeterministic(t *testing.T) {
	for _, cmd := range []string{"*3;rand_42", "#6;strategy_rand_1;score_rand_2;live_rand_3"} {
		g, err := Parse(nowakScope(), cmd)
		if err != nil {
			t.Fatal(err)
		}
		a, _ := g.Create(nil)
		b, _ := g.Create(nil)
		other, _ := Parse(nowakScope(), cmd)
		c, _ := other.Create(nil)
		for i := range a {
			if !a[i].Equal(b[i]) || !a[i].Equal(c[i]) {
				t.Errorf("%s: row %d differs between calls", cmd, i)
			}
		}
	}
}

func TestCreateRandInRange(t *testing.T) {
	scope := nowakScope()
	g, _ := Parse(scope, "*200;rand_5")
	rows, _ := g.Create(nil)
	for i, row := range rows {
		for _, r := range scope.Ranges() {
			if !r.Validate(row.Value(r.ID()).Text()).IsValid() {
				t.Fatalf("row %d: %s = %v is outside %s", i, r.Name(), row.Value(r.ID()), r)
			}
		}
	}
}

func TestCreateNAndProgress(t *testing.T) {
	g, _ := Parse(nowakScope(), "*3;max")

	var seen []int
	rows, err := g.CreateN(7, func(i int) { seen = append(seen, i) })
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 7 {
		t.Errorf("CreateN(7) = %d rows", len(rows))
	}
	if len(seen) != 7 || seen[6] != 6 {
		t.Errorf("progress = %v, want 0..6", seen)
	}

	rows, _ = g.CreateN(0, nil)
	if len(rows) != 3 {
		t.Errorf("CreateN(0) = %d rows, want Size()", len(rows))
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pop.csv")
	data := "live,strategy,score,x,y\ntrue,1,3.5,0,0\n0,0,0,1,2\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := Parse(nowakScope(), path)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if g.Command() != path || g.Size() != 2 {
		t.Errorf("Command/Size = %q/%d", g.Command(), g.Size())
	}

	rows, err := g.Create(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := rows[0].Value(2); !got.Equal(value.FromBool(true)) {
		t.Errorf("live = %#v, want true", got)
	}

	pos, ok := g.(Positioned)
	if !ok {
		t.Fatal("file generator should be Positioned")
	}
	if pts := pos.Points(); len(pts) != 2 || pts[1] != (Point{X: 1, Y: 2}) {
		t.Errorf("Points() = %v", pts)
	}

	if _, err := g.CreateN(3, nil); err == nil {
		t.Error("CreateN past the end of the file should fail")
	}
}

func TestFromFileAllOrNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pop.csv")
	data := "live,strategy,score\n1,1,3\n1,5,3\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := Parse(nowakScope(), path)
	if g != nil || !perrors.Is(err, perrors.ErrCodeInvalidValue) {
		t.Errorf("Parse() = %v, %v; want nil and INVALID_VALUE", g, err)
	}
}

func TestCommandRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	scope := nowakScope()

	clauseGen := func(name string, literals ...string) gopter.Gen {
		consts := make([]interface{}, len(literals))
		for i, l := range literals {
			consts[i] = l
		}
		return gopterGen.OneGenOf(
			gopterGen.Const(name+"_min"),
			gopterGen.Const(name+"_max"),
			gopterGen.IntRange(0, 1<<30).Map(func(s int) string { return fmt.Sprintf("%s_rand_%d", name, s) }),
			gopterGen.OneConstOf(consts...).Map(func(l string) string { return name + "_value_" + l }),
		)
	}

	properties.Property("'#' commands re-parse to themselves", prop.ForAll(
		func(size int, s, sc, l string) bool {
			g, err := Parse(scope, fmt.Sprintf("#%d;%s;%s;%s", size, l, s, sc))
			if err != nil {
				return false
			}
			again, err := Parse(scope, g.Command())
			return err == nil && again.Command() == g.Command()
		},
		gopterGen.IntRange(1, 10000),
		clauseGen("strategy", "0", "1"),
		clauseGen("score", "0.5", "99", "0.123456789", "12.3456789012345"),
		clauseGen("live", "true", "0"),
	))

	properties.Property("'*' commands re-parse to themselves", prop.ForAll(
		func(size int, seed int) bool {
			cmd := fmt.Sprintf("*%d;rand_%d", size, seed)
			g, err := Parse(scope, cmd)
			return err == nil && g.Command() == cmd
		},
		gopterGen.IntRange(1, 10000),
		gopterGen.IntRange(0, 1<<30),
	))

	properties.TestingRun(t)
}

func TestValueCommandKeepsDoublePrecision(t *testing.T) {
	tests := []struct {
		name   string
		domain string
	}{
		{"set", "double{0.123456789,1}"},
		{"interval", "double[0,0.123456789]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := attrs.MustParseScope(attrs.Decl{Name: "w", Range: tt.domain})
			g, err := Parse(scope, "#2;w_value_0.123456789")
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if got, want := g.Command(), "#2;w_value_0.123456789"; got != want {
				t.Errorf("Command() = %q, want %q", got, want)
			}
			again, err := Parse(scope, g.Command())
			if err != nil {
				t.Fatalf("re-parse %q: %v", g.Command(), err)
			}
			rows, err := again.Create(nil)
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			if got := rows[1].Value(0).Double(); got != 0.123456789 {
				t.Errorf("value = %v, want 0.123456789", got)
			}
		})
	}
}

func ExampleParse() {
	scope := attrs.MustParseScope(attrs.Decl{Name: "live", Range: "bool"})

	g, _ := Parse(scope, "#2;live_value_true")
	rows, _ := g.Create(nil)
	fmt.Println(g.Command(), rows[0].Value(0), rows[1].Value(0))

	g, _ = Parse(scope, "3")
	fmt.Println(g.Command())
	// Output:
	// #2;live_value_1 1 1
	// *3;min
}
