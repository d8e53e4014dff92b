package gen

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

// ErrEmptyCommand is the cause of the error returned by [Parse] for an empty
// command.
var ErrEmptyCommand = errors.New("gen: empty command")

// Generator produces sets of attributes for one scope.
type Generator interface {
	// Command returns the canonical command that reconstructs the generator.
	Command() string
	// Size is the number of rows Create produces.
	Size() int
	Scope() *attrs.Scope
	// Create produces Size rows, calling progress (if non-nil) with the
	// index of each row once it is built.
	Create(progress func(done int)) ([]*attrs.Attributes, error)
	// CreateN is like Create but produces n rows when n >= 1.
	CreateN(n int, progress func(done int)) ([]*attrs.Attributes, error)
}

// Point is the position of a row in the plane.
type Point struct {
	X, Y float64
}

// Positioned is implemented by generators whose rows carry coordinates.
// Points returns nil when the source had none.
type Positioned interface {
	Generator
	Points() []Point
}

// Function is a per-attribute value function.
type Function int

const (
	FuncInvalid Function = iota
	FuncMin
	FuncMax
	FuncRand
	FuncValue
)

var funcNames = map[Function]string{
	FuncMin:   "min",
	FuncMax:   "max",
	FuncRand:  "rand",
	FuncValue: "value",
}

func (f Function) String() string {
	if s, ok := funcNames[f]; ok {
		return s
	}
	return "invalid"
}

func parseFunction(s string) Function {
	for f, name := range funcNames {
		if name == s {
			return f
		}
	}
	return FuncInvalid
}

// Parse builds a generator for scope from cmd. On failure it returns a nil
// generator and an error with code [perrors.ErrCodeInvalidCommand] (or the
// import error of a population file).
func Parse(scope *attrs.Scope, cmd string) (Generator, error) {
	if cmd == "" {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidCommand, ErrEmptyCommand, "unable to parse generator command")
	}

	if n, err := strconv.Atoi(cmd); err == nil {
		if n < 1 {
			return nil, invalid(cmd, "the size must be at least 1")
		}
		return &sameFunc{scope: scope, size: n, fn: FuncMin}, nil
	}

	switch cmd[0] {
	case '*', '#':
	default:
		if st, err := os.Stat(cmd); err == nil && st.Mode().IsRegular() {
			return parseFile(scope, cmd)
		}
		return nil, invalid(cmd, "expected a file path, '*' or '#'")
	}

	clauses := strings.Split(cmd[1:], ";")
	size, err := strconv.Atoi(clauses[0])
	if err == nil {
		if size < 1 {
			return nil, invalid(cmd, "the size must be at least 1")
		}
		clauses = clauses[1:]
	} else {
		size = 1
	}

	if cmd[0] == '*' {
		return parseStar(scope, cmd, size, clauses)
	}
	return parseHash(scope, cmd, size, clauses)
}

func parseStar(scope *attrs.Scope, cmd string, size int, clauses []string) (Generator, error) {
	if len(clauses) != 1 {
		return nil, invalid(cmd, "it should look like '*integer;min|max|rand_seed'")
	}

	g := &sameFunc{scope: scope, size: size}
	name, input, hasInput := strings.Cut(clauses[0], "_")
	switch g.fn = parseFunction(name); g.fn {
	case FuncMin, FuncMax:
		if hasInput {
			return nil, invalid(cmd, "%s takes no input", name)
		}
	case FuncRand:
		seed, ok := parseSeed(input)
		if !ok {
			return nil, invalid(cmd, "the seed of rand must be a non-negative integer")
		}
		g.seed = seed
	default:
		return nil, invalid(cmd, "it should look like '*integer;min|max|rand_seed'")
	}
	return g, nil
}

func parseHash(scope *attrs.Scope, cmd string, size int, clauses []string) (Generator, error) {
	if scope.IsEmpty() {
		return nil, invalid(cmd, "'#' needs a scope with at least one attribute")
	}
	if len(clauses) != scope.Len() {
		return nil, invalid(cmd, "it must contain one clause for each attribute (%s)", strings.Join(scope.Names(), ", "))
	}

	g := &diffFuncs{scope: scope, size: size, clauses: make([]clause, 0, len(clauses))}
	seen := make(map[string]bool, len(clauses))
	for _, c := range clauses {
		parts := strings.SplitN(c, "_", 3)
		rng, ok := scope.Lookup(parts[0])
		if !ok {
			return nil, invalid(cmd, "the attribute %q does not belong to the scope", parts[0])
		}
		if seen[parts[0]] {
			return nil, invalid(cmd, "the attribute %q appears twice", parts[0])
		}
		seen[parts[0]] = true
		if len(parts) < 2 {
			return nil, invalid(cmd, "missing function for attribute %q", parts[0])
		}

		cl := clause{rng: rng, fn: parseFunction(parts[1])}
		switch cl.fn {
		case FuncMin, FuncMax:
			if len(parts) == 3 {
				return nil, invalid(cmd, "%s takes no input", parts[1])
			}
		case FuncRand:
			if len(parts) < 3 {
				return nil, invalid(cmd, "missing seed for attribute %q", parts[0])
			}
			seed, ok := parseSeed(parts[2])
			if !ok {
				return nil, invalid(cmd, "the seed of rand must be a non-negative integer")
			}
			cl.seed = seed
		case FuncValue:
			if len(parts) < 3 {
				return nil, invalid(cmd, "missing value for attribute %q", parts[0])
			}
			cl.val = rng.Validate(parts[2])
			if !cl.val.IsValid() {
				return nil, invalid(cmd, "%q is not in %s", parts[2], rng)
			}
		default:
			return nil, invalid(cmd, "the function %q is invalid", parts[1])
		}
		g.clauses = append(g.clauses, cl)
	}
	return g, nil
}

// parseSeed accepts canonical non-negative integers only, rejecting forms
// such as "-0" and "01".
func parseSeed(s string) (uint64, bool) {
	seed, err := strconv.Atoi(s)
	if err != nil || seed < 0 || strconv.Itoa(seed) != s {
		return 0, false
	}
	return uint64(seed), true
}

func invalid(cmd, format string, args ...any) error {
	return perrors.New(perrors.ErrCodeInvalidCommand, "unable to parse %q: "+format, append([]any{cmd}, args...)...)
}

func rowCount(n, size int) int {
	if n < 1 {
		return size
	}
	return n
}
