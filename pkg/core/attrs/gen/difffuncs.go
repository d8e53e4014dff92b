package gen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/prg"
	"github.com/matzehuels/plexsim/pkg/core/value"
)

type clause struct {
	rng  *attrs.Range
	fn   Function
	seed uint64
	val  value.Value
}

// diffFuncs applies its own function to each attribute. Clauses keep the
// order they were written in; each random clause draws from its own PRG.
type diffFuncs struct {
	scope   *attrs.Scope
	size    int
	clauses []clause
}

func (g *diffFuncs) Command() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d", g.size)
	for _, c := range g.clauses {
		b.WriteString(";" + c.rng.Name() + "_" + c.fn.String())
		switch c.fn {
		case FuncRand:
			b.WriteString("_" + strconv.FormatUint(c.seed, 10))
		case FuncValue:
			b.WriteString("_" + c.val.Text())
		}
	}
	return b.String()
}

func (g *diffFuncs) Size() int           { return g.size }
func (g *diffFuncs) Scope() *attrs.Scope { return g.scope }

func (g *diffFuncs) Create(progress func(int)) ([]*attrs.Attributes, error) {
	return g.CreateN(0, progress)
}

func (g *diffFuncs) CreateN(n int, progress func(int)) ([]*attrs.Attributes, error) {
	rows := make([]*attrs.Attributes, rowCount(n, g.size))
	for i := range rows {
		rows[i] = attrs.New(g.scope.Len())
	}

	for _, c := range g.clauses {
		var next func() value.Value
		switch c.fn {
		case FuncMin:
			next = c.rng.Min
		case FuncMax:
			next = c.rng.Max
		case FuncRand:
			p := prg.New(c.seed)
			next = func() value.Value { return c.rng.Rand(p) }
		case FuncValue:
			next = func() value.Value { return c.val }
		}
		for _, a := range rows {
			a.Replace(c.rng.ID(), c.rng.Name(), next())
		}
	}

	if progress != nil {
		for i := range rows {
			progress(i)
		}
	}
	return rows, nil
}
