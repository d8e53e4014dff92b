package gen

import (
	"fmt"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/prg"
)

// sameFunc applies one function to every attribute of every row.
type sameFunc struct {
	scope *attrs.Scope
	size  int
	fn    Function
	seed  uint64
}

func (g *sameFunc) Command() string {
	if g.fn == FuncRand {
		return fmt.Sprintf("*%d;rand_%d", g.size, g.seed)
	}
	return fmt.Sprintf("*%d;%s", g.size, g.fn)
}

func (g *sameFunc) Size() int           { return g.size }
func (g *sameFunc) Scope() *attrs.Scope { return g.scope }

func (g *sameFunc) Create(progress func(int)) ([]*attrs.Attributes, error) {
	return g.CreateN(0, progress)
}

func (g *sameFunc) CreateN(n int, progress func(int)) ([]*attrs.Attributes, error) {
	var p *prg.PRG
	if g.fn == FuncRand {
		p = prg.New(g.seed)
	}

	ranges := g.scope.Ranges()
	rows := make([]*attrs.Attributes, rowCount(n, g.size))
	for i := range rows {
		a := attrs.New(len(ranges))
		for _, r := range ranges {
			switch g.fn {
			case FuncMin:
				a.Replace(r.ID(), r.Name(), r.Min())
			case FuncMax:
				a.Replace(r.ID(), r.Name(), r.Max())
			case FuncRand:
				a.Replace(r.ID(), r.Name(), r.Rand(p))
			}
		}
		rows[i] = a
		if progress != nil {
			progress(i)
		}
	}
	return rows, nil
}
