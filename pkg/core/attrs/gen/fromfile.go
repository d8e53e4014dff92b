package gen

import (
	"github.com/matzehuels/plexsim/pkg/core/attrs"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
	pkgio "github.com/matzehuels/plexsim/pkg/io"
)

// fromFile serves the rows of a population CSV file. The file is read and
// validated once, when the command is parsed.
type fromFile struct {
	scope *attrs.Scope
	path  string
	table *pkgio.Table
}

func parseFile(scope *attrs.Scope, path string) (Generator, error) {
	t, err := pkgio.ImportCSV(path, scope)
	if err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidCommand, "unable to parse %q: the file has no rows", path)
	}
	return &fromFile{scope: scope, path: path, table: t}, nil
}

func (g *fromFile) Command() string     { return g.path }
func (g *fromFile) Size() int           { return len(g.table.Rows) }
func (g *fromFile) Scope() *attrs.Scope { return g.scope }

func (g *fromFile) Points() []Point {
	if !g.table.HasCoords {
		return nil
	}
	pts := make([]Point, len(g.table.Rows))
	for i, r := range g.table.Rows {
		pts[i] = Point{X: r.X, Y: r.Y}
	}
	return pts
}

func (g *fromFile) Create(progress func(int)) ([]*attrs.Attributes, error) {
	return g.CreateN(0, progress)
}

// CreateN returns the first n rows of the file. Asking for more rows than
// the file holds is an error.
func (g *fromFile) CreateN(n int, progress func(int)) ([]*attrs.Attributes, error) {
	n = rowCount(n, g.Size())
	if n > g.Size() {
		return nil, perrors.New(perrors.ErrCodeInvalidValue, "%s: %d rows requested, file has %d", g.path, n, g.Size())
	}
	rows := make([]*attrs.Attributes, n)
	for i := range rows {
		rows[i] = g.table.Rows[i].Attrs.Clone()
		if progress != nil {
			progress(i)
		}
	}
	return rows, nil
}
