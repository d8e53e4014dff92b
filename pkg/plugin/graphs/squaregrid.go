package graphs

import (
	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/graph"
	"github.com/matzehuels/plexsim/pkg/core/value"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

// SquareGrid registers the square lattice builder.
var SquareGrid = plugin.GraphPlugin{
	Meta: plugin.Meta{
		ID:          "squaregrid",
		Title:       "Square grid",
		Description: "A width x height lattice; node i sits at column i%width of row i/width.",
		Attrs: []attrs.Decl{
			{Name: "width", Range: "int[1,max]"},
			{Name: "height", Range: "int[1,max]"},
			{Name: "neighbours", Range: "int{4,8}"},
			{Name: "periodic", Range: "bool"},
		},
	},
	New: func() plugin.GraphBuilder { return &squareGrid{} },
}

type offset struct{ row, col int }

var (
	// Undirected grids only look back; the mirror records cover the rest.
	undirected4 = []offset{{-1, 0}, {0, -1}}
	directed4   = []offset{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}
	undirected8 = []offset{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}}
	directed8   = []offset{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

type squareGrid struct {
	builder
	width, height int
	periodic      bool
	links         []link
}

func (s *squareGrid) Init(env plugin.Env) bool {
	params := env.Attrs
	if params == nil || params.IndexOf("width") < 0 || params.IndexOf("height") < 0 ||
		params.IndexOf("neighbours") < 0 || params.IndexOf("periodic") < 0 {
		s.Setup(env)
		s.Logger().Error("squaregrid: missing attributes")
		return false
	}

	s.width = params.ValueByName("width", value.Invalid()).Int()
	s.height = params.ValueByName("height", value.Invalid()).Int()
	s.periodic = params.ValueByName("periodic", value.Invalid()).Bool()
	if n := env.Graph.NumNodes(); n != s.width*s.height {
		s.Setup(env)
		s.Logger().Error("squaregrid: the number of nodes must equal width*height",
			"nodes", n, "width", s.width, "height", s.height)
		return false
	}

	offsets := undirected4
	switch neighbours, directed := params.ValueByName("neighbours", value.Invalid()).Int(), env.Graph.Kind() == graph.Directed; {
	case neighbours == 4 && directed:
		offsets = directed4
	case neighbours == 8 && directed:
		offsets = directed8
	case neighbours == 8:
		offsets = undirected8
	}
	s.links = s.plan(offsets)
	return s.prepare(env, len(s.links))
}

func (s *squareGrid) plan(offsets []offset) []link {
	var links []link
	for id := 0; id < s.width*s.height; id++ {
		row, col := id/s.width, id%s.width
		for _, o := range offsets {
			r, c := row+o.row, col+o.col
			if s.periodic {
				r = (r + s.height) % s.height
				c = (c + s.width) % s.width
			} else if r < 0 || r >= s.height || c < 0 || c >= s.width {
				continue
			}
			links = append(links, link{from: id, to: r*s.width + c})
		}
	}
	return links
}

func (s *squareGrid) Reset() {
	g := s.Graph()
	for i, id := range s.ids {
		g.SetCoords(id, float64(i%s.width), float64(i/s.width))
	}
	s.wire(s.links)
}
