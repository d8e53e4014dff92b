package graphs

import (
	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/graph"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

// link is an edge to be added, by node index.
type link struct{ from, to int }

// builder holds what every built-in shares: the node ids in order and the
// edge attributes drawn once at Init, cloned on every Reset.
type builder struct {
	plugin.Base
	ids       []graph.NodeID
	edgeAttrs []*attrs.Attributes
}

// prepare records the node ids and draws n edge attribute sets.
func (b *builder) prepare(env plugin.Env, n int) bool {
	b.Setup(env)
	b.ids = b.Graph().NodeIDs()
	rows, err := b.EdgeAttrs(n)
	if err != nil {
		b.Logger().Error("unable to create edge attributes", "edges", n, "err", err)
		return false
	}
	b.edgeAttrs = rows
	return true
}

func (b *builder) wire(links []link) {
	g := b.Graph()
	g.RemoveAllEdges()
	for i, l := range links {
		g.AddEdge(b.ids[l.from], b.ids[l.to], b.edgeAttrs[i].Clone())
	}
}
