package graph

import "github.com/matzehuels/plexsim/pkg/core/attrs"

// Entity is one member of a population: a node's attributes and position
// before it joins a graph.
type Entity struct {
	Attrs *attrs.Attributes
	X, Y  float64
}

// Population is an ordered node set. The index of an entity becomes its
// node id in [FromPopulation].
type Population []Entity

// NewPopulation wraps generated attribute sets as entities at the origin.
func NewPopulation(rows []*attrs.Attributes) Population {
	pop := make(Population, len(rows))
	for i, a := range rows {
		pop[i] = Entity{Attrs: a}
	}
	return pop
}

// Clone returns a deep copy; attributes are cloned.
func (p Population) Clone() Population {
	out := make(Population, len(p))
	for i, e := range p {
		out[i] = Entity{Attrs: e.Attrs.Clone(), X: e.X, Y: e.Y}
	}
	return out
}

// FromPopulation builds an edgeless graph holding pop. Entity i becomes node
// i. The graph takes ownership of the attributes.
func FromPopulation(kind Kind, pop Population) *Graph {
	g := New(kind)
	for _, e := range pop {
		g.AddNode(e.Attrs, e.X, e.Y)
	}
	return g
}

// Population returns a deep copy of the graph's nodes in id order.
func (g *Graph) Population() Population {
	nodes := g.Nodes()
	pop := make(Population, len(nodes))
	for i, n := range nodes {
		pop[i] = Entity{Attrs: n.Attrs.Clone(), X: n.X, Y: n.Y}
	}
	return pop
}
