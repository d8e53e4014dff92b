package models

import (
	"github.com/matzehuels/plexsim/pkg/core/graph"
	"github.com/matzehuels/plexsim/pkg/core/value"
)

// countMatching returns, for each input, how many nodes hold an equal value
// in attribute attrID.
func countMatching(g *graph.Graph, attrID int, inputs []value.Value) []value.Value {
	counts := make([]int, len(inputs))
	for _, n := range g.Nodes() {
		v := n.Attrs.Value(attrID)
		for i, in := range inputs {
			if v.Equal(in) {
				counts[i]++
			}
		}
	}
	out := make([]value.Value, len(inputs))
	for i, c := range counts {
		out[i] = value.FromInt(c)
	}
	return out
}

// nodeAttrID finds the id of a node attribute by looking at the first node.
// It returns -1 on an empty graph or a missing attribute.
func nodeAttrID(g *graph.Graph, name string) int {
	ids := g.NodeIDs()
	if len(ids) == 0 {
		return -1
	}
	return g.Node(ids[0]).Attrs.IndexOf(name)
}
