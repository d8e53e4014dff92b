package models

import (
	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/value"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

// Growth registers the infection growth model.
var Growth = plugin.ModelPlugin{
	Meta: plugin.Meta{
		ID:    "growth",
		Title: "Population growth",
		Description: "Each step a susceptible node meets one random neighbour and, if that " +
			"neighbour is infected, becomes infected with probability prob.",
		Attrs:     []attrs.Decl{{Name: "prob", Range: "double[0,1]"}},
		NodeAttrs: []attrs.Decl{{Name: "infected", Range: "bool"}},
	},
	New: func() plugin.Model { return &growth{} },
}

type growth struct {
	plugin.Base
	prob     float64
	infected int
}

func (m *growth) Init(env plugin.Env) bool {
	m.Setup(env)
	m.prob = m.Attr("prob", value.FromDouble(0)).Double()
	m.infected = nodeAttrID(m.Graph(), "infected")
	return m.infected >= 0
}

// Step converges once every node is infected.
func (m *growth) Step() bool {
	g, p := m.Graph(), m.PRG()
	ids := g.NodeIDs()
	next := make([]bool, len(ids))
	for i, id := range ids {
		if g.NodeAttr(id, m.infected).Bool() {
			next[i] = true
			continue
		}
		n, ok := g.RandNeighbour(id, p)
		if ok && g.NodeAttr(n, m.infected).Bool() {
			next[i] = m.prob > p.Uniform()
		}
	}

	all := true
	for i, id := range ids {
		g.SetNodeAttr(id, m.infected, value.FromBool(next[i]))
		all = all && next[i]
	}
	return all
}

// CustomOutputs counts the nodes whose infected state equals each input.
func (m *growth) CustomOutputs(inputs []value.Value) []value.Value {
	return countMatching(m.Graph(), m.infected, inputs)
}
