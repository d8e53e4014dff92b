package models

import (
	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/value"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

// Nowak registers the spatial prisoner's dilemma.
var Nowak = plugin.ModelPlugin{
	Meta: plugin.Meta{
		ID:    "nowak",
		Title: "Spatial prisoner's dilemma",
		Description: "Each node plays with itself and its neighbours, then copies the strategy of " +
			"the best scorer around it. Strategies: 0 cooperator, 1 defector, 2 new cooperator, 3 new defector.",
		Attrs: []attrs.Decl{{Name: "temptation", Range: "double[1,2]"}},
		NodeAttrs: []attrs.Decl{
			{Name: "strategy", Range: "int{0,1,2,3}"},
			{Name: "score", Range: "double[0,max]"},
		},
	},
	New: func() plugin.Model { return &nowak{} },
}

type nowak struct {
	plugin.Base
	temptation      float64
	strategy, score int
}

func (m *nowak) Init(env plugin.Env) bool {
	m.Setup(env)
	m.temptation = m.Attr("temptation", value.FromDouble(0)).Double()
	m.strategy = nodeAttrID(m.Graph(), "strategy")
	m.score = nodeAttrID(m.Graph(), "score")
	return m.temptation >= 1 && m.temptation <= 2 && m.strategy >= 0 && m.score >= 0
}

// Step never converges.
func (m *nowak) Step() bool {
	g := m.Graph()
	ids := g.NodeIDs()

	for _, id := range ids {
		s := g.NodeAttr(id, m.strategy).Int()
		score := m.payoff(s, s)
		for _, n := range g.Neighbours(id) {
			score += m.payoff(s, g.NodeAttr(n, m.strategy).Int())
		}
		g.SetNodeAttr(id, m.score, value.FromDouble(score))
	}

	best := make([]int, len(ids))
	for i, id := range ids {
		bestStrategy := g.NodeAttr(id, m.strategy).Int()
		highest := g.NodeAttr(id, m.score).Double()
		for _, n := range g.Neighbours(id) {
			if sc := g.NodeAttr(n, m.score).Double(); sc > highest {
				highest = sc
				bestStrategy = g.NodeAttr(n, m.strategy).Int()
			}
		}
		best[i] = binarize(bestStrategy)
	}

	for i, id := range ids {
		s := binarize(g.NodeAttr(id, m.strategy).Int())
		if s != best[i] {
			s = best[i] + 2
		}
		g.SetNodeAttr(id, m.strategy, value.FromInt(s))
	}
	return false
}

func (m *nowak) payoff(x, y int) float64 {
	switch binarize(x)*2 + binarize(y) {
	case 0: // CC
		return 1
	case 2: // DC
		return m.temptation
	default: // CD, DD
		return 0
	}
}

// binarize maps new cooperators and defectors onto 0 and 1.
func binarize(s int) int {
	if s < 2 {
		return s
	}
	return s - 2
}

// CustomOutputs counts the nodes playing each input strategy.
func (m *nowak) CustomOutputs(inputs []value.Value) []value.Value {
	return countMatching(m.Graph(), m.strategy, inputs)
}
