package models

import (
	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/value"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

// GameOfLife registers Conway's Game of Life.
var GameOfLife = plugin.ModelPlugin{
	Meta: plugin.Meta{
		ID:          "gameoflife",
		Title:       "Game of Life",
		Description: "Live nodes survive with two or three live neighbours; dead nodes with exactly three come alive.",
		NodeAttrs:   []attrs.Decl{{Name: "live", Range: "bool"}},
		Graphs:      []string{"squaregrid"},
	},
	New: func() plugin.Model { return &gameOfLife{} },
}

type gameOfLife struct {
	plugin.Base
	live int
}

func (m *gameOfLife) Init(env plugin.Env) bool {
	m.Setup(env)
	m.live = nodeAttrID(m.Graph(), "live")
	return m.live >= 0
}

// Step converges once a generation repeats the previous one.
func (m *gameOfLife) Step() bool {
	g := m.Graph()
	ids := g.NodeIDs()
	next := make([]bool, len(ids))
	for i, id := range ids {
		alive := 0
		for _, n := range g.Neighbours(id) {
			if g.NodeAttr(n, m.live).Bool() {
				alive++
			}
		}
		if g.NodeAttr(id, m.live).Bool() {
			next[i] = alive == 2 || alive == 3
		} else {
			next[i] = alive == 3
		}
	}

	stable := true
	for i, id := range ids {
		if g.NodeAttr(id, m.live).Bool() != next[i] {
			stable = false
			g.SetNodeAttr(id, m.live, value.FromBool(next[i]))
		}
	}
	return stable
}

// CustomOutputs counts the nodes whose live state equals each input.
func (m *gameOfLife) CustomOutputs(inputs []value.Value) []value.Value {
	return countMatching(m.Graph(), m.live, inputs)
}
