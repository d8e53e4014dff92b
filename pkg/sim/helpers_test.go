package sim

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/graph"
	"github.com/matzehuels/plexsim/pkg/core/prg"
	"github.com/matzehuels/plexsim/pkg/core/value"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

var quiet = log.New(io.Discard)

// stepModel counts its steps. It converges at convergeAt and panics at
// panicAt when those are positive. With a gate, every step first waits for
// the gate to be closed.
type stepModel struct {
	plugin.Base
	steps      atomic.Int64
	convergeAt int
	panicAt    int
	gate       chan struct{}
	inFlight   *atomic.Int64
	maxFlight  *atomic.Int64
}

func (m *stepModel) Init(env plugin.Env) bool {
	m.Setup(env)
	return true
}

func (m *stepModel) Step() bool {
	if m.inFlight != nil {
		n := m.inFlight.Add(1)
		defer m.inFlight.Add(-1)
		for {
			old := m.maxFlight.Load()
			if n <= old || m.maxFlight.CompareAndSwap(old, n) {
				break
			}
		}
	}
	if m.gate != nil {
		<-m.gate
	}
	n := int(m.steps.Add(1))
	if m.panicAt > 0 && n == m.panicAt {
		panic("step failed")
	}
	return m.convergeAt > 0 && n >= m.convergeAt
}

func (m *stepModel) CustomOutputs([]value.Value) []value.Value { return nil }

func setupWith(m *stepModel) Setup {
	return func(p *prg.PRG) (*graph.Graph, plugin.Model, error) {
		g := graph.New(graph.Undirected)
		g.AddNode(attrs.New(0), 0, 0)
		m.Init(plugin.Env{Graph: g, PRG: p, Logger: quiet})
		return g, m, nil
	}
}

func failingSetup(*prg.PRG) (*graph.Graph, plugin.Model, error) {
	return nil, nil, errors.New("no graph for you")
}

func counting(inner Setup, calls *int) Setup {
	return func(p *prg.PRG) (*graph.Graph, plugin.Model, error) {
		*calls++
		return inner(p)
	}
}
