package plugin

import (
	"errors"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/attrs/gen"
	"github.com/matzehuels/plexsim/pkg/core/graph"
	"github.com/matzehuels/plexsim/pkg/core/prg"
	"github.com/matzehuels/plexsim/pkg/core/value"
)

// ErrReused is the panic value when a plugin instance is initialised twice.
var ErrReused = errors.New("plugin: instance already initialised")

// Env is what a plugin instance sees of its trial.
type Env struct {
	Graph *graph.Graph
	PRG   *prg.PRG
	// Attrs are the plugin's own parameters, validated against its scope.
	Attrs *attrs.Attributes
	// EdgeGen produces edge attributes for graph builders. It may be nil,
	// in which case edges carry no attributes.
	EdgeGen gen.Generator
	Logger  *log.Logger
}

// Model advances a simulation by one step.
type Model interface {
	// Init prepares the model and reports whether it can run.
	Init(env Env) bool
	// Step runs one step and returns true once the model has converged.
	Step() bool
	// CustomOutputs computes model-specific statistics for the given inputs.
	CustomOutputs(inputs []value.Value) []value.Value
}

// GraphBuilder wires the edges of a graph whose nodes are already in place.
type GraphBuilder interface {
	// Init reads parameters and reports whether the graph can be built.
	Init(env Env) bool
	// Reset removes every edge and builds the topology again.
	Reset()
}

// Base holds the environment of a plugin instance. Plugins embed it and
// call Setup from Init; a second Setup panics with [ErrReused].
type Base struct {
	env  Env
	used atomic.Bool
}

// Setup records env. It panics if the instance was set up before.
func (b *Base) Setup(env Env) {
	if b.used.Swap(true) {
		panic(ErrReused)
	}
	if env.Logger == nil {
		env.Logger = log.Default()
	}
	if env.Attrs == nil {
		env.Attrs = attrs.New(0)
	}
	b.env = env
}

func (b *Base) Graph() *graph.Graph      { return b.env.Graph }
func (b *Base) PRG() *prg.PRG            { return b.env.PRG }
func (b *Base) Attrs() *attrs.Attributes { return b.env.Attrs }
func (b *Base) EdgeGen() gen.Generator   { return b.env.EdgeGen }
func (b *Base) Logger() *log.Logger      { return b.env.Logger }

// Attr returns the parameter named name, or def when it is absent.
func (b *Base) Attr(name string, def value.Value) value.Value {
	return b.env.Attrs.ValueByName(name, def)
}

// EdgeAttrs returns n attribute sets for new edges, drawn from the edge
// generator or empty when there is none.
func (b *Base) EdgeAttrs(n int) ([]*attrs.Attributes, error) {
	if b.env.EdgeGen != nil && n > 0 {
		return b.env.EdgeGen.CreateN(n, nil)
	}
	rows := make([]*attrs.Attributes, n)
	for i := range rows {
		rows[i] = attrs.New(0)
	}
	return rows, nil
}
