package plugin

import (
	"slices"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/graph"
)

// Type tells models and graph builders apart.
type Type string

const (
	TypeModel Type = "model"
	TypeGraph Type = "graph"
)

// Meta describes a plugin.
type Meta struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description,omitempty"`
	Attrs       []attrs.Decl `yaml:"attributes,omitempty"`

	// Models only.
	NodeAttrs []attrs.Decl `yaml:"nodeAttributes,omitempty"`
	EdgeAttrs []attrs.Decl `yaml:"edgeAttributes,omitempty"`
	// Graphs lists the graph builder ids the model runs on; empty means any.
	Graphs []string `yaml:"graphs,omitempty"`

	// Graph builders only. Kinds lists the accepted orientations; empty
	// means both.
	Kinds []graph.Kind `yaml:"kinds,omitempty"`
}

// ModelPlugin pairs a model's metadata with its constructor.
type ModelPlugin struct {
	Meta Meta
	New  func() Model
}

// GraphPlugin pairs a graph builder's metadata with its constructor.
type GraphPlugin struct {
	Meta Meta
	New  func() GraphBuilder
}

// Entry is a registered plugin with its scopes parsed.
type Entry struct {
	Meta      Meta
	Type      Type
	Scope     *attrs.Scope
	NodeScope *attrs.Scope
	EdgeScope *attrs.Scope

	newModel func() Model
	newGraph func() GraphBuilder
}

// ID returns the plugin id.
func (e *Entry) ID() string { return e.Meta.ID }

// NewModel returns a fresh model instance. It panics for graph builders.
func (e *Entry) NewModel() Model {
	if e.newModel == nil {
		panic("plugin: " + e.Meta.ID + " is not a model")
	}
	return e.newModel()
}

// NewGraph returns a fresh graph builder instance. It panics for models.
func (e *Entry) NewGraph() GraphBuilder {
	if e.newGraph == nil {
		panic("plugin: " + e.Meta.ID + " is not a graph builder")
	}
	return e.newGraph()
}

// SupportsGraph reports whether a model runs on the graph builder id.
func (e *Entry) SupportsGraph(id string) bool {
	return len(e.Meta.Graphs) == 0 || slices.Contains(e.Meta.Graphs, id)
}

// AcceptsKind reports whether a graph builder can build graphs of kind k.
func (e *Entry) AcceptsKind(k graph.Kind) bool {
	return len(e.Meta.Kinds) == 0 || slices.Contains(e.Meta.Kinds, k)
}
