package plugin

import (
	"maps"
	"slices"
	"sync"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

// Registry maps plugin ids to their entries. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// RegisterModel adds a model. The id must be unique and every declared scope
// must parse.
func (r *Registry) RegisterModel(p ModelPlugin) error {
	if p.New == nil {
		return perrors.New(perrors.ErrCodeInvalidConfig, "model %q has no constructor", p.Meta.ID)
	}
	e, err := newEntry(p.Meta, TypeModel)
	if err != nil {
		return err
	}
	e.newModel = p.New
	return r.add(e)
}

// RegisterGraph adds a graph builder. The id must be unique and its
// parameter scope must parse.
func (r *Registry) RegisterGraph(p GraphPlugin) error {
	if p.New == nil {
		return perrors.New(perrors.ErrCodeInvalidConfig, "graph %q has no constructor", p.Meta.ID)
	}
	if len(p.Meta.NodeAttrs) > 0 || len(p.Meta.EdgeAttrs) > 0 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "graph %q declares node or edge attributes", p.Meta.ID)
	}
	e, err := newEntry(p.Meta, TypeGraph)
	if err != nil {
		return err
	}
	e.newGraph = p.New
	return r.add(e)
}

func newEntry(m Meta, t Type) (*Entry, error) {
	if err := perrors.ValidatePluginID(m.ID); err != nil {
		return nil, err
	}
	e := &Entry{Meta: m, Type: t}
	for _, s := range []struct {
		name  string
		decls []attrs.Decl
		dst   **attrs.Scope
	}{
		{"attributes", m.Attrs, &e.Scope},
		{"node attributes", m.NodeAttrs, &e.NodeScope},
		{"edge attributes", m.EdgeAttrs, &e.EdgeScope},
	} {
		scope, err := attrs.ParseScope(s.decls)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "plugin %q: %s", m.ID, s.name)
		}
		*s.dst = scope
	}
	return e, nil
}

func (r *Registry) add(e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[e.ID()]; dup {
		return perrors.New(perrors.ErrCodeInvalidConfig, "plugin %q registered twice", e.ID())
	}
	r.entries[e.ID()] = e
	return nil
}

// Lookup returns the entry with the given id.
func (r *Registry) Lookup(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Model returns the model with the given id.
func (r *Registry) Model(id string) (*Entry, error) {
	return r.typed(id, TypeModel)
}

// Graph returns the graph builder with the given id.
func (r *Registry) Graph(id string) (*Entry, error) {
	return r.typed(id, TypeGraph)
}

func (r *Registry) typed(id string, t Type) (*Entry, error) {
	e, ok := r.Lookup(id)
	if !ok || e.Type != t {
		return nil, perrors.New(perrors.ErrCodePluginNotFound, "no %s plugin named %q", t, id)
	}
	return e, nil
}

// List returns the entries sorted by id, optionally filtered by type. An
// empty t lists everything.
func (r *Registry) List(t Type) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Entry
	for _, id := range slices.Sorted(maps.Keys(r.entries)) {
		if e := r.entries[id]; t == "" || e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
