// Package builtin assembles the built-in plugins into a registry.
//
// This package exists to break import cycles: the graphs and models
// packages import pkg/plugin, so pkg/plugin cannot import them back.
package builtin

import (
	"sync"

	"github.com/matzehuels/plexsim/pkg/plugin"
	"github.com/matzehuels/plexsim/pkg/plugin/graphs"
	"github.com/matzehuels/plexsim/pkg/plugin/models"
)

// Default returns the shared registry holding every built-in plugin.
var Default = sync.OnceValue(func() *plugin.Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
})

// NewRegistry returns a fresh registry with every built-in plugin
// registered. Callers may register more plugins on it.
func NewRegistry() (*plugin.Registry, error) {
	r := plugin.NewRegistry()
	for _, g := range graphs.All {
		if err := r.RegisterGraph(g); err != nil {
			return nil, err
		}
	}
	for _, m := range models.All {
		if err := r.RegisterModel(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}
