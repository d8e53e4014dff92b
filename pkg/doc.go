// Package pkg provides the core libraries of plexsim, a runner for
// agent-based models on graphs.
//
// # Overview
//
// An experiment runs many independent trials of one model over one graph.
// Every trial has its own seeded generator, its own copy of the node
// population and its own step counter; a scheduler runs a bounded number of
// trials at once and lets callers pause, stop, resume and kill each of them.
// The pkg directory is organized into four main areas:
//
//  1. [core] - Domain values (typed values, attribute domains, generators,
//     graphs and seeded randomness)
//  2. [plugin] - Model and graph builder plugins and their registry
//  3. [sim] - Trials, the scheduler and experiments
//  4. Infrastructure - [config], [cache], [io], [observability], [server]
//
// # Architecture
//
// The typical data flow through plexsim:
//
//	Experiment file (TOML/YAML)
//	         ↓
//	    [config] package (decode, env overrides, validation)
//	         ↓
//	    [core/attrs/gen] package (node population, cached in [cache])
//	         ↓
//	    [plugin] graph builder + model, one pair per trial
//	         ↓
//	    [sim] scheduler (bounded worker pool)
//	         ↓
//	    CSV populations via [io], metrics via [observability]
//
// # Quick Start
//
// Run ten trials of the growth model on a cycle:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/plexsim/pkg/plugin/builtin"
//	    "github.com/matzehuels/plexsim/pkg/sim"
//	)
//
//	sched := sim.NewScheduler(sim.Options{Threads: 4})
//	exp, err := sim.NewExperiment(builtin.Default(), sched, sim.Config{
//	    GraphID:    "cycle",
//	    ModelID:    "growth",
//	    ModelAttrs: map[string]string{"prob": "0.3"},
//	    Nodes:      "#100;infected_rand_1",
//	    StopAt:     500,
//	    Trials:     10,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := exp.Play(); err != nil {
//	    return err
//	}
//	err = sched.Wait(context.Background())
//
// # Main Packages
//
// [core/value] - Tagged values (bool, int, double, string) with total
// ordering within a type and tolerant double comparison.
//
// [core/attrs] - Attribute domains parsed from strings such as "int[0,10]"
// or "string{a,b}", named value bags and the ordered scopes plugins declare.
//
// [core/attrs/gen] - Generator commands ("*N;rand_7", "#N;attr_fn_input",
// CSV files) that synthesize populations for a scope.
//
// [core/graph] - Directed and undirected graphs over integer node ids with
// per-node attributes and coordinates.
//
// [plugin/graphs] and [plugin/models] - The built-in graph builders (path,
// cycle, star, squaregrid) and models (growth, gameoflife, nowak).
//
// [errors] - Coded errors shared by every package; configuration problems
// are told apart from runtime failures with [errors.IsConfiguration].
//
// # Testing
//
// Run tests:
//
//	go test ./...                         # All tests
//	go test ./pkg/sim/...                 # Specific package
//	go test -run Example ./pkg/...        # Examples only
//	go test -tags integration ./pkg/...   # Include cache backend tests
//
// [core]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/core
// [core/value]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/core/value
// [core/attrs]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/core/attrs
// [core/attrs/gen]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/core/attrs/gen
// [core/graph]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/core/graph
// [plugin]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/plugin
// [plugin/graphs]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/plugin/graphs
// [plugin/models]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/plugin/models
// [sim]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/sim
// [config]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/cache
// [io]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/io
// [observability]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/observability
// [server]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/server
// [errors]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/errors
// [errors.IsConfiguration]: https://pkg.go.dev/github.com/matzehuels/plexsim/pkg/errors#IsConfiguration
package pkg
