package sim

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/plexsim/pkg/cache"
	"github.com/matzehuels/plexsim/pkg/core/attrs/gen"
	"github.com/matzehuels/plexsim/pkg/core/graph"
	pkgio "github.com/matzehuels/plexsim/pkg/io"
	"github.com/matzehuels/plexsim/pkg/observability"
)

const populationKeyType = "population"

// population returns the experiment's node set, generating it on first use.
// Callers clone it before building a graph.
func (e *Experiment) population(ctx context.Context) (graph.Population, error) {
	e.popMu.Lock()
	defer e.popMu.Unlock()
	if e.pop != nil {
		return e.pop, nil
	}

	cmd := e.nodeGen.Command()
	start := time.Now()
	observability.Generator().OnGenerateStart(ctx, cmd)
	pop, err := e.loadPopulation(ctx)
	observability.Generator().OnGenerateComplete(ctx, cmd, len(pop), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("population ready", "experiment", e.id, "nodes", len(pop), "took", time.Since(start))
	e.pop = pop
	return pop, nil
}

// loadPopulation reads the population from the cache or generates it.
// File-backed generators bypass the cache since the file is the source.
func (e *Experiment) loadPopulation(ctx context.Context) (graph.Population, error) {
	if p, ok := e.nodeGen.(gen.Positioned); ok {
		return generate(p)
	}

	scope := e.nodeGen.Scope()
	key := e.keyer.PopulationKey(scope.String(), e.nodeGen.Command())

	data, hit, err := cache.GetWithRetry(ctx, e.cache, key)
	switch {
	case err != nil:
		e.logger.Warn("population cache unavailable", "err", err)
	case hit:
		t, err := pkgio.ReadCSV(bytes.NewReader(data), scope)
		if err == nil {
			observability.Cache().OnCacheHit(ctx, populationKeyType)
			return fromTable(t), nil
		}
		e.logger.Warn("discarding unreadable cached population", "err", err)
		_ = e.cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, populationKeyType)

	pop, err := generate(e.nodeGen)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pkgio.WriteCSV(toTable(scope.Names(), pop, false), &buf); err != nil {
		e.logger.Warn("unable to encode population for the cache", "err", err)
		return pop, nil
	}
	if err := e.cache.Set(ctx, key, buf.Bytes(), cache.DefaultTTL); err != nil {
		e.logger.Warn("unable to cache population", "err", err)
		return pop, nil
	}
	observability.Cache().OnCacheSet(ctx, populationKeyType, buf.Len())
	return pop, nil
}

// generate runs g and places the rows at the positions it reports, if any.
func generate(g gen.Generator) (graph.Population, error) {
	rows, err := g.Create(nil)
	if err != nil {
		return nil, err
	}
	pop := graph.NewPopulation(rows)
	if p, ok := g.(gen.Positioned); ok {
		for i, pt := range p.Points() {
			pop[i].X, pop[i].Y = pt.X, pt.Y
		}
	}
	return pop, nil
}

func fromTable(t *pkgio.Table) graph.Population {
	pop := make(graph.Population, len(t.Rows))
	for i, r := range t.Rows {
		pop[i] = graph.Entity{Attrs: r.Attrs, X: r.X, Y: r.Y}
	}
	return pop
}

func toTable(names []string, pop graph.Population, coords bool) *pkgio.Table {
	t := &pkgio.Table{Names: names, Rows: make([]pkgio.Row, len(pop)), HasCoords: coords}
	for i, e := range pop {
		t.Rows[i] = pkgio.Row{Attrs: e.Attrs, X: e.X, Y: e.Y}
	}
	return t
}
