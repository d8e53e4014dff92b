package sim

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/plexsim/pkg/cache"
	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/graph"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
	pkgio "github.com/matzehuels/plexsim/pkg/io"
	"github.com/matzehuels/plexsim/pkg/plugin"
	"github.com/matzehuels/plexsim/pkg/plugin/builtin"
	"github.com/matzehuels/plexsim/pkg/plugin/graphs"
	"github.com/matzehuels/plexsim/pkg/plugin/models"
)

func growthConfig() Config {
	return Config{
		GraphID:    "cycle",
		GraphKind:  graph.Undirected,
		ModelID:    "growth",
		ModelAttrs: map[string]string{"prob": "0.5"},
		Nodes:      "#10;infected_rand_3",
		Seed:       42,
		StopAt:     20,
		Trials:     3,
	}
}

func newExperiment(t *testing.T, cfg Config, opts ...Option) (*Experiment, *Scheduler) {
	t.Helper()
	s := NewScheduler(Options{Threads: 2, Logger: quiet})
	e, err := NewExperiment(builtin.Default(), s, cfg, append([]Option{WithLogger(quiet)}, opts...)...)
	require.NoError(t, err)
	return e, s
}

// stubRegistry holds a graph limited to directed graphs and a model with
// edge attributes.
func stubRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	r := plugin.NewRegistry()
	require.NoError(t, r.RegisterModel(models.Growth))
	require.NoError(t, r.RegisterGraph(graphs.Cycle))
	require.NoError(t, r.RegisterGraph(plugin.GraphPlugin{
		Meta: plugin.Meta{ID: "arrows", Title: "Arrows", Kinds: []graph.Kind{graph.Directed}},
		New:  graphs.Cycle.New,
	}))
	require.NoError(t, r.RegisterModel(plugin.ModelPlugin{
		Meta: plugin.Meta{
			ID:        "weighted",
			Title:     "Weighted",
			EdgeAttrs: []attrs.Decl{{Name: "weight", Range: "double[0,1]"}},
		},
		New: func() plugin.Model { return &stepModel{} },
	}))
	return r
}

func TestNewExperimentRejects(t *testing.T) {
	tests := []struct {
		name   string
		reg    *plugin.Registry
		modify func(*Config)
		code   perrors.Code
	}{
		{"zero trials", nil, func(c *Config) { c.Trials = 0 }, perrors.ErrCodeInvalidValue},
		{"too many trials", nil, func(c *Config) { c.Trials = MaxTrials + 1 }, perrors.ErrCodeInvalidValue},
		{"negative stop", nil, func(c *Config) { c.StopAt = -1 }, perrors.ErrCodeInvalidValue},
		{"stop past max", nil, func(c *Config) { c.StopAt = MaxSteps + 1 }, perrors.ErrCodeInvalidValue},
		{"unknown model", nil, func(c *Config) { c.ModelID = "nope" }, perrors.ErrCodePluginNotFound},
		{"unknown graph", nil, func(c *Config) { c.GraphID = "nope" }, perrors.ErrCodePluginNotFound},
		{"model is not a graph", nil, func(c *Config) { c.GraphID = "growth" }, perrors.ErrCodePluginNotFound},
		{"unsupported graph", nil, func(c *Config) {
			c.ModelID = "gameoflife"
			c.ModelAttrs = nil
			c.Nodes = "#10;live_value_0"
		}, perrors.ErrCodeIncompatible},
		{"missing model attribute", nil, func(c *Config) { c.ModelAttrs = nil }, perrors.ErrCodeInvalidValue},
		{"model attribute out of range", nil, func(c *Config) { c.ModelAttrs["prob"] = "2" }, perrors.ErrCodeInvalidValue},
		{"unknown graph attribute", nil, func(c *Config) { c.GraphAttrs = map[string]string{"width": "3"} }, perrors.ErrCodeInvalidValue},
		{"bad node command", nil, func(c *Config) { c.Nodes = "#10;alive_value_0" }, perrors.ErrCodeInvalidCommand},
		{"wrong kind", stubRegistry(t), func(c *Config) { c.GraphID = "arrows" }, perrors.ErrCodeIncompatible},
		{"missing edge command", stubRegistry(t), func(c *Config) {
			c.ModelID = "weighted"
			c.ModelAttrs = nil
			c.Nodes = "10"
		}, perrors.ErrCodeInvalidConfig},
		{"bad edge command", stubRegistry(t), func(c *Config) {
			c.ModelID = "weighted"
			c.ModelAttrs = nil
			c.Nodes = "10"
			c.Edges = "#1;height_max"
		}, perrors.ErrCodeInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := tt.reg
			if reg == nil {
				reg = builtin.Default()
			}
			cfg := growthConfig()
			tt.modify(&cfg)

			e, err := NewExperiment(reg, NewScheduler(Options{Logger: quiet}), cfg)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.Equal(t, tt.code, perrors.GetCode(err), "error: %v", err)
		})
	}
}

func TestExperimentRunsAllTrials(t *testing.T) {
	cfg := growthConfig()
	cfg.Nodes = "#10;infected_value_0"
	e, s := newExperiment(t, cfg)

	assert.Equal(t, StatusReady, e.Status())
	assert.Equal(t, 0, e.Progress())
	assert.NotEqual(t, uuid.Nil, e.ID())

	require.NoError(t, e.Play())
	waitFor(t, s)

	assert.Equal(t, StatusFinished, e.Status())
	assert.Equal(t, 100, e.Progress())
	for i, tr := range e.Trials() {
		assert.Equal(t, i, tr.Index())
		assert.Equal(t, cfg.Seed+uint64(i), tr.Seed())
		assert.Equal(t, 20, tr.Step(), "nothing is infected, so growth never converges")
		assert.Equal(t, 10, tr.Graph().NumNodes())
	}

	require.NoError(t, e.Play(), "playing a finished experiment is a no-op")
	waitFor(t, s)
	assert.Equal(t, 20, e.Trials()[0].Step())
}

func TestExperimentIsDeterministic(t *testing.T) {
	run := func() [][]bool {
		e, s := newExperiment(t, growthConfig())
		require.NoError(t, e.Play())
		waitFor(t, s)

		var out [][]bool
		for _, tr := range e.Trials() {
			g := tr.Graph()
			row := make([]bool, 0, g.NumNodes())
			for _, n := range g.Nodes() {
				row = append(row, n.Attrs.Value(0).Bool())
			}
			out = append(out, row)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestExperimentPlayNext(t *testing.T) {
	cfg := growthConfig()
	cfg.Nodes = "#10;infected_value_0"
	e, s := newExperiment(t, cfg)

	for want := 1; want <= 3; want++ {
		require.NoError(t, e.PlayNext())
		waitFor(t, s)
		for _, tr := range e.Trials() {
			assert.Equal(t, want, tr.Step())
			assert.Equal(t, StatusReady, tr.Status())
		}
	}
	assert.Equal(t, 15, e.Progress())
}

func TestExperimentStop(t *testing.T) {
	cfg := growthConfig()
	cfg.Nodes = "#10;infected_value_0"
	e, s := newExperiment(t, cfg)

	require.NoError(t, e.PlayNext())
	waitFor(t, s)
	e.Stop()
	waitFor(t, s)

	assert.Equal(t, StatusFinished, e.Status())
	for _, tr := range e.Trials() {
		assert.Equal(t, 1, tr.Step())
	}
}

func gridConfig() Config {
	return Config{
		GraphID:    "squaregrid",
		GraphAttrs: map[string]string{"width": "3", "height": "3", "neighbours": "4", "periodic": "false"},
		ModelID:    "gameoflife",
		Nodes:      "#10;live_value_0",
		StopAt:     5,
		Trials:     2,
	}
}

func TestExperimentPrepareReportsShapeMismatch(t *testing.T) {
	e, _ := newExperiment(t, gridConfig())

	err := e.Prepare(context.Background())
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConfig), "error: %v", err)
	assert.Equal(t, StatusInvalid, e.Status())
	assert.Error(t, e.Play())
}

func TestExperimentTrialFailureInvalidates(t *testing.T) {
	e, s := newExperiment(t, gridConfig())

	require.NoError(t, e.Play())
	waitFor(t, s)

	assert.Equal(t, StatusInvalid, e.Status())
	assert.True(t, perrors.Is(e.Play(), perrors.ErrCodeInvalidConfig))
}

func TestExperimentPrepare(t *testing.T) {
	e, _ := newExperiment(t, growthConfig())

	require.NoError(t, e.Prepare(context.Background()))
	for _, tr := range e.Trials() {
		g := tr.Graph()
		require.NotNil(t, g)
		assert.Equal(t, 10, g.NumNodes())
		assert.Equal(t, 10, g.NumEdges())
		assert.Equal(t, 0, tr.Step())
		assert.Equal(t, StatusReady, tr.Status())
	}
}

func TestExperimentAutoDelete(t *testing.T) {
	cfg := growthConfig()
	cfg.AutoDelete = true
	e, s := newExperiment(t, cfg)

	var kills killLog
	s.Subscribe(kills.listener())

	require.NoError(t, e.Play())
	waitFor(t, s)

	require.Eventually(t, func() bool { return len(kills.sorted()) == 3 }, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, s.IDs())
	assert.NoError(t, e.Play(), "killed trials are skipped")
}

// memCache is an in-memory cache that counts its traffic.
type memCache struct {
	mu         sync.Mutex
	data       map[string][]byte
	gets, sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func TestExperimentPopulationCache(t *testing.T) {
	cfg := growthConfig()
	cfg.ModelID = "nowak"
	cfg.ModelAttrs = map[string]string{"temptation": "1.5"}
	cfg.Nodes = "#10;strategy_rand_1;score_rand_7"

	c := newMemCache()
	prepare := func() *Experiment {
		e, _ := newExperiment(t, cfg, WithCache(c, nil))
		require.NoError(t, e.Prepare(context.Background()))
		return e
	}

	first := prepare()
	assert.Equal(t, 1, c.gets)
	assert.Equal(t, 1, c.sets)

	second := prepare()
	assert.Equal(t, 2, c.gets)
	assert.Equal(t, 1, c.sets, "second experiment reads the cached population")

	a := first.Trials()[0].Graph().Population()
	b := second.Trials()[0].Graph().Population()
	require.Len(t, b, len(a))
	for i := range a {
		for id := range a[i].Attrs.Size() {
			assert.Equal(t, a[i].Attrs.Value(id), b[i].Attrs.Value(id), "node %d attribute %d", i, id)
		}
	}
}

func TestExperimentCorruptCacheEntryIsRegenerated(t *testing.T) {
	c := newMemCache()
	cfg := growthConfig()
	e, _ := newExperiment(t, cfg, WithCache(c, cache.NewScopedKeyer(nil, "test")))

	key := cache.NewScopedKeyer(nil, "test").PopulationKey(e.nodeGen.Scope().String(), e.nodeGen.Command())
	c.data[key] = []byte("not,a\npopulation")

	require.NoError(t, e.Prepare(context.Background()))
	assert.Equal(t, 1, c.sets)
	assert.Equal(t, 10, e.Trials()[0].Graph().NumNodes())
}

func TestExperimentExportTrial(t *testing.T) {
	e, _ := newExperiment(t, growthConfig())
	path := filepath.Join(t.TempDir(), "trial.csv")

	err := e.ExportTrial(0, path)
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidValue))
	assert.True(t, perrors.Is(e.ExportTrial(9, path), perrors.ErrCodeInvalidValue))

	require.NoError(t, e.Prepare(context.Background()))
	require.NoError(t, e.ExportTrial(0, path))

	model, err := builtin.Default().Model("growth")
	require.NoError(t, err)
	table, err := pkgio.ImportCSV(path, model.NodeScope)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 10)
	assert.True(t, table.HasCoords)
	assert.Equal(t, []string{"infected"}, table.Names)
}
