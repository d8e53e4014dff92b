package sim

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/plexsim/pkg/cache"
	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/attrs/gen"
	"github.com/matzehuels/plexsim/pkg/core/graph"
	"github.com/matzehuels/plexsim/pkg/core/prg"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
	pkgio "github.com/matzehuels/plexsim/pkg/io"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

// Config describes an experiment.
type Config struct {
	GraphID    string
	GraphAttrs map[string]string
	GraphKind  graph.Kind

	ModelID    string
	ModelAttrs map[string]string

	// Nodes is the generator command for the node population.
	Nodes string
	// Edges is the generator command for edge attributes. It is required
	// when the model declares edge attributes.
	Edges string

	Seed       uint64
	StopAt     int
	Trials     int
	AutoDelete bool
}

// Option configures an [Experiment].
type Option func(*Experiment)

// WithCache stores generated populations in c under keys from k. A nil
// keyer means [cache.DefaultKeyer].
func WithCache(c cache.Cache, k cache.Keyer) Option {
	return func(e *Experiment) {
		if c != nil {
			e.cache = c
		}
		if k != nil {
			e.keyer = k
		}
	}
}

// WithLogger sets the logger of the experiment and its trials.
func WithLogger(l *log.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

// Experiment is a group of trials sharing one configuration. Trial i runs
// with seed Seed+i. Trials are created on first use and share one population,
// generated once and cloned per trial.
type Experiment struct {
	id     uuid.UUID
	cfg    Config
	sched  *Scheduler
	logger *log.Logger
	cache  cache.Cache
	keyer  cache.Keyer

	graphPlugin *plugin.Entry
	modelPlugin *plugin.Entry
	graphAttrs  *attrs.Attributes
	modelAttrs  *attrs.Attributes
	nodeGen     gen.Generator
	edgeGen     gen.Generator

	popMu sync.Mutex
	pop   graph.Population

	mu      sync.Mutex
	trials  []*Trial
	ids     map[int]int
	killed  map[int]bool
	invalid bool
}

// NewExperiment validates cfg against the plugins in reg and registers the
// experiment's listener with sched. Every configuration problem is returned
// as a *errors.Error and no experiment is created.
func NewExperiment(reg *plugin.Registry, sched *Scheduler, cfg Config, opts ...Option) (*Experiment, error) {
	if cfg.Trials < 1 || cfg.Trials > MaxTrials {
		return nil, perrors.New(perrors.ErrCodeInvalidValue, "number of trials must be in [1,%d], got %d", MaxTrials, cfg.Trials)
	}
	if cfg.StopAt < 0 || cfg.StopAt > MaxSteps {
		return nil, perrors.New(perrors.ErrCodeInvalidValue, "stopAt must be in [0,%d], got %d", MaxSteps, cfg.StopAt)
	}

	model, err := reg.Model(cfg.ModelID)
	if err != nil {
		return nil, err
	}
	graphPlugin, err := reg.Graph(cfg.GraphID)
	if err != nil {
		return nil, err
	}
	if !model.SupportsGraph(graphPlugin.ID()) {
		return nil, perrors.New(perrors.ErrCodeIncompatible, "model %q does not run on graph %q (supported: %v)",
			model.ID(), graphPlugin.ID(), model.Meta.Graphs)
	}
	if !graphPlugin.AcceptsKind(cfg.GraphKind) {
		return nil, perrors.New(perrors.ErrCodeIncompatible, "graph %q cannot build %s graphs", graphPlugin.ID(), cfg.GraphKind)
	}

	graphAttrs, err := graphPlugin.Scope.Build(cfg.GraphAttrs)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidValue, err, "graph %q", graphPlugin.ID())
	}
	modelAttrs, err := model.Scope.Build(cfg.ModelAttrs)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidValue, err, "model %q", model.ID())
	}

	nodeGen, err := gen.Parse(model.NodeScope, cfg.Nodes)
	if err != nil {
		return nil, wrap(err, "node attributes")
	}
	var edgeGen gen.Generator
	switch {
	case cfg.Edges != "":
		edgeGen, err = gen.Parse(model.EdgeScope, cfg.Edges)
		if err != nil {
			return nil, wrap(err, "edge attributes")
		}
	case !model.EdgeScope.IsEmpty():
		return nil, perrors.New(perrors.ErrCodeInvalidConfig, "model %q declares edge attributes (%s); an edge generator command is required",
			model.ID(), model.EdgeScope)
	}

	e := &Experiment{
		id:          uuid.New(),
		cfg:         cfg,
		sched:       sched,
		logger:      log.Default(),
		cache:       cache.NewNullCache(),
		keyer:       cache.NewDefaultKeyer(),
		graphPlugin: graphPlugin,
		modelPlugin: model,
		graphAttrs:  graphAttrs,
		modelAttrs:  modelAttrs,
		nodeGen:     nodeGen,
		edgeGen:     edgeGen,
		trials:      make([]*Trial, cfg.Trials),
		ids:         make(map[int]int),
		killed:      make(map[int]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	sched.Subscribe(e)
	return e, nil
}

// ID returns the experiment id.
func (e *Experiment) ID() uuid.UUID { return e.id }

// Config returns the configuration the experiment was built from.
func (e *Experiment) Config() Config { return e.cfg }

// NumTrials returns the number of trials.
func (e *Experiment) NumTrials() int { return e.cfg.Trials }

// Trial returns trial i, creating it and adding it to the scheduler on
// first use.
func (e *Experiment) Trial(i int) (*Trial, error) {
	if i < 0 || i >= e.cfg.Trials {
		return nil, perrors.New(perrors.ErrCodeInvalidValue, "trial index %d out of range [0,%d)", i, e.cfg.Trials)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if t := e.trials[i]; t != nil {
		return t, nil
	}
	t := NewTrial(i, e.cfg.Seed+uint64(i), e.cfg.StopAt, e.setupTrial, e.logger)
	e.trials[i] = t
	e.ids[e.sched.Add(t)] = i
	return t, nil
}

// Trials returns every trial, creating the missing ones.
func (e *Experiment) Trials() []*Trial {
	out := make([]*Trial, e.cfg.Trials)
	for i := range out {
		out[i], _ = e.Trial(i)
	}
	return out
}

// created returns the trials that exist so far.
func (e *Experiment) created() []*Trial {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Trial, 0, len(e.trials))
	for _, t := range e.trials {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (e *Experiment) setupTrial(p *prg.PRG) (*graph.Graph, plugin.Model, error) {
	pop, err := e.population(context.Background())
	if err != nil {
		return nil, nil, err
	}

	g := graph.FromPopulation(e.cfg.GraphKind, pop.Clone())
	builder := e.graphPlugin.NewGraph()
	if !builder.Init(plugin.Env{
		Graph:   g,
		PRG:     p,
		Attrs:   e.graphAttrs.Clone(),
		EdgeGen: e.edgeGen,
		Logger:  e.logger,
	}) {
		return nil, nil, perrors.New(perrors.ErrCodeInvalidConfig, "graph %q could not be built from %d nodes",
			e.graphPlugin.ID(), len(pop))
	}
	builder.Reset()

	model := e.modelPlugin.NewModel()
	if !model.Init(plugin.Env{
		Graph:  g,
		PRG:    p,
		Attrs:  e.modelAttrs.Clone(),
		Logger: e.logger,
	}) {
		return nil, nil, perrors.New(perrors.ErrCodeInvalidConfig, "model %q could not be initialised", e.modelPlugin.ID())
	}
	return g, model, nil
}

// Prepare creates every trial and builds its graph and model, running at
// most NumThreads setups at once. The first failure invalidates the
// experiment and is returned.
func (e *Experiment) Prepare(ctx context.Context) error {
	if _, err := e.population(ctx); err != nil {
		e.invalidate()
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.sched.NumThreads())
	for _, t := range e.Trials() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := t.Prepare(); err != nil {
				return wrap(err, "trial %d", t.Index())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.invalidate()
		return err
	}
	return nil
}

// Play runs every trial that can still make progress.
func (e *Experiment) Play() error {
	if e.isInvalid() {
		return perrors.New(perrors.ErrCodeInvalidConfig, "experiment %s is invalid", e.id)
	}
	for _, t := range e.Trials() {
		if t.Status().IsDone() || e.isKilled(t.ID()) {
			continue
		}
		if err := e.sched.Play(t.ID()); err != nil {
			return err
		}
	}
	return nil
}

// PlayNext runs every trial up to one step past the most advanced one.
func (e *Experiment) PlayNext() error {
	trials := e.Trials()
	next := 0
	for _, t := range trials {
		next = max(next, t.Step()+1)
	}
	for _, t := range trials {
		t.PauseAt(next)
	}
	return e.Play()
}

// Pause pauses every trial at its next step boundary.
func (e *Experiment) Pause() {
	for _, t := range e.created() {
		t.Pause()
	}
}

// Stop finishes every trial at its next step boundary.
func (e *Experiment) Stop() {
	for _, t := range e.Trials() {
		if e.isKilled(t.ID()) {
			continue
		}
		_ = e.sched.Stop(t.ID())
	}
}

// Kill tears down every trial of the experiment.
func (e *Experiment) Kill() {
	for _, t := range e.created() {
		_ = e.sched.Kill(t.ID())
	}
}

// Progress returns the share of steps done over all trials, 0 to 100.
// Finished trials count as complete even if they converged early.
func (e *Experiment) Progress() int {
	if e.cfg.StopAt == 0 {
		return 100
	}
	done := 0
	for _, t := range e.created() {
		if t.Status() == StatusFinished {
			done += e.cfg.StopAt
			continue
		}
		done += min(t.Step(), e.cfg.StopAt)
	}
	return done * 100 / (e.cfg.StopAt * e.cfg.Trials)
}

// Status summarises the trials: Invalid if any trial is invalid, else
// Running if any runs, else Finished once all finished, else Ready.
func (e *Experiment) Status() Status {
	if e.isInvalid() {
		return StatusInvalid
	}
	trials := e.created()
	finished := 0
	for _, t := range trials {
		switch t.Status() {
		case StatusInvalid:
			return StatusInvalid
		case StatusRunning, StatusFinishing:
			return StatusRunning
		case StatusFinished:
			finished++
		}
	}
	if finished == e.cfg.Trials {
		return StatusFinished
	}
	return StatusReady
}

// ExportTrial writes the nodes of trial i, with their current attributes and
// coordinates, to a population CSV file.
func (e *Experiment) ExportTrial(i int, path string) error {
	t, err := e.Trial(i)
	if err != nil {
		return err
	}
	g := t.Graph()
	if g == nil {
		return perrors.New(perrors.ErrCodeInvalidValue, "trial %d has not run yet", i)
	}
	return pkgio.ExportCSV(toTable(e.modelPlugin.NodeScope.Names(), g.Population(), true), path)
}

// OnStatusChanged implements [Listener].
func (e *Experiment) OnStatusChanged(id int, s Status) {
	e.mu.Lock()
	_, mine := e.ids[id]
	e.mu.Unlock()
	if !mine {
		return
	}

	switch s {
	case StatusInvalid:
		if e.invalidate() {
			e.logger.Warn("trial invalid, pausing the experiment", "experiment", e.id, "trial", id)
		}
	case StatusFinished:
		if e.cfg.AutoDelete && e.Status() == StatusFinished {
			e.logger.Debug("all trials finished, deleting them", "experiment", e.id)
			e.Kill()
		}
	}
}

// OnKilled implements [Listener].
func (e *Experiment) OnKilled(id int) {
	e.mu.Lock()
	if _, mine := e.ids[id]; mine {
		e.killed[id] = true
	}
	e.mu.Unlock()
}

// invalidate marks the experiment invalid and pauses all trials. It reports
// whether the experiment was valid before.
func (e *Experiment) invalidate() bool {
	e.mu.Lock()
	was := e.invalid
	e.invalid = true
	e.mu.Unlock()
	if !was {
		e.Pause()
	}
	return !was
}

func (e *Experiment) isInvalid() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.invalid
}

func (e *Experiment) isKilled(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.killed[id]
}

// wrap adds context to err and keeps its code.
func wrap(err error, format string, args ...any) error {
	code := perrors.GetCode(err)
	if code == "" {
		code = perrors.ErrCodeInternal
	}
	return perrors.Wrap(code, err, format, args...)
}
