package sim

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plexsim/pkg/core/graph"
	"github.com/matzehuels/plexsim/pkg/core/prg"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

const (
	// MaxSteps bounds every pause and stop ceiling.
	MaxSteps = 100_000_000

	// MaxTrials bounds the number of trials of one experiment.
	MaxTrials = 1000
)

// Setup builds the graph and model of a trial on first use. p is the
// trial's own generator, seeded once per trial.
type Setup func(p *prg.PRG) (*graph.Graph, plugin.Model, error)

// Trial is one independent run of a model over one graph.
//
// The control fields are guarded by a mutex and read once per step, so
// Pause, Stop and friends may be called from any goroutine while the trial
// runs. The model step itself runs unlocked.
type Trial struct {
	index  int
	seed   uint64
	setup  Setup
	logger *log.Logger

	initMu sync.Mutex

	mu      sync.Mutex
	id      int
	status  Status
	step    int
	stopAt  int
	pauseAt int
	graph   *graph.Graph
	model   plugin.Model
	notify  func(id int, s Status)
}

// NewTrial returns a Ready trial that runs up to stopAt steps. The graph and
// model are built by setup when the trial first runs. A nil logger means
// log.Default().
func NewTrial(index int, seed uint64, stopAt int, setup Setup, logger *log.Logger) *Trial {
	if logger == nil {
		logger = log.Default()
	}
	stopAt = clamp(stopAt, 0, MaxSteps)
	return &Trial{
		index:   index,
		seed:    seed,
		setup:   setup,
		logger:  logger,
		id:      -1,
		status:  StatusReady,
		stopAt:  stopAt,
		pauseAt: stopAt,
	}
}

// ProcessSteps runs the trial until it reaches its pause ceiling, its stop
// ceiling or the model converges. It does nothing unless the trial is Ready.
func (t *Trial) ProcessSteps() {
	t.mu.Lock()
	if t.status != StatusReady {
		t.mu.Unlock()
		return
	}
	t.status = StatusRunning
	t.mu.Unlock()
	t.emit(StatusRunning)

	if err := t.init(); err != nil {
		t.logger.Error("trial setup failed", "trial", t.index, "err", err)
		t.setStatus(StatusInvalid)
		return
	}

	converged := false
	for t.advance() {
		converged = t.model.Step()
		t.mu.Lock()
		t.step++
		t.mu.Unlock()
		if converged {
			break
		}
	}

	t.mu.Lock()
	if t.status != StatusRunning {
		t.mu.Unlock()
		return
	}
	done := converged || t.step >= t.stopAt
	if !done {
		t.pauseAt = t.stopAt
	}
	step := t.step
	t.mu.Unlock()

	if !done {
		t.logger.Debug("trial paused", "trial", t.index, "step", step)
		t.setStatus(StatusReady)
		return
	}
	t.setStatus(StatusFinishing)
	t.logger.Debug("trial finished", "trial", t.index, "step", step, "converged", converged)
	t.setStatus(StatusFinished)
}

// Prepare builds the graph and model now instead of on the first run. A
// setup failure marks the trial Invalid.
func (t *Trial) Prepare() error {
	if t.Status() != StatusReady {
		return nil
	}
	if err := t.init(); err != nil {
		t.setStatus(StatusInvalid)
		return err
	}
	return nil
}

// init runs setup once.
func (t *Trial) init() error {
	t.initMu.Lock()
	defer t.initMu.Unlock()
	if t.Model() != nil {
		return nil
	}

	g, m, err := t.setup(prg.New(t.seed))
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.graph, t.model = g, m
	t.mu.Unlock()
	return nil
}

// advance reports whether another step may run.
func (t *Trial) advance() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == StatusRunning && t.step < t.pauseAt && t.step < t.stopAt
}

// Pause makes the trial stop at the next step boundary. The pause is one
// shot: once the trial stops, its pause ceiling returns to its stop ceiling.
func (t *Trial) Pause() {
	t.mu.Lock()
	t.pauseAt = t.step
	t.mu.Unlock()
}

// PauseAt sets the pause ceiling, clamped to [current step, MaxSteps].
func (t *Trial) PauseAt(step int) {
	t.mu.Lock()
	t.pauseAt = clamp(step, t.step, MaxSteps)
	t.mu.Unlock()
}

// Stop makes the trial finish at the next step boundary.
func (t *Trial) Stop() {
	t.mu.Lock()
	t.stopAt = t.step
	t.mu.Unlock()
}

// StopAt sets the stop ceiling, clamped to [0, MaxSteps].
func (t *Trial) StopAt(step int) {
	t.mu.Lock()
	t.stopAt = clamp(step, 0, MaxSteps)
	t.mu.Unlock()
}

// ID returns the scheduler id, or -1 before the trial is added to a
// scheduler.
func (t *Trial) ID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// Index returns the position of the trial in its experiment.
func (t *Trial) Index() int { return t.index }

// Seed returns the seed of the trial's generator.
func (t *Trial) Seed() uint64 { return t.seed }

// Status returns the current status.
func (t *Trial) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Step returns the number of completed steps.
func (t *Trial) Step() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.step
}

// Limits returns the pause and stop ceilings.
func (t *Trial) Limits() (pauseAt, stopAt int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pauseAt, t.stopAt
}

// Graph returns the trial's graph, or nil before the first run.
func (t *Trial) Graph() *graph.Graph {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.graph
}

// Model returns the trial's model, or nil before the first run.
func (t *Trial) Model() plugin.Model {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.model
}

func (t *Trial) attach(id int, notify func(int, Status)) {
	t.mu.Lock()
	t.id, t.notify = id, notify
	t.mu.Unlock()
}

// invalidate marks the trial Invalid after its run panicked.
func (t *Trial) invalidate() { t.setStatus(StatusInvalid) }

func (t *Trial) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
	t.emit(s)
}

func (t *Trial) emit(s Status) {
	t.mu.Lock()
	id, notify := t.id, t.notify
	t.mu.Unlock()
	if notify != nil {
		notify(id, s)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
