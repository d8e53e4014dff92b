package sim

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	perrors "github.com/matzehuels/plexsim/pkg/errors"
	"github.com/matzehuels/plexsim/pkg/observability"
)

// ErrUnknownTrial is returned for trial ids the scheduler does not hold.
var ErrUnknownTrial = errors.New("unknown trial")

// Listener receives scheduler notifications. Calls are made outside the
// scheduler lock, from worker goroutines or from the goroutine issuing the
// command. A listener may call back into the scheduler, Subscribe included.
type Listener interface {
	OnStatusChanged(trialID int, s Status)
	OnKilled(trialID int)
}

// ListenerFuncs adapts plain functions to [Listener]. Nil fields are skipped.
type ListenerFuncs struct {
	StatusChanged func(trialID int, s Status)
	Killed        func(trialID int)
}

func (f ListenerFuncs) OnStatusChanged(id int, s Status) {
	if f.StatusChanged != nil {
		f.StatusChanged(id, s)
	}
}

func (f ListenerFuncs) OnKilled(id int) {
	if f.Killed != nil {
		f.Killed(id)
	}
}

// Options configures a [Scheduler].
type Options struct {
	// Threads is the worker limit. Zero means runtime.NumCPU().
	Threads int
	Logger  *log.Logger
}

// Scheduler runs trials on a bounded number of workers.
//
// A trial id is in at most one of the running and queued sets. Completion
// of a worker is the only event that dispatches queued trials; nothing
// polls.
type Scheduler struct {
	logger *log.Logger

	mu      sync.Mutex
	threads int
	lastID  int
	trials  map[int]*Trial
	running []int
	queue   []int
	toKill  map[int]bool
	requeue map[int]bool
	started map[int]time.Time
	idle    chan struct{}
	isIdle  bool

	lmu       sync.RWMutex
	listeners []Listener
}

// NewScheduler returns an empty scheduler.
func NewScheduler(opts Options) *Scheduler {
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	idle := make(chan struct{})
	close(idle)
	return &Scheduler{
		logger:  opts.Logger,
		threads: opts.Threads,
		lastID:  -1,
		trials:  make(map[int]*Trial),
		toKill:  make(map[int]bool),
		requeue: make(map[int]bool),
		started: make(map[int]time.Time),
		idle:    idle,
		isIdle:  true,
	}
}

// Subscribe registers l for notifications.
func (s *Scheduler) Subscribe(l Listener) {
	s.lmu.Lock()
	s.listeners = append(s.listeners, l)
	s.lmu.Unlock()
}

// Add registers t and returns its id. The trial does not start.
func (s *Scheduler) Add(t *Trial) int {
	s.mu.Lock()
	s.lastID++
	id := s.lastID
	s.trials[id] = t
	s.mu.Unlock()

	t.attach(id, s.statusChanged)
	return id
}

// Trial returns the trial with the given id.
func (s *Scheduler) Trial(id int) (*Trial, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trials[id]
	return t, ok
}

// Play runs the trial now if a worker is free and queues it otherwise. It
// does nothing if the trial is already running or queued.
func (s *Scheduler) Play(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trials[id]; !ok {
		return unknown(id)
	}
	s.playLocked(id)
	return nil
}

func (s *Scheduler) playLocked(id int) {
	if slices.Contains(s.running, id) || slices.Contains(s.queue, id) {
		return
	}
	if len(s.running) < s.threads {
		s.startLocked(id)
	} else {
		s.queue = append(s.queue, id)
		observability.Scheduler().OnTrialQueued(id, len(s.queue))
	}
	s.updateIdleLocked()
}

func (s *Scheduler) startLocked(id int) {
	t := s.trials[id]
	s.running = append(s.running, id)
	s.started[id] = time.Now()
	observability.Scheduler().OnTrialDispatched(id, len(s.running))
	s.logger.Debug("trial dispatched", "trial", id, "running", len(s.running))
	go s.work(id, t)
}

func (s *Scheduler) work(id int, t *Trial) {
	defer s.done(id, t)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("trial panicked", "trial", id, "panic", r)
			t.invalidate()
		}
	}()
	t.ProcessSteps()
}

// done is the completion handler of a worker.
func (s *Scheduler) done(id int, t *Trial) {
	var killed []int

	s.mu.Lock()
	s.running = slices.DeleteFunc(s.running, func(r int) bool { return r == id })
	observability.Scheduler().OnTrialCompleted(id, t.Status().String(), t.Step(), time.Since(s.started[id]))
	delete(s.started, id)

	switch {
	case s.toKill[id]:
		delete(s.toKill, id)
		delete(s.requeue, id)
		s.removeLocked(id)
		killed = append(killed, id)
	case s.requeue[id]:
		delete(s.requeue, id)
		if !t.Status().IsDone() {
			s.queue = slices.Insert(s.queue, 0, id)
		}
	}

	for len(s.running) < s.threads && len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.startLocked(next)
	}
	s.updateIdleLocked()
	s.mu.Unlock()

	s.emitKilled(killed)
}

// Pause makes the trial stop at its next step boundary.
func (s *Scheduler) Pause(id int) error {
	return s.with(id, (*Trial).Pause)
}

// PauseAt sets the pause ceiling of the trial.
func (s *Scheduler) PauseAt(id, step int) error {
	return s.with(id, func(t *Trial) { t.PauseAt(step) })
}

// StopAt sets the stop ceiling of the trial.
func (s *Scheduler) StopAt(id, step int) error {
	return s.with(id, func(t *Trial) { t.StopAt(step) })
}

// Stop finishes the trial at its next step boundary. The trial is played
// so that an idle trial also reaches Finished.
func (s *Scheduler) Stop(id int) error {
	if err := s.with(id, (*Trial).Stop); err != nil {
		return err
	}
	return s.Play(id)
}

func (s *Scheduler) with(id int, fn func(*Trial)) error {
	t, ok := s.Trial(id)
	if !ok {
		return unknown(id)
	}
	fn(t)
	return nil
}

// Kill tears the trial down. A running trial is paused and torn down once
// its worker returns; any other trial goes immediately.
func (s *Scheduler) Kill(id int) error {
	s.mu.Lock()
	killed, err := s.killLocked(id)
	s.updateIdleLocked()
	s.mu.Unlock()

	s.emitKilled(killed)
	return err
}

// KillAll kills every trial exactly once.
func (s *Scheduler) KillAll() {
	var killed []int

	s.mu.Lock()
	ids := make([]int, 0, len(s.trials))
	for id := range s.trials {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		k, _ := s.killLocked(id)
		killed = append(killed, k...)
	}
	s.updateIdleLocked()
	s.mu.Unlock()

	s.emitKilled(killed)
}

func (s *Scheduler) killLocked(id int) ([]int, error) {
	t, ok := s.trials[id]
	if !ok {
		return nil, unknown(id)
	}
	s.queue = slices.DeleteFunc(s.queue, func(q int) bool { return q == id })
	if slices.Contains(s.running, id) {
		t.Pause()
		s.toKill[id] = true
		delete(s.requeue, id)
		return nil, nil
	}
	s.removeLocked(id)
	return []int{id}, nil
}

func (s *Scheduler) removeLocked(id int) {
	delete(s.trials, id)
	observability.Scheduler().OnTrialKilled(id)
	s.logger.Debug("trial killed", "trial", id)
}

// SetNumThreads changes the worker limit. Raising it dispatches queued
// trials at once. Lowering it pauses the oldest running trials; each is put
// back at the front of the queue when its worker returns.
func (s *Scheduler) SetNumThreads(n int) error {
	if n < 1 {
		return perrors.New(perrors.ErrCodeInvalidValue, "thread count must be at least 1, got %d", n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.threads
	if n == old {
		return nil
	}
	s.threads = n
	observability.Scheduler().OnThreadsChanged(n)

	if n > old {
		for len(s.running) < s.threads && len(s.queue) > 0 {
			next := s.queue[0]
			s.queue = s.queue[1:]
			s.startLocked(next)
		}
		return nil
	}

	excess := len(s.running) - s.pendingLocked() - n
	for _, id := range s.running {
		if excess <= 0 {
			break
		}
		if s.toKill[id] || s.requeue[id] {
			continue
		}
		s.trials[id].Pause()
		s.requeue[id] = true
		excess--
	}
	return nil
}

// pendingLocked counts running trials that will leave the running set
// without taking a worker slot again soon.
func (s *Scheduler) pendingLocked() int {
	n := 0
	for _, id := range s.running {
		if s.toKill[id] || s.requeue[id] {
			n++
		}
	}
	return n
}

// NumThreads returns the worker limit.
func (s *Scheduler) NumThreads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threads
}

// Running returns the ids on a worker, oldest first.
func (s *Scheduler) Running() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.running)
}

// Queued returns the waiting ids in dispatch order.
func (s *Scheduler) Queued() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queue)
}

// Snapshot returns the running and queued ids as one consistent view.
func (s *Scheduler) Snapshot() (running, queued []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.running), slices.Clone(s.queue)
}

// IDs returns the ids of all registered trials in ascending order.
func (s *Scheduler) IDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.trials))
	for id := range s.trials {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Status returns the status of a trial.
func (s *Scheduler) Status(id int) (Status, error) {
	t, ok := s.Trial(id)
	if !ok {
		return StatusInvalid, unknown(id)
	}
	return t.Status(), nil
}

// Wait blocks until no trial is running or queued, or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		if len(s.running) == 0 && len(s.queue) == 0 {
			s.mu.Unlock()
			return nil
		}
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scheduler) updateIdleLocked() {
	busy := len(s.running) > 0 || len(s.queue) > 0
	switch {
	case busy && s.isIdle:
		s.idle = make(chan struct{})
		s.isIdle = false
	case !busy && !s.isIdle:
		close(s.idle)
		s.isIdle = true
	}
}

// listenerSnapshot copies the listeners so they are called unlocked. A
// listener may call back into the scheduler or subscribe another one.
func (s *Scheduler) listenerSnapshot() []Listener {
	s.lmu.RLock()
	defer s.lmu.RUnlock()
	return slices.Clone(s.listeners)
}

func (s *Scheduler) statusChanged(id int, st Status) {
	for _, l := range s.listenerSnapshot() {
		l.OnStatusChanged(id, st)
	}
}

func (s *Scheduler) emitKilled(ids []int) {
	if len(ids) == 0 {
		return
	}
	listeners := s.listenerSnapshot()
	for _, id := range ids {
		for _, l := range listeners {
			l.OnKilled(id)
		}
	}
}

func unknown(id int) error {
	return perrors.Wrap(perrors.ErrCodeTrialNotFound, ErrUnknownTrial, "trial %d", id)
}
