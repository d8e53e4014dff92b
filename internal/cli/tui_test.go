package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/plexsim/pkg/config"
	"github.com/matzehuels/plexsim/pkg/sim"
)

func newWatchSession(t *testing.T, stopAt int) *session {
	t.Helper()
	f := config.Default()
	f.Experiment = config.Experiment{Nodes: "#6;infected_value_1", StopAt: stopAt, Trials: 2, Seed: 1}
	f.Graph.ID = "cycle"
	f.Model = config.Plugin{ID: "growth", Attributes: config.Attributes{"prob": 0.5}}
	f.Scheduler.Threads = 1
	f.Cache.Backend = config.BackendNone

	c := New(&strings.Builder{}, LogInfo)
	s, err := c.newSession(withLogger(t.Context(), c.Logger), f, true)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	t.Cleanup(func() {
		s.exp.Kill()
		_ = s.Close()
	})
	return s
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestWatchModelKeys(t *testing.T) {
	s := newWatchSession(t, 1000)
	m := newWatchModel(s.exp, s.sched)

	if len(m.Trials) != 2 || m.Status != sim.StatusReady {
		t.Fatalf("initial model: %d trials, status %s", len(m.Trials), m.Status)
	}

	next, _ := m.Update(key("+"))
	m = next.(WatchModel)
	if m.Threads != 2 {
		t.Errorf("threads after + = %d, want 2", m.Threads)
	}
	next, _ = m.Update(key("-"))
	next, _ = next.Update(key("-"))
	m = next.(WatchModel)
	if m.Threads != 1 {
		t.Errorf("threads never drop below 1, got %d", m.Threads)
	}

	next, _ = m.Update(key("n"))
	m = next.(WatchModel)
	if m.Err != nil {
		t.Fatalf("next step: %v", m.Err)
	}
	if err := s.sched.Wait(t.Context()); err != nil {
		t.Fatal(err)
	}
	for _, tr := range s.exp.Trials() {
		if tr.Step() != 1 {
			t.Errorf("trial %d at step %d after one step", tr.Index(), tr.Step())
		}
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestWatchModelQuitsWhenDone(t *testing.T) {
	s := newWatchSession(t, 5)
	if err := s.exp.Play(); err != nil {
		t.Fatal(err)
	}
	if err := s.sched.Wait(t.Context()); err != nil {
		t.Fatal(err)
	}

	next, cmd := newWatchModel(s.exp, s.sched).Update(tickMsg(time.Now()))
	m := next.(WatchModel)
	if !m.Done || cmd == nil {
		t.Fatalf("finished experiment should quit, done = %v", m.Done)
	}
	view := m.View()
	if !strings.Contains(view, "100%") || strings.Contains(view, "pause/resume") {
		t.Errorf("final view:\n%s", view)
	}
}

func TestWatchModelStop(t *testing.T) {
	s := newWatchSession(t, 1000)
	m := newWatchModel(s.exp, s.sched)

	next, _ := m.Update(key("s"))
	next, _ = next.Update(key("p"))
	if err := next.(WatchModel).Err; err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := s.sched.Wait(t.Context()); err != nil {
		t.Fatal(err)
	}
	if st := s.exp.Status(); st != sim.StatusFinished {
		t.Errorf("status after stop and play = %s, want finished", st)
	}
}
