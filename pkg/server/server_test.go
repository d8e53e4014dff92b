package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/plexsim/pkg/core/graph"
	"github.com/matzehuels/plexsim/pkg/observability"
	"github.com/matzehuels/plexsim/pkg/plugin/builtin"
	"github.com/matzehuels/plexsim/pkg/sim"
)

var quiet = log.New(io.Discard)

type fixture struct {
	sched *sim.Scheduler
	exp   *sim.Experiment
	srv   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sched := sim.NewScheduler(sim.Options{Threads: 2, Logger: quiet})
	exp, err := sim.NewExperiment(builtin.Default(), sched, sim.Config{
		GraphID:    "cycle",
		GraphKind:  graph.Undirected,
		ModelID:    "growth",
		ModelAttrs: map[string]string{"prob": "0.5"},
		Nodes:      "#8;infected_value_0",
		StopAt:     10,
		Trials:     3,
	}, sim.WithLogger(quiet))
	require.NoError(t, err)
	exp.Trials()

	prom := observability.NewPrometheus("plexsim")
	srv := httptest.NewServer(New(sched, Options{Experiment: exp, Metrics: prom.Handler(), Logger: quiet}).Handler())
	t.Cleanup(srv.Close)
	return &fixture{sched: sched, exp: exp, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, f.sched.Wait(ctx))
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestListTrials(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/trials", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[TrialsView](t, resp)
	assert.Equal(t, 2, out.Threads)
	require.Len(t, out.Trials, 3)
	for i, tr := range out.Trials {
		assert.Equal(t, i, tr.Index)
		assert.Equal(t, sim.StatusReady, tr.Status)
		assert.Equal(t, 10, tr.StopAt)
		assert.False(t, tr.Running)
	}
}

func TestTrialLifecycle(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPut, "/trials/0/limits", `{"pause_at": 4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, decode[TrialView](t, resp).PauseAt)

	resp = f.do(t, http.MethodPost, "/trials/0/play", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	f.wait(t)

	view := decode[TrialView](t, f.do(t, http.MethodGet, "/trials/0", ""))
	assert.Equal(t, sim.StatusReady, view.Status)
	assert.Equal(t, 4, view.Step)

	resp = f.do(t, http.MethodPost, "/trials/0/stop", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	f.wait(t)

	view = decode[TrialView](t, f.do(t, http.MethodGet, "/trials/0", ""))
	assert.Equal(t, sim.StatusFinished, view.Status)
	assert.Equal(t, 4, view.Step)

	resp = f.do(t, http.MethodPost, "/trials/0/kill", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/trials/0", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "TRIAL_NOT_FOUND", decode[errorResponse](t, resp).Code)
}

func TestTrialErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name, method, path, body string
		status                   int
		code                     string
	}{
		{"unknown trial", http.MethodGet, "/trials/99", "", http.StatusNotFound, "TRIAL_NOT_FOUND"},
		{"bad id", http.MethodGet, "/trials/abc", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown action", http.MethodPost, "/trials/0/explode", "", http.StatusBadRequest, "INVALID_COMMAND"},
		{"negative limit", http.MethodPut, "/trials/0/limits", `{"stop_at": -1}`, http.StatusBadRequest, "INVALID_VALUE"},
		{"unknown field", http.MethodPut, "/trials/0/limits", `{"resume": 1}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"zero threads", http.MethodPut, "/threads", `{"threads": 0}`, http.StatusBadRequest, "INVALID_VALUE"},
		{"bad json", http.MethodPut, "/threads", `{`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decode[errorResponse](t, resp).Code)
		})
	}
}

func TestSetThreads(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPut, "/threads", `{"threads": 5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"threads": 5}, decode[map[string]int](t, resp))
	assert.Equal(t, 5, f.sched.NumThreads())
}

func TestExperimentRoutes(t *testing.T) {
	f := newFixture(t)

	view := decode[ExperimentView](t, f.do(t, http.MethodGet, "/experiment", ""))
	assert.Equal(t, f.exp.ID().String(), view.ID)
	assert.Equal(t, "growth", view.Model)
	assert.Equal(t, sim.StatusReady, view.Status)
	assert.Equal(t, 0, view.Progress)

	assert.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/experiment/next", "").StatusCode)
	f.wait(t)
	view = decode[ExperimentView](t, f.do(t, http.MethodGet, "/experiment", ""))
	assert.Equal(t, 10, view.Progress)

	assert.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/experiment/play", "").StatusCode)
	f.wait(t)
	view = decode[ExperimentView](t, f.do(t, http.MethodGet, "/experiment", ""))
	assert.Equal(t, sim.StatusFinished, view.Status)
	assert.Equal(t, 100, view.Progress)

	resp := f.do(t, http.MethodPost, "/experiment/rewind", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/experiment/kill", "").StatusCode)
	assert.Empty(t, f.sched.IDs())
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestListenAndServeStopsWithContext(t *testing.T) {
	sched := sim.NewScheduler(sim.Options{Threads: 1, Logger: quiet})
	s := New(sched, Options{Logger: quiet})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
