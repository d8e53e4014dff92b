// Package server exposes a scheduler over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /experiment                         experiment summary
//	POST /experiment/{play|next|pause|stop|kill}
//	GET  /trials                             every trial with its state
//	GET  /trials/{id}
//	POST /trials/{id}/{play|pause|stop|kill}
//	PUT  /trials/{id}/limits                 {"pause_at": n, "stop_at": n}
//	PUT  /threads                            {"threads": n}
//	GET  /metrics                            prometheus exposition
//
// Errors are JSON objects with the error code and a user-facing message.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	perrors "github.com/matzehuels/plexsim/pkg/errors"
	"github.com/matzehuels/plexsim/pkg/sim"
)

// Options configures a [Server].
type Options struct {
	// Experiment enables the /experiment routes.
	Experiment *sim.Experiment
	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler
	Logger  *log.Logger
}

// Server is the HTTP control API of one scheduler.
type Server struct {
	sched    *sim.Scheduler
	exp      *sim.Experiment
	metrics  http.Handler
	logger   *log.Logger
	validate *validator.Validate
}

// New returns a server controlling sched.
func New(sched *sim.Scheduler, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		sched:    sched,
		exp:      opts.Experiment,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		validate: validator.New(),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.exp != nil {
		r.Route("/experiment", func(r chi.Router) {
			r.Get("/", s.getExperiment)
			r.Post("/{action}", s.experimentAction)
		})
	}

	r.Route("/trials", func(r chi.Router) {
		r.Get("/", s.listTrials)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getTrial)
			r.Put("/limits", s.setLimits)
			r.Post("/{action}", s.trialAction)
		})
	})
	r.Put("/threads", s.setThreads)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("control API listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Trials
// =============================================================================

// TrialView is the JSON form of a trial.
type TrialView struct {
	ID      int        `json:"id"`
	Index   int        `json:"index"`
	Seed    uint64     `json:"seed"`
	Status  sim.Status `json:"status"`
	Step    int        `json:"step"`
	PauseAt int        `json:"pause_at"`
	StopAt  int        `json:"stop_at"`
	Running bool       `json:"running"`
	Queued  bool       `json:"queued"`
}

// TrialsView is the response of GET /trials.
type TrialsView struct {
	Threads int         `json:"threads"`
	Trials  []TrialView `json:"trials"`
}

func (s *Server) view(id int, t *sim.Trial, running, queued map[int]bool) TrialView {
	pauseAt, stopAt := t.Limits()
	return TrialView{
		ID:      id,
		Index:   t.Index(),
		Seed:    t.Seed(),
		Status:  t.Status(),
		Step:    t.Step(),
		PauseAt: pauseAt,
		StopAt:  stopAt,
		Running: running[id],
		Queued:  queued[id],
	}
}

func (s *Server) sets() (running, queued map[int]bool) {
	r, q := s.sched.Snapshot()
	running, queued = make(map[int]bool, len(r)), make(map[int]bool, len(q))
	for _, id := range r {
		running[id] = true
	}
	for _, id := range q {
		queued[id] = true
	}
	return running, queued
}

func (s *Server) listTrials(w http.ResponseWriter, _ *http.Request) {
	running, queued := s.sets()
	out := TrialsView{Threads: s.sched.NumThreads(), Trials: []TrialView{}}
	for _, id := range s.sched.IDs() {
		if t, ok := s.sched.Trial(id); ok {
			out.Trials = append(out.Trials, s.view(id, t, running, queued))
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getTrial(w http.ResponseWriter, r *http.Request) {
	id, t, ok := s.trial(w, r)
	if !ok {
		return
	}
	running, queued := s.sets()
	respondJSON(w, http.StatusOK, s.view(id, t, running, queued))
}

func (s *Server) trialAction(w http.ResponseWriter, r *http.Request) {
	id, _, ok := s.trial(w, r)
	if !ok {
		return
	}

	var err error
	switch action := chi.URLParam(r, "action"); action {
	case "play":
		err = s.sched.Play(id)
	case "pause":
		err = s.sched.Pause(id)
	case "stop":
		err = s.sched.Stop(id)
	case "kill":
		err = s.sched.Kill(id)
	default:
		err = perrors.New(perrors.ErrCodeInvalidCommand, "unknown trial action %q", action)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// LimitsRequest is the body of PUT /trials/{id}/limits. Absent fields are
// left unchanged.
type LimitsRequest struct {
	PauseAt *int `json:"pause_at" validate:"omitempty,gte=0,lte=100000000"`
	StopAt  *int `json:"stop_at" validate:"omitempty,gte=0,lte=100000000"`
}

func (s *Server) setLimits(w http.ResponseWriter, r *http.Request) {
	id, t, ok := s.trial(w, r)
	if !ok {
		return
	}
	var req LimitsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.StopAt != nil {
		_ = s.sched.StopAt(id, *req.StopAt)
	}
	if req.PauseAt != nil {
		_ = s.sched.PauseAt(id, *req.PauseAt)
	}
	running, queued := s.sets()
	respondJSON(w, http.StatusOK, s.view(id, t, running, queued))
}

// ThreadsRequest is the body of PUT /threads.
type ThreadsRequest struct {
	Threads int `json:"threads" validate:"required,gte=1"`
}

func (s *Server) setThreads(w http.ResponseWriter, r *http.Request) {
	var req ThreadsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.sched.SetNumThreads(req.Threads); err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"threads": s.sched.NumThreads()})
}

func (s *Server) trial(w http.ResponseWriter, r *http.Request) (int, *sim.Trial, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, perrors.New(perrors.ErrCodeInvalidInput, "trial id %q is not a number", chi.URLParam(r, "id")))
		return 0, nil, false
	}
	t, ok := s.sched.Trial(id)
	if !ok {
		s.respondError(w, perrors.Wrap(perrors.ErrCodeTrialNotFound, sim.ErrUnknownTrial, "trial %d", id))
		return 0, nil, false
	}
	return id, t, true
}

// =============================================================================
// Experiment
// =============================================================================

// ExperimentView is the response of GET /experiment.
type ExperimentView struct {
	ID       string     `json:"id"`
	Model    string     `json:"model"`
	Graph    string     `json:"graph"`
	Status   sim.Status `json:"status"`
	Progress int        `json:"progress"`
	Trials   int        `json:"trials"`
	StopAt   int        `json:"stop_at"`
}

func (s *Server) getExperiment(w http.ResponseWriter, _ *http.Request) {
	cfg := s.exp.Config()
	respondJSON(w, http.StatusOK, ExperimentView{
		ID:       s.exp.ID().String(),
		Model:    cfg.ModelID,
		Graph:    cfg.GraphID,
		Status:   s.exp.Status(),
		Progress: s.exp.Progress(),
		Trials:   s.exp.NumTrials(),
		StopAt:   cfg.StopAt,
	})
}

func (s *Server) experimentAction(w http.ResponseWriter, r *http.Request) {
	var err error
	switch action := chi.URLParam(r, "action"); action {
	case "play":
		err = s.exp.Play()
	case "next":
		err = s.exp.PlayNext()
	case "pause":
		s.exp.Pause()
	case "stop":
		s.exp.Stop()
	case "kill":
		s.exp.Kill()
	default:
		err = perrors.New(perrors.ErrCodeInvalidCommand, "unknown experiment action %q", action)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.respondError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode request body"))
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.respondError(w, perrors.Wrap(perrors.ErrCodeInvalidValue, err, "validate request"))
		return false
	}
	return true
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	code := string(perrors.GetCode(err))
	if code == "" {
		code = string(perrors.ErrCodeInternal)
	}
	respondJSON(w, status, errorResponse{Code: code, Message: perrors.UserMessage(err)})
}

func statusFor(err error) int {
	switch perrors.GetCode(err) {
	case perrors.ErrCodeTrialNotFound, perrors.ErrCodeNotFound:
		return http.StatusNotFound
	case perrors.ErrCodeInvalidConfig:
		return http.StatusConflict
	}
	if perrors.IsConfiguration(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
