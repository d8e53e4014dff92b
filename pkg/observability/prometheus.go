package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements every hook interface on top of a private
// prometheus registry.
type Prometheus struct {
	registry *prometheus.Registry

	TrialsQueued     prometheus.Counter
	TrialsDispatched prometheus.Counter
	TrialsCompleted  *prometheus.CounterVec
	TrialsKilled     prometheus.Counter
	TrialRunDuration prometheus.Histogram
	TrialSteps       prometheus.Counter
	QueueLength      prometheus.Gauge
	RunningTrials    prometheus.Gauge
	Threads          prometheus.Gauge

	GenerateDuration *prometheus.HistogramVec
	GeneratedRows    prometheus.Counter

	CacheRequests *prometheus.CounterVec
	CacheBytes    prometheus.Counter
}

// NewPrometheus creates the metrics under namespace and registers them,
// together with the Go runtime collectors, on a fresh registry.
func NewPrometheus(namespace string) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		TrialsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_queued_total",
			Help:      "Number of times a trial waited for a free worker",
		}),
		TrialsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_dispatched_total",
			Help:      "Number of trial runs handed to a worker",
		}),
		TrialsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_completed_total",
			Help:      "Number of trial runs completed, by resulting status",
		}, []string{"status"}),
		TrialsKilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_killed_total",
			Help:      "Number of trials torn down",
		}),
		TrialRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trial_run_duration_seconds",
			Help:      "Wall time of one trial run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		TrialSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trial_steps_total",
			Help:      "Steps reached by completed trial runs",
		}),
		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_queue_length",
			Help:      "Trials waiting for a worker",
		}),
		RunningTrials: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running_trials",
			Help:      "Trials currently on a worker",
		}),
		Threads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_threads",
			Help:      "Configured worker limit",
		}),
		GenerateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Attribute generation time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		GeneratedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_rows_total",
			Help:      "Attribute sets produced by generators",
		}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups and writes",
		}, []string{"key_type", "result"}),
		CacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache",
		}),
	}

	p.registry.MustRegister(
		p.TrialsQueued, p.TrialsDispatched, p.TrialsCompleted, p.TrialsKilled,
		p.TrialRunDuration, p.TrialSteps, p.QueueLength, p.RunningTrials, p.Threads,
		p.GenerateDuration, p.GeneratedRows,
		p.CacheRequests, p.CacheBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry returns the underlying prometheus registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Install registers p as the global scheduler, generator and cache hooks.
func (p *Prometheus) Install() {
	SetSchedulerHooks(p)
	SetGeneratorHooks(p)
	SetCacheHooks(p)
}

func (p *Prometheus) OnTrialQueued(_, queued int) {
	p.TrialsQueued.Inc()
	p.QueueLength.Set(float64(queued))
}

func (p *Prometheus) OnTrialDispatched(_, running int) {
	p.TrialsDispatched.Inc()
	p.RunningTrials.Set(float64(running))
}

func (p *Prometheus) OnTrialCompleted(_ int, status string, steps int, d time.Duration) {
	p.TrialsCompleted.WithLabelValues(status).Inc()
	p.TrialRunDuration.Observe(d.Seconds())
	p.TrialSteps.Add(float64(steps))
}

func (p *Prometheus) OnTrialKilled(int) { p.TrialsKilled.Inc() }

func (p *Prometheus) OnThreadsChanged(threads int) { p.Threads.Set(float64(threads)) }

func (p *Prometheus) OnGenerateStart(context.Context, string) {}

func (p *Prometheus) OnGenerateComplete(_ context.Context, _ string, rows int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.GenerateDuration.WithLabelValues(status).Observe(d.Seconds())
	p.GeneratedRows.Add(float64(rows))
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheRequests.WithLabelValues(keyType, "set").Inc()
	p.CacheBytes.Add(float64(size))
}
