// Package observability provides hooks for metrics and telemetry.
//
// Libraries in this module emit events through small hook interfaces and
// never import a metrics backend themselves. The binary decides at startup
// what receives the events: nothing (the no-op defaults) or the Prometheus
// implementation in this package.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := observability.NewPrometheus("plexsim")
//	    m.Install()
//	    // ... run application, serve m.Handler() on /metrics
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Scheduler().OnTrialDispatched(id, running)
//	observability.Generator().OnGenerateComplete(ctx, cmd, rows, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Scheduler Hooks
// =============================================================================

// SchedulerHooks receives events from the trial scheduler.
type SchedulerHooks interface {
	// OnTrialQueued records a trial waiting for a free worker.
	OnTrialQueued(trialID, queued int)

	// OnTrialDispatched records a trial handed to a worker.
	OnTrialDispatched(trialID, running int)

	// OnTrialCompleted records the end of one run of a trial. status is the
	// trial status after the run.
	OnTrialCompleted(trialID int, status string, steps int, duration time.Duration)

	// OnTrialKilled records the teardown of a trial.
	OnTrialKilled(trialID int)

	// OnThreadsChanged records a new worker limit.
	OnThreadsChanged(threads int)
}

// =============================================================================
// Generator Hooks
// =============================================================================

// GeneratorHooks receives events from attribute generation.
type GeneratorHooks interface {
	OnGenerateStart(ctx context.Context, command string)
	OnGenerateComplete(ctx context.Context, command string, rows int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSchedulerHooks is a no-op implementation of SchedulerHooks.
type NoopSchedulerHooks struct{}

func (NoopSchedulerHooks) OnTrialQueued(int, int)                           {}
func (NoopSchedulerHooks) OnTrialDispatched(int, int)                       {}
func (NoopSchedulerHooks) OnTrialCompleted(int, string, int, time.Duration) {}
func (NoopSchedulerHooks) OnTrialKilled(int)                                {}
func (NoopSchedulerHooks) OnThreadsChanged(int)                             {}

// NoopGeneratorHooks is a no-op implementation of GeneratorHooks.
type NoopGeneratorHooks struct{}

func (NoopGeneratorHooks) OnGenerateStart(context.Context, string) {}
func (NoopGeneratorHooks) OnGenerateComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	schedulerHooks SchedulerHooks = NoopSchedulerHooks{}
	generatorHooks GeneratorHooks = NoopGeneratorHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetSchedulerHooks registers custom scheduler hooks.
// This should be called once at application startup before any trial runs.
func SetSchedulerHooks(h SchedulerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		schedulerHooks = h
	}
}

// SetGeneratorHooks registers custom generator hooks.
func SetGeneratorHooks(h GeneratorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generatorHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Scheduler returns the registered scheduler hooks.
func Scheduler() SchedulerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return schedulerHooks
}

// Generator returns the registered generator hooks.
func Generator() GeneratorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generatorHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	schedulerHooks = NoopSchedulerHooks{}
	generatorHooks = NoopGeneratorHooks{}
	cacheHooks = NoopCacheHooks{}
}
