package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plexsim/pkg/buildinfo"
	"github.com/matzehuels/plexsim/pkg/cache"
	"github.com/matzehuels/plexsim/pkg/config"
	"github.com/matzehuels/plexsim/pkg/plugin"
	"github.com/matzehuels/plexsim/pkg/plugin/builtin"
	"github.com/matzehuels/plexsim/pkg/sim"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "plexsim"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Registry holds the plugins commands can use. Nil means the built-ins.
	Registry *plugin.Registry
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

func (c *CLI) registry() *plugin.Registry {
	if c.Registry != nil {
		return c.Registry
	}
	return builtin.Default()
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "plexsim runs agent-based models on graphs",
		Long:         `plexsim runs many independent trials of a network simulation model concurrently, with pause, stop and resume control over every trial.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.runCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.pluginsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Experiment Factory
// =============================================================================

// session is an experiment with the scheduler and cache it runs on.
type session struct {
	exp   *sim.Experiment
	sched *sim.Scheduler
	store cache.Cache
}

func (s *session) Close() error { return s.store.Close() }

// newSession builds the experiment described by f. A cache that cannot be
// opened is logged and replaced by no cache.
func (c *CLI) newSession(ctx context.Context, f *config.File, noCache bool) (*session, error) {
	logger := loggerFromContext(ctx)
	var store cache.Cache = cache.NewNullCache()
	if !noCache {
		opened, err := f.OpenCache(ctx)
		if err != nil {
			logger.Warn("population cache unavailable, continuing without it", "backend", f.Cache.Backend, "err", err)
		} else {
			store = opened
		}
	}

	sched := sim.NewScheduler(sim.Options{Threads: f.Scheduler.Threads, Logger: logger})
	exp, err := sim.NewExperiment(c.registry(), sched, f.SimConfig(),
		sim.WithCache(store, f.Keyer()),
		sim.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &session{exp: exp, sched: sched, store: store}, nil
}
