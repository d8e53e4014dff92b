package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/plexsim/pkg/config"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
	"github.com/matzehuels/plexsim/pkg/sim"
)

// pollInterval is how often progress is redrawn while trials run.
const pollInterval = 200 * time.Millisecond

// runOptions holds the flags of the run command. Flags override the
// experiment file only when given.
type runOptions struct {
	threads int
	stopAt  int
	trials  int
	seed    uint64
	watch   bool
	noCache bool
	out     string
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <experiment-file>",
		Short: "Run every trial of an experiment",
		Long: `Run every trial of the experiment described by a TOML or YAML file.

Trials run concurrently on a bounded pool of threads. When all trials are
done, a summary table is printed and, with --out, the final node population
of every trial is written to <out>/trial-NNN.csv.

With --watch an interactive view shows the progress of each trial:
  p  pause or resume      n  run one more step
  s  stop all trials      +/-  change the number of threads
  q  quit`,
		Example: `  plexsim run experiment.toml
  plexsim run experiment.yaml --trials 10 --stop-at 500 -j 4
  plexsim run experiment.toml --watch --out results/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.Load(args[0])
			if err != nil {
				return err
			}
			opts.apply(cmd.Flags(), f)
			if err := f.Validate(); err != nil {
				return err
			}
			return c.runExperiment(cmd.Context(), f, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.threads, "threads", "j", 0, "number of trials run at once")
	cmd.Flags().IntVar(&opts.stopAt, "stop-at", 0, "number of steps of every trial")
	cmd.Flags().IntVar(&opts.trials, "trials", 0, "number of trials")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed of the first trial")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "show an interactive progress view")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the population cache")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "directory for the final population of each trial")

	return cmd
}

func (o runOptions) apply(flags *pflag.FlagSet, f *config.File) {
	if flags.Changed("threads") {
		f.Scheduler.Threads = o.threads
	}
	if flags.Changed("stop-at") {
		f.Experiment.StopAt = o.stopAt
	}
	if flags.Changed("trials") {
		f.Experiment.Trials = o.trials
	}
	if flags.Changed("seed") {
		f.Experiment.Seed = o.seed
	}
}

// runExperiment runs f to completion and reports the outcome.
func (c *CLI) runExperiment(ctx context.Context, f *config.File, opts runOptions) error {
	s, err := c.newSession(ctx, f, opts.noCache)
	if err != nil {
		return err
	}
	defer s.Close()

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	logger.Debug("preparing trials", "experiment", s.exp.ID(), "trials", f.Experiment.Trials,
		"threads", s.sched.NumThreads())
	if err := s.exp.Prepare(ctx); err != nil {
		return err
	}

	if opts.watch {
		err = c.watch(ctx, s)
	} else {
		err = c.runHeadless(ctx, s)
	}
	if err != nil {
		return err
	}

	trials := s.exp.Trials()
	printTrialTable(trials)
	if s.exp.Status() == sim.StatusInvalid {
		return perrors.New(perrors.ErrCodeInvalidConfig, "experiment %s is invalid; see the log for the failing trial", s.exp.ID())
	}
	prog.done(fmt.Sprintf("Ran %d trials", len(trials)))

	if opts.out != "" {
		return exportTrials(s.exp, opts.out)
	}
	return nil
}

// runHeadless plays every trial and shows a spinner until they are done.
// Cancelling ctx kills the trials.
func (c *CLI) runHeadless(ctx context.Context, s *session) error {
	spinner := newSpinnerWithContext(ctx, "Running trials...")
	spinner.Start()
	defer spinner.Stop()

	if err := s.exp.Play(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.sched.Wait(ctx) }()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				s.exp.Kill()
			}
			return err
		case <-ticker.C:
			spinner.SetMessage(fmt.Sprintf("Running trials... %d%%", s.exp.Progress()))
		}
	}
}

// watch runs the interactive view. Quitting early stops the remaining
// trials at their next step.
func (c *CLI) watch(ctx context.Context, s *session) error {
	if err := s.exp.Play(); err != nil {
		return err
	}

	p := tea.NewProgram(newWatchModel(s.exp, s.sched), tea.WithContext(ctx), tea.WithOutput(stderr))
	final, err := p.Run()
	if ctx.Err() != nil {
		s.exp.Kill()
		return ctx.Err()
	}
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeInternal, err, "watch view")
	}

	if m, ok := final.(WatchModel); ok && !m.Done {
		printWarning("Stopping the remaining trials at their current step")
	}
	s.exp.Stop()
	return s.sched.Wait(ctx)
}

// exportTrials writes the final population of every trial under dir.
func exportTrials(exp *sim.Experiment, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perrors.Wrap(perrors.ErrCodeIO, err, "create %s", dir)
	}
	for i := range exp.NumTrials() {
		path := filepath.Join(dir, fmt.Sprintf("trial-%03d.csv", i))
		if err := exp.ExportTrial(i, path); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}
