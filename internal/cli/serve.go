package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plexsim/pkg/config"
	"github.com/matzehuels/plexsim/pkg/observability"
	"github.com/matzehuels/plexsim/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		play    bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve <experiment-file>",
		Short: "Control an experiment over HTTP",
		Long: `Load an experiment and serve its control API until interrupted.

The API lists trials, plays, pauses, stops and kills them, changes their
limits and the number of threads, and exposes Prometheus metrics at
/metrics. See the server package for the routes.`,
		Example: `  plexsim serve experiment.toml --addr :8080 --play
  curl -X POST localhost:8080/experiment/play`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				f.Server.Addr = addr
				if err := f.Validate(); err != nil {
					return err
				}
			}
			return c.serve(cmd.Context(), f, play, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from the experiment file)")
	cmd.Flags().BoolVar(&play, "play", false, "start every trial right away")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not read or write the population cache")

	return cmd
}

func (c *CLI) serve(ctx context.Context, f *config.File, play, noCache bool) error {
	metrics := observability.NewPrometheus(appName)
	metrics.Install()
	defer observability.Reset()

	s, err := c.newSession(ctx, f, noCache)
	if err != nil {
		return err
	}
	defer s.Close()

	if play {
		if err := s.exp.Play(); err != nil {
			return err
		}
	}

	srv := server.New(s.sched, server.Options{
		Experiment: s.exp,
		Metrics:    metrics.Handler(),
		Logger:     loggerFromContext(ctx),
	})
	printKeyValue("Experiment", s.exp.ID().String())
	printKeyValue("Trials", fmt.Sprintf("%d (%d threads)", s.exp.NumTrials(), s.sched.NumThreads()))
	printKeyValue("Listening", "http://"+f.Server.Addr)
	err = srv.ListenAndServe(ctx, f.Server.Addr)
	s.exp.Kill()
	return err
}
