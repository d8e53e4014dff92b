package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plexsim/pkg/buildinfo"
	"github.com/matzehuels/plexsim/pkg/core/attrs"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

// SetVersion sets the version information displayed by --version. It is
// typically called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	if v != "" {
		buildinfo.Version = v
	}
	if c != "" {
		buildinfo.Commit = c
	}
	if d != "" {
		buildinfo.Date = d
	}
}

// Execute runs the plexsim CLI with args and returns an error if any
// command fails.
//
// Logging goes to stderr at info level, or debug level with --verbose (-v).
// The logger is also attached to the command context and reachable through
// loggerFromContext.
//
// Errors are printed to stderr as a single line without usage and then
// returned so the caller can pick an exit code. Configuration errors print
// their user message only, without error codes.
func Execute(ctx context.Context, args []string) error {
	var verbose bool

	c := New(stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		attrs.SetLogger(c.Logger)
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case perrors.IsConfiguration(err):
		printError("%s", perrors.UserMessage(err))
	default:
		printError("%v", err)
	}
	return err
}
