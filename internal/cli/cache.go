package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plexsim/pkg/cache"
	"github.com/matzehuels/plexsim/pkg/config"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the population cache",
		Long: `Manage the file cache of generated populations.

Experiments that use the redis or mongo backends keep their entries there;
these commands only touch the local directory.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached population",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.CacheDir()
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "locate cache directory")
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "open file cache")
			}
			count, err := fc.Clear()
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "clear %s", dir)
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.CacheDir()
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "locate cache directory")
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	}
}
