package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialbench/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local answer cache",
		Long: `Model answers are cached under $XDG_CACHE_HOME/spatialbench (or
~/.cache/spatialbench) for 30 days, keyed by provider, model, prompt and
image hash. A Redis cache (--redis-url) is managed on the Redis side.`,
	}
	cmd.AddCommand(c.cacheStatsCommand(), c.cacheClearCommand(), c.cachePathCommand())
	return cmd
}

// openFileCache opens the CLI's file cache directory.
func openFileCache() (*cache.FileCache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count cached answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := openFileCache()
			if err != nil {
				return err
			}
			st, err := fc.Stats()
			if err != nil {
				return err
			}
			c.ui.field("Entries", StyleNumber.Render(fmt.Sprint(st.Entries)))
			c.ui.field("Expired", fmt.Sprint(st.Expired))
			c.ui.field("Size", fmt.Sprintf("%.1f KiB", float64(st.Bytes)/1024))
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := openFileCache()
			if err != nil {
				return err
			}
			var n int
			if expired {
				n, err = fc.Prune(time.Now())
			} else {
				n, err = fc.Clear()
			}
			if err != nil {
				return err
			}
			if n == 0 {
				c.ui.info("Nothing to delete")
				return nil
			}
			c.ui.success("Deleted %d cached answers", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "only delete expired answers")
	return cmd
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("cache dir: %w", err)
			}
			c.ui.line(dir)
			return nil
		},
	}
}
