// Package cli implements the spatialbench command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialbench/pkg/buildinfo"
	"github.com/matzehuels/spatialbench/pkg/cache"
)

const appName = "spatialbench"

// Log levels for [New].
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger
	ui     printer

	verbose    bool
	configPath string
	config     fileConfig
	unhook     func()
}

// New returns a CLI that logs to w at level. The --verbose flag lowers the
// level to debug for a single invocation.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), ui: newPrinter(os.Stdout)}
}

// RootCommand builds the command tree. Errors are returned, not printed;
// the caller decides how to report them.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Spatialbench generates spatial-reasoning benchmarks for vision-language models",
		Long: `Spatialbench draws synthetic map images of labelled markers, asks where one
marker lies relative to another, and scores vision-language models on the answers.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.ui = newPrinter(cmd.OutOrStdout())
			if c.verbose {
				c.Logger.SetLevel(LogDebug)
			}
			c.unhook = registerDebugHooks(c.Logger)
			return c.applyConfig(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.unhook != nil {
				c.unhook()
			}
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log debug output")
	pf.StringVar(&c.configPath, "config", "", "read flag defaults from a TOML or YAML file")

	root.AddCommand(
		c.generateCommand(),
		c.benchCommand(),
		c.resultsCommand(),
		c.serveCommand(),
		c.renderCommand(),
		c.cacheCommand(),
		c.completionCommand(),
	)
	return root
}

// newCache opens the answer cache: none with noCache, Redis when redisURL
// is set, otherwise files under [cacheDir].
func (c *CLI) newCache(ctx context.Context, noCache bool, redisURL string) (cache.Cache, error) {
	switch {
	case noCache:
		return cache.NewNullCache(), nil
	case redisURL != "":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: redisURL, Prefix: appName + ":"})
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("answer cache", "backend", "redis", "url", redisURL)
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("answer cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("answer cache", "backend", "file", "dir", dir)
	return fc, nil
}

// cacheDir is $XDG_CACHE_HOME/spatialbench, or ~/.cache/spatialbench.
func cacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, appName), nil
}
