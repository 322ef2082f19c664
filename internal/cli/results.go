package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// resultsCommand creates the results command for browsing stored runs.
func (c *CLI) resultsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List and inspect benchmark results",
	}

	cmd.AddCommand(c.resultsListCommand())
	cmd.AddCommand(c.resultsShowCommand())

	return cmd
}

func (c *CLI) resultsListCommand() *cobra.Command {
	var store storeFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				c.ui.info("No results")
				return nil
			}
			for _, name := range names {
				c.ui.line(name)
			}
			return nil
		},
	}
	store.register(cmd)
	return cmd
}

func (c *CLI) resultsShowCommand() *cobra.Command {
	var (
		store    storeFlags
		asJSON   bool
		failures bool
	)
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the summary of a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.ui.w)
				enc.SetIndent("", "    ")
				return enc.Encode(res)
			}

			c.ui.line(StyleTitle.Render(res.Name))
			c.ui.field("Setting", res.Setting)
			c.ui.field("Model", res.Provider+"/"+res.Model)
			c.ui.field("Started", res.StartedAt.Local().Format("2006-01-02 15:04:05"))
			c.ui.field("Duration", res.Duration.Round(time.Millisecond).String())
			if res.Build.Version != "" {
				c.ui.field("Build", res.Build.Version+" ("+res.Build.Commit+")")
			}
			c.ui.field("Accuracy", StyleNumber.Render(fmt.Sprintf("%.1f%%", 100*res.Accuracy)))
			c.ui.stats(
				fmt.Sprintf("%d/%d correct", res.Correct, res.Total),
				fmt.Sprintf("%d errors", res.Errors),
				fmt.Sprintf("%d cached", res.Cached),
			)
			if failures {
				c.ui.blank()
				for _, it := range res.Items {
					if it.Correct {
						continue
					}
					c.ui.failure("%s  want %s, got %q", it.ImgName, it.GT, it.Answer)
					if it.Error != "" {
						c.ui.detail("%s", it.Error)
					}
				}
			}
			return nil
		},
	}
	store.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&failures, "failures", false, "list every incorrect answer")
	return cmd
}
