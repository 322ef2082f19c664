package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialbench/pkg/bench"
)

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Print a shell completion script",
		Long: `Print a shell completion script for spatialbench.

Setting names (rel_sybVp_nP, abs_imgVp_aP, ...) and modes complete as
flag values once the script is loaded:

  source <(spatialbench completion bash)
  spatialbench completion zsh > "${fpath[1]}/_spatialbench"
  spatialbench completion fish | source`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeWith registers a fixed list of values for flag.
func completeWith(cmd *cobra.Command, flag string, values ...string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
}

func settingNames() []string {
	names := make([]string, len(bench.StandardSuite))
	for i, s := range bench.StandardSuite {
		names[i] = s.String()
	}
	return names
}
