// Package cmd wires the repolift CLI. The commands only assemble the
// library components and print their results.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/repolift/repolift/internal/log"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "repolift",
		Short: "Score a GitHub profile and contribute missing project artifacts",
		Long: `repolift ranks a developer's repositories by importance, selects the
files worth deeper analysis under strict cost bounds, and can open pull
requests adding missing README, test, or CI artifacts.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Initialize(opts.Verbosity, os.Stderr)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v",
		"increase verbosity (-v, -vv, -vvv)")

	rootCmd.AddCommand(NewCmdRank(opts))
	rootCmd.AddCommand(NewCmdFiles(opts))
	rootCmd.AddCommand(NewCmdCollect(opts))
	rootCmd.AddCommand(NewCmdContribute(opts))
	rootCmd.AddCommand(NewCmdRateLimit())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
