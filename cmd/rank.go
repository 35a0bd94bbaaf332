package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/repolift/repolift/config"
	"github.com/repolift/repolift/internal/ghclient"
	"github.com/repolift/repolift/internal/rank"
)

// NewCmdRank creates the rank command.
func NewCmdRank(opts *Options) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank your repositories by importance",
		Long: `Score the authenticated user's repositories against a target role and
print the top candidates for deeper analysis, with the reasons behind
each score.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, opts, top)
		},
	}

	cmd.Flags().StringVar(&opts.Role, "role", "", "target role (backend, frontend, fullstack, mobile, data, devops)")
	cmd.Flags().IntVar(&top, "top", 0, "how many repositories to select")

	return cmd
}

func runRank(cmd *cobra.Command, opts *Options, top int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Role == "" {
		opts.Role = cfg.Role
	}
	role, err := opts.ParseRole()
	if err != nil {
		return err
	}
	if top == 0 {
		top = cfg.TopReposCount()
	}

	ctx := cmd.Context()
	client, err := ghclient.NewClient(ctx, cfg.GetGitHubToken())
	if err != nil {
		return err
	}

	repos, err := client.ListOwnRepositories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	scored := rank.New().Top(repos, role, top)

	bold := color.New(color.Bold)
	scoreColor := color.New(color.FgGreen)
	for i, s := range scored {
		fmt.Printf("%d. ", i+1)
		_, _ = bold.Printf("%s ", s.Repository.FullName)
		_, _ = scoreColor.Printf("(%d)\n", s.Score)
		if len(s.Reasons) > 0 {
			fmt.Printf("   %s\n", strings.Join(s.Reasons, ", "))
		}
	}
	if len(scored) == 0 {
		fmt.Println("No repositories found.")
	}
	return nil
}
