package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repolift/repolift/config"
	"github.com/repolift/repolift/internal/ghclient"
	"github.com/repolift/repolift/internal/selection"
)

// NewCmdFiles creates the files command.
func NewCmdFiles(opts *Options) *cobra.Command {
	var maxFiles int

	cmd := &cobra.Command{
		Use:   "files <owner/repo>",
		Short: "Select the most relevant files of a repository",
		Long: `Fetch a repository's file tree and print the bounded subset the file
relevance selector would pick for content inspection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, opts, args[0], maxFiles)
		},
	}

	cmd.Flags().StringVar(&opts.Role, "role", "", "target role (backend, frontend, fullstack, mobile, data, devops)")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "cap on selected files")

	return cmd
}

func runFiles(cmd *cobra.Command, opts *Options, repoArg string, maxFiles int) error {
	owner, repo, err := splitRepoArg(repoArg)
	if err != nil {
		return err
	}

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
	if maxFiles == 0 {
		maxFiles = cfg.SelectionMaxFiles()
	}

	ctx := cmd.Context()
	client, err := ghclient.NewClient(ctx, cfg.GetGitHubToken())
	if err != nil {
		return err
	}

	tree, err := client.ListTree(ctx, owner, repo)
	if err != nil {
		return fmt.Errorf("failed to fetch tree: %w", err)
	}

	selected := selection.FilterAndPrioritize(tree, role, maxFiles)
	for _, item := range selected {
		fmt.Printf("%8d  %s\n", item.Size, item.Path)
	}
	fmt.Printf("\n%d of %d tree entries selected\n", len(selected), len(tree))
	return nil
}
