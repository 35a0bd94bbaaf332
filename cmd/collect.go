package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/repolift/repolift/config"
	"github.com/repolift/repolift/internal/collect"
	"github.com/repolift/repolift/internal/ghclient"
)

// NewCmdCollect creates the collect command.
func NewCmdCollect(opts *Options) *cobra.Command {
	var maxFiles int
	var outPath string

	cmd := &cobra.Command{
		Use:   "collect <owner/repo>",
		Short: "Collect a bounded text bundle of a repository",
		Long: `Walk a repository's tree breadth-first under file-count and size caps
and bundle the collected file bodies into a single text payload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, args[0], maxFiles, outPath)
		},
	}

	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "cap on collected files")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the bundle text to a file instead of stdout")

	return cmd
}

func runCollect(cmd *cobra.Command, repoArg string, maxFiles int, outPath string) error {
	owner, repo, err := splitRepoArg(repoArg)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if maxFiles == 0 {
		maxFiles = cfg.CollectionMaxFiles()
	}

	ctx := cmd.Context()
	client, err := ghclient.NewClient(ctx, cfg.GetGitHubToken())
	if err != nil {
		return err
	}

	collector := collect.New(client, collect.Options{
		MaxFiles:    maxFiles,
		MaxFileSize: cfg.CollectionMaxFileBytes(),
		Concurrency: cfg.CollectionConcurrency(),
	})

	bundle, err := collector.Collect(ctx, owner, repo)
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	for _, entry := range bundle.Manifest {
		fmt.Fprintf(os.Stderr, "%8d  %s\n", entry.Size, entry.Path)
	}
	fmt.Fprintf(os.Stderr, "\n%d files, %d bytes\n", len(bundle.Manifest), bundle.TotalBytes())

	if outPath != "" {
		return os.WriteFile(outPath, []byte(bundle.Text), 0o644)
	}
	fmt.Print(bundle.Text)
	return nil
}
