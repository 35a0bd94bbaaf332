package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/repolift/repolift/config"
	"github.com/repolift/repolift/internal/ghclient"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	return &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display the current GitHub API quota: remaining requests, limit, and reset time.`,
		RunE:  runRateLimit,
	}
}

func runRateLimit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	client, err := ghclient.NewClient(ctx, cfg.GetGitHubToken())
	if err != nil {
		return err
	}

	snap, err := client.QuotaSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to get rate limits: %w", err)
	}

	fmt.Println("GitHub API rate limit:")
	fmt.Printf("  Remaining: %d / %d\n", snap.Remaining, snap.Limit)
	fmt.Printf("  Resets:    %s (in %s)\n",
		snap.ResetAt.Format(time.RFC3339),
		time.Until(snap.ResetAt).Round(time.Second))
	return nil
}
