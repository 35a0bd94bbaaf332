package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/repolift/repolift/config"
	"github.com/repolift/repolift/internal/contrib"
	"github.com/repolift/repolift/internal/ghclient"
)

// Client must satisfy the workflow's API surface.
var _ contrib.GitHub = (*ghclient.Client)(nil)

// NewCmdContribute creates the contribute command.
func NewCmdContribute(opts *Options) *cobra.Command {
	var (
		action     string
		path       string
		branch     string
		contentArg string
		title      string
		body       string
	)

	cmd := &cobra.Command{
		Use:   "contribute <owner/repo>",
		Short: "Open a pull request adding a missing artifact",
		Long: `Create a working branch (forking when write access is denied), commit
the supplied file, and open a pull request against the repository's
default branch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContribute(cmd, args[0], action, path, branch, contentArg, title, body)
		},
	}

	cmd.Flags().StringVar(&action, "action", "readme", "artifact to add (readme, tests, ci)")
	cmd.Flags().StringVar(&path, "path", "", "target path in the repository (defaults per action)")
	cmd.Flags().StringVar(&branch, "branch", "", "working branch name (defaults per action)")
	cmd.Flags().StringVarP(&contentArg, "file", "f", "", "file holding the content to commit, or - for stdin")
	cmd.Flags().StringVar(&title, "title", "", "pull request title")
	cmd.Flags().StringVar(&body, "body", "", "pull request body")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runContribute(cmd *cobra.Command, repoArg, actionArg, path, branch, contentArg, title, body string) error {
	owner, repo, err := splitRepoArg(repoArg)
	if err != nil {
		return err
	}
	action, err := contrib.ParseAction(actionArg)
	if err != nil {
		return err
	}

	var content []byte
	if contentArg == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(contentArg)
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	client, err := ghclient.NewClient(ctx, cfg.GetGitHubToken())
	if err != nil {
		return err
	}

	if branch == "" && cfg.BranchPrefix() != "" {
		branch = cfg.BranchPrefix() + "/add-" + string(action)
	}

	workflow := contrib.New(client, contrib.Options{
		ForkWaitInterval: cfg.ForkPollInterval(),
		ForkWaitTimeout:  cfg.ForkWaitTimeout(),
	})
	result, err := workflow.Run(ctx, contrib.Request{
		Owner:   owner,
		Repo:    repo,
		Action:  action,
		Path:    path,
		Branch:  branch,
		Content: content,
		Title:   title,
		Body:    body,
	})
	if err != nil {
		if ghErr, ok := ghclient.AsError(err); ok && ghErr.Hint != "" {
			return fmt.Errorf("%w\nhint: %s", err, ghErr.Hint)
		}
		return err
	}

	_, _ = color.New(color.FgGreen).Printf("Opened pull request #%d\n", result.PullRequestNumber)
	fmt.Println(result.PullRequestURL)
	return nil
}
