// Package ghclient provides the rate-governed, retry-aware GitHub API
// client used by every repolift component that touches the network.
package ghclient

import (
	"context"
	"fmt"
	"os"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/repolift/repolift/internal/model"
)

// PullRequest is the caller-facing result of opening a pull request.
type PullRequest struct {
	Number int
	URL    string
}

// Client wraps the GitHub API client. Every method routes through the
// resilient executor, which consults the shared rate governor.
type Client struct {
	raw      *gh.Client
	exec     *Executor
	governor *Governor
	// token is intentionally unexported. NEVER add String(), MarshalJSON(),
	// or any method that could expose this value in logs or serialized output.
	token string
}

// NewClient creates a client using a personal access token, falling back to
// the GITHUB_TOKEN environment variable when token is empty.
func NewClient(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	raw := gh.NewClient(oauth2.NewClient(ctx, ts))

	c := &Client{
		raw:   raw,
		token: token,
	}

	// The refresh path calls the rate_limit endpoint directly: it must not
	// recurse into the executor it is meant to unblock.
	c.governor = NewGovernor(func(ctx context.Context) (Snapshot, error) {
		limits, _, err := raw.RateLimit.Get(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		core := limits.GetCore()
		return Snapshot{
			Remaining: core.Remaining,
			Limit:     core.Limit,
			ResetAt:   core.Reset.Time,
		}, nil
	})
	c.exec = NewExecutor(c.governor)

	return c, nil
}

// Governor exposes the shared rate governor, mainly for status reporting.
func (c *Client) Governor() *Governor {
	return c.governor
}

// AuthenticatedUser returns the login of the token's user.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	var user *gh.User
	err := c.exec.Do(ctx, "get authenticated user", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		user, resp, err = c.raw.Users.Get(ctx, "")
		return resp, err
	})
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

// Repository fetches a repository's metadata as a domain descriptor.
func (c *Client) Repository(ctx context.Context, owner, repo string) (model.Repository, error) {
	r, err := c.repository(ctx, owner, repo)
	if err != nil {
		return model.Repository{}, err
	}
	return descriptorFromRepo(r), nil
}

// DefaultBranch returns a repository's default branch, or "main" when the
// API reports none.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, err := c.repository(ctx, owner, repo)
	if err != nil {
		return "", err
	}
	if branch := r.GetDefaultBranch(); branch != "" {
		return branch, nil
	}
	return "main", nil
}

func (c *Client) repository(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	var r *gh.Repository
	err := c.exec.Do(ctx, "get repository", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		r, resp, err = c.raw.Repositories.Get(ctx, owner, repo)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListOwnRepositories lists the authenticated user's non-archived source
// repositories as domain descriptors, newest push first.
func (c *Client) ListOwnRepositories(ctx context.Context) ([]model.Repository, error) {
	opts := &gh.RepositoryListOptions{
		Sort:        "pushed",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var repos []model.Repository
	for {
		var page []*gh.Repository
		var resp *gh.Response
		err := c.exec.Do(ctx, "list repositories", func(ctx context.Context) (*gh.Response, error) {
			var err error
			page, resp, err = c.raw.Repositories.List(ctx, "", opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, r := range page {
			if r.GetArchived() {
				continue
			}
			repos = append(repos, descriptorFromRepo(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// ListTree fetches the repository's full file tree on its default branch as
// a flat listing, suitable as selector input.
func (c *Client) ListTree(ctx context.Context, owner, repo string) ([]model.TreeItem, error) {
	branch, err := c.DefaultBranch(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	var tree *gh.Tree
	err = c.exec.Do(ctx, "get tree", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		tree, resp, err = c.raw.Git.GetTree(ctx, owner, repo, branch, true)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.TreeItem, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		kind := model.TreeItemBlob
		if e.GetType() == "tree" {
			kind = model.TreeItemTree
		}
		items = append(items, model.TreeItem{
			Path: e.GetPath(),
			Kind: kind,
			Size: e.GetSize(),
		})
	}
	return items, nil
}

// QuotaSnapshot fetches the current core API quota and records it with the
// governor.
func (c *Client) QuotaSnapshot(ctx context.Context) (Snapshot, error) {
	var limits *gh.RateLimits
	err := c.exec.Do(ctx, "get rate limits", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		limits, resp, err = c.raw.RateLimit.Get(ctx)
		return resp, err
	})
	if err != nil {
		return Snapshot{}, err
	}

	core := limits.GetCore()
	snap := Snapshot{
		Remaining: core.Remaining,
		Limit:     core.Limit,
		ResetAt:   core.Reset.Time,
	}
	c.governor.set(snap)
	return snap, nil
}

// ListDirectory lists one directory of a repository's tree on its default
// branch. Path "" addresses the repository root.
func (c *Client) ListDirectory(ctx context.Context, owner, repo, path string) ([]model.TreeItem, error) {
	var entries []*gh.RepositoryContent
	err := c.exec.Do(ctx, "list directory", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		_, entries, resp, err = c.raw.Repositories.GetContents(ctx, owner, repo, path, nil)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.TreeItem, 0, len(entries))
	for _, e := range entries {
		kind := model.TreeItemBlob
		if e.GetType() == "dir" {
			kind = model.TreeItemTree
		}
		items = append(items, model.TreeItem{
			Path: e.GetPath(),
			Kind: kind,
			Size: e.GetSize(),
		})
	}
	return items, nil
}

// FileContent fetches and decodes one file's body from the default branch.
func (c *Client) FileContent(ctx context.Context, owner, repo, path string) (string, error) {
	var file *gh.RepositoryContent
	err := c.exec.Do(ctx, "get file content", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		file, _, resp, err = c.raw.Repositories.GetContents(ctx, owner, repo, path, nil)
		return resp, err
	})
	if err != nil {
		return "", err
	}
	if file == nil {
		return "", &Error{Kind: KindNotFound, Op: "get file content", Hint: path + " is not a file"}
	}
	return file.GetContent()
}

// FileSHA looks up the blob SHA of path on ref. A missing file is not an
// error; it reports exists=false, which callers treat as "create".
func (c *Client) FileSHA(ctx context.Context, owner, repo, path, ref string) (sha string, exists bool, err error) {
	var file *gh.RepositoryContent
	err = c.exec.Do(ctx, "get file sha", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		file, _, resp, err = c.raw.Repositories.GetContents(ctx, owner, repo, path,
			&gh.RepositoryContentGetOptions{Ref: ref})
		return resp, err
	})
	if err != nil {
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if file == nil {
		return "", false, nil
	}
	return file.GetSHA(), true, nil
}

// BranchHead returns the commit SHA a branch currently points at.
func (c *Client) BranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	var ref *gh.Reference
	err := c.exec.Do(ctx, "get ref", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		ref, resp, err = c.raw.Git.GetRef(ctx, owner, repo, "refs/heads/"+branch)
		return resp, err
	})
	if err != nil {
		return "", err
	}
	return ref.GetObject().GetSHA(), nil
}

// CreateBranch creates refs/heads/branch pointing at sha.
func (c *Client) CreateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	ref := &gh.Reference{
		Ref:    gh.String("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: gh.String(sha)},
	}
	return c.exec.Do(ctx, "create ref", func(ctx context.Context) (*gh.Response, error) {
		_, resp, err := c.raw.Git.CreateRef(ctx, owner, repo, ref)
		return resp, err
	})
}

// CreateFork asks GitHub to fork the repository for the authenticated user.
// Fork creation is asynchronous; the executor treats the 202 as success and
// callers poll Repository until the fork resolves.
func (c *Client) CreateFork(ctx context.Context, owner, repo string) error {
	return c.exec.Do(ctx, "create fork", func(ctx context.Context) (*gh.Response, error) {
		_, resp, err := c.raw.Repositories.CreateFork(ctx, owner, repo, nil)
		return resp, err
	})
}

// CommitFile writes content to path on branch. A non-empty sha updates the
// existing blob; an empty sha creates the file.
func (c *Client) CommitFile(ctx context.Context, owner, repo, path, branch, message string, content []byte, sha string) error {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: content,
		Branch:  gh.String(branch),
	}
	if sha != "" {
		opts.SHA = gh.String(sha)
	}

	return c.exec.Do(ctx, "commit file", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		if sha != "" {
			_, resp, err = c.raw.Repositories.UpdateFile(ctx, owner, repo, path, opts)
		} else {
			_, resp, err = c.raw.Repositories.CreateFile(ctx, owner, repo, path, opts)
		}
		return resp, err
	})
}

// OpenPullRequest opens a pull request against base on owner/repo. head is
// either a bare branch name or "forkOwner:branch" when the branch lives on
// a fork.
func (c *Client) OpenPullRequest(ctx context.Context, owner, repo, title, head, base, body string) (PullRequest, error) {
	newPR := &gh.NewPullRequest{
		Title:               gh.String(title),
		Head:                gh.String(head),
		Base:                gh.String(base),
		Body:                gh.String(body),
		MaintainerCanModify: gh.Bool(true),
	}

	var pr *gh.PullRequest
	err := c.exec.Do(ctx, "create pull request", func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		pr, resp, err = c.raw.PullRequests.Create(ctx, owner, repo, newPR)
		return resp, err
	})
	if err != nil {
		return PullRequest{}, err
	}

	return PullRequest{
		Number: pr.GetNumber(),
		URL:    pr.GetHTMLURL(),
	}, nil
}

func descriptorFromRepo(r *gh.Repository) model.Repository {
	return model.Repository{
		FullName: r.GetFullName(),
		IsFork:   r.GetFork(),
		Stars:    r.GetStargazersCount(),
		Forks:    r.GetForksCount(),
		Language: r.GetLanguage(),
		PushedAt: r.GetPushedAt().Time,
		Topics:   r.Topics,
	}
}
