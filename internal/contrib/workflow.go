package contrib

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/repolift/repolift/internal/ghclient"
	"github.com/repolift/repolift/internal/log"
	"github.com/repolift/repolift/internal/waitfor"
)

const (
	// DefaultForkWaitInterval is how often fork availability is polled.
	DefaultForkWaitInterval = 1 * time.Second

	// DefaultForkWaitTimeout bounds the wait for an async fork to resolve.
	DefaultForkWaitTimeout = 15 * time.Second
)

// GitHub is the API surface the workflow needs. ghclient.Client satisfies it.
type GitHub interface {
	AuthenticatedUser(ctx context.Context) (string, error)
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)
	BranchHead(ctx context.Context, owner, repo, branch string) (string, error)
	CreateBranch(ctx context.Context, owner, repo, branch, sha string) error
	CreateFork(ctx context.Context, owner, repo string) error
	FileSHA(ctx context.Context, owner, repo, path, ref string) (string, bool, error)
	CommitFile(ctx context.Context, owner, repo, path, branch, message string, content []byte, sha string) error
	OpenPullRequest(ctx context.Context, owner, repo, title, head, base, body string) (ghclient.PullRequest, error)
}

// Request describes one contribution: which artifact to add where, and the
// text to commit. Content templating happens upstream; the workflow treats
// Content as opaque.
type Request struct {
	Owner   string
	Repo    string
	Action  Action
	Path    string // defaults to Action.DefaultPath()
	Branch  string // defaults to Action.DefaultBranchName()
	Content []byte

	CommitMessage string
	Title         string
	Body          string
}

// Result is a successfully opened pull request.
type Result struct {
	PullRequestURL    string
	PullRequestNumber int
}

// Options tune workflow timings; zero values select the defaults.
type Options struct {
	ForkWaitInterval time.Duration
	ForkWaitTimeout  time.Duration
}

// Workflow executes contribution plans sequentially: each step's result
// gates the next, and any terminal failure aborts the plan. Already-created
// branches or forks are left in place; they are cheap, inert, and reverting
// them risks destroying legitimate concurrent work.
type Workflow struct {
	gh               GitHub
	forkWaitInterval time.Duration
	forkWaitTimeout  time.Duration
}

// New creates a workflow over the given API surface.
func New(gh GitHub, opts Options) *Workflow {
	w := &Workflow{
		gh:               gh,
		forkWaitInterval: opts.ForkWaitInterval,
		forkWaitTimeout:  opts.ForkWaitTimeout,
	}
	if w.forkWaitInterval <= 0 {
		w.forkWaitInterval = DefaultForkWaitInterval
	}
	if w.forkWaitTimeout <= 0 {
		w.forkWaitTimeout = DefaultForkWaitTimeout
	}
	return w
}

// Run drives one contribution plan from start to an opened pull request.
func (w *Workflow) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Owner == "" || req.Repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("content is required")
	}
	if req.Path == "" {
		req.Path = req.Action.DefaultPath()
	}
	if req.Branch == "" {
		req.Branch = req.Action.DefaultBranchName()
	}
	if req.CommitMessage == "" {
		req.CommitMessage = fmt.Sprintf("Add %s", req.Path)
	}
	if req.Title == "" {
		req.Title = req.CommitMessage
	}

	plan := &Plan{
		Owner:      req.Owner,
		Repo:       req.Repo,
		Action:     req.Action,
		BranchName: req.Branch,
		State:      StateStart,
	}

	if err := w.createWorkingBranch(ctx, plan); err != nil {
		return nil, err
	}
	if err := w.commitFile(ctx, plan, req); err != nil {
		return nil, err
	}
	return w.openPullRequest(ctx, plan, req)
}

// createWorkingBranch creates the branch upstream, falling back to a fork
// when the token lacks write access.
func (w *Workflow) createWorkingBranch(ctx context.Context, plan *Plan) error {
	base, err := w.gh.DefaultBranch(ctx, plan.Owner, plan.Repo)
	if err != nil {
		return fmt.Errorf("resolve base branch: %w", err)
	}
	plan.BaseBranch = base

	err = w.branchFrom(ctx, plan, plan.Owner, base)
	if err == nil {
		plan.HeadOwner = plan.Owner
		return plan.advance(StateBranchCreated)
	}
	if !ghclient.IsForbidden(err) {
		return err
	}

	log.Info("no write access upstream, falling back to a fork",
		"repo", plan.Owner+"/"+plan.Repo)
	return w.forkFallback(ctx, plan)
}

// branchFrom creates plan.BranchName on owner's copy of the repository from
// the head of base. A 422 means the branch already exists, typically an
// idempotent retry of a prior attempt; the ref is verified and reused.
func (w *Workflow) branchFrom(ctx context.Context, plan *Plan, owner, base string) error {
	baseSHA, err := w.gh.BranchHead(ctx, owner, plan.Repo, base)
	if err != nil {
		return fmt.Errorf("resolve head of %s: %w", base, err)
	}

	err = w.gh.CreateBranch(ctx, owner, plan.Repo, plan.BranchName, baseSHA)
	if err == nil {
		return nil
	}
	if !ghclient.IsUnprocessable(err) {
		return fmt.Errorf("create branch %s: %w", plan.BranchName, err)
	}

	// Verify the existing ref rather than trusting the 422 blindly: a
	// branch left by an unrelated earlier run may point somewhere stale.
	existingSHA, headErr := w.gh.BranchHead(ctx, owner, plan.Repo, plan.BranchName)
	if headErr != nil {
		return fmt.Errorf("create branch %s: %w", plan.BranchName, err)
	}
	if existingSHA != baseSHA {
		log.Warn("reusing existing branch that is behind the base branch",
			"branch", plan.BranchName, "branch_sha", existingSHA, "base_sha", baseSHA)
	} else {
		log.Debug("branch already exists at base head, reusing", "branch", plan.BranchName)
	}
	return nil
}

// forkFallback resolves the authenticated identity, requests a fork, waits
// for it to become available, and creates the working branch there from the
// fork's own default branch.
func (w *Workflow) forkFallback(ctx context.Context, plan *Plan) error {
	login, err := w.gh.AuthenticatedUser(ctx)
	if err != nil {
		return &ghclient.Error{
			Kind: ghclient.KindIdentityResolution,
			Op:   "resolve identity for fork",
			Hint: "the token cannot act on anyone's behalf",
			Err:  err,
		}
	}

	if err := w.gh.CreateFork(ctx, plan.Owner, plan.Repo); err != nil {
		return fmt.Errorf("create fork: %w", err)
	}

	// Fork creation is asynchronous; poll until the fork resolves.
	var forkBase string
	err = waitfor.Until(ctx, w.forkWaitInterval, w.forkWaitTimeout, func(ctx context.Context) error {
		base, err := w.gh.DefaultBranch(ctx, login, plan.Repo)
		if err != nil {
			if ghclient.IsNotFound(err) {
				return err // not materialized yet, keep polling
			}
			return waitfor.Permanent(err)
		}
		forkBase = base
		return nil
	})
	if err != nil {
		if errors.Is(err, waitfor.ErrTimeout) {
			return &ghclient.Error{
				Kind: ghclient.KindTimeout,
				Op:   "wait for fork availability",
				Hint: "the fork did not become available in time",
				Err:  err,
			}
		}
		return fmt.Errorf("wait for fork availability: %w", err)
	}

	plan.HeadOwner = login
	if err := plan.advance(StateForked); err != nil {
		return err
	}

	if err := w.branchFrom(ctx, plan, login, forkBase); err != nil {
		return err
	}
	return plan.advance(StateBranchCreated)
}

// commitFile writes the artifact to the working branch. A missing target
// path is not an error; it simply means create rather than update.
func (w *Workflow) commitFile(ctx context.Context, plan *Plan, req Request) error {
	sha, exists, err := w.gh.FileSHA(ctx, plan.HeadOwner, plan.Repo, req.Path, plan.BranchName)
	if err != nil {
		return fmt.Errorf("look up %s on %s: %w", req.Path, plan.BranchName, err)
	}
	if !exists {
		sha = ""
	}

	err = w.gh.CommitFile(ctx, plan.HeadOwner, plan.Repo, req.Path, plan.BranchName,
		req.CommitMessage, req.Content, sha)
	if err != nil {
		return fmt.Errorf("commit %s: %w", req.Path, err)
	}

	plan.CommittedPath = req.Path
	return plan.advance(StateFileCommitted)
}

// openPullRequest opens the PR from the working branch against the upstream
// base branch.
func (w *Workflow) openPullRequest(ctx context.Context, plan *Plan, req Request) (*Result, error) {
	pr, err := w.gh.OpenPullRequest(ctx, plan.Owner, plan.Repo,
		req.Title, plan.headRef(), plan.BaseBranch, req.Body)
	if err != nil {
		return nil, fmt.Errorf("open pull request: %w", err)
	}

	plan.PRNumber = pr.Number
	if err := plan.advance(StatePullRequestOpened); err != nil {
		return nil, err
	}

	log.Info("pull request opened",
		"repo", plan.Owner+"/"+plan.Repo,
		"number", pr.Number,
		"head", plan.headRef())
	return &Result{
		PullRequestURL:    pr.URL,
		PullRequestNumber: pr.Number,
	}, nil
}
