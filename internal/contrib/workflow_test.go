package contrib

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/repolift/repolift/internal/ghclient"
)

// fakeGitHub simulates the API surface with per-owner permissions.
type fakeGitHub struct {
	login    string
	loginErr error

	// branches maps owner -> branch -> head SHA.
	branches map[string]map[string]string
	// defaultBranch per owner; empty means the repo does not exist there.
	defaultBranch map[string]string
	// files maps owner/branch/path -> blob SHA.
	files map[string]string

	forbidUpstreamWrite bool
	branchExistsErr     bool

	forkRequested  bool
	forkReadyAfter int // availability polls before the fork resolves
	forkPolls      int

	commits []commitRecord
	pr      *prRecord
}

type commitRecord struct {
	owner, path, branch, sha string
	content                  []byte
}

type prRecord struct {
	owner, repo, title, head, base string
}

func notFound(op string) error {
	return &ghclient.Error{Kind: ghclient.KindNotFound, Op: op}
}

func (f *fakeGitHub) AuthenticatedUser(ctx context.Context) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.login, nil
}

func (f *fakeGitHub) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if owner == f.login && f.forkRequested {
		f.forkPolls++
		if f.forkPolls <= f.forkReadyAfter {
			return "", notFound("get repository")
		}
		return f.defaultBranch[owner], nil
	}
	branch, ok := f.defaultBranch[owner]
	if !ok {
		return "", notFound("get repository")
	}
	return branch, nil
}

func (f *fakeGitHub) BranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	sha, ok := f.branches[owner][branch]
	if !ok {
		return "", notFound("get ref")
	}
	return sha, nil
}

func (f *fakeGitHub) CreateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	if owner != f.login && f.forbidUpstreamWrite {
		return &ghclient.Error{Kind: ghclient.KindForbidden, Op: "create ref", Status: 403}
	}
	if f.branchExistsErr {
		return &ghclient.Error{Kind: ghclient.KindUnprocessable, Op: "create ref", Status: 422}
	}
	if f.branches[owner] == nil {
		f.branches[owner] = map[string]string{}
	}
	f.branches[owner][branch] = sha
	return nil
}

func (f *fakeGitHub) CreateFork(ctx context.Context, owner, repo string) error {
	f.forkRequested = true
	return nil
}

func (f *fakeGitHub) FileSHA(ctx context.Context, owner, repo, path, ref string) (string, bool, error) {
	sha, ok := f.files[owner+"/"+ref+"/"+path]
	return sha, ok, nil
}

func (f *fakeGitHub) CommitFile(ctx context.Context, owner, repo, path, branch, message string, content []byte, sha string) error {
	f.commits = append(f.commits, commitRecord{
		owner: owner, path: path, branch: branch, sha: sha, content: content,
	})
	return nil
}

func (f *fakeGitHub) OpenPullRequest(ctx context.Context, owner, repo, title, head, base, body string) (ghclient.PullRequest, error) {
	f.pr = &prRecord{owner: owner, repo: repo, title: title, head: head, base: base}
	return ghclient.PullRequest{Number: 7, URL: "https://github.com/" + owner + "/" + repo + "/pull/7"}, nil
}

func upstreamFake() *fakeGitHub {
	return &fakeGitHub{
		login:         "liftbot",
		defaultBranch: map[string]string{"acme": "main"},
		branches: map[string]map[string]string{
			"acme": {"main": "abc123"},
		},
	}
}

func testWorkflow(gh GitHub) *Workflow {
	return New(gh, Options{
		ForkWaitInterval: time.Millisecond,
		ForkWaitTimeout:  50 * time.Millisecond,
	})
}

func baseRequest() Request {
	return Request{
		Owner:   "acme",
		Repo:    "widgets",
		Action:  ActionReadme,
		Content: []byte("# widgets\n"),
	}
}

func TestRunDirectBranch(t *testing.T) {
	fake := upstreamFake()

	result, err := testWorkflow(fake).Run(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.PullRequestNumber != 7 {
		t.Errorf("PullRequestNumber = %d, want 7", result.PullRequestNumber)
	}
	if fake.forkRequested {
		t.Error("forked despite having write access")
	}
	if fake.pr.head != "repolift/add-readme" {
		t.Errorf("PR head = %q, want bare branch name on upstream", fake.pr.head)
	}
	if fake.pr.base != "main" {
		t.Errorf("PR base = %q, want main", fake.pr.base)
	}
	if len(fake.commits) != 1 || fake.commits[0].path != "README.md" {
		t.Errorf("commits = %+v, want one README.md commit", fake.commits)
	}
	if fake.commits[0].sha != "" {
		t.Errorf("commit sha = %q, want empty for a new file", fake.commits[0].sha)
	}
}

func TestRunForkFallback(t *testing.T) {
	fake := upstreamFake()
	fake.forbidUpstreamWrite = true
	fake.forkReadyAfter = 2
	fake.defaultBranch["liftbot"] = "main"
	fake.branches["liftbot"] = map[string]string{"main": "def456"}

	result, err := testWorkflow(fake).Run(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !fake.forkRequested {
		t.Fatal("fork was never requested")
	}
	if fake.forkPolls <= fake.forkReadyAfter {
		t.Errorf("forkPolls = %d, want polling past %d", fake.forkPolls, fake.forkReadyAfter)
	}
	if fake.pr.head != "liftbot:repolift/add-readme" {
		t.Errorf("PR head = %q, want owner-qualified fork head", fake.pr.head)
	}
	if fake.pr.owner != "acme" {
		t.Errorf("PR opened on %q, want upstream acme", fake.pr.owner)
	}
	if len(fake.commits) != 1 || fake.commits[0].owner != "liftbot" {
		t.Errorf("commits = %+v, want commit on the fork", fake.commits)
	}
	if result.PullRequestURL == "" {
		t.Error("missing pull request URL")
	}
}

func TestRunForkNeverAvailable(t *testing.T) {
	fake := upstreamFake()
	fake.forbidUpstreamWrite = true
	fake.forkReadyAfter = 1 << 30

	_, err := testWorkflow(fake).Run(context.Background(), baseRequest())
	if !ghclient.IsKind(err, ghclient.KindTimeout) {
		t.Errorf("Run() = %v, want TimeoutExceeded", err)
	}
}

func TestRunIdentityResolutionFails(t *testing.T) {
	fake := upstreamFake()
	fake.forbidUpstreamWrite = true
	fake.loginErr = errors.New("401 bad credentials")

	_, err := testWorkflow(fake).Run(context.Background(), baseRequest())
	if !ghclient.IsKind(err, ghclient.KindIdentityResolution) {
		t.Errorf("Run() = %v, want IdentityResolutionFailed", err)
	}
	if fake.forkRequested {
		t.Error("fork requested without a resolved identity")
	}
}

func TestRunBranchAlreadyExists(t *testing.T) {
	fake := upstreamFake()
	fake.branchExistsErr = true
	fake.branches["acme"]["repolift/add-readme"] = "abc123" // at base head

	result, err := testWorkflow(fake).Run(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Run() error = %v, want 422 treated as idempotent success", err)
	}
	if fake.forkRequested {
		t.Error("forked on a 422, want reuse of the existing branch")
	}
	if result.PullRequestNumber != 7 {
		t.Errorf("PullRequestNumber = %d, want 7", result.PullRequestNumber)
	}
}

func TestRunBranchExistsButUnverifiable(t *testing.T) {
	fake := upstreamFake()
	fake.branchExistsErr = true
	// No existing ref to verify against: the 422 cannot be trusted.

	_, err := testWorkflow(fake).Run(context.Background(), baseRequest())
	if !ghclient.IsUnprocessable(err) {
		t.Errorf("Run() = %v, want the original 422 surfaced", err)
	}
}

func TestRunUpdatesExistingFile(t *testing.T) {
	fake := upstreamFake()
	fake.files = map[string]string{
		"acme/repolift/add-readme/README.md": "blob42",
	}

	_, err := testWorkflow(fake).Run(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(fake.commits) != 1 || fake.commits[0].sha != "blob42" {
		t.Errorf("commits = %+v, want update with existing blob SHA", fake.commits)
	}
}

func TestRunTerminalFailureAborts(t *testing.T) {
	fake := &fakeGitHub{login: "liftbot", defaultBranch: map[string]string{}}

	_, err := testWorkflow(fake).Run(context.Background(), baseRequest())
	if !ghclient.IsNotFound(err) {
		t.Errorf("Run() = %v, want NotFound from base branch resolution", err)
	}
	if fake.pr != nil || len(fake.commits) != 0 {
		t.Error("workflow proceeded past a terminal failure")
	}
}

func TestPlanTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{"start to branch created", StateStart, StateBranchCreated, false},
		{"start to forked", StateStart, StateForked, false},
		{"forked to branch created", StateForked, StateBranchCreated, false},
		{"branch created to committed", StateBranchCreated, StateFileCommitted, false},
		{"committed to PR opened", StateFileCommitted, StatePullRequestOpened, false},
		{"start straight to committed", StateStart, StateFileCommitted, true},
		{"PR opened is terminal", StatePullRequestOpened, StateBranchCreated, true},
		{"no going backwards", StateFileCommitted, StateStart, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plan{State: tt.from}
			err := p.advance(tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("advance(%s -> %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}

func TestHeadRef(t *testing.T) {
	upstream := &Plan{Owner: "acme", HeadOwner: "acme", BranchName: "fix"}
	if got := upstream.headRef(); got != "fix" {
		t.Errorf("headRef() = %q, want bare branch on upstream", got)
	}

	forked := &Plan{Owner: "acme", HeadOwner: "liftbot", BranchName: "fix"}
	if got := forked.headRef(); got != "liftbot:fix" {
		t.Errorf("headRef() = %q, want liftbot:fix", got)
	}
}
