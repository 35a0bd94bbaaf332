// Package contrib implements the contribution workflow: create a branch
// (forking when write access is denied), commit a generated file, and open
// a pull request, all through the rate-governed client.
package contrib

import (
	"fmt"
	"strings"
)

// Action identifies which missing artifact a contribution adds.
type Action string

const (
	ActionReadme Action = "readme"
	ActionTests  Action = "tests"
	ActionCI     Action = "ci"
)

// ParseAction validates an action string.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(s)) {
	case ActionReadme:
		return ActionReadme, nil
	case ActionTests:
		return ActionTests, nil
	case ActionCI:
		return ActionCI, nil
	}
	return "", fmt.Errorf("unknown action %q (valid: readme, tests, ci)", s)
}

// DefaultPath returns where the action's artifact conventionally lives.
func (a Action) DefaultPath() string {
	switch a {
	case ActionTests:
		return "tests/smoke_test.md"
	case ActionCI:
		return ".github/workflows/ci.yml"
	default:
		return "README.md"
	}
}

// DefaultBranchName returns the working branch name for the action.
func (a Action) DefaultBranchName() string {
	return "repolift/add-" + string(a)
}

// State is a stage of one contribution plan.
type State string

const (
	StateStart             State = "start"
	StateForked            State = "forked"
	StateBranchCreated     State = "branch_created"
	StateFileCommitted     State = "file_committed"
	StatePullRequestOpened State = "pull_request_opened"
)

// transitions is the legal state graph. The only lateral edge is the fork
// fallback out of Start when branch creation is forbidden upstream.
var transitions = map[State][]State{
	StateStart:         {StateBranchCreated, StateForked},
	StateForked:        {StateBranchCreated},
	StateBranchCreated: {StateFileCommitted},
	StateFileCommitted: {StatePullRequestOpened},
}

// Plan is the transient state of one contribution request. One plan per
// repository and action; never reused or shared.
type Plan struct {
	Owner         string
	Repo          string
	Action        Action
	BaseBranch    string
	BranchName    string
	HeadOwner     string // fork owner when the branch lives on a fork
	CommittedPath string
	PRNumber      int
	State         State
}

// advance moves the plan to next, rejecting transitions outside the graph.
func (p *Plan) advance(next State) error {
	for _, legal := range transitions[p.State] {
		if legal == next {
			p.State = next
			return nil
		}
	}
	return fmt.Errorf("illegal plan transition %s -> %s", p.State, next)
}

// onFork reports whether the working branch lives on a fork.
func (p *Plan) onFork() bool {
	return p.HeadOwner != "" && p.HeadOwner != p.Owner
}

// headRef returns the pull request head: qualified as "owner:branch" when
// the branch lives on a fork, the bare branch name otherwise.
func (p *Plan) headRef() string {
	if p.onFork() {
		return p.HeadOwner + ":" + p.BranchName
	}
	return p.BranchName
}
