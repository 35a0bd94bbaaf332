// Package rank implements repository importance scoring: a pure,
// reproducible heuristic that picks which repositories merit expensive
// deeper analysis.
package rank

import (
	"fmt"
	"sort"
	"time"

	"github.com/repolift/repolift/internal/model"
)

// DefaultTopN is how many repositories are selected when the caller does
// not say otherwise.
const DefaultTopN = 3

// Weights defines the scoring contract. These values are exact numeric
// contracts; changing any of them changes ranking behavior and must be
// treated as a breaking change.
type Weights struct {
	StarsHigh    int // stars >= 10
	StarsLow     int // stars >= 3
	ForksHigh    int // forks >= 5
	ForksLow     int // forks >= 2
	RecentPush   int // pushed < 30 days ago
	SomewhatPush int // pushed < 90 days ago
	CommitsHigh  int // commits >= 50
	CommitsLow   int // commits >= 20
	RoleLanguage int
	HasReadme    int
	HasTests     int
	HasCI        int
	HasTopics    int
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		StarsHigh:    30,
		StarsLow:     15,
		ForksHigh:    25,
		ForksLow:     10,
		RecentPush:   20,
		SomewhatPush: 10,
		CommitsHigh:  20,
		CommitsLow:   10,
		RoleLanguage: 15,
		HasReadme:    10,
		HasTests:     15,
		HasCI:        10,
		HasTopics:    5,
	}
}

// Ranker scores repositories against a target role.
type Ranker struct {
	Weights Weights

	// now is replaceable in tests so recency scoring is deterministic.
	now func() time.Time
}

// New creates a ranker with the default weights.
func New() *Ranker {
	return &Ranker{
		Weights: DefaultWeights(),
		now:     time.Now,
	}
}

// Score computes a repository's importance for the given role, returning
// the total and the reason strings that contributed. Identical inputs
// always yield identical scores and reasons.
func (r *Ranker) Score(repo model.Repository, role model.Role) (int, []string) {
	w := r.Weights
	score := 0
	var reasons []string

	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	switch {
	case repo.Stars >= 10:
		add(w.StarsHigh, fmt.Sprintf("%d stars", repo.Stars))
	case repo.Stars >= 3:
		add(w.StarsLow, fmt.Sprintf("%d stars", repo.Stars))
	}

	switch {
	case repo.Forks >= 5:
		add(w.ForksHigh, fmt.Sprintf("%d forks", repo.Forks))
	case repo.Forks >= 2:
		add(w.ForksLow, fmt.Sprintf("%d forks", repo.Forks))
	}

	if !repo.PushedAt.IsZero() {
		age := r.now().Sub(repo.PushedAt)
		switch {
		case age < 30*24*time.Hour:
			add(w.RecentPush, "pushed within 30 days")
		case age < 90*24*time.Hour:
			add(w.SomewhatPush, "pushed within 90 days")
		}
	}

	switch {
	case repo.CommitCount >= 50:
		add(w.CommitsHigh, fmt.Sprintf("%d commits", repo.CommitCount))
	case repo.CommitCount >= 20:
		add(w.CommitsLow, fmt.Sprintf("%d commits", repo.CommitCount))
	}

	if role.MatchesLanguage(repo.Language) {
		add(w.RoleLanguage, fmt.Sprintf("%s matches the %s role", repo.Language, role))
	}

	if repo.HasReadme {
		add(w.HasReadme, "has a README")
	}
	if repo.HasTests {
		add(w.HasTests, "has tests")
	}
	if repo.HasCI {
		add(w.HasCI, "has CI")
	}
	if len(repo.Topics) > 0 {
		add(w.HasTopics, "has topics")
	}

	return score, reasons
}

// Top scores every repository and returns the n highest, sorted descending
// by score. The sort is stable, so equal scores keep their input order and
// the result is fully deterministic. n <= 0 selects DefaultTopN.
func (r *Ranker) Top(repos []model.Repository, role model.Role, n int) []model.RepoScore {
	if n <= 0 {
		n = DefaultTopN
	}

	scored := make([]model.RepoScore, 0, len(repos))
	for _, repo := range repos {
		score, reasons := r.Score(repo, role)
		scored = append(scored, model.RepoScore{
			Repository: repo,
			Score:      score,
			Reasons:    reasons,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
