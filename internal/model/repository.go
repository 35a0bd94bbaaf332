// Package model defines the shared domain types passed between the
// repolift analysis and contribution components.
package model

import "time"

// Repository is an immutable view of a repository's metadata as collected
// upstream. The ranker reads it; nothing in this module mutates it.
type Repository struct {
	FullName     string
	IsFork       bool
	Stars        int
	Forks        int
	Language     string
	PushedAt     time.Time
	Topics       []string
	HasReadme    bool
	HasTests     bool
	HasCI        bool
	CommitCount  int
	Technologies []string
}

// Owner returns the owner half of the repository's full name.
func (r Repository) Owner() string {
	for i := 0; i < len(r.FullName); i++ {
		if r.FullName[i] == '/' {
			return r.FullName[:i]
		}
	}
	return ""
}

// Name returns the repository half of the full name.
func (r Repository) Name() string {
	for i := 0; i < len(r.FullName); i++ {
		if r.FullName[i] == '/' {
			return r.FullName[i+1:]
		}
	}
	return r.FullName
}

// RepoScore is a repository together with its computed importance score and
// the human-readable reasons that contributed to it. Reasons are for
// explainability only; they never feed back into the score.
type RepoScore struct {
	Repository Repository
	Score      int
	Reasons    []string
}
