package model

import (
	"fmt"
	"strings"
)

// Role is the target developer role an analysis is scored against. It picks
// the language set for the importance ranker and the filename patterns for
// the file relevance selector.
type Role string

const (
	RoleBackend   Role = "backend"
	RoleFrontend  Role = "frontend"
	RoleFullstack Role = "fullstack"
	RoleMobile    Role = "mobile"
	RoleData      Role = "data"
	RoleDevOps    Role = "devops"
)

// roleLanguages maps each role to the languages that earn the ranker's
// language-membership bonus. Keys are lowercased GitHub language names.
var roleLanguages = map[Role]map[string]bool{
	RoleBackend: {
		"go": true, "python": true, "java": true, "ruby": true,
		"rust": true, "php": true, "c#": true, "kotlin": true,
		"elixir": true, "scala": true,
	},
	RoleFrontend: {
		"javascript": true, "typescript": true, "html": true,
		"css": true, "vue": true, "svelte": true,
	},
	RoleFullstack: {
		"go": true, "python": true, "java": true, "ruby": true,
		"rust": true, "php": true, "c#": true,
		"javascript": true, "typescript": true, "html": true, "css": true,
	},
	RoleMobile: {
		"swift": true, "kotlin": true, "dart": true, "java": true,
		"objective-c": true,
	},
	RoleData: {
		"python": true, "r": true, "jupyter notebook": true,
		"scala": true, "julia": true, "sql": true,
	},
	RoleDevOps: {
		"go": true, "python": true, "shell": true, "hcl": true,
		"dockerfile": true, "ruby": true,
	},
}

// MatchesLanguage reports whether language is in the role's language set.
func (r Role) MatchesLanguage(language string) bool {
	return roleLanguages[r][strings.ToLower(language)]
}

// ParseRole validates a role string. An empty string defaults to fullstack.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleFullstack, nil
	}
	role := Role(strings.ToLower(s))
	if _, ok := roleLanguages[role]; !ok {
		return "", fmt.Errorf("unknown role %q (valid: backend, frontend, fullstack, mobile, data, devops)", s)
	}
	return role, nil
}
