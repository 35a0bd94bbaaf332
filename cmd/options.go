package cmd

import (
	"fmt"
	"strings"

	"github.com/repolift/repolift/internal/model"
)

// Options holds flag values shared across commands.
type Options struct {
	Verbosity int
	Role      string
}

// ParseRole resolves the --role flag into a domain role.
func (o *Options) ParseRole() (model.Role, error) {
	return model.ParseRole(o.Role)
}

// splitRepoArg parses an "owner/repo" argument.
func splitRepoArg(arg string) (owner, repo string, err error) {
	owner, repo, found := strings.Cut(arg, "/")
	if !found || owner == "" || repo == "" {
		return "", "", fmt.Errorf("expected owner/repo, got %q", arg)
	}
	return owner, repo, nil
}
