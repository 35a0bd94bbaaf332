// Package config loads repolift configuration from YAML, merging an
// optional user config over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. All override fields are
// pointers so an absent key is distinguishable from an explicit zero.
type Config struct {
	Role     string `yaml:"role,omitempty"`
	TopRepos *int   `yaml:"top_repos,omitempty"`

	Selection    *SelectionOverrides    `yaml:"selection,omitempty"`
	Collection   *CollectionOverrides   `yaml:"collection,omitempty"`
	Contribution *ContributionOverrides `yaml:"contribution,omitempty"`
}

// SelectionOverrides tune the file relevance selector.
type SelectionOverrides struct {
	MaxFiles *int `yaml:"max_files,omitempty"`
}

// CollectionOverrides tune the bounded tree collector.
type CollectionOverrides struct {
	MaxFiles    *int `yaml:"max_files,omitempty"`
	MaxFileKB   *int `yaml:"max_file_kb,omitempty"`
	Concurrency *int `yaml:"concurrency,omitempty"`
}

// ContributionOverrides tune the contribution workflow.
type ContributionOverrides struct {
	ForkWaitSeconds     *int   `yaml:"fork_wait_seconds,omitempty"`
	ForkPollIntervalSec *int   `yaml:"fork_poll_interval_seconds,omitempty"`
	BranchPrefix        string `yaml:"branch_prefix,omitempty"`
}

// ConfigPath returns the global config file location.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "repolift", "config.yaml")
}

// Load reads the global config file if it exists and merges it over the
// defaults. A missing file is not an error.
func Load() (*Config, error) {
	cfg := &Config{}

	path := ConfigPath()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment
// variable. Following 12-factor practice, tokens are only read from the
// environment and never written to the config file.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// SelectionMaxFiles returns the configured selector cap, or 0 for default.
func (c *Config) SelectionMaxFiles() int {
	if c.Selection != nil && c.Selection.MaxFiles != nil {
		return *c.Selection.MaxFiles
	}
	return 0
}

// CollectionMaxFiles returns the configured collector cap, or 0 for default.
func (c *Config) CollectionMaxFiles() int {
	if c.Collection != nil && c.Collection.MaxFiles != nil {
		return *c.Collection.MaxFiles
	}
	return 0
}

// CollectionMaxFileBytes returns the per-file ceiling, or 0 for default.
func (c *Config) CollectionMaxFileBytes() int {
	if c.Collection != nil && c.Collection.MaxFileKB != nil {
		return *c.Collection.MaxFileKB * 1024
	}
	return 0
}

// CollectionConcurrency returns the worker pool size, or 0 for default.
func (c *Config) CollectionConcurrency() int {
	if c.Collection != nil && c.Collection.Concurrency != nil {
		return *c.Collection.Concurrency
	}
	return 0
}

// ForkWaitTimeout returns the fork availability deadline, or 0 for default.
func (c *Config) ForkWaitTimeout() time.Duration {
	if c.Contribution != nil && c.Contribution.ForkWaitSeconds != nil {
		return time.Duration(*c.Contribution.ForkWaitSeconds) * time.Second
	}
	return 0
}

// ForkPollInterval returns the fork polling interval, or 0 for default.
func (c *Config) ForkPollInterval() time.Duration {
	if c.Contribution != nil && c.Contribution.ForkPollIntervalSec != nil {
		return time.Duration(*c.Contribution.ForkPollIntervalSec) * time.Second
	}
	return 0
}

// BranchPrefix returns the working branch prefix override, or "".
func (c *Config) BranchPrefix() string {
	if c.Contribution != nil {
		return c.Contribution.BranchPrefix
	}
	return ""
}

// TopReposCount returns the configured ranking cut, or 0 for default.
func (c *Config) TopReposCount() int {
	if c.TopRepos != nil {
		return *c.TopRepos
	}
	return 0
}
