// Package collect walks a repository tree breadth-first under strict
// count and size caps and bundles the selected file bodies into a single
// bounded text payload.
package collect

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/repolift/repolift/internal/log"
	"github.com/repolift/repolift/internal/model"
)

const (
	// DefaultMaxFiles caps how many files one collection run records.
	DefaultMaxFiles = 60

	// DefaultMaxFileSize is the per-file byte ceiling; larger files are
	// skipped during traversal and fetched bodies are truncated to it.
	DefaultMaxFileSize = 100 * 1024

	// DefaultConcurrency bounds the content-fetch worker pool. Kept small
	// so one collection run cannot monopolize the shared quota.
	DefaultConcurrency = 6
)

// allowedExtensions are the text formats worth bundling.
var allowedExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".ts": true,
	".tsx": true, ".java": true, ".rb": true, ".rs": true, ".php": true,
	".cs": true, ".kt": true, ".swift": true, ".dart": true, ".c": true,
	".cpp": true, ".h": true, ".hpp": true, ".sh": true, ".sql": true,
	".html": true, ".css": true, ".scss": true, ".vue": true, ".svelte": true,
	".yml": true, ".yaml": true, ".json": true, ".toml": true, ".md": true,
	".txt": true, ".mod": true, ".gradle": true, ".tf": true, ".r": true,
	".scala": true, ".ex": true, ".exs": true,
}

// allowedFilenames admit well-known extensionless files.
var allowedFilenames = map[string]bool{
	"Makefile":    true,
	"Dockerfile":  true,
	"Rakefile":    true,
	"Gemfile":     true,
	"Jenkinsfile": true,
}

// Fetcher is the network surface the collector needs. ghclient.Client
// satisfies it.
type Fetcher interface {
	ListDirectory(ctx context.Context, owner, repo, path string) ([]model.TreeItem, error)
	FileContent(ctx context.Context, owner, repo, path string) (string, error)
}

// Options tune a collector. Zero values select the defaults.
type Options struct {
	MaxFiles    int
	MaxFileSize int
	Concurrency int
}

// Collector performs bounded tree collection through a Fetcher.
type Collector struct {
	fetcher     Fetcher
	maxFiles    int
	maxFileSize int
	concurrency int
}

// New creates a collector.
func New(fetcher Fetcher, opts Options) *Collector {
	c := &Collector{
		fetcher:     fetcher,
		maxFiles:    opts.MaxFiles,
		maxFileSize: opts.MaxFileSize,
		concurrency: opts.Concurrency,
	}
	if c.maxFiles <= 0 {
		c.maxFiles = DefaultMaxFiles
	}
	if c.maxFileSize <= 0 {
		c.maxFileSize = DefaultMaxFileSize
	}
	if c.concurrency <= 0 {
		c.concurrency = DefaultConcurrency
	}
	return c
}

// Collect walks owner/repo breadth-first from the root, records files that
// pass the extension allow-list and size ceiling until the file cap is hit,
// then fetches their bodies with a bounded worker pool. A failed directory
// listing skips that subtree; a failed body fetch skips that file. Partial
// results are returned rather than aborting.
func (c *Collector) Collect(ctx context.Context, owner, repo string) (*model.Bundle, error) {
	selected := c.traverse(ctx, owner, repo)
	if len(selected) == 0 {
		return &model.Bundle{}, nil
	}

	bodies := make([]string, len(selected))
	fetched := make([]bool, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, item := range selected {
		i, item := i, item
		g.Go(func() error {
			content, err := c.fetcher.FileContent(gctx, owner, repo, item.Path)
			if err != nil {
				log.Debug("skipping unfetchable file", "path", item.Path, "error", err)
				return nil
			}
			if len(content) > c.maxFileSize {
				content = content[:c.maxFileSize]
			}
			bodies[i] = content
			fetched[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Assemble in selection order regardless of fetch completion order so
	// the bundle is deterministic.
	bundle := &model.Bundle{}
	var text strings.Builder
	for i, item := range selected {
		if !fetched[i] {
			continue
		}
		fmt.Fprintf(&text, "===== %s (%d bytes) =====\n%s\n\n", item.Path, len(bodies[i]), bodies[i])
		bundle.Manifest = append(bundle.Manifest, model.ManifestEntry{
			Path: item.Path,
			Size: len(bodies[i]),
		})
	}
	bundle.Text = text.String()

	log.Info("collected file bundle",
		"repo", owner+"/"+repo,
		"files", len(bundle.Manifest),
		"bytes", bundle.TotalBytes())
	return bundle, nil
}

// traverse runs the breadth-first walk and returns the recorded files.
func (c *Collector) traverse(ctx context.Context, owner, repo string) []model.TreeItem {
	queue := []string{""}
	var selected []model.TreeItem

	for len(queue) > 0 && len(selected) < c.maxFiles {
		dir := queue[0]
		queue = queue[1:]

		entries, err := c.fetcher.ListDirectory(ctx, owner, repo, dir)
		if err != nil {
			// One unreadable subtree must not sink the whole collection.
			log.Debug("skipping unreadable directory", "path", dir, "error", err)
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				queue = append(queue, entry.Path)
				continue
			}
			if len(selected) >= c.maxFiles {
				break
			}
			if entry.Size > c.maxFileSize {
				continue
			}
			if !collectable(entry.Path) {
				continue
			}
			selected = append(selected, entry)
		}
	}

	return selected
}

func collectable(p string) bool {
	name := path.Base(p)
	if allowedFilenames[name] {
		return true
	}
	return allowedExtensions[strings.ToLower(path.Ext(name))]
}
