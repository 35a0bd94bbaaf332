// Package selection filters and ranks a repository's file tree to pick the
// bounded subset worth fetching in full. It is pure: no I/O, and identical
// inputs always produce identical output.
package selection

import (
	"path"
	"sort"
	"strings"

	"github.com/repolift/repolift/internal/model"
)

const (
	// DefaultMaxFiles caps how many files the selector returns.
	DefaultMaxFiles = 25

	// maxFileSize excludes files above this many bytes entirely.
	maxFileSize = 100 * 1024

	// smallFileSize earns the cheap-to-read bonus.
	smallFileSize = 5 * 1024
)

// Relevance scoring bonuses.
const (
	scoreImportant  = 100
	scoreRoleMatch  = 50
	scoreSourceRoot = 30
	scoreTestFile   = 25
	scoreSmallFile  = 20
)

// FilterAndPrioritize reduces a flat tree listing to at most maxFiles blobs,
// ranked by relevance for the given role. Directories, noise paths, and
// oversized files never appear in the result. The underlying sort is stable,
// so ties keep their input order. maxFiles <= 0 selects DefaultMaxFiles.
func FilterAndPrioritize(items []model.TreeItem, role model.Role, maxFiles int) []model.TreeItem {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	type scoredItem struct {
		item  model.TreeItem
		score int
	}

	kept := make([]scoredItem, 0, len(items))
	for _, item := range items {
		if !include(item) {
			continue
		}
		kept = append(kept, scoredItem{item: item, score: scoreFile(item, role)})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	if len(kept) > maxFiles {
		kept = kept[:maxFiles]
	}

	result := make([]model.TreeItem, len(kept))
	for i, s := range kept {
		result[i] = s.item
	}
	return result
}

// include applies the exclusion filter: blobs only, no noise directories
// anywhere in the path, no noise filenames, nothing above the size ceiling.
func include(item model.TreeItem) bool {
	if item.IsDir() {
		return false
	}
	if item.Size > maxFileSize {
		return false
	}

	segments := strings.Split(item.Path, "/")
	for _, seg := range segments[:len(segments)-1] {
		if noiseDirs[seg] {
			return false
		}
	}

	name := path.Base(item.Path)
	for _, re := range noiseFiles {
		if re.MatchString(name) {
			return false
		}
	}
	return true
}

// scoreFile computes the relevance score of one already-included blob.
func scoreFile(item model.TreeItem, role model.Role) int {
	score := 0

	for _, re := range importantFiles {
		if re.MatchString(item.Path) {
			score += scoreImportant
			break
		}
	}

	for _, re := range rolePatterns[role] {
		if re.MatchString(item.Path) {
			score += scoreRoleMatch
			break
		}
	}

	if item.Size > 0 && item.Size < smallFileSize {
		score += scoreSmallFile
	}

	if root, _, found := strings.Cut(item.Path, "/"); found && sourceRoots[root] {
		score += scoreSourceRoot
	}

	if testFile.MatchString(item.Path) {
		score += scoreTestFile
	}

	return score
}
