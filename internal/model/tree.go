package model

// TreeItemKind distinguishes blobs from trees in a repository listing.
type TreeItemKind string

const (
	TreeItemBlob TreeItemKind = "blob"
	TreeItemTree TreeItemKind = "tree"
)

// TreeItem is one entry of a repository's flattened file tree. Size is only
// meaningful for blobs; GitHub reports 0 for trees.
type TreeItem struct {
	Path string
	Kind TreeItemKind
	Size int
}

// IsDir reports whether the item is a directory entry.
func (t TreeItem) IsDir() bool {
	return t.Kind == TreeItemTree
}

// ManifestEntry records one file included in a collected bundle.
type ManifestEntry struct {
	Path string
	Size int
}

// Bundle is the bounded text payload produced by the tree collector: the
// concatenated file bodies plus a manifest of what made it in.
type Bundle struct {
	Manifest []ManifestEntry
	Text     string
}

// TotalBytes returns the summed size of all files in the bundle manifest.
func (b *Bundle) TotalBytes() int {
	total := 0
	for _, e := range b.Manifest {
		total += e.Size
	}
	return total
}
