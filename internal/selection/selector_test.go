package selection

import (
	"reflect"
	"testing"

	"github.com/repolift/repolift/internal/model"
)

func blob(path string, size int) model.TreeItem {
	return model.TreeItem{Path: path, Kind: model.TreeItemBlob, Size: size}
}

func tree(path string) model.TreeItem {
	return model.TreeItem{Path: path, Kind: model.TreeItemTree}
}

func paths(items []model.TreeItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Path
	}
	return out
}

func TestFilterAndPrioritizeExclusions(t *testing.T) {
	tests := []struct {
		name string
		item model.TreeItem
	}{
		{"directory entry", tree("src")},
		{"noise directory", blob("node_modules/left-pad/index.js", 100)},
		{"nested noise directory", blob("web/dist/bundle.js", 100)},
		{"vendored tree", blob("vendor/github.com/pkg/errors/errors.go", 500)},
		{"lockfile", blob("package-lock.json", 3000)},
		{"minified asset", blob("static/app.min.js", 2000)},
		{"image", blob("docs/logo.png", 4000)},
		{"archive", blob("release.tar.gz", 9000)},
		{"license", blob("LICENSE", 1000)},
		{"git metadata", blob(".gitignore", 100)},
		{"oversized file", blob("src/gen.go", 200*1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterAndPrioritize([]model.TreeItem{tt.item}, model.RoleBackend, 10)
			if len(got) != 0 {
				t.Errorf("FilterAndPrioritize() kept %v, want it excluded", got)
			}
		})
	}
}

func TestFilterAndPrioritizeRanking(t *testing.T) {
	items := []model.TreeItem{
		blob("tests/util_test.go", 1000),
		blob("README.md", 1000),
		blob("assets/data.csv", 1000),
		blob("src/handler.go", 1000),
	}

	got := paths(FilterAndPrioritize(items, model.RoleBackend, 10))

	// README (important + small) outranks the test file and the source
	// file; the role-matched source file under src/ outranks the test.
	want := []string{"README.md", "src/handler.go", "tests/util_test.go", "assets/data.csv"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterAndPrioritize() order = %v, want %v", got, want)
	}
}

func TestReadmeOutranksTestFile(t *testing.T) {
	items := []model.TreeItem{
		blob("tests/core_test.py", 2048),
		blob("README.md", 2048),
	}

	got := paths(FilterAndPrioritize(items, model.RoleData, 10))
	if len(got) != 2 || got[0] != "README.md" {
		t.Errorf("FilterAndPrioritize() = %v, want README.md ranked first", got)
	}
}

func TestFilterAndPrioritizeCap(t *testing.T) {
	var items []model.TreeItem
	for i := 0; i < 50; i++ {
		items = append(items, blob("src/file"+string(rune('a'+i%26))+".go", 1000))
	}

	got := FilterAndPrioritize(items, model.RoleBackend, 7)
	if len(got) > 7 {
		t.Errorf("FilterAndPrioritize() returned %d items, cap is 7", len(got))
	}
}

func TestFilterAndPrioritizeStableTies(t *testing.T) {
	items := []model.TreeItem{
		blob("src/alpha.go", 1000),
		blob("src/beta.go", 1000),
		blob("src/gamma.go", 1000),
	}

	got := paths(FilterAndPrioritize(items, model.RoleBackend, 10))
	want := []string{"src/alpha.go", "src/beta.go", "src/gamma.go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tied items reordered: %v, want input order %v", got, want)
	}
}

func TestScoreFileComponents(t *testing.T) {
	tests := []struct {
		name string
		item model.TreeItem
		role model.Role
		want int
	}{
		{
			name: "ci workflow is important",
			item: blob(".github/workflows/ci.yml", 800),
			role: model.RoleBackend,
			want: scoreImportant + scoreSmallFile,
		},
		{
			name: "role match plus source root plus small",
			item: blob("src/routes.ts", 900),
			role: model.RoleFrontend,
			want: scoreRoleMatch + scoreSourceRoot + scoreSmallFile,
		},
		{
			name: "manifest at root",
			item: blob("go.mod", 300),
			role: model.RoleBackend,
			want: scoreImportant + scoreSmallFile,
		},
		{
			name: "test file bonus",
			item: blob("pkg/store_test.go", 20*1024),
			role: model.RoleBackend,
			want: scoreRoleMatch + scoreTestFile,
		},
		{
			name: "irrelevant large file",
			item: blob("data/fixtures.csv", 50*1024),
			role: model.RoleBackend,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreFile(tt.item, tt.role); got != tt.want {
				t.Errorf("scoreFile(%s) = %d, want %d", tt.item.Path, got, tt.want)
			}
		})
	}
}
