package selection

import (
	"regexp"

	"github.com/repolift/repolift/internal/model"
)

// noiseDirs are path segments that mark generated, vendored, or editor
// content. Any file under one of these is excluded outright.
var noiseDirs = map[string]bool{
	"node_modules":     true,
	"vendor":           true,
	"bower_components": true,
	"dist":             true,
	"build":            true,
	"out":              true,
	"target":           true,
	"bin":              true,
	"obj":              true,
	"coverage":         true,
	"__pycache__":      true,
	".git":             true,
	".idea":            true,
	".vscode":          true,
	".next":            true,
	".nuxt":            true,
	".cache":           true,
	".gradle":          true,
	".terraform":       true,
	".venv":            true,
	"venv":             true,
	"tmp":              true,
	"logs":             true,
}

// noiseFiles match filenames that carry no analyzable signal: lockfiles,
// minified assets, binaries, media, archives, office docs, and license or
// git metadata files.
var noiseFiles = []*regexp.Regexp{
	regexp.MustCompile(`^(package-lock\.json|yarn\.lock|pnpm-lock\.yaml|go\.sum|Cargo\.lock|poetry\.lock|Pipfile\.lock|Gemfile\.lock|composer\.lock)$`),
	regexp.MustCompile(`\.min\.(js|css)$`),
	regexp.MustCompile(`\.map$`),
	regexp.MustCompile(`(?i)\.(png|jpe?g|gif|ico|svg|bmp|webp|mp3|mp4|avi|mov|woff2?|ttf|eot|otf|pdf|docx?|xlsx?|pptx?|zip|tar|gz|tgz|rar|7z|jar|exe|dll|so|dylib|class|pyc|o|a)$`),
	regexp.MustCompile(`(?i)^(license|licence|copying|notice)(\.[a-z]+)?$`),
	regexp.MustCompile(`^\.git(ignore|attributes|modules|keep)$`),
	regexp.MustCompile(`^\.DS_Store$`),
}

// importantFiles match against the full path and mark manifests, entry
// points, CI definitions, and the README.
var importantFiles = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(^|/)readme(\.[a-z]+)?$`),
	regexp.MustCompile(`(^|/)(package\.json|go\.mod|Cargo\.toml|pyproject\.toml|setup\.py|requirements\.txt|pom\.xml|build\.gradle(\.kts)?|Gemfile|composer\.json)$`),
	regexp.MustCompile(`(^|/)(Makefile|Dockerfile|docker-compose\.ya?ml)$`),
	regexp.MustCompile(`(?i)(^|/)(main|index|app|server)\.[a-z]+$`),
	regexp.MustCompile(`^\.github/workflows/[^/]+\.ya?ml$`),
	regexp.MustCompile(`^(\.gitlab-ci\.ya?ml|\.travis\.ya?ml|Jenkinsfile)$`),
	regexp.MustCompile(`^\.circleci/config\.ya?ml$`),
}

// rolePatterns give a role-specific relevance bonus, mostly by extension.
var rolePatterns = map[model.Role][]*regexp.Regexp{
	model.RoleBackend: {
		regexp.MustCompile(`\.(go|py|java|rb|rs|php|cs|kt|ex|exs|scala)$`),
	},
	model.RoleFrontend: {
		regexp.MustCompile(`\.(js|jsx|ts|tsx|vue|svelte|html|css|scss|sass|less)$`),
	},
	model.RoleFullstack: {
		regexp.MustCompile(`\.(go|py|java|rb|rs|php|cs|js|jsx|ts|tsx|vue|html|css)$`),
	},
	model.RoleMobile: {
		regexp.MustCompile(`\.(swift|kt|kts|dart|m|mm)$`),
	},
	model.RoleData: {
		regexp.MustCompile(`\.(py|r|ipynb|sql|scala|jl)$`),
	},
	model.RoleDevOps: {
		regexp.MustCompile(`\.(sh|bash|tf|ya?ml)$`),
		regexp.MustCompile(`(^|/)(Dockerfile|Makefile)$`),
	},
}

// testFile matches conventional test locations and filenames.
var testFile = regexp.MustCompile(`(?i)((^|/)(tests?|spec|__tests__)/|_test\.[a-z]+$|\.(test|spec)\.[a-z]+$|(^|/)test_[^/]+$)`)

// sourceRoots are the conventional top-level source directories.
var sourceRoots = map[string]bool{
	"src": true,
	"lib": true,
	"app": true,
}
