package discovery

import (
	"github.com/charmbracelet/log"
)

// DefaultPattern matches C# project files.
const DefaultPattern = "*.csproj"

// DefaultExcludes lists directory names never descended into.
func DefaultExcludes() []string {
	return []string{".git", ".vs", "bin", "obj", "node_modules", "packages"}
}

// Options controls a discovery run.
type Options struct {
	// Pattern is a glob matched case-insensitively against file base names.
	Pattern string

	// Excludes are globs matched against directory names and paths.
	// DefaultExcludes are always applied in addition.
	Excludes []string

	// MaxDepth limits how many directory levels below the root are
	// scanned. Zero or a negative value means unlimited.
	MaxDepth int

	// Logger receives debug output about skipped directories.
	Logger *log.Logger
}

// Manifest is a discovered project file.
type Manifest struct {
	// Path is the absolute path to the file.
	Path string

	// RelPath is the path relative to the discovery root.
	RelPath string

	// Filename is the base name of the file.
	Filename string
}

// Result is the outcome of a discovery run.
type Result struct {
	// Root is the directory that was scanned.
	Root string

	// Manifests are sorted by Path.
	Manifests []Manifest

	// Skipped lists directories that could not be read.
	Skipped []string
}

// IsEmpty returns true if no manifests were found.
func (r *Result) IsEmpty() bool {
	return len(r.Manifests) == 0
}
