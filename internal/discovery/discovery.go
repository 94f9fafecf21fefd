package discovery

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/indaco/cpmigrate/internal/core"
)

// Service provides manifest discovery.
type Service struct {
	fs     core.FileSystem
	opts   Options
	logger *log.Logger
}

// NewService creates a new discovery Service. An empty pattern falls back to
// DefaultPattern.
func NewService(fs core.FileSystem, opts Options) *Service {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts.Excludes = append(DefaultExcludes(), opts.Excludes...)
	return &Service{fs: fs, opts: opts, logger: logger}
}

// Discover scans root recursively and returns every manifest found.
// Directories that cannot be read are skipped; an unreadable root is an error.
func (s *Service) Discover(ctx context.Context, root string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := s.fs.Stat(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("cannot access root directory %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", root)
	}
	if _, err := s.fs.ReadDir(ctx, root); err != nil {
		return nil, fmt.Errorf("cannot read root directory %q: %w", root, err)
	}

	result := &Result{
		Root:      root,
		Manifests: make([]Manifest, 0),
	}

	if err := s.walk(ctx, root, root, 0, result); err != nil {
		return nil, err
	}

	slices.SortFunc(result.Manifests, func(a, b Manifest) int {
		return strings.Compare(a.Path, b.Path)
	})

	return result, nil
}

// walk visits dir and its subdirectories, appending matches to result.
func (s *Service) walk(ctx context.Context, root, dir string, depth int, result *Result) error {
	if s.opts.MaxDepth > 0 && depth > s.opts.MaxDepth {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := s.fs.ReadDir(ctx, dir)
	if err != nil {
		// Skip directories we can't read
		s.logger.Debug("skipping unreadable directory", "dir", dir, "err", err)
		result.Skipped = append(result.Skipped, dir)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			if s.shouldExclude(name, path) {
				s.logger.Debug("skipping excluded directory", "dir", path)
				continue
			}
			if err := s.walk(ctx, root, path, depth+1, result); err != nil {
				return err
			}
			continue
		}

		if !s.matches(name) {
			continue
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}
		result.Manifests = append(result.Manifests, Manifest{
			Path:     path,
			RelPath:  relPath,
			Filename: name,
		})
	}

	return nil
}

// matches reports whether a file name matches the manifest pattern.
func (s *Service) matches(name string) bool {
	ok, err := filepath.Match(strings.ToLower(s.opts.Pattern), strings.ToLower(name))
	return err == nil && ok
}

// shouldExclude checks if a directory should be skipped.
func (s *Service) shouldExclude(name, path string) bool {
	// Hidden directories never contain projects we migrate.
	if strings.HasPrefix(name, ".") {
		return true
	}

	for _, pattern := range s.opts.Excludes {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}

	return false
}
