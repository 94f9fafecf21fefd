// Package migrate runs a complete central package management migration:
// discover project files, strip their package versions into a catalog, and
// write the central manifest.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/indaco/cpmigrate/internal/catalog"
	"github.com/indaco/cpmigrate/internal/central"
	"github.com/indaco/cpmigrate/internal/core"
	"github.com/indaco/cpmigrate/internal/discovery"
	"github.com/indaco/cpmigrate/internal/manifest"
	"github.com/indaco/cpmigrate/internal/semver"
)

// ErrAborted is returned when the confirmation callback declines the run.
var ErrAborted = errors.New("migration aborted")

// ConfirmFunc is asked before any manifest is rewritten.
type ConfirmFunc func(files int) (bool, error)

// Options configures a Migrator.
type Options struct {
	Discovery discovery.Options
	Central   central.Options
	Policy    semver.Policy

	// MergeExisting folds the entries of an existing central manifest into
	// the emitted one, so re-running on a migrated tree keeps its versions.
	MergeExisting bool

	// DryRun computes everything without writing to disk.
	DryRun bool

	Reporter Reporter
	Confirm  ConfirmFunc
	Logger   *log.Logger
}

// Summary is the outcome of a run.
type Summary struct {
	Root      string
	Policy    semver.Policy
	DryRun    bool
	Manifests []discovery.Manifest
	Skipped   []string
	Files     []*manifest.Result
	Warnings  []manifest.Warning

	// Collected holds the versions gathered from project files only.
	Collected []catalog.Entry

	// Packages holds the entries written to the central manifest.
	Packages []catalog.Entry

	// Central is nil when no manifests were found.
	Central *central.Result
}

// ChangedFiles counts the manifests that were modified.
func (s *Summary) ChangedFiles() int {
	n := 0
	for _, f := range s.Files {
		if f.Changed {
			n++
		}
	}
	return n
}

// Migrator wires discovery, rewriting and emission together.
type Migrator struct {
	fs     core.FileSystem
	opts   Options
	logger *log.Logger
}

// New creates a Migrator backed by fs.
func New(fs core.FileSystem, opts Options) *Migrator {
	if opts.Reporter == nil {
		opts.Reporter = NopReporter{}
	}
	if !opts.Policy.IsValid() {
		opts.Policy = semver.PolicySemantic
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts.Discovery.Logger = logger
	opts.Central.DryRun = opts.DryRun
	return &Migrator{fs: fs, opts: opts, logger: logger}
}

// Discover scans root for project files without changing anything.
func (m *Migrator) Discover(ctx context.Context, root string) (*discovery.Result, error) {
	found, err := discovery.NewService(m.fs, m.opts.Discovery).Discover(ctx, root)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("discovery finished", "root", found.Root, "manifests", len(found.Manifests), "skipped", len(found.Skipped))
	return found, nil
}

// Run discovers and migrates the tree under root.
func (m *Migrator) Run(ctx context.Context, root string) (*Summary, error) {
	found, err := m.Discover(ctx, root)
	if err != nil {
		return nil, err
	}
	return m.Migrate(ctx, found)
}

// Migrate rewrites the manifests in found and emits the central manifest.
//
// Every manifest is read and edited in memory before anything is written,
// so a malformed file or a cancellation leaves the tree untouched. Once the
// first file is written the remaining writes run to completion.
func (m *Migrator) Migrate(ctx context.Context, found *discovery.Result) (*Summary, error) {
	root := found.Root
	summary := &Summary{
		Root:      root,
		Policy:    m.opts.Policy,
		DryRun:    m.opts.DryRun,
		Manifests: found.Manifests,
		Skipped:   found.Skipped,
	}
	m.opts.Reporter.Scanned(found)

	if found.IsEmpty() {
		m.opts.Reporter.Finished(summary)
		return summary, nil
	}

	emitter := central.NewEmitter(m.fs, m.opts.Central)
	var existing []catalog.Entry
	if m.opts.MergeExisting {
		entries, err := emitter.ReadExisting(ctx, root)
		if err != nil {
			return nil, err
		}
		existing = entries
	}

	collected := catalog.New(m.opts.Policy)
	rewriter := manifest.NewRewriter(m.fs, manifest.Options{
		DryRun: m.opts.DryRun,
		OnWarning: func(w manifest.Warning) {
			summary.Warnings = append(summary.Warnings, w)
			m.opts.Reporter.Warning(w)
		},
		Logger: m.logger,
	})

	total := len(found.Manifests)
	for i, mf := range found.Manifests {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("migration interrupted after %d of %d files: %w", i, total, err)
		}

		m.opts.Reporter.Processing(i, total, mf)
		result, err := rewriter.Prepare(ctx, mf.Path, collected)
		if err != nil {
			return nil, err
		}
		summary.Files = append(summary.Files, result)
	}
	summary.Collected = collected.Entries()
	m.logger.Debug("collected packages", "count", collected.Len(), "files", total)

	if m.opts.Confirm != nil && !m.opts.DryRun {
		ok, err := m.opts.Confirm(total)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAborted
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("migration interrupted before writing: %w", err)
	}

	packages, err := m.mergeExisting(existing, emitter.Path(root), summary)
	if err != nil {
		return nil, err
	}
	summary.Packages = packages

	commitCtx := context.WithoutCancel(ctx)
	for _, result := range summary.Files {
		if err := rewriter.Commit(commitCtx, result); err != nil {
			return nil, err
		}
	}

	res, err := emitter.Emit(commitCtx, root, packages)
	if err != nil {
		return nil, err
	}
	summary.Central = res

	m.opts.Reporter.Finished(summary)
	return summary, nil
}

// mergeExisting folds the entries of an existing central manifest into the
// collected versions. The higher version wins, as it does across projects.
func (m *Migrator) mergeExisting(existing []catalog.Entry, centralPath string, summary *Summary) ([]catalog.Entry, error) {
	if len(existing) == 0 {
		return summary.Collected, nil
	}
	m.logger.Debug("merging existing central manifest", "entries", len(existing))

	merged := catalog.New(m.opts.Policy)
	for _, e := range existing {
		_, _ = merged.Add(e.Name, e.Version)
	}
	for _, e := range summary.Collected {
		prev, inCentral := merged.Get(e.Name)
		resolved, err := merged.Add(e.Name, e.Version)
		if err != nil {
			var rerr *catalog.ResolveError
			if !errors.As(err, &rerr) {
				return nil, err
			}
			w := manifest.Warning{
				File:    centralPath,
				Package: e.Name,
				Kind:    manifest.WarningUnparsableVersion,
				Message: fmt.Sprintf("Could not parse version in `%s`: %v", e.Name, rerr.Err),
			}
			summary.Warnings = append(summary.Warnings, w)
			m.opts.Reporter.Warning(w)
			continue
		}
		if inCentral && resolved == prev && prev != e.Version {
			m.logger.Debug("kept central version", "package", e.Name, "collected", e.Version, "central", resolved)
		}
	}
	return merged.Entries(), nil
}
