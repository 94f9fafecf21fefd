// Package central renders and writes Directory.Packages.props, the file that
// holds every package version once central package management is enabled.
package central

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/beevik/etree"
	"github.com/indaco/cpmigrate/internal/catalog"
	"github.com/indaco/cpmigrate/internal/core"
	"github.com/indaco/cpmigrate/internal/manifest"
)

// DefaultFilename is the file MSBuild imports for central package versions.
const DefaultFilename = "Directory.Packages.props"

// BackupSuffix is appended to an existing file before it is replaced.
const BackupSuffix = ".bak"

// Options configures an Emitter.
type Options struct {
	// Filename is the name of the file written in the root directory.
	Filename string

	// Backup renames an existing file instead of overwriting it.
	Backup bool

	// TransitivePinning emits CentralPackageTransitivePinningEnabled.
	TransitivePinning bool

	// DryRun renders the document without writing to disk.
	DryRun bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Filename:          DefaultFilename,
		Backup:            true,
		TransitivePinning: true,
	}
}

// Result describes what the Emitter did.
type Result struct {
	// Path is the central manifest path.
	Path string

	// BackupPath is where the previous file was moved, if there was one.
	BackupPath string

	// Packages is the number of PackageVersion entries written.
	Packages int

	// Content is the rendered document.
	Content []byte

	// Written reports whether Content was saved to Path.
	Written bool

	// Unchanged reports that Path already held Content, so nothing was
	// backed up or written.
	Unchanged bool
}

// Emitter writes the central package manifest.
type Emitter struct {
	fs   core.FileSystem
	opts Options
}

// NewEmitter creates an Emitter backed by fs.
func NewEmitter(fs core.FileSystem, opts Options) *Emitter {
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	return &Emitter{fs: fs, opts: opts}
}

// Emit renders entries and writes them to the central manifest in root.
func (e *Emitter) Emit(ctx context.Context, root string, entries []catalog.Entry) (*Result, error) {
	content, err := Render(entries, e.opts.TransitivePinning)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Path:     e.Path(root),
		Packages: len(entries),
		Content:  content,
	}

	current, err := e.fs.ReadFile(ctx, result.Path)
	switch {
	case err == nil:
		result.Unchanged = bytes.Equal(current, content)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read %q: %w", result.Path, err)
	}

	if e.opts.DryRun || result.Unchanged {
		return result, nil
	}

	if e.opts.Backup {
		backup, err := e.backup(ctx, result.Path)
		if err != nil {
			return nil, err
		}
		result.BackupPath = backup
	}

	if err := e.fs.WriteFile(ctx, result.Path, content, core.PermOwnerRW); err != nil {
		return nil, fmt.Errorf("failed to write %q: %w", result.Path, err)
	}
	result.Written = true

	return result, nil
}

// backup moves an existing file at path out of the way and returns the new
// location, or "" if there was nothing to move. Existing backups are never
// overwritten: path.bak is tried first, then path.bak.1, path.bak.2, ...
func (e *Emitter) backup(ctx context.Context, path string) (string, error) {
	if _, err := e.fs.Stat(ctx, path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to check %q: %w", path, err)
	}

	target := path + BackupSuffix
	for n := 1; ; n++ {
		_, err := e.fs.Stat(ctx, target)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %q: %w", target, err)
		}
		target = path + BackupSuffix + "." + strconv.Itoa(n)
	}

	if err := e.fs.Rename(ctx, path, target); err != nil {
		return "", fmt.Errorf("failed to back up %q: %w", path, err)
	}
	return target, nil
}

// Render builds the central manifest document for entries, which must
// already be sorted.
func Render(entries []catalog.Entry, transitivePinning bool) ([]byte, error) {
	doc := etree.NewDocument()
	project := doc.CreateElement("Project")

	props := project.CreateElement("PropertyGroup")
	props.CreateElement("ManagePackageVersionsCentrally").SetText("true")
	if transitivePinning {
		props.CreateElement("CentralPackageTransitivePinningEnabled").SetText("true")
	}

	items := project.CreateElement("ItemGroup")
	for _, entry := range entries {
		pv := items.CreateElement("PackageVersion")
		pv.CreateAttr("Include", entry.Name)
		pv.CreateAttr("Version", entry.Version)
	}

	return manifest.Serialize(doc, manifest.Layout{})
}

// ReadExisting returns the PackageVersion entries of the central manifest in
// root. A missing file yields no entries and no error.
func (e *Emitter) ReadExisting(ctx context.Context, root string) ([]catalog.Entry, error) {
	path := e.Path(root)

	data, err := e.fs.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	doc, _, err := manifest.Parse(data)
	if err != nil {
		return nil, &manifest.ParseError{Path: path, Err: err}
	}

	var entries []catalog.Entry
	for _, el := range manifest.Elements(doc.Root(), "PackageVersion") {
		name := manifest.AttrValue(el, manifest.AttrInclude)
		version := manifest.AttrValue(el, manifest.AttrVersion)
		if name == "" || version == "" {
			continue
		}
		entries = append(entries, catalog.Entry{Name: name, Version: version})
	}
	return entries, nil
}

// Path returns the central manifest path for root.
func (e *Emitter) Path(root string) string {
	return filepath.Join(root, e.opts.Filename)
}
