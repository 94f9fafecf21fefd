package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"
	"github.com/indaco/cpmigrate/internal/catalog"
	"github.com/indaco/cpmigrate/internal/core"
)

// Options configures a Rewriter.
type Options struct {
	// DryRun processes manifests without writing them back.
	DryRun bool

	// OnWarning is called for every warning as soon as it is found.
	OnWarning func(Warning)

	// Logger receives per-reference debug output.
	Logger *log.Logger
}

// Rewriter strips package versions out of project manifests.
type Rewriter struct {
	fs     core.FileSystem
	opts   Options
	logger *log.Logger
}

// NewRewriter creates a Rewriter backed by fs.
func NewRewriter(fs core.FileSystem, opts Options) *Rewriter {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Rewriter{fs: fs, opts: opts, logger: logger}
}

// Prepare reads and edits the manifest at path in memory and folds its
// versions into cat. Nothing is written; pass the result to Commit.
func (r *Rewriter) Prepare(ctx context.Context, path string, cat *catalog.Catalog) (*Result, error) {
	data, err := r.fs.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}

	doc, layout, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	result, err := r.apply(doc, path, cat)
	if err != nil {
		return nil, err
	}

	if result.Changed {
		out, err := Serialize(doc, layout)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize manifest %q: %w", path, err)
		}
		result.content = out
	}
	return result, nil
}

// Commit writes a prepared manifest back to disk. Unchanged manifests and
// dry runs are no-ops.
func (r *Rewriter) Commit(ctx context.Context, result *Result) error {
	if !result.Changed || r.opts.DryRun {
		return nil
	}
	if err := r.fs.WriteFile(ctx, result.Path, result.content, core.PermOwnerRW); err != nil {
		return fmt.Errorf("failed to write manifest %q: %w", result.Path, err)
	}
	result.Written = true
	return nil
}

// apply edits doc in memory.
func (r *Rewriter) apply(doc *etree.Document, path string, cat *catalog.Catalog) (*Result, error) {
	result := &Result{Path: path}
	var overrides []*etree.Element

	for _, ref := range packageReferences(doc.Root()) {
		result.References++

		include := findAttr(ref, AttrInclude)
		update := findAttr(ref, AttrUpdate)
		version, ok := readVersion(ref)

		var name string
		switch {
		case include != nil:
			name = include.Value
		case update != nil:
			name = update.Value
		default:
			return nil, &MalformedDeclarationError{
				Path:   path,
				Reason: fmt.Sprintf("neither %s nor %s attribute is set", AttrInclude, AttrUpdate),
			}
		}

		if !ok {
			if include != nil {
				// Already centrally managed; only blank leftovers are dropped.
				r.logger.Debug("reference has no version", "file", path, "package", name)
				if removeVersion(ref) {
					result.Changed = true
				}
				continue
			}
			return nil, &MalformedDeclarationError{
				Path:    path,
				Package: name,
				Reason:  fmt.Sprintf("%s is required", AttrVersion),
			}
		}

		if include == nil {
			overrides = append(overrides, ref)
			r.warn(result, Warning{
				File:    path,
				Package: name,
				Kind:    WarningOverrideRemoved,
				Message: fmt.Sprintf("Remove `%s` reference to %s", AttrUpdate, name),
			})
		}

		resolved, err := cat.Add(name, version)
		if err != nil {
			var rerr *catalog.ResolveError
			if !errors.As(err, &rerr) {
				return nil, err
			}
			r.warn(result, Warning{
				File:    path,
				Package: name,
				Kind:    WarningUnparsableVersion,
				Message: fmt.Sprintf("Could not parse version in `%s`: %v", name, rerr.Err),
			})
		}
		r.logger.Debug("collected package", "file", path, "package", name, "declared", version, "resolved", resolved)

		removeVersion(ref)
		result.Stripped++
		result.Changed = true
	}

	for _, ref := range overrides {
		if parent := ref.Parent(); parent != nil {
			parent.RemoveChild(ref)
		}
		result.OverridesRemoved++
	}

	return result, nil
}

func (r *Rewriter) warn(result *Result, w Warning) {
	result.Warnings = append(result.Warnings, w)
	if r.opts.OnWarning != nil {
		r.opts.OnWarning(w)
	}
}

// findAttr returns the unprefixed attribute named key.
func findAttr(el *etree.Element, key string) *etree.Attr {
	for i := range el.Attr {
		a := &el.Attr[i]
		if a.Space == "" && strings.EqualFold(a.Key, key) {
			return a
		}
	}
	return nil
}

// findChild returns the first child element named tag.
func findChild(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Space == "" && strings.EqualFold(child.Tag, tag) {
			return child
		}
	}
	return nil
}

// readVersion returns the declared version from the Version attribute or,
// failing that, a Version child element. Blank values count as absent.
func readVersion(el *etree.Element) (string, bool) {
	if a := findAttr(el, AttrVersion); a != nil && strings.TrimSpace(a.Value) != "" {
		return a.Value, true
	}
	if child := findChild(el, AttrVersion); child != nil {
		if v := strings.TrimSpace(child.Text()); v != "" {
			return v, true
		}
	}
	return "", false
}

// removeVersion drops every form of version metadata from el and reports
// whether anything was removed.
func removeVersion(el *etree.Element) bool {
	removed := false
	if a := findAttr(el, AttrVersion); a != nil {
		el.RemoveAttr(a.Key)
		removed = true
	}
	for child := findChild(el, AttrVersion); child != nil; child = findChild(el, AttrVersion) {
		el.RemoveChild(child)
		removed = true
	}
	return removed
}

// packageReferences returns every PackageReference below root in document
// order.
func packageReferences(root *etree.Element) []*etree.Element {
	return Elements(root, ElementPackageReference)
}
