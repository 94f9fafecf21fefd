// Package catalog accumulates the resolved version of every package seen
// during a migration run.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/indaco/cpmigrate/internal/semver"
)

// Entry is one resolved package.
type Entry struct {
	// Name is the package id with the casing it was first seen with.
	Name string

	// Version is the resolved version string, verbatim from a manifest.
	Version string
}

// Catalog maps package ids, compared case-insensitively, to one resolved
// version. It is not safe for concurrent use.
type Catalog struct {
	policy  semver.Policy
	entries map[string]*Entry
}

// New creates an empty Catalog that resolves conflicts with policy.
func New(policy semver.Policy) *Catalog {
	if !policy.IsValid() {
		policy = semver.PolicySemantic
	}
	return &Catalog{
		policy:  policy,
		entries: make(map[string]*Entry),
	}
}

// ResolveError reports a conflict that could not be resolved because one of
// the versions did not parse. The incoming version was kept.
type ResolveError struct {
	Package  string
	Incoming string
	Existing string
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("could not compare versions of %s (%q vs %q): %v", e.Package, e.Incoming, e.Existing, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Add folds version into the entry for name and returns the version now
// stored. A *ResolveError is returned when the versions could not be
// compared; the catalog still holds the incoming version in that case.
func (c *Catalog) Add(name, version string) (string, error) {
	key := normalize(name)

	existing, ok := c.entries[key]
	if !ok {
		c.entries[key] = &Entry{Name: name, Version: version}
		return version, nil
	}

	resolved, err := c.policy.Max(version, existing.Version)
	if err != nil {
		rerr := &ResolveError{
			Package:  existing.Name,
			Incoming: version,
			Existing: existing.Version,
			Err:      err,
		}
		existing.Version = version
		return version, rerr
	}

	existing.Version = resolved
	return resolved, nil
}

// Get returns the resolved version for name.
func (c *Catalog) Get(name string) (string, bool) {
	e, ok := c.entries[normalize(name)]
	if !ok {
		return "", false
	}
	return e.Version, true
}

// Len returns the number of distinct packages.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Policy returns the comparison policy in use.
func (c *Catalog) Policy() semver.Policy {
	return c.policy
}

// Entries returns a snapshot sorted by name, case-insensitively.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return CompareNames(a.Name, b.Name)
	})
	return out
}

// CompareNames orders package ids case-insensitively, falling back to an
// ordinal comparison so the order is total.
func CompareNames(a, b string) int {
	if c := strings.Compare(normalize(a), normalize(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
