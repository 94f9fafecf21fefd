package manifest

import "fmt"

// MSBuild element and attribute names touched by the rewriter. All of them
// are matched case-insensitively and only without a namespace prefix.
const (
	ElementPackageReference = "PackageReference"
	AttrInclude             = "Include"
	AttrUpdate              = "Update"
	AttrVersion             = "Version"
)

// WarningKind classifies a recoverable problem found while rewriting.
type WarningKind string

const (
	// WarningOverrideRemoved marks an Update= declaration that was deleted.
	WarningOverrideRemoved WarningKind = "override-removed"

	// WarningUnparsableVersion marks a version conflict that could not be
	// resolved because a version did not parse.
	WarningUnparsableVersion WarningKind = "unparsable-version"
)

// Warning is a recoverable problem reported while rewriting a manifest.
type Warning struct {
	// File is the manifest path.
	File string

	// Package is the package id the warning refers to.
	Package string

	// Kind classifies the warning.
	Kind WarningKind

	// Message is a human-readable description.
	Message string
}

// String returns the warning in "file: message" form.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.File, w.Message)
}

// Result summarizes the rewrite of a single manifest.
type Result struct {
	// Path is the manifest path.
	Path string

	// References counts every PackageReference element found.
	References int

	// Stripped counts references whose version was moved to the catalog.
	Stripped int

	// OverridesRemoved counts deleted Update= declarations.
	OverridesRemoved int

	// Changed reports whether the document was modified.
	Changed bool

	// Written reports whether the modified document was saved.
	Written bool

	// Warnings lists the recoverable problems found, in document order.
	Warnings []Warning

	// content is the serialized document awaiting Commit.
	content []byte
}

// ParseError reports a manifest that is not well-formed XML.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MalformedDeclarationError reports a PackageReference that is missing a
// required attribute.
type MalformedDeclarationError struct {
	Path    string
	Package string
	Reason  string
}

func (e *MalformedDeclarationError) Error() string {
	if e.Package == "" {
		return fmt.Sprintf("malformed %s in %q: %s", ElementPackageReference, e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed %s %q in %q: %s", ElementPackageReference, e.Package, e.Path, e.Reason)
}
