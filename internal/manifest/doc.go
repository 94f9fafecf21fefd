// Package manifest reads and rewrites MSBuild project files for central
// package management. The Rewriter strips Version metadata from every
// PackageReference, drops Update overrides, and folds each version into a
// shared catalog.
//
// Element and attribute names are matched case-insensitively, as MSBuild
// does for item types and metadata.
package manifest
