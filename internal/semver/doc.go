// Package semver parses and orders NuGet package versions.
//
// Two comparison policies are available. PolicySemantic applies full
// precedence rules, including pre-release labels. PolicyNumeric compares only
// the numeric segments and ignores everything after the first '-' or '+'.
// The two disagree on pre-release tagged versions: under PolicyNumeric
// "2.0.0-beta" and "2.0.0" are equal.
package semver
