package semver

import (
	"errors"
	"fmt"
)

// Policy selects how two versions are ordered.
type Policy string

const (
	// PolicySemantic orders versions by full precedence rules.
	PolicySemantic Policy = "semver"

	// PolicyNumeric orders versions by their numeric segments only.
	PolicyNumeric Policy = "numeric"
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	return string(p)
}

// IsValid returns true if p is a known policy.
func (p Policy) IsValid() bool {
	switch p {
	case PolicySemantic, PolicyNumeric:
		return true
	default:
		return false
	}
}

// ParsePolicy converts a string to a Policy. The empty string maps to
// PolicySemantic.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return PolicySemantic, nil
	}
	p := Policy(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown version policy %q (expected %q or %q)", s, PolicySemantic, PolicyNumeric)
	}
	return p, nil
}

// ParseError reports a version string that could not be parsed.
type ParseError struct {
	Version string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse version %q: %v", e.Version, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parse parses s under the policy.
func (p Policy) Parse(s string) (Version, error) {
	var (
		v   Version
		err error
	)
	if p == PolicyNumeric {
		v, err = ParseNumericPrefix(s)
	} else {
		v, err = ParseVersion(s)
	}
	if err != nil {
		return Version{}, &ParseError{Version: s, Err: err}
	}
	return v, nil
}

// Compare orders a and b under the policy.
func (p Policy) Compare(a, b Version) int {
	if p == PolicyNumeric {
		return a.CompareNumeric(b)
	}
	return a.Compare(b)
}

// Max returns the greater of incoming and existing. Ties keep existing.
// If either string fails to parse, Max returns a *ParseError and an empty
// string; the caller decides on the fallback.
func (p Policy) Max(incoming, existing string) (string, error) {
	in, err := p.Parse(incoming)
	if err != nil {
		return "", err
	}
	ex, err := p.Parse(existing)
	if err != nil {
		return "", err
	}
	if p.Compare(in, ex) > 0 {
		return incoming, nil
	}
	return existing, nil
}
