package semver

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Version is a NuGet-style package version:
// major[.minor[.patch[.revision]]][-preRelease][+build].
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Revision   int
	PreRelease string
	Build      string
}

var (
	// versionRegex captures:
	//   1-4. numeric segments (minor, patch and revision are optional)
	//   5.   (optional) pre-release label
	//   6.   (optional) build metadata
	versionRegex = regexp.MustCompile(
		`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?` + // numeric segments
			`(?:-([0-9A-Za-z\-\.]+))?` + // optional pre-release
			`(?:\+([0-9A-Za-z\-\.]+))?$`, // optional build metadata
	)

	// errInvalidVersion is returned when a version string does not conform
	// to the expected format.
	errInvalidVersion = errors.New("invalid version format")
)

// maxVersionLength bounds the input handed to the regex parser.
const maxVersionLength = 128

// String returns the normalized representation of the version. The revision
// segment is only included when it is non-zero.
func (v Version) String() string {
	var sb strings.Builder
	sb.Grow(20)
	sb.WriteString(strconv.Itoa(v.Major))
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(v.Minor))
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(v.Patch))
	if v.Revision != 0 {
		sb.WriteByte('.')
		sb.WriteString(strconv.Itoa(v.Revision))
	}
	if v.PreRelease != "" {
		sb.WriteByte('-')
		sb.WriteString(v.PreRelease)
	}
	if v.Build != "" {
		sb.WriteByte('+')
		sb.WriteString(v.Build)
	}
	return sb.String()
}

// ParseVersion parses a version string.
//
// Supported formats:
//   - "1", "1.2", "1.2.3", "1.2.3.4" (missing segments default to 0)
//   - "1.2.3-beta.1" (with pre-release label)
//   - "1.2.3+sha.abc" (with build metadata)
//   - "1.2.3-rc.1+build.5" (with both)
//
// Floating versions ("1.*") and ranges ("[1.0,2.0)") are rejected.
func ParseVersion(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > maxVersionLength {
		return Version{}, fmt.Errorf("%w: version string exceeds maximum length of %d", errInvalidVersion, maxVersionLength)
	}

	matches := versionRegex.FindStringSubmatch(trimmed)
	if matches == nil {
		return Version{}, errInvalidVersion
	}

	var segments [4]int
	for i := range segments {
		if matches[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return Version{}, fmt.Errorf("%w: invalid numeric segment: %s", errInvalidVersion, err.Error())
		}
		segments[i] = n
	}

	pre := matches[5]
	if pre != "" && slices.Contains(strings.Split(pre, "."), "") {
		return Version{}, fmt.Errorf("%w: empty pre-release identifier", errInvalidVersion)
	}

	return Version{
		Major:      segments[0],
		Minor:      segments[1],
		Patch:      segments[2],
		Revision:   segments[3],
		PreRelease: pre,
		Build:      matches[6],
	}, nil
}

// ParseNumericPrefix parses only the numeric part of s, discarding anything
// from the first '-' or '+' onwards.
func ParseNumericPrefix(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > maxVersionLength {
		return Version{}, fmt.Errorf("%w: version string exceeds maximum length of %d", errInvalidVersion, maxVersionLength)
	}
	if i := strings.IndexAny(trimmed, "-+"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return ParseVersion(trimmed)
}

// Compare compares two versions.
// It returns -1 if v < other, 0 if v == other, and +1 if v > other.
// Pre-release versions have lower precedence than the associated release
// (1.0.0-alpha < 1.0.0). Build metadata is ignored.
func (v Version) Compare(other Version) int {
	if c := v.CompareNumeric(other); c != 0 {
		return c
	}

	switch {
	case v.PreRelease == "" && other.PreRelease == "":
		return 0
	case v.PreRelease == "":
		return 1
	case other.PreRelease == "":
		return -1
	default:
		return comparePreRelease(v.PreRelease, other.PreRelease)
	}
}

// CompareNumeric compares only the numeric segments of two versions.
func (v Version) CompareNumeric(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}
	return compareInt(v.Revision, other.Revision)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func comparePreRelease(a, b string) int {
	aIDs := strings.Split(a, ".")
	bIDs := strings.Split(b, ".")

	n := min(len(aIDs), len(bIDs))
	for i := range n {
		if c := compareIdentifier(aIDs[i], bIDs[i]); c != 0 {
			return c
		}
	}

	// If equal so far, shorter list has lower precedence.
	return compareInt(len(aIDs), len(bIDs))
}

func compareIdentifier(a, b string) int {
	aNum, aIsNum := parseNumericIdentifier(a)
	bNum, bIsNum := parseNumericIdentifier(b)

	switch {
	case aIsNum && bIsNum:
		return compareInt(aNum, bNum)
	case aIsNum && !bIsNum:
		return -1 // numeric < non-numeric
	case !aIsNum && bIsNum:
		return 1
	default:
		// NuGet labels are case-insensitive.
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}
}

// Numeric identifiers: only digits, no leading zeros unless exactly "0".
func parseNumericIdentifier(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
