// Package version exposes the cpmigrate build version.
package version

import "runtime/debug"

// version is set at build time with
// -ldflags "-X github.com/indaco/cpmigrate/internal/version.version=1.2.3".
var version = ""

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// GetVersion returns the linked version, the module version recorded by
// `go install`, or "dev".
func GetVersion() string {
	if version != "" {
		return version
	}
	if info, ok := readBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
