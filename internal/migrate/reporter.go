package migrate

import (
	"github.com/indaco/cpmigrate/internal/discovery"
	"github.com/indaco/cpmigrate/internal/manifest"
)

// Reporter receives progress events from a migration run. Implementations
// render them for the operator; the migration logic never writes to the
// terminal directly.
type Reporter interface {
	// Scanned is called once discovery has finished.
	Scanned(result *discovery.Result)

	// Processing is called before the manifest at index (zero-based) is
	// rewritten.
	Processing(index, total int, m discovery.Manifest)

	// Warning is called for every recoverable problem as it happens.
	Warning(w manifest.Warning)

	// Finished is called once after a successful run.
	Finished(summary *Summary)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Scanned(*discovery.Result) {}
func (NopReporter) Processing(int, int, discovery.Manifest) {}
func (NopReporter) Warning(manifest.Warning) {}
func (NopReporter) Finished(*Summary) {}
