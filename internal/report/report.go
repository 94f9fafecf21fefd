// Package report writes a machine-readable JSON record of a migration run.
package report

import (
	"context"
	"fmt"

	"github.com/indaco/cpmigrate/internal/core"
	"github.com/indaco/cpmigrate/internal/migrate"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Build renders summary as an indented JSON document.
func Build(summary *migrate.Summary) ([]byte, error) {
	doc := []byte(`{"files":[],"packages":[],"warnings":[]}`)

	var output, backup string
	if summary.Central != nil {
		output = summary.Central.Path
		backup = summary.Central.BackupPath
	}

	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		doc, err = sjson.SetBytes(doc, path, value)
	}

	set("root", summary.Root)
	set("policy", string(summary.Policy))
	set("output", output)
	set("backup", backup)
	set("dryRun", summary.DryRun)

	for i, f := range summary.Files {
		prefix := fmt.Sprintf("files.%d.", i)
		set(prefix+"path", f.Path)
		set(prefix+"references", f.References)
		set(prefix+"stripped", f.Stripped)
		set(prefix+"overridesRemoved", f.OverridesRemoved)
		set(prefix+"changed", f.Changed)
	}

	for i, p := range summary.Packages {
		prefix := fmt.Sprintf("packages.%d.", i)
		set(prefix+"name", p.Name)
		set(prefix+"version", p.Version)
	}

	for i, w := range summary.Warnings {
		prefix := fmt.Sprintf("warnings.%d.", i)
		set(prefix+"file", w.File)
		set(prefix+"package", w.Package)
		set(prefix+"kind", string(w.Kind))
		set(prefix+"message", w.Message)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	return pretty.Pretty(doc), nil
}

// Write builds the report for summary and saves it to path.
func Write(ctx context.Context, fs core.FileSystem, path string, summary *migrate.Summary) error {
	data, err := Build(summary)
	if err != nil {
		return err
	}
	if err := fs.WriteFile(ctx, path, data, core.PermOwnerRW); err != nil {
		return fmt.Errorf("failed to write report %q: %w", path, err)
	}
	return nil
}
