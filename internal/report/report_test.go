package report

import (
	"context"
	"errors"
	"testing"

	"github.com/indaco/cpmigrate/internal/catalog"
	"github.com/indaco/cpmigrate/internal/central"
	"github.com/indaco/cpmigrate/internal/core"
	"github.com/indaco/cpmigrate/internal/manifest"
	"github.com/indaco/cpmigrate/internal/migrate"
	"github.com/indaco/cpmigrate/internal/semver"
	"github.com/tidwall/gjson"
)

func sampleSummary() *migrate.Summary {
	return &migrate.Summary{
		Root:   "/repo",
		Policy: semver.PolicySemantic,
		Files: []*manifest.Result{
			{Path: "/repo/A/A.csproj", References: 2, Stripped: 2, Changed: true},
			{Path: "/repo/B/B.csproj", References: 2, Stripped: 1, OverridesRemoved: 1, Changed: true},
		},
		Packages: []catalog.Entry{
			{Name: "Foo.Bar", Version: "9.9.9"},
			{Name: "Shared", Version: "2.0.0"},
		},
		Warnings: []manifest.Warning{{
			File:    "/repo/B/B.csproj",
			Package: "Foo.Bar",
			Kind:    manifest.WarningOverrideRemoved,
			Message: "Remove `Update` reference to Foo.Bar",
		}},
		Central: &central.Result{
			Path:       "/repo/Directory.Packages.props",
			BackupPath: "/repo/Directory.Packages.props.bak",
			Packages:   2,
		},
	}
}

func TestBuild(t *testing.T) {
	data, err := Build(sampleSummary())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !gjson.ValidBytes(data) {
		t.Fatalf("report is not valid JSON:\n%s", data)
	}

	checks := map[string]string{
		"root":                     "/repo",
		"policy":                   "semver",
		"output":                   "/repo/Directory.Packages.props",
		"backup":                   "/repo/Directory.Packages.props.bak",
		"dryRun":                   "false",
		"files.#":                  "2",
		"files.1.path":             "/repo/B/B.csproj",
		"files.1.stripped":         "1",
		"files.1.overridesRemoved": "1",
		"files.0.changed":          "true",
		"packages.#":               "2",
		"packages.0.name":          "Foo.Bar",
		"packages.0.version":       "9.9.9",
		"warnings.0.kind":          "override-removed",
		"warnings.0.package":       "Foo.Bar",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(data, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestBuild_EmptyRun(t *testing.T) {
	data, err := Build(&migrate.Summary{Root: "/empty"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, path := range []string{"files", "packages", "warnings"} {
		v := gjson.GetBytes(data, path)
		if !v.IsArray() || len(v.Array()) != 0 {
			t.Errorf("%s = %s, want an empty array", path, v.Raw)
		}
	}
	if got := gjson.GetBytes(data, "output").String(); got != "" {
		t.Errorf("output = %q, want empty", got)
	}
}

func TestWrite(t *testing.T) {
	fs := core.NewMockFileSystem()
	if err := Write(context.Background(), fs, "/out/report.json", sampleSummary()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, ok := fs.GetFile("/out/report.json")
	if !ok {
		t.Fatal("report not written")
	}
	if gjson.GetBytes(data, "packages.1.name").String() != "Shared" {
		t.Errorf("unexpected report:\n%s", data)
	}

	fs.WriteErr = errors.New("read-only")
	if err := Write(context.Background(), fs, "/out/report.json", sampleSummary()); err == nil {
		t.Error("expected write error")
	}
}
