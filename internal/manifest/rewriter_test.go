package manifest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/indaco/cpmigrate/internal/catalog"
	"github.com/indaco/cpmigrate/internal/core"
	"github.com/indaco/cpmigrate/internal/semver"
)

const webProject = `<?xml version="1.0" encoding="utf-8"?>
<Project Sdk="Microsoft.NET.Sdk.Web">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
  <!-- runtime dependencies -->
  <ItemGroup>
    <PackageReference Include="Serilog" Version="3.1.1" />
    <PackageReference Include="Foo.Bar" Version="1.2.3">
      <PrivateAssets>all</PrivateAssets>
    </PackageReference>
    <PackageReference Update="Microsoft.SourceLink.GitHub" Version="8.0.0" />
  </ItemGroup>
</Project>
`

func newTestRewriter(fs core.FileSystem, opts Options) (*Rewriter, *[]Warning) {
	var seen []Warning
	opts.OnWarning = func(w Warning) {
		seen = append(seen, w)
	}
	return NewRewriter(fs, opts), &seen
}

func readBack(t *testing.T, fs *core.MockFileSystem, path string) (string, *etree.Document) {
	t.Helper()
	data, ok := fs.GetFile(path)
	if !ok {
		t.Fatalf("file %s missing", path)
	}
	doc, _, err := Parse(data)
	if err != nil {
		t.Fatalf("rewritten file does not parse: %v\n%s", err, data)
	}
	return string(data), doc
}

// rewrite prepares and commits the manifest at path.
func rewrite(rw *Rewriter, path string, cat *catalog.Catalog) (*Result, error) {
	result, err := rw.Prepare(context.Background(), path, cat)
	if err != nil {
		return nil, err
	}
	if err := rw.Commit(context.Background(), result); err != nil {
		return nil, err
	}
	return result, nil
}

func TestRewriter_StripsVersionsAndOverrides(t *testing.T) {
	fs := core.NewMockFileSystem()
	fs.SetFile("/repo/Web/Web.csproj", []byte(webProject))
	cat := catalog.New(semver.PolicySemantic)

	rw, warnings := newTestRewriter(fs, Options{})
	result, err := rewrite(rw, "/repo/Web/Web.csproj", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.References != 3 || result.Stripped != 3 || result.OverridesRemoved != 1 {
		t.Errorf("result = %+v, want 3 references, 3 stripped, 1 override removed", result)
	}
	if !result.Changed || !result.Written {
		t.Errorf("Changed = %v, Written = %v; want both true", result.Changed, result.Written)
	}

	for name, want := range map[string]string{
		"Serilog":                     "3.1.1",
		"foo.bar":                     "1.2.3",
		"Microsoft.SourceLink.GitHub": "8.0.0",
	} {
		if got, _ := cat.Get(name); got != want {
			t.Errorf("catalog[%s] = %q, want %q", name, got, want)
		}
	}

	if len(*warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", *warnings)
	}
	w := (*warnings)[0]
	if w.Kind != WarningOverrideRemoved || w.Package != "Microsoft.SourceLink.GitHub" || w.File != "/repo/Web/Web.csproj" {
		t.Errorf("unexpected warning: %+v", w)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("result.Warnings = %v, want 1", result.Warnings)
	}

	text, doc := readBack(t, fs, "/repo/Web/Web.csproj")

	refs := packageReferences(doc.Root())
	if len(refs) != 2 {
		t.Fatalf("remaining references = %d, want 2", len(refs))
	}
	for _, ref := range refs {
		if findAttr(ref, AttrVersion) != nil {
			t.Errorf("reference %s still has a Version attribute", ref.SelectAttrValue(AttrInclude, ""))
		}
		if findAttr(ref, AttrUpdate) != nil {
			t.Error("Update reference was not removed")
		}
	}

	if strings.HasPrefix(text, "<?xml") {
		t.Error("XML declaration should be omitted")
	}
	if !strings.HasPrefix(text, "<Project") {
		t.Errorf("output should start with the root element, got %q", text[:min(len(text), 20)])
	}
	if !strings.Contains(text, "\n  <ItemGroup>") {
		t.Error("expected two-space indentation")
	}
	if !strings.Contains(text, "<!-- runtime dependencies -->") {
		t.Error("comments should be preserved")
	}
	if !strings.Contains(text, "<PrivateAssets>all</PrivateAssets>") {
		t.Error("unrelated child metadata should be preserved")
	}
	if !strings.HasSuffix(text, "</Project>\n") {
		t.Error("output should end with the closing root tag and a newline")
	}
}

func TestRewriter_AlreadyMigratedIsUntouched(t *testing.T) {
	const migrated = "<Project>\n  <ItemGroup>\n    <PackageReference Include=\"Serilog\" />\n  </ItemGroup>\n</Project>"

	fs := core.NewMockFileSystem()
	fs.SetFile("/repo/A.csproj", []byte(migrated))
	cat := catalog.New(semver.PolicySemantic)

	rw, warnings := newTestRewriter(fs, Options{})
	result, err := rewrite(rw, "/repo/A.csproj", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Changed || result.Written {
		t.Errorf("Changed = %v, Written = %v; want both false", result.Changed, result.Written)
	}
	if result.References != 1 || result.Stripped != 0 {
		t.Errorf("result = %+v", result)
	}
	if cat.Len() != 0 {
		t.Errorf("catalog should stay empty, has %d entries", cat.Len())
	}
	if len(*warnings) != 0 {
		t.Errorf("unexpected warnings: %v", *warnings)
	}
	if data, _ := fs.GetFile("/repo/A.csproj"); string(data) != migrated {
		t.Errorf("file content changed:\n%s", data)
	}
}

func TestRewriter_VersionElement(t *testing.T) {
	const project = `<Project>
  <ItemGroup>
    <PackageReference Include="Dapper">
      <Version>2.1.28</Version>
    </PackageReference>
  </ItemGroup>
</Project>`

	fs := core.NewMockFileSystem()
	fs.SetFile("/repo/A.csproj", []byte(project))
	cat := catalog.New(semver.PolicySemantic)

	rw, _ := newTestRewriter(fs, Options{})
	if _, err := rewrite(rw, "/repo/A.csproj", cat); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := cat.Get("Dapper"); v != "2.1.28" {
		t.Errorf("catalog[Dapper] = %q, want 2.1.28", v)
	}

	text, doc := readBack(t, fs, "/repo/A.csproj")
	ref := packageReferences(doc.Root())[0]
	if findChild(ref, AttrVersion) != nil || strings.Contains(text, "2.1.28") {
		t.Errorf("Version element should be removed:\n%s", text)
	}
}

func TestRewriter_UnparsableVersionWarns(t *testing.T) {
	const project = `<Project>
  <ItemGroup>
    <PackageReference Include="Pkg" Version="1.0.0" />
  </ItemGroup>
  <ItemGroup Condition="'$(TargetFramework)' == 'net48'">
    <PackageReference Include="Pkg" Version="not-a-version" />
  </ItemGroup>
</Project>`

	fs := core.NewMockFileSystem()
	fs.SetFile("/repo/A.csproj", []byte(project))
	cat := catalog.New(semver.PolicySemantic)

	rw, warnings := newTestRewriter(fs, Options{})
	if _, err := rewrite(rw, "/repo/A.csproj", cat); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(*warnings) != 1 || (*warnings)[0].Kind != WarningUnparsableVersion {
		t.Fatalf("warnings = %+v, want one unparsable-version warning", *warnings)
	}
	if !strings.Contains((*warnings)[0].Message, "Pkg") {
		t.Errorf("warning should name the package: %q", (*warnings)[0].Message)
	}
	if v, _ := cat.Get("Pkg"); v != "not-a-version" {
		t.Errorf("catalog[Pkg] = %q, want the newly seen value", v)
	}
}

func TestRewriter_DryRun(t *testing.T) {
	fs := core.NewMockFileSystem()
	fs.SetFile("/repo/Web.csproj", []byte(webProject))
	cat := catalog.New(semver.PolicySemantic)

	rw, _ := newTestRewriter(fs, Options{DryRun: true})
	result, err := rewrite(rw, "/repo/Web.csproj", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Changed || result.Written {
		t.Errorf("Changed = %v, Written = %v; want true, false", result.Changed, result.Written)
	}
	if cat.Len() != 3 {
		t.Errorf("catalog has %d entries, want 3", cat.Len())
	}
	if data, _ := fs.GetFile("/repo/Web.csproj"); string(data) != webProject {
		t.Error("dry run must not modify the file")
	}
}

func TestRewriter_PreservesBOMAndCRLF(t *testing.T) {
	project := "\xEF\xBB\xBF<Project>\r\n  <ItemGroup>\r\n    <PackageReference Include=\"A\" Version=\"1.0.0\" />\r\n  </ItemGroup>\r\n</Project>\r\n"

	fs := core.NewMockFileSystem()
	fs.SetFile("/repo/A.csproj", []byte(project))

	rw, _ := newTestRewriter(fs, Options{})
	if _, err := rewrite(rw, "/repo/A.csproj", catalog.New(semver.PolicySemantic)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := fs.GetFile("/repo/A.csproj")
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Error("byte order mark was dropped")
	}
	if bytes.Count(data, []byte("\n")) != bytes.Count(data, []byte("\r\n")) {
		t.Errorf("line endings not preserved: %q", data)
	}
	if bytes.Contains(data, []byte("Version=")) {
		t.Errorf("version not stripped: %q", data)
	}
}

func TestRewriter_FatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(error) bool
	}{
		{
			name:    "truncated document",
			content: `<Project><ItemGroup><PackageReference Include="A" Version="1.0`,
			check: func(err error) bool {
				var pe *ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name:    "no root element",
			content: "",
			check: func(err error) bool {
				var pe *ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name:    "second root element",
			content: `<Project><ItemGroup><PackageReference Include="A" Version="1.0.0" /></ItemGroup></Project><Project />`,
			check: func(err error) bool {
				var pe *ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name:    "no name attribute",
			content: `<Project><ItemGroup><PackageReference Version="1.0.0" /></ItemGroup></Project>`,
			check: func(err error) bool {
				var me *MalformedDeclarationError
				return errors.As(err, &me)
			},
		},
		{
			name:    "override without version",
			content: `<Project><ItemGroup><PackageReference Update="A" PrivateAssets="all" /></ItemGroup></Project>`,
			check: func(err error) bool {
				var me *MalformedDeclarationError
				return errors.As(err, &me) && me.Package == "A"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := core.NewMockFileSystem()
			fs.SetFile("/repo/A.csproj", []byte(tt.content))

			rw, _ := newTestRewriter(fs, Options{})
			_, err := rewrite(rw, "/repo/A.csproj", catalog.New(semver.PolicySemantic))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
			if data, _ := fs.GetFile("/repo/A.csproj"); string(data) != tt.content {
				t.Error("file must not be modified on fatal errors")
			}
		})
	}
}

func TestRewriter_IOErrors(t *testing.T) {
	t.Run("read", func(t *testing.T) {
		fs := core.NewMockFileSystem()
		rw, _ := newTestRewriter(fs, Options{})
		if _, err := rewrite(rw, "/repo/missing.csproj", catalog.New(semver.PolicySemantic)); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("write", func(t *testing.T) {
		fs := core.NewMockFileSystem()
		fs.SetFile("/repo/Web.csproj", []byte(webProject))
		fs.WriteErr = errors.New("disk full")

		rw, _ := newTestRewriter(fs, Options{})
		_, err := rewrite(rw, "/repo/Web.csproj", catalog.New(semver.PolicySemantic))
		if err == nil || !strings.Contains(err.Error(), "disk full") {
			t.Fatalf("expected wrapped write error, got %v", err)
		}
	})
}

func TestRewriter_PrepareWritesNothingUntilCommit(t *testing.T) {
	fs := core.NewMockFileSystem()
	fs.SetFile("/repo/Web.csproj", []byte(webProject))
	cat := catalog.New(semver.PolicySemantic)

	rw, _ := newTestRewriter(fs, Options{})
	result, err := rw.Prepare(context.Background(), "/repo/Web.csproj", cat)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !result.Changed || result.Written {
		t.Errorf("Changed = %v, Written = %v; want true, false", result.Changed, result.Written)
	}
	if cat.Len() != 3 {
		t.Errorf("catalog has %d entries, want 3", cat.Len())
	}
	if data, _ := fs.GetFile("/repo/Web.csproj"); string(data) != webProject {
		t.Fatal("Prepare modified the file")
	}

	if err := rw.Commit(context.Background(), result); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !result.Written {
		t.Error("Written = false after Commit")
	}
	if data, _ := fs.GetFile("/repo/Web.csproj"); bytes.Contains(data, []byte("Version=")) {
		t.Errorf("committed file still has versions:\n%s", data)
	}
}

func TestRewriter_MatchesNamesCaseInsensitively(t *testing.T) {
	const project = `<Project>
  <ItemGroup>
    <packagereference include="Lower" version="1.0.0" />
    <PACKAGEREFERENCE Include="Upper">
      <VERSION>2.0.0</VERSION>
    </PACKAGEREFERENCE>
    <x:PackageReference xmlns:x="urn:other" Include="Prefixed" Version="3.0.0" />
  </ItemGroup>
</Project>`

	fs := core.NewMockFileSystem()
	fs.SetFile("/repo/A.csproj", []byte(project))
	cat := catalog.New(semver.PolicySemantic)

	rw, _ := newTestRewriter(fs, Options{})
	result, err := rewrite(rw, "/repo/A.csproj", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.References != 2 || result.Stripped != 2 {
		t.Errorf("result = %+v, want 2 references stripped", result)
	}
	for name, want := range map[string]string{"Lower": "1.0.0", "Upper": "2.0.0"} {
		if got, _ := cat.Get(name); got != want {
			t.Errorf("catalog[%s] = %q, want %q", name, got, want)
		}
	}
	if _, ok := cat.Get("Prefixed"); ok {
		t.Error("prefixed element should not be treated as a package reference")
	}

	text, _ := readBack(t, fs, "/repo/A.csproj")
	if strings.Contains(text, "1.0.0") || strings.Contains(text, "2.0.0") {
		t.Errorf("versions not stripped:\n%s", text)
	}
	if !strings.Contains(text, `Version="3.0.0"`) {
		t.Errorf("prefixed element should be left alone:\n%s", text)
	}
}
