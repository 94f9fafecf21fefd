// Package console implements the terminal Reporter for migration runs.
package console

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/indaco/cpmigrate/internal/discovery"
	"github.com/indaco/cpmigrate/internal/manifest"
	"github.com/indaco/cpmigrate/internal/migrate"
	"github.com/indaco/cpmigrate/internal/printer"
)

const progressWidth = 24

// Reporter prints migration events as lines on out.
type Reporter struct {
	out  io.Writer
	root string
	bar  *progress.Model
}

var _ migrate.Reporter = (*Reporter)(nil)

// Option configures a Reporter.
type Option func(*Reporter)

// WithProgressBar prefixes each per-file line with a progress bar.
func WithProgressBar() Option {
	return func(r *Reporter) {
		bar := progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(progressWidth),
			progress.WithoutPercentage(),
		)
		r.bar = &bar
	}
}

// NewReporter returns a Reporter writing to out.
func NewReporter(out io.Writer, opts ...Option) *Reporter {
	r := &Reporter{out: out}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reporter) Scanned(result *discovery.Result) {
	r.root = result.Root
	if result.IsEmpty() {
		printer.Fprintln(r.out, printer.Warning, printer.GlyphWarning,
			fmt.Sprintf("No project files found under %s", result.Root))
		return
	}

	printer.Fprintln(r.out, printer.Info, printer.GlyphInfo,
		fmt.Sprintf("Found %s project files under %s", printer.Bold(strconv.Itoa(len(result.Manifests))), result.Root))
	if n := len(result.Skipped); n > 0 {
		_, _ = fmt.Fprintln(r.out, printer.Faint(fmt.Sprintf("  %d unreadable directories skipped", n)))
	}
}

func (r *Reporter) Processing(index, total int, m discovery.Manifest) {
	counter := printer.Faint(fmt.Sprintf("[%*d/%d]", len(strconv.Itoa(total)), index+1, total))
	if r.bar != nil {
		_, _ = fmt.Fprintf(r.out, "%s %s %s\n", r.bar.ViewAs(float64(index+1)/float64(total)), counter, m.RelPath)
		return
	}
	_, _ = fmt.Fprintf(r.out, "%s %s\n", counter, m.RelPath)
}

func (r *Reporter) Warning(w manifest.Warning) {
	printer.Fprintln(r.out, printer.Warning, printer.GlyphWarning,
		fmt.Sprintf("%s: %s", r.relative(w.File), w.Message))
}

func (r *Reporter) Finished(s *migrate.Summary) {
	if s.Central == nil {
		return
	}

	_, _ = fmt.Fprintln(r.out)
	if len(s.Packages) > 0 {
		rows := make([][]string, 0, len(s.Packages))
		for _, p := range s.Packages {
			rows = append(rows, []string{p.Name, p.Version})
		}
		_, _ = fmt.Fprintln(r.out, printer.Table([]string{"Package", "Version"}, rows))
	}

	files := fmt.Sprintf("%d of %d project files updated", s.ChangedFiles(), len(s.Files))
	central := fmt.Sprintf("%s written with %d packages", r.relative(s.Central.Path), s.Central.Packages)
	if s.DryRun {
		files = fmt.Sprintf("%d of %d project files would be updated", s.ChangedFiles(), len(s.Files))
		central = fmt.Sprintf("%s would be written with %d packages", r.relative(s.Central.Path), s.Central.Packages)
	}
	if s.Central.Unchanged {
		central = fmt.Sprintf("%s already up to date with %d packages", r.relative(s.Central.Path), s.Central.Packages)
	}

	printer.Fprintln(r.out, printer.Success, printer.GlyphSuccess, files)
	printer.Fprintln(r.out, printer.Success, printer.GlyphSuccess, central)
	if s.Central.BackupPath != "" {
		printer.Fprintln(r.out, printer.Info, printer.GlyphInfo,
			fmt.Sprintf("Previous file saved as %s", r.relative(s.Central.BackupPath)))
	}
	if n := len(s.Warnings); n > 0 {
		printer.Fprintln(r.out, printer.Warning, printer.GlyphWarning, fmt.Sprintf("%d warnings", n))
	}
	if s.DryRun {
		_, _ = fmt.Fprintln(r.out, printer.Faint("Dry run: no files were changed."))
	}
}

// relative shortens path to be relative to the scanned root when possible.
func (r *Reporter) relative(path string) string {
	if r.root == "" {
		return path
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
