// Package printer renders styled console output for the cpmigrate CLI.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

var (
	faintStyle   = lipgloss.NewStyle().Faint(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // Cyan

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Status glyphs prefixed to Print* lines.
const (
	GlyphSuccess = "✓"
	GlyphWarning = "!"
	GlyphError   = "✗"
	GlyphInfo    = "•"
)

// initialProfile is restored when colors are turned back on.
var initialProfile = lipgloss.ColorProfile()

// SetNoColor forces plain ASCII output when disabled is true; otherwise it
// restores the profile detected at startup. NO_COLOR is honored as well.
func SetNoColor(disabled bool) {
	if disabled || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(initialProfile)
}

// Faint returns text with faint styling.
func Faint(text string) string {
	return faintStyle.Render(text)
}

// Bold returns text with bold styling.
func Bold(text string) string {
	return boldStyle.Render(text)
}

// Success returns text with success (green) styling.
func Success(text string) string {
	return successStyle.Render(text)
}

// Error returns text with error (red) styling.
func Error(text string) string {
	return errorStyle.Render(text)
}

// Warning returns text with warning (yellow) styling.
func Warning(text string) string {
	return warningStyle.Render(text)
}

// Info returns text with info (cyan) styling.
func Info(text string) string {
	return infoStyle.Render(text)
}

// Fprintln writes a styled status line to w: the glyph, a space, then text.
func Fprintln(w io.Writer, style func(string) string, glyph, text string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", style(glyph), text)
}

// PrintWarning prints a yellow marker followed by text.
func PrintWarning(text string) {
	Fprintln(os.Stdout, Warning, GlyphWarning, text)
}

// PrintError prints a red cross followed by text.
func PrintError(text string) {
	Fprintln(os.Stdout, Error, GlyphError, text)
}

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(faintStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}
