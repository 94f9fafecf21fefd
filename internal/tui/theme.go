package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// currentTheme holds the configured theme; nil means the default.
var currentTheme *huh.Theme

// SetTheme selects a theme by name. Empty or unknown names fall back to
// the default theme.
func SetTheme(name string) {
	currentTheme, _ = LookupTheme(name)
}

func currentThemeOrDefault() *huh.Theme {
	if currentTheme == nil {
		return defaultTheme()
	}
	return currentTheme
}

// resetTheme is used by tests.
func resetTheme() {
	currentTheme = nil
}

// Palette for the default theme. NuGet blue on both backgrounds.
var (
	accentPrimary = lipgloss.AdaptiveColor{Light: "#004880", Dark: "#5fa8e8"}
	accentBright  = lipgloss.AdaptiveColor{Light: "#0067b8", Dark: "#8cc4f5"}
	textStrong    = lipgloss.AdaptiveColor{Light: "#1f2328", Dark: "#f0f3f6"}
	textMuted     = lipgloss.AdaptiveColor{Light: "#59636e", Dark: "#9198a1"}
	borderFocused = lipgloss.AdaptiveColor{Light: "#0067b8", Dark: "#5fa8e8"}
	buttonText    = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#0d1117"}
	buttonBlurred = lipgloss.AdaptiveColor{Light: "#d1d9e0", Dark: "#3d444d"}
	errorColor    = lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#ff7b72"}
)

// defaultTheme builds the cpmigrate prompt theme on top of huh's base theme.
func defaultTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.
		Border(lipgloss.RoundedBorder(), false, false, false, true).
		BorderForeground(borderFocused)
	t.Focused.Title = t.Focused.Title.Foreground(accentPrimary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(textMuted)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(errorColor)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(errorColor)
	t.Focused.FocusedButton = t.Focused.FocusedButton.
		Foreground(buttonText).
		Background(accentBright).
		Bold(true).
		Padding(0, 1)
	t.Focused.BlurredButton = t.Focused.BlurredButton.
		Foreground(textStrong).
		Background(buttonBlurred).
		Padding(0, 1)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())

	t.Help.ShortKey = t.Help.ShortKey.Foreground(accentPrimary)
	t.Help.ShortDesc = t.Help.ShortDesc.Foreground(textMuted)
	t.Help.ShortSeparator = t.Help.ShortSeparator.Foreground(textMuted)
	t.Help.FullKey = t.Help.FullKey.Foreground(accentPrimary)
	t.Help.FullDesc = t.Help.FullDesc.Foreground(textMuted)
	t.Help.FullSeparator = t.Help.FullSeparator.Foreground(textMuted)

	return t
}
