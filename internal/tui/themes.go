package tui

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
)

// DefaultThemeName names the built-in cpmigrate theme.
const DefaultThemeName = "cpmigrate"

// themes maps lower-case theme names to their constructors.
var themes = map[string]func() *huh.Theme{
	DefaultThemeName: defaultTheme,
	"base":           huh.ThemeBase,
	"base16":         huh.ThemeBase16,
	"catppuccin":     huh.ThemeCatppuccin,
	"charm":          huh.ThemeCharm,
	"dracula":        huh.ThemeDracula,
}

// ThemeNames lists the accepted theme names, the default first and the
// rest alphabetically.
func ThemeNames() []string {
	names := slices.Sorted(maps.Keys(themes))
	names = slices.DeleteFunc(names, func(n string) bool { return n == DefaultThemeName })
	return append([]string{DefaultThemeName}, names...)
}

// LookupTheme builds the theme called name, ignoring case and surrounding
// space.
func LookupTheme(name string) (*huh.Theme, bool) {
	build, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return build(), true
}
