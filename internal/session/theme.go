package session

import (
	"fmt"
	"strings"
)

// Theme is a named console color scheme
type Theme string

const (
	ThemeLight  Theme = "togglr-light"
	ThemeDark   Theme = "togglr-dark"
	ThemeNight  Theme = "dark"
	ThemeCozy   Theme = "cozy"
	ThemeForest Theme = "forest"

	DefaultTheme = ThemeLight
)

// Themes lists the selectable themes in display order
var Themes = []Theme{ThemeLight, ThemeDark, ThemeNight, ThemeCozy, ThemeForest}

// ParseTheme validates a theme name
func ParseTheme(s string) (Theme, error) {
	s = strings.TrimSpace(s)
	for _, t := range Themes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", s)
}
