package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/togglr/togglr-admin/internal/session"
)

type palette struct {
	accent  lipgloss.Color
	text    lipgloss.Color
	muted   lipgloss.Color
	success lipgloss.Color
	danger  lipgloss.Color
	info    lipgloss.Color
	border  lipgloss.Color
}

var palettes = map[session.Theme]palette{
	session.ThemeLight: {
		accent: "#4f46e5", text: "#1f2937", muted: "#6b7280",
		success: "#15803d", danger: "#b91c1c", info: "#0369a1", border: "#d1d5db",
	},
	session.ThemeDark: {
		accent: "#818cf8", text: "#e5e7eb", muted: "#9ca3af",
		success: "#4ade80", danger: "#f87171", info: "#38bdf8", border: "#374151",
	},
	session.ThemeNight: {
		accent: "#a78bfa", text: "#f3f4f6", muted: "#6b7280",
		success: "#34d399", danger: "#fb7185", info: "#60a5fa", border: "#1f2937",
	},
	session.ThemeCozy: {
		accent: "#c2410c", text: "#44403c", muted: "#a8a29e",
		success: "#65a30d", danger: "#dc2626", info: "#0891b2", border: "#e7e5e4",
	},
	session.ThemeForest: {
		accent: "#16a34a", text: "#ecfdf5", muted: "#86efac",
		success: "#22c55e", danger: "#f97316", info: "#2dd4bf", border: "#14532d",
	},
}

type styles struct {
	title    lipgloss.Style
	tab      lipgloss.Style
	tabOn    lipgloss.Style
	header   lipgloss.Style
	text     lipgloss.Style
	muted    lipgloss.Style
	selected lipgloss.Style
	success  lipgloss.Style
	danger   lipgloss.Style
	info     lipgloss.Style
	box      lipgloss.Style
	help     lipgloss.Style
}

func newStyles(theme session.Theme) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[session.DefaultTheme]
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		tab:      lipgloss.NewStyle().Foreground(p.muted).Padding(0, 1),
		tabOn:    lipgloss.NewStyle().Bold(true).Foreground(p.accent).Underline(true).Padding(0, 1),
		header:   lipgloss.NewStyle().Bold(true).Foreground(p.text),
		text:     lipgloss.NewStyle().Foreground(p.text),
		muted:    lipgloss.NewStyle().Foreground(p.muted),
		selected: lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		success:  lipgloss.NewStyle().Foreground(p.success),
		danger:   lipgloss.NewStyle().Foreground(p.danger),
		info:     lipgloss.NewStyle().Foreground(p.info),
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border).Padding(0, 1),
		help:     lipgloss.NewStyle().Foreground(p.muted).Italic(true),
	}
}
