// Package styles provides colour themes and styling for the TUI document view.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette the styles are derived from.
type Theme struct {
	// Accent marks level 1 headings, titles and the selection.
	Accent lipgloss.Color

	// Secondary marks deeper headings and diagram status.
	Secondary lipgloss.Color

	// Background is used for text drawn on a coloured band.
	Background lipgloss.Color

	// Foreground is body text.
	Foreground lipgloss.Color

	// Muted is for quotes, comments and hints.
	Muted lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Rule colours gutters and the status bar band.
	Rule lipgloss.Color
	Band lipgloss.Color
}

// DefaultTheme returns the default dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:     lipgloss.Color("#7C3AED"),
		Secondary:  lipgloss.Color("#06B6D4"),
		Background: lipgloss.Color("#1E1E2E"),
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Success:    lipgloss.Color("#A6E3A1"),
		Warning:    lipgloss.Color("#F9E2AF"),
		Error:      lipgloss.Color("#F38BA8"),
		Rule:       lipgloss.Color("#45475A"),
		Band:       lipgloss.Color("#181825"),
	}
}

// Styles holds the lipgloss styles used across the TUI.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style

	// StatusBar is the bottom band.
	StatusBar lipgloss.Style

	// Headings is indexed by level minus one. Levels past the end use the last entry.
	Headings []lipgloss.Style

	// Gutter prefixes code, quote and diagram lines.
	Gutter lipgloss.Style

	Quote   lipgloss.Style
	Diagram lipgloss.Style

	// Overlay styles the banner shown while the file is unreadable.
	Overlay lipgloss.Style

	// Syntax maps highlight classes to styles. Unknown classes render plain.
	Syntax map[string]lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Selected: fg(theme.Foreground).Background(theme.Accent).Bold(true),
		Error:    fg(theme.Error),
		Success:  fg(theme.Success),
		Warning:  fg(theme.Warning),

		StatusBar: fg(theme.Muted).Background(theme.Band).Padding(0, 1),

		Headings: []lipgloss.Style{
			fg(theme.Accent).Bold(true).Underline(true),
			fg(theme.Secondary).Bold(true),
			fg(theme.Secondary),
			fg(theme.Foreground).Bold(true),
		},

		Gutter:  fg(theme.Rule),
		Quote:   fg(theme.Muted).Italic(true),
		Diagram: fg(theme.Secondary),
		Overlay: fg(theme.Background).Background(theme.Error).Bold(true).Padding(0, 1),

		Syntax: map[string]lipgloss.Style{
			"keyword":  fg(theme.Accent),
			"string":   fg(theme.Success),
			"number":   fg(theme.Warning),
			"comment":  fg(theme.Muted).Italic(true),
			"function": fg(theme.Secondary),
			"type":     fg(theme.Warning),
			"operator": fg(theme.Foreground),
		},
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// SyntaxStyle returns the style for a highlight class.
func (s *Styles) SyntaxStyle(class string) lipgloss.Style {
	if st, ok := s.Syntax[class]; ok {
		return st
	}
	return s.Normal
}

// HeadingStyle returns the style for a heading level.
func (s *Styles) HeadingStyle(level int) lipgloss.Style {
	if len(s.Headings) == 0 {
		return s.Normal
	}
	i := min(max(level, 1), len(s.Headings)) - 1
	return s.Headings[i]
}
