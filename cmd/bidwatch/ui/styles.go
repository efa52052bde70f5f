// Package ui provides the visual styling for the bidwatch terminal
// interface, with light/dark mode support.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Light mode
	LightForeground = lipgloss.Color("#1b2733")
	LightPrimary    = lipgloss.Color("#0f4c81")
	LightAccent     = lipgloss.Color("#e8a33d")
	LightMuted      = lipgloss.Color("#8a94a0")
	LightBorder     = lipgloss.Color("#d7dde4")
	LightCard       = lipgloss.Color("#ffffff")

	// Dark mode
	DarkForeground = lipgloss.Color("#e8edf2")
	DarkPrimary    = lipgloss.Color("#6aa8dc")
	DarkAccent     = lipgloss.Color("#e8a33d")
	DarkMuted      = lipgloss.Color("#64748b")
	DarkBorder     = lipgloss.Color("#2c3a4d")
	DarkCard       = lipgloss.Color("#16212e")

	// Semantic colors, same in both modes
	Destructive = lipgloss.Color("#e05252")
	Success     = lipgloss.Color("#4caf6e")
	Warning     = lipgloss.Color("#ffc107")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme picks a theme from terminal hints, defaulting to dark.
func DetectTheme() Theme {
	if os.Getenv("BIDWATCH_LIGHT_MODE") == "1" {
		return LightTheme()
	}
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		// Format is "foreground;background"; low background indexes mean a
		// dark terminal.
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if bgIdx == 7 || bgIdx == 15 {
					return LightTheme()
				}
			}
		}
	}
	return DarkTheme()
}

// Styles holds the styled components the views use.
type Styles struct {
	Theme Theme

	Header lipgloss.Style
	Footer lipgloss.Style

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Prompt        lipgloss.Style
	UserInput     lipgloss.Style
	AgentResponse lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	Spinner lipgloss.Style
	Divider lipgloss.Style
	Badge   lipgloss.Style
}

// NewStyles creates a Styles instance for a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		AgentResponse: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(theme.Accent),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#1b2733")).
			Padding(0, 1).
			Bold(true),
	}
}

// DefaultStyles returns styles with the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// RenderDivider returns a horizontal divider of the given width.
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		width = 40
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
