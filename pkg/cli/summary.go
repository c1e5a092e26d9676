package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Border lipgloss.Style
	Note   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Value:  lipgloss.NewStyle(),
		Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		Note:   lipgloss.NewStyle().Foreground(t.Dim).Italic(true),
	}
}

// Row is one labeled value of a Summary.
type Row struct {
	Label string
	Value string
}

// Summary renders a titled box of label/value rows followed by an optional
// free-text body (e.g. a transcript).
type Summary struct {
	Title string
	Rows  []Row
	Body  string
	Note  string

	// Styles defaults to NewStyles(DefaultTheme).
	Styles *Styles
	// Width wraps the body; zero means 72 columns.
	Width int
}

// Render returns the box as a string.
func (s Summary) Render() string {
	st := NewStyles(DefaultTheme)
	if s.Styles != nil {
		st = *s.Styles
	}
	width := s.Width
	if width <= 0 {
		width = 72
	}

	labelWidth := 0
	for _, r := range s.Rows {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}

	var lines []string
	if s.Title != "" {
		lines = append(lines, st.Title.Render(s.Title), "")
	}
	for _, r := range s.Rows {
		label := st.Label.Render(r.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(r.Label)))
		lines = append(lines, label+"  "+st.Value.Render(r.Value))
	}
	if s.Body != "" {
		if len(s.Rows) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, lipgloss.NewStyle().Width(width).Render(strings.TrimSpace(s.Body)))
	}
	if s.Note != "" {
		lines = append(lines, "", st.Note.Render(s.Note))
	}
	return st.Border.Render(strings.Join(lines, "\n"))
}
