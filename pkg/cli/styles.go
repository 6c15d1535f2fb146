package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Warn    lipgloss.Color // Non-zero error counters
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Warn:    lipgloss.Color("#ffb000"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Warn  lipgloss.Style
	Help  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Foreground(t.Primary),
		Value: lipgloss.NewStyle(),
		Warn:  lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Field is one row of a Panel.
type Field struct {
	Label string
	Value string
	Warn  bool // highlight the value
}

// Panel is a titled block of aligned label/value rows.
type Panel struct {
	Styles Styles
	Title  string
	Fields []Field
	Footer string
}

// Render renders the panel to a string ending in a newline.
func (p Panel) Render() string {
	width := 0
	for _, f := range p.Fields {
		width = max(width, lipgloss.Width(f.Label))
	}

	var b strings.Builder
	if p.Title != "" {
		b.WriteString(p.Styles.Title.Render(p.Title))
		b.WriteString("\n")
		b.WriteString(p.Styles.Help.Render(strings.Repeat("─", max(lipgloss.Width(p.Title), width+12))))
		b.WriteString("\n")
	}
	for _, f := range p.Fields {
		label := f.Label + ":" + strings.Repeat(" ", width-lipgloss.Width(f.Label)+1)
		value := p.Styles.Value.Render(f.Value)
		if f.Warn {
			value = p.Styles.Warn.Render(f.Value)
		}
		b.WriteString(p.Styles.Label.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	if p.Footer != "" {
		b.WriteString("\n")
		b.WriteString(p.Styles.Help.Render(p.Footer))
		b.WriteString("\n")
	}
	return b.String()
}
