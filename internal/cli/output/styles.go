package output

import "github.com/charmbracelet/lipgloss"

// Theme holds the colours used by Styles. Values are lipgloss colours:
// ANSI numbers ("9") or hex ("#ff5f5f").
type Theme struct {
	Header     string `koanf:"header"`
	Muted      string `koanf:"muted"`
	Error      string `koanf:"error"`
	Success    string `koanf:"success"`
	Warning    string `koanf:"warning"`
	Model      string `koanf:"model"`
	Field      string `koanf:"field"`
	Annotation string `koanf:"annotation"`
}

// DefaultTheme returns the built-in colours.
func DefaultTheme() Theme {
	return Theme{
		Header:     "12",
		Muted:      "8",
		Error:      "9",
		Success:    "10",
		Warning:    "11",
		Model:      "9",
		Field:      "10",
		Annotation: "14",
	}
}

// Merge fills empty colours of t from base.
func (t Theme) Merge(base Theme) Theme {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Theme{
		Header:     pick(t.Header, base.Header),
		Muted:      pick(t.Muted, base.Muted),
		Error:      pick(t.Error, base.Error),
		Success:    pick(t.Success, base.Success),
		Warning:    pick(t.Warning, base.Warning),
		Model:      pick(t.Model, base.Model),
		Field:      pick(t.Field, base.Field),
		Annotation: pick(t.Annotation, base.Annotation),
	}
}

// Styles are the lipgloss styles used by commands.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	Muted         lipgloss.Style
	Underline     lipgloss.Style
	Error         lipgloss.Style
	Warning       lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style

	// Tree node styles.
	ModelPath  lipgloss.Style
	Model      lipgloss.Style
	Field      lipgloss.Style
	Annotation lipgloss.Style
}

// NewStyles builds styles for theme on r. Empty theme colours use the defaults.
func NewStyles(r *lipgloss.Renderer, theme Theme) *Styles {
	theme = theme.Merge(DefaultTheme())
	color := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return &Styles{
		Header1:       color(theme.Header).Bold(true).Underline(true),
		Header2:       color(theme.Header).Bold(true),
		Muted:         color(theme.Muted),
		Underline:     r.NewStyle().Underline(true),
		Error:         color(theme.Error).Bold(true),
		Warning:       color(theme.Warning),
		StatusSuccess: color(theme.Success),
		StatusFailed:  color(theme.Error),
		ModelPath:     color(theme.Muted).Italic(true),
		Model:         color(theme.Model).Bold(true),
		Field:         color(theme.Field).Bold(true),
		Annotation:    color(theme.Annotation),
	}
}
