package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the frame's color scheme.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Alert   lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme uses the NormaComex navy and teal.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#14b8a6"),
	Accent:  lipgloss.Color("#f59e0b"),
	Alert:   lipgloss.Color("#ef4444"),
	Dim:     lipgloss.Color("#64748b"),
}

// Styles are derived from a Theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Accent lipgloss.Style
	Alert  lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Accent: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Alert:  lipgloss.NewStyle().Bold(true).Foreground(t.Alert),
	}
}

// Section is a labeled block of lines. Only the last lines that fit are
// shown.
type Section struct {
	Label   string
	Content func() []string
}

// Frame is a bordered screen with a title, a status badge, sections and a
// help line.
type Frame struct {
	Styles   Styles
	Title    string
	Status   string
	Sections []Section
	Help     string
}

// Render draws the frame at the given terminal size.
func (f Frame) Render(width, height int) string {
	if width < 8 || height < 6 {
		return f.Title + " [" + f.Status + "]"
	}
	bc := f.Styles.Border
	inner := width - 4

	var lines []string
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	title := f.Styles.Title.Render(f.Title)
	status := f.Styles.Help.Render("[" + f.Status + "]")
	pad := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	lines = append(lines, bc.Render("│")+" "+title+" "+status+strings.Repeat(" ", pad)+" "+bc.Render("│"))
	lines = append(lines, bc.Render("│")+strings.Repeat(" ", width-2)+bc.Render("│"))

	n := max(len(f.Sections), 1)
	rows := max((height-5-n)/n, 2)
	for _, sec := range f.Sections {
		var content []string
		if sec.Content != nil {
			content = sec.Content()
		}
		lines = append(lines, f.section(sec.Label, content, rows, width, inner)...)
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	lines = append(lines, f.Styles.Help.Render(f.Help))
	return strings.Join(lines, "\n")
}

func (f Frame) section(label string, content []string, rows, width, inner int) []string {
	bc := f.Styles.Border
	labelText := f.Styles.Label.Render(label)
	pad := max(0, width-3-lipgloss.Width(labelText))
	out := []string{bc.Render("├") + bc.Render("─") + labelText + bc.Render(strings.Repeat("─", pad)) + bc.Render("┤")}

	start := max(0, len(content)-rows)
	for i := range rows {
		text := ""
		if start+i < len(content) {
			text = content[start+i]
		}
		if lipgloss.Width(text) > inner {
			text = truncate(text, inner-1) + "…"
		}
		out = append(out, bc.Render("│")+" "+text+strings.Repeat(" ", max(0, inner-lipgloss.Width(text)))+" "+bc.Render("│"))
	}
	return out
}

// truncate cuts s to at most width display cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := 0
	for i, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > width {
			return s[:i]
		}
		w += rw
	}
	return s
}
