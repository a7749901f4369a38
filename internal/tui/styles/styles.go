package styles

import "github.com/charmbracelet/lipgloss"

// Styles defines the core UI styles
var (
	App = lipgloss.NewStyle().
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7B61FF"))

	Cursor = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#6B5ECD")).
		Bold(true)

	Selected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#73F59F")).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	Dir = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#81A1C1")).
		Bold(true)

	File = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#D8DEE9"))

	Skipped = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555")).
		Strikethrough(true)

	Pending = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EBCB8B")).
		Italic(true)

	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#BF616A")).
		Bold(true)

	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5A9"))

	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888"))
)

// PaneStyle frames a focused or unfocused pane.
func PaneStyle(focused bool) lipgloss.Style {
	border := lipgloss.Color("#444444")
	if focused {
		border = lipgloss.Color("#7B61FF")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}
