// Package views composes the panes into the full-screen layout. It
// reads the model through a narrow interface so it stays free of
// update logic.
package views

import (
	"github.com/charmbracelet/lipgloss"

	"trawl/internal/tui/components"
	"trawl/internal/tui/styles"
	"trawl/pkg/types"
)

// ModelReader is the slice of the model the view layer needs.
type ModelReader interface {
	List() *components.TorrentList
	Files() *components.FileTreePane
	DetailPane() *components.Detail
	Status() *components.StatusBar
	FocusedTorrent() (types.Torrent, bool)
	FilesFocused() bool
	ShowHelp() bool
	PromptActive() bool
	PromptView() string
	Size() (int, int)
}

// RenderMainView renders the whole screen: torrent list on the left,
// detail and file tree on the right, status bar and key hints below.
func RenderMainView(m ModelReader) string {
	width, _ := m.Size()
	if width == 0 {
		return "loading..."
	}

	left := styles.PaneStyle(!m.FilesFocused()).
		Width(m.List().Width).
		Render(m.List().View())

	var rightBody string
	if t, ok := m.FocusedTorrent(); ok {
		rightBody = lipgloss.JoinVertical(lipgloss.Left,
			m.DetailPane().View(t),
			m.Files().View(),
		)
	} else {
		rightBody = styles.Muted.Render("no torrents")
	}
	right := styles.PaneStyle(m.FilesFocused()).
		Width(m.Files().Width).
		Render(rightBody)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	bottom := m.Status().View()
	if m.PromptActive() {
		bottom = m.PromptView()
	}

	sections := []string{
		styles.Title.Render("trawl"),
		body,
		bottom,
	}
	if m.ShowHelp() {
		sections = append(sections, RenderHelp())
	} else {
		sections = append(sections, RenderKeyCommands(m.FilesFocused()))
	}
	return styles.App.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// RenderKeyCommands renders the one-line key hint for the focused pane.
func RenderKeyCommands(filesFocused bool) string {
	if filesFocused {
		return styles.Help.Render("j/k move · space want · +/-/= priority · r rename · x select · / filter · ? help · q quit")
	}
	return styles.Help.Render("j/k move · enter files · p pause · s start · v verify · m move · a add · / filter · ? help · q quit")
}

// RenderHelp renders the expanded help overlay.
func RenderHelp() string {
	lines := []string{
		"global       q quit · tab switch pane · / filter · a add torrent · ? toggle help",
		"torrents     j/k move · enter/l open files · p pause · s start · v verify · t reannounce · m move data",
		"files        j/k move · l/enter expand · h collapse · space toggle wanted · +/-/= priority",
		"             r rename · x extend selection · o open local file · esc back",
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, styles.Help.Render(l))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}
