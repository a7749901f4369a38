package components

import (
	"trawl/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar shows connection state, transient notices, and errors at the
// bottom of the screen.
type StatusBar struct {
	text    string
	style   lipgloss.Style
	spinner spinner.Model
	loading bool
}

// NewStatusBar creates the status bar.
func NewStatusBar() *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Help

	return &StatusBar{
		style:   styles.Help,
		spinner: s,
	}
}

// SetLoading toggles the spinner.
func (s *StatusBar) SetLoading(loading bool) {
	s.loading = loading
}

// SetText sets an informational message.
func (s *StatusBar) SetText(text string) {
	s.text = text
	s.style = styles.Help
}

// SetError sets an error message.
func (s *StatusBar) SetError(text string) {
	s.text = text
	s.style = styles.Error
}

// Tick returns the spinner's tick command.
func (s *StatusBar) Tick() tea.Cmd {
	return s.spinner.Tick
}

// Update advances the spinner while loading.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if s.loading {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd
	}
	return nil
}

// View renders the bar.
func (s *StatusBar) View() string {
	if s.text == "" && !s.loading {
		return ""
	}
	if s.loading {
		return s.spinner.View() + " " + s.style.Render(s.text)
	}
	return s.style.Render(s.text)
}
