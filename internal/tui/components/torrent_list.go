package components

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"trawl/internal/tui/styles"
	"trawl/pkg/types"
)

// TorrentList is the scrolling torrent table on the left pane.
type TorrentList struct {
	torrents []types.Torrent

	Cursor   int
	Offset   int
	Height   int
	Width    int
	ShowDone bool
	filter   glob.Glob
}

// NewTorrentList creates an empty list.
func NewTorrentList() *TorrentList {
	return &TorrentList{
		Height:   20,
		Width:    40,
		ShowDone: true,
	}
}

// SetTorrents replaces the list contents, keeping the cursor on the same
// torrent id when possible so a refresh doesn't yank the cursor around.
func (l *TorrentList) SetTorrents(torrents []types.Torrent) {
	var keepID int64 = -1
	if cur, ok := l.Current(); ok {
		keepID = cur.ID
	}
	l.torrents = torrents

	visible := l.visible()
	l.Cursor = 0
	for i, t := range visible {
		if t.ID == keepID {
			l.Cursor = i
			break
		}
	}
	if l.Cursor >= len(visible) {
		l.Cursor = max(0, len(visible)-1)
	}
	l.ensureVisible()
}

// SetFilter narrows the list to names matching pattern; empty clears.
func (l *TorrentList) SetFilter(pattern string) {
	if pattern == "" {
		l.filter = nil
		return
	}
	if g, err := glob.Compile(pattern); err == nil {
		l.filter = g
		l.Cursor = 0
		l.Offset = 0
	}
}

func (l *TorrentList) visible() []types.Torrent {
	out := make([]types.Torrent, 0, len(l.torrents))
	for _, t := range l.torrents {
		if !l.ShowDone && t.Done() && t.Status == types.StatusSeeding {
			continue
		}
		if l.filter != nil && !l.filter.Match(t.Name) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Current returns the torrent under the cursor.
func (l *TorrentList) Current() (types.Torrent, bool) {
	visible := l.visible()
	if l.Cursor < 0 || l.Cursor >= len(visible) {
		return types.Torrent{}, false
	}
	return visible[l.Cursor], true
}

// Len returns the number of visible torrents.
func (l *TorrentList) Len() int { return len(l.visible()) }

// MoveUp moves the cursor up one row.
func (l *TorrentList) MoveUp() {
	if l.Cursor > 0 {
		l.Cursor--
	}
	l.ensureVisible()
}

// MoveDown moves the cursor down one row.
func (l *TorrentList) MoveDown() {
	if l.Cursor < l.Len()-1 {
		l.Cursor++
	}
	l.ensureVisible()
}

func (l *TorrentList) ensureVisible() {
	if l.Height <= 0 {
		return
	}
	if l.Cursor < l.Offset {
		l.Offset = l.Cursor
	}
	if l.Cursor >= l.Offset+l.Height-2 {
		l.Offset = l.Cursor - l.Height + 3
	}
	if l.Offset < 0 {
		l.Offset = 0
	}
	maxOffset := max(0, l.Len()-l.Height)
	if l.Offset > maxOffset {
		l.Offset = maxOffset
	}
}

func statusGlyph(t types.Torrent) string {
	if t.ErrorString != "" {
		return "!"
	}
	switch t.Status {
	case types.StatusStopped:
		return "⏸"
	case types.StatusChecking, types.StatusCheckWait:
		return "⟳"
	case types.StatusDownloading, types.StatusDownloadWait:
		return "↓"
	case types.StatusSeeding, types.StatusSeedWait:
		return "↑"
	}
	return " "
}

// View renders the visible portion of the list.
func (l *TorrentList) View() string {
	visible := l.visible()
	if len(visible) == 0 {
		return styles.Muted.Render("no torrents")
	}

	var b strings.Builder
	endIdx := min(len(visible), l.Offset+l.Height-1)
	for i := l.Offset; i < endIdx; i++ {
		t := visible[i]

		name := t.Name
		if maxName := l.Width - 12; maxName > 3 && len(name) > maxName {
			name = name[:maxName-1] + "…"
		}
		line := fmt.Sprintf("%s %s %s", statusGlyph(t), t.PercentDone, name)

		switch {
		case i == l.Cursor:
			line = styles.Cursor.Render(line)
		case t.ErrorString != "":
			line = styles.Error.Render(line)
		case t.Status == types.StatusStopped:
			line = styles.Unselected.Render(line)
		default:
			line = styles.File.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if endIdx < len(visible) {
		b.WriteString(styles.Muted.Render(fmt.Sprintf("  (%d more)", len(visible)-endIdx)) + "\n")
	}
	return b.String()
}
