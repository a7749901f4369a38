package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gobwas/glob"

	"trawl/internal/filetree"
	"trawl/internal/tui/styles"
	"trawl/pkg/types"
)

// FileTreePane renders one torrent's selection tree as a scrollable pane
// with tri-state checkboxes. The tree itself is owned by the top-level
// model; this component owns only view state: cursor, scroll offset,
// expansion, and the display filter.
type FileTreePane struct {
	tree      *filetree.Tree
	torrentID int64

	Cursor   int
	Offset   int
	Height   int
	Width    int
	expanded map[string]bool
	filter   glob.Glob
	filterS  string
}

// NewFileTreePane creates an empty pane.
func NewFileTreePane() *FileTreePane {
	return &FileTreePane{
		Height:   20,
		Width:    60,
		expanded: make(map[string]bool),
	}
}

// SetTree attaches a torrent's tree. Switching torrents resets the
// cursor and expansion state; a refresh of the same torrent keeps both.
func (f *FileTreePane) SetTree(torrentID int64, tree *filetree.Tree) {
	if torrentID != f.torrentID {
		f.Cursor = 0
		f.Offset = 0
		f.expanded = make(map[string]bool)
	}
	f.torrentID = torrentID
	f.tree = tree
}

// Tree returns the attached tree, nil if none.
func (f *FileTreePane) Tree() *filetree.Tree { return f.tree }

// TorrentID returns the id of the attached torrent.
func (f *FileTreePane) TorrentID() int64 { return f.torrentID }

// SetFilter narrows visible rows to paths matching pattern; empty clears.
// A bad pattern is ignored and the previous filter kept.
func (f *FileTreePane) SetFilter(pattern string) {
	if pattern == "" {
		f.filter = nil
		f.filterS = ""
		return
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return
	}
	f.filter = g
	f.filterS = pattern
	f.Cursor = 0
	f.Offset = 0
}

// Filter returns the active filter pattern, empty if none.
func (f *FileTreePane) Filter() string { return f.filterS }

// isExpanded reports directory expansion; directories start expanded up
// to depth 1 so a fresh tree shows its top-level shape.
func (f *FileTreePane) isExpanded(path string) bool {
	if v, ok := f.expanded[path]; ok {
		return v
	}
	return strings.Count(path, filetree.Separator) < 1
}

// Rows returns the visible rows after expansion and filtering.
func (f *FileTreePane) Rows() []filetree.Row {
	if f.tree == nil {
		return nil
	}
	rows := f.tree.Rows(f.isExpanded)
	if f.filter == nil {
		return rows
	}
	filtered := rows[:0:0]
	for _, r := range rows {
		if r.IsDir || f.filter.Match(r.FullPath) || f.filter.Match(r.Name) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// CurrentRow returns the row under the cursor.
func (f *FileTreePane) CurrentRow() (filetree.Row, bool) {
	rows := f.Rows()
	if f.Cursor < 0 || f.Cursor >= len(rows) {
		return filetree.Row{}, false
	}
	return rows[f.Cursor], true
}

// MoveUp moves the cursor up one row.
func (f *FileTreePane) MoveUp() {
	if f.Cursor > 0 {
		f.Cursor--
	}
	f.ensureVisible()
}

// MoveDown moves the cursor down one row.
func (f *FileTreePane) MoveDown() {
	if f.Cursor < len(f.Rows())-1 {
		f.Cursor++
	}
	f.ensureVisible()
}

// Toggle expands or collapses the directory under the cursor.
func (f *FileTreePane) Toggle() {
	row, ok := f.CurrentRow()
	if !ok || !row.IsDir {
		return
	}
	f.expanded[row.FullPath] = !f.isExpanded(row.FullPath)
	if f.Cursor >= len(f.Rows()) {
		f.Cursor = max(0, len(f.Rows())-1)
	}
}

// Collapse closes the directory under the cursor, or jumps to the parent
// when the cursor is on a file or a closed directory.
func (f *FileTreePane) Collapse() {
	row, ok := f.CurrentRow()
	if !ok {
		return
	}
	if row.IsDir && f.isExpanded(row.FullPath) {
		f.expanded[row.FullPath] = false
		return
	}
	parent := parentPath(row.FullPath)
	if parent == "" {
		return
	}
	for i, r := range f.Rows() {
		if r.FullPath == parent {
			f.Cursor = i
			break
		}
	}
	f.ensureVisible()
}

func (f *FileTreePane) ensureVisible() {
	if f.Height <= 0 {
		return
	}
	if f.Cursor < f.Offset {
		f.Offset = f.Cursor
	}
	if f.Cursor >= f.Offset+f.Height-2 {
		f.Offset = f.Cursor - f.Height + 3
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	maxOffset := max(0, len(f.Rows())-f.Height)
	if f.Offset > maxOffset {
		f.Offset = maxOffset
	}
}

// checkbox renders the tri-state wanted marker.
func checkbox(want filetree.TriState, pending bool) string {
	if pending {
		return "[…]"
	}
	switch want {
	case filetree.TriTrue:
		return "[x]"
	case filetree.TriFalse:
		return "[ ]"
	default:
		return "[~]"
	}
}

func priorityMarker(p types.Priority, mixed bool) string {
	if mixed {
		return "±"
	}
	switch p {
	case types.PriorityHigh:
		return "↑"
	case types.PriorityLow:
		return "↓"
	}
	return " "
}

// View renders the visible portion of the tree.
func (f *FileTreePane) View() string {
	rows := f.Rows()
	if len(rows) == 0 {
		return styles.Muted.Render("no files")
	}

	var b strings.Builder
	startIdx := f.Offset
	endIdx := min(len(rows), f.Offset+f.Height-2)

	if startIdx > 0 {
		b.WriteString(styles.Muted.Width(f.Width).Align(lipgloss.Center).Render("↑ more ↑") + "\n")
	}

	for i := startIdx; i < endIdx; i++ {
		row := rows[i]
		indent := strings.Repeat("  ", row.Level)

		marker := "  "
		if row.IsDir {
			if row.Expanded {
				marker = "▾ "
			} else {
				marker = "▸ "
			}
		}

		line := fmt.Sprintf("%s%s%s %s %s  %s  %s",
			indent,
			marker,
			checkbox(row.Want, row.Pending),
			priorityMarker(row.Priority, row.PriorityMixed),
			row.Name,
			types.ByteCount(row.Size),
			row.Percent,
		)
		if row.Selected {
			line += " •"
		}

		var rendered string
		switch {
		case i == f.Cursor:
			rendered = styles.Cursor.Render(line)
		case row.Pending:
			rendered = styles.Pending.Render(line)
		case row.Selected:
			rendered = styles.Selected.Render(line)
		case row.Want == filetree.TriFalse && !row.IsDir:
			rendered = styles.Skipped.Render(line)
		case row.IsDir:
			rendered = styles.Dir.Render(line)
		default:
			rendered = styles.File.Render(line)
		}
		b.WriteString(rendered + "\n")
	}

	if endIdx < len(rows) {
		b.WriteString(styles.Muted.Width(f.Width).Align(lipgloss.Center).Render(fmt.Sprintf("↓ %d more ↓", len(rows)-endIdx)) + "\n")
	}

	return b.String()
}

func parentPath(path string) string {
	if idx := strings.LastIndex(path, filetree.Separator); idx >= 0 {
		return path[:idx]
	}
	return ""
}
