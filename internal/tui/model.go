// Package tui is the bubbletea application: a torrent list pane, a
// per-torrent detail and file-selection pane, and the key bindings that
// turn user intent into dispatched actions. All tree mutation happens
// here, synchronously, in Update.
package tui

import (
	"fmt"
	"path"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"trawl/internal/actions"
	"trawl/internal/config"
	"trawl/internal/filetree"
	"trawl/internal/log"
	"trawl/internal/rpc"
	"trawl/internal/tui/components"
	"trawl/internal/tui/messages"
	"trawl/internal/tui/views"
	"trawl/pkg/types"
)

// Pane identifies which pane has keyboard focus.
type Pane int

// Panes.
const (
	PaneTorrents Pane = iota
	PaneFiles
)

type promptKind int

const (
	promptNone promptKind = iota
	promptRename
	promptMove
	promptFilter
	promptAdd
)

type tickMsg time.Time

// Model is the top-level bubbletea model.
type Model struct {
	cfg      *config.Config
	dispatch *actions.Dispatcher
	feed     *rpc.Feed

	list   *components.TorrentList
	files  *components.FileTreePane
	detail *components.Detail
	status *components.StatusBar

	// One selection tree per torrent, keyed by torrent id. Parsed
	// lazily when a torrent is first focused, patched in place on
	// every snapshot after that.
	trees map[int64]*filetree.Tree

	focus    Pane
	width    int
	height   int
	showHelp bool

	prompt       promptKind
	input        textinput.Model
	renameTarget string
}

// New creates the TUI model. feed may be nil, in which case the model
// refreshes itself on the configured poll interval.
func New(cfg *config.Config, dispatch *actions.Dispatcher, feed *rpc.Feed) *Model {
	input := textinput.New()
	input.CharLimit = 256

	list := components.NewTorrentList()
	list.ShowDone = cfg.Display.ShowDone

	return &Model{
		cfg:      cfg,
		dispatch: dispatch,
		feed:     feed,
		list:     list,
		files:    components.NewFileTreePane(),
		detail:   components.NewDetail(),
		status:   components.NewStatusBar(),
		trees:    make(map[int64]*filetree.Tree),
		input:    input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.status.SetLoading(true)
	m.status.SetText("connecting...")
	return tea.Batch(m.dispatch.Connect(), m.status.Tick())
}

func (m *Model) refreshSource() tea.Cmd {
	if m.feed != nil {
		return m.waitForSnapshot()
	}
	return m.tick()
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.feed.Snapshots()
		if !ok {
			return nil
		}
		return messages.SnapshotMsg{Torrents: s.Torrents, Err: s.Err}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.PollInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.dispatch.Refresh(), m.tick())

	case messages.ConnectedMsg:
		return m.handleConnected(msg)

	case messages.SnapshotMsg:
		return m.handleSnapshot(msg)

	case messages.WantedResultMsg:
		m.status.SetLoading(false)
		if tree, ok := m.trees[msg.TorrentID]; ok {
			if msg.Err != nil {
				tree.Reject(msg.Indexes)
				m.status.SetError(fmt.Sprintf("wanted change refused: %v", msg.Err))
			} else {
				tree.Confirm(msg.Indexes)
				m.status.SetText("")
			}
		}
		return m, nil

	case messages.PriorityResultMsg:
		m.status.SetLoading(false)
		if tree, ok := m.trees[msg.TorrentID]; ok {
			if msg.Err != nil {
				tree.Reject(msg.Indexes)
				m.status.SetError(fmt.Sprintf("priority change refused: %v", msg.Err))
			} else {
				tree.Confirm(msg.Indexes)
				m.status.SetText("")
			}
		}
		return m, nil

	case messages.RenameResultMsg:
		return m.handleRenameResult(msg)

	case messages.TorrentActionMsg:
		m.status.SetLoading(false)
		if msg.Err != nil {
			m.status.SetError(fmt.Sprintf("%s failed: %v", msg.Verb, msg.Err))
			return m, nil
		}
		m.status.SetText(fmt.Sprintf("%s ok", msg.Verb))
		return m, m.dispatch.Refresh()

	case messages.AddResultMsg:
		m.status.SetLoading(false)
		if msg.Err != nil {
			m.status.SetError(fmt.Sprintf("add failed: %v", msg.Err))
			return m, nil
		}
		m.status.SetText(fmt.Sprintf("added %s", msg.Name))
		return m, m.dispatch.Refresh()

	case messages.ErrorMsg:
		m.status.SetLoading(false)
		m.status.SetError(msg.Err.Error())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.status.Update(msg)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	listWidth := width / 3
	m.list.Width = listWidth
	m.list.Height = height - 4
	m.files.Width = width - listWidth - 6
	m.files.Height = height - 10
	m.detail.Width = m.files.Width
}

func (m *Model) handleConnected(msg messages.ConnectedMsg) (tea.Model, tea.Cmd) {
	m.status.SetLoading(false)
	if msg.Err != nil {
		m.status.SetError(fmt.Sprintf("cannot reach daemon: %v", msg.Err))
		// Keep ticking so a daemon that comes up later is picked up.
		return m, m.tick()
	}
	m.status.SetText(fmt.Sprintf("connected to %s", msg.Version))
	log.Info("connected to daemon %s", msg.Version)
	return m, tea.Batch(m.dispatch.Refresh(), m.refreshSource())
}

func (m *Model) handleSnapshot(msg messages.SnapshotMsg) (tea.Model, tea.Cmd) {
	var rearm tea.Cmd
	if m.feed != nil {
		rearm = m.waitForSnapshot()
	}
	if msg.Err != nil {
		m.status.SetError(fmt.Sprintf("refresh failed: %v", msg.Err))
		return m, rearm
	}

	m.list.SetTorrents(msg.Torrents)

	// Patch every tree we have; parse happens lazily on focus.
	alive := make(map[int64]bool, len(msg.Torrents))
	for i := range msg.Torrents {
		t := &msg.Torrents[i]
		alive[t.ID] = true
		if tree, ok := m.trees[t.ID]; ok {
			tree.Update(t.Files())
		}
	}
	for id := range m.trees {
		if !alive[id] {
			delete(m.trees, id)
		}
	}

	m.syncFocusedTree()
	return m, rearm
}

// syncFocusedTree makes sure the torrent under the list cursor has a
// parsed tree attached to the file pane.
func (m *Model) syncFocusedTree() {
	current, ok := m.list.Current()
	if !ok {
		return
	}
	tree, ok := m.trees[current.ID]
	if !ok {
		parsed, err := filetree.Parse(current.Files())
		if err != nil {
			m.status.SetError(fmt.Sprintf("bad file list from daemon: %v", err))
			return
		}
		m.trees[current.ID] = parsed
		tree = parsed
	}
	m.files.SetTree(current.ID, tree)
}

func (m *Model) handleRenameResult(msg messages.RenameResultMsg) (tea.Model, tea.Cmd) {
	m.status.SetLoading(false)
	if msg.Err == nil {
		m.status.SetText("renamed")
		return m, nil
	}

	// The daemon refused: roll the optimistic rename back so the tree
	// matches server truth again.
	if tree, ok := m.trees[msg.TorrentID]; ok {
		dir := path.Dir(msg.OldPath)
		newPath := msg.NewName
		if dir != "." {
			newPath = dir + filetree.Separator + msg.NewName
		}
		if err := tree.Rename(newPath, path.Base(msg.OldPath)); err != nil {
			log.Error("rename rollback failed: %v", err)
		}
	}
	m.status.SetError(fmt.Sprintf("rename refused: %v", msg.Err))
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "tab":
		if m.focus == PaneTorrents {
			m.focus = PaneFiles
		} else {
			m.focus = PaneTorrents
		}
		return m, nil
	case "/":
		return m.openPrompt(promptFilter, "filter (glob)", "")
	case "a":
		return m.openPrompt(promptAdd, "add magnet or .torrent path", "")
	}

	if m.focus == PaneTorrents {
		return m.handleTorrentKey(msg)
	}
	return m.handleFileKey(msg)
}

func (m *Model) handleTorrentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.list.MoveDown()
		m.syncFocusedTree()
	case "k", "up":
		m.list.MoveUp()
		m.syncFocusedTree()
	case "enter", "l", "right":
		m.syncFocusedTree()
		m.focus = PaneFiles
	case "p":
		return m.torrentVerb(actions.VerbPause)
	case "s":
		return m.torrentVerb(actions.VerbResume)
	case "v":
		return m.torrentVerb(actions.VerbVerify)
	case "t":
		return m.torrentVerb(actions.VerbReannounce)
	case "m":
		if current, ok := m.list.Current(); ok {
			return m.openPrompt(promptMove, "move data to", current.DownloadDir)
		}
	}
	return m, nil
}

func (m *Model) torrentVerb(verb actions.Verb) (tea.Model, tea.Cmd) {
	current, ok := m.list.Current()
	if !ok {
		return m, nil
	}
	m.status.SetLoading(true)
	m.status.SetText(string(verb))
	return m, tea.Batch(m.dispatch.Torrent(verb, []int64{current.ID}), m.status.Tick())
}

func (m *Model) handleFileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tree := m.files.Tree()
	if tree == nil {
		if msg.String() == "esc" {
			m.focus = PaneTorrents
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		tree.ClearSelection()
		m.focus = PaneTorrents
	case "j", "down":
		m.files.MoveDown()
		m.followCursorSelection(tree)
	case "k", "up":
		m.files.MoveUp()
		m.followCursorSelection(tree)
	case "l", "right", "enter":
		m.files.Toggle()
	case "h", "left":
		m.files.Collapse()
	case "x":
		// Extend the selection instead of replacing it.
		if row, ok := m.files.CurrentRow(); ok {
			tree.Select([]string{row.FullPath}, true)
		}
	case " ":
		return m.toggleWanted(tree)
	case "+":
		return m.assignPriority(tree, types.PriorityHigh)
	case "-":
		return m.assignPriority(tree, types.PriorityLow)
	case "=":
		return m.assignPriority(tree, types.PriorityNormal)
	case "r":
		if row, ok := m.files.CurrentRow(); ok {
			m.renameTarget = row.FullPath
			return m.openPrompt(promptRename, "new name", row.Name)
		}
	case "o":
		return m.openSelected(tree)
	}
	return m, nil
}

// followCursorSelection implements single-click-replace: moving the
// cursor replaces the selection with the row under it.
func (m *Model) followCursorSelection(tree *filetree.Tree) {
	if row, ok := m.files.CurrentRow(); ok {
		tree.Select([]string{row.FullPath}, false)
	}
}

func (m *Model) toggleWanted(tree *filetree.Tree) (tea.Model, tea.Cmd) {
	row, ok := m.files.CurrentRow()
	if !ok {
		return m, nil
	}
	// A fully-wanted node toggles off; partially wanted or unwanted
	// toggles everything on.
	want := row.Want != filetree.TriTrue

	indexes := tree.SetWanted(row.FullPath, want, true)
	if len(indexes) == 0 {
		return m, nil
	}
	m.status.SetLoading(true)
	m.status.SetText("updating selection")
	return m, tea.Batch(
		m.dispatch.SetWanted(m.files.TorrentID(), indexes, want),
		m.status.Tick(),
	)
}

func (m *Model) assignPriority(tree *filetree.Tree, prio types.Priority) (tea.Model, tea.Cmd) {
	row, ok := m.files.CurrentRow()
	if !ok {
		return m, nil
	}
	indexes := tree.SetPriority(row.FullPath, prio, true)
	if len(indexes) == 0 {
		return m, nil
	}
	m.status.SetLoading(true)
	m.status.SetText(fmt.Sprintf("setting %s priority", prio))
	return m, tea.Batch(
		m.dispatch.SetPriority(m.files.TorrentID(), indexes, prio),
		m.status.Tick(),
	)
}

// openSelected resolves a single selected file to a local path and hands
// it to the host shell. Only complete files on a reachable download dir
// make sense to open.
func (m *Model) openSelected(tree *filetree.Tree) (tea.Model, tea.Cmd) {
	selected := tree.Selected()
	if len(selected) != 1 {
		m.status.SetError("select exactly one file to open")
		return m, nil
	}
	entry, ok := tree.Entry(selected[0])
	if !ok || entry.IsDir {
		return m, nil
	}
	current, ok := m.list.Current()
	if !ok {
		return m, nil
	}
	return m, actions.OpenLocal(path.Join(current.DownloadDir, entry.FullPath))
}

func (m *Model) openPrompt(kind promptKind, placeholder, value string) (tea.Model, tea.Cmd) {
	m.prompt = kind
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return m, textinput.Blink
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = promptNone
		m.input.Blur()
		return m, nil
	case "enter":
		value := m.input.Value()
		kind := m.prompt
		m.prompt = promptNone
		m.input.Blur()
		return m.submitPrompt(kind, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submitPrompt(kind promptKind, value string) (tea.Model, tea.Cmd) {
	switch kind {
	case promptFilter:
		if m.focus == PaneFiles {
			m.files.SetFilter(value)
		} else {
			m.list.SetFilter(value)
		}
		return m, nil

	case promptAdd:
		if value == "" {
			return m, nil
		}
		m.status.SetLoading(true)
		m.status.SetText("adding torrent")
		return m, tea.Batch(m.dispatch.Add(value, false), m.status.Tick())

	case promptMove:
		current, ok := m.list.Current()
		if !ok || value == "" {
			return m, nil
		}
		m.status.SetLoading(true)
		m.status.SetText("moving data")
		return m, tea.Batch(m.dispatch.Move(current.ID, value), m.status.Tick())

	case promptRename:
		return m.submitRename(value)
	}
	return m, nil
}

func (m *Model) submitRename(newName string) (tea.Model, tea.Cmd) {
	tree := m.files.Tree()
	if tree == nil || m.renameTarget == "" || newName == "" {
		return m, nil
	}
	oldPath := m.renameTarget
	m.renameTarget = ""

	// Apply locally first so the UI reflects the rename immediately;
	// the daemon's answer confirms it or rolls it back.
	if err := tree.Rename(oldPath, newName); err != nil {
		m.status.SetError(err.Error())
		return m, nil
	}
	m.status.SetLoading(true)
	m.status.SetText("renaming")
	return m, tea.Batch(
		m.dispatch.Rename(m.files.TorrentID(), oldPath, newName),
		m.status.Tick(),
	)
}

// View implements tea.Model.
func (m *Model) View() string {
	return views.RenderMainView(m)
}

// Accessors for the view layer.

// List returns the torrent list component.
func (m *Model) List() *components.TorrentList { return m.list }

// Files returns the file tree pane.
func (m *Model) Files() *components.FileTreePane { return m.files }

// DetailPane returns the detail component.
func (m *Model) DetailPane() *components.Detail { return m.detail }

// Status returns the status bar.
func (m *Model) Status() *components.StatusBar { return m.status }

// FilesFocused reports whether the file pane has keyboard focus.
func (m *Model) FilesFocused() bool { return m.focus == PaneFiles }

// FocusedTorrent returns the torrent under the list cursor.
func (m *Model) FocusedTorrent() (types.Torrent, bool) { return m.list.Current() }

// ShowHelp reports whether the help overlay is visible.
func (m *Model) ShowHelp() bool { return m.showHelp }

// PromptActive reports whether a text prompt is open.
func (m *Model) PromptActive() bool { return m.prompt != promptNone }

// PromptView renders the active prompt line.
func (m *Model) PromptView() string { return m.input.View() }

// Size returns the last known terminal size.
func (m *Model) Size() (int, int) { return m.width, m.height }
