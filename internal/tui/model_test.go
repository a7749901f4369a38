package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trawl/internal/actions"
	"trawl/internal/config"
	"trawl/internal/filetree"
	"trawl/internal/rpc"
	"trawl/internal/tui/messages"
	"trawl/pkg/types"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	cfg := config.NewTestConfig()
	client := rpc.New(cfg.Daemon.URL)
	return New(cfg, actions.New(client, time.Second), nil)
}

func sampleTorrent() types.Torrent {
	return types.Torrent{
		ID:     1,
		Name:   "dataset",
		Status: types.StatusDownloading,
		FileEntries: []types.FileEntry{
			{Name: "a/b.txt", Length: 100, BytesCompleted: 50},
			{Name: "a/c.txt", Length: 200},
		},
		FileStats: []types.FileStat{
			{BytesCompleted: 50, Wanted: true, Priority: types.PriorityNormal},
			{Wanted: false, Priority: types.PriorityNormal},
		},
	}
}

func press(m *Model, key tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(key)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSnapshotBuildsFocusedTree(t *testing.T) {
	m := newTestModel(t)

	m.Update(messages.SnapshotMsg{Torrents: []types.Torrent{sampleTorrent()}})

	tree := m.Files().Tree()
	require.NotNil(t, tree)
	entry, ok := tree.Entry("a/b.txt")
	require.True(t, ok)
	assert.Equal(t, int64(100), entry.Size)

	// A torrent gone from the next snapshot drops its tree too.
	m.Update(messages.SnapshotMsg{Torrents: nil})
	assert.Empty(t, m.trees)
}

func TestPaneFocusSwitch(t *testing.T) {
	m := newTestModel(t)
	m.Update(messages.SnapshotMsg{Torrents: []types.Torrent{sampleTorrent()}})

	assert.False(t, m.FilesFocused())
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.FilesFocused())
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.FilesFocused())
}

func TestToggleWantedIsOptimistic(t *testing.T) {
	m := newTestModel(t)
	m.Update(messages.SnapshotMsg{Torrents: []types.Torrent{sampleTorrent()}})
	press(m, tea.KeyMsg{Type: tea.KeyTab})

	// Cursor starts on the directory row; one file is wanted and one is
	// not, so the toggle turns everything on.
	cmd := press(m, runes(" "))
	require.NotNil(t, cmd)

	tree := m.Files().Tree()
	entry, _ := tree.Entry("a")
	assert.Equal(t, filetree.TriTrue, entry.Wanted)
	assert.True(t, entry.Pending)

	// The daemon refuses: the leaves revert to their old values.
	m.Update(messages.WantedResultMsg{
		TorrentID: 1,
		Indexes:   []int{0, 1},
		Wanted:    true,
		Err:       errors.New("session gone"),
	})
	entry, _ = tree.Entry("a")
	assert.Equal(t, filetree.TriMixed, entry.Wanted)
	assert.False(t, entry.Pending)

	// And on success the pending marker clears without touching values.
	press(m, runes(" "))
	m.Update(messages.WantedResultMsg{
		TorrentID: 1,
		Indexes:   []int{0, 1},
		Wanted:    true,
	})
	entry, _ = tree.Entry("a")
	assert.Equal(t, filetree.TriTrue, entry.Wanted)
	assert.False(t, entry.Pending)
}

func TestRenameRefusalRollsBack(t *testing.T) {
	m := newTestModel(t)
	m.Update(messages.SnapshotMsg{Torrents: []types.Torrent{sampleTorrent()}})

	tree := m.Files().Tree()
	require.NoError(t, tree.Rename("a/b.txt", "z.txt"))
	_, ok := tree.Entry("a/z.txt")
	require.True(t, ok)

	m.Update(messages.RenameResultMsg{
		TorrentID: 1,
		OldPath:   "a/b.txt",
		NewName:   "z.txt",
		Err:       errors.New("target exists on disk"),
	})

	_, ok = tree.Entry("a/b.txt")
	assert.True(t, ok, "refused rename should be undone")
	_, ok = tree.Entry("a/z.txt")
	assert.False(t, ok)
}

func TestRenamePrompt(t *testing.T) {
	m := newTestModel(t)
	m.Update(messages.SnapshotMsg{Torrents: []types.Torrent{sampleTorrent()}})
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	press(m, runes("j")) // move to a/b.txt

	press(m, runes("r"))
	require.True(t, m.PromptActive())

	// Replace the pre-filled name and submit.
	for m.input.Value() != "" {
		press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	press(m, runes("z.txt"))
	cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, m.PromptActive())

	// The rename is applied locally before the daemon answers.
	_, ok := m.Files().Tree().Entry("a/z.txt")
	assert.True(t, ok)
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t)
	cmd := press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestResize(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	w, h := m.Size()
	assert.Equal(t, 120, w)
	assert.Equal(t, 40, h)
	assert.Equal(t, 40, m.List().Width)
}
