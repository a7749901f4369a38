// Package messages defines the bubbletea messages exchanged between the
// event feed, the action dispatcher, and the TUI model.
package messages

import (
	"trawl/pkg/types"
)

// ErrorMsg carries a failure to the status bar.
type ErrorMsg struct {
	Err error
}

// SnapshotMsg is a full torrent-list refresh from the feed.
type SnapshotMsg struct {
	Torrents []types.Torrent
	Err      error
}

// ConnectedMsg reports the initial session handshake outcome.
type ConnectedMsg struct {
	Version     string
	DownloadDir string
	Err         error
}

// WantedResultMsg is the daemon's answer to an optimistic wanted toggle.
// Indexes identifies the tree leaves to confirm or reject; indexes are
// stable across renames where paths are not.
type WantedResultMsg struct {
	TorrentID int64
	Indexes   []int
	Wanted    bool
	Err       error
}

// PriorityResultMsg is the daemon's answer to a priority assignment.
type PriorityResultMsg struct {
	TorrentID int64
	Indexes   []int
	Priority  types.Priority
	Err       error
}

// RenameResultMsg is the daemon's answer to a path rename. On failure the
// tree's local rename must be rolled back.
type RenameResultMsg struct {
	TorrentID int64
	OldPath   string
	NewName   string
	Err       error
}

// TorrentActionMsg reports completion of a whole-torrent verb
// (pause/resume/verify/reannounce/move).
type TorrentActionMsg struct {
	Verb string
	IDs  []int64
	Err  error
}

// AddResultMsg reports a torrent-add outcome.
type AddResultMsg struct {
	Name string
	Err  error
}
