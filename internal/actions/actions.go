// Package actions is the dispatch table between user intent and the
// daemon: each method fires one RPC call asynchronously and delivers the
// outcome back to the event loop as a message, so all tree and view
// mutation stays synchronous in the TUI's Update.
package actions

import (
	"context"
	"encoding/base64"
	"os"
	"os/exec"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"trawl/internal/rpc"
	"trawl/internal/tui/messages"
	"trawl/pkg/types"
)

// Verb names a whole-torrent action.
type Verb string

// Whole-torrent verbs.
const (
	VerbPause      Verb = "pause"
	VerbResume     Verb = "resume"
	VerbVerify     Verb = "verify"
	VerbReannounce Verb = "reannounce"
	VerbMove       Verb = "move"
)

// Dispatcher forwards intents to the RPC client.
type Dispatcher struct {
	client  *rpc.Client
	timeout time.Duration
}

// New creates a dispatcher with a per-call timeout.
func New(client *rpc.Client, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{client: client, timeout: timeout}
}

func (d *Dispatcher) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.timeout)
}

// Connect performs the initial session handshake.
func (d *Dispatcher) Connect() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		session, err := d.client.SessionGet(ctx)
		if err != nil {
			return messages.ConnectedMsg{Err: err}
		}
		return messages.ConnectedMsg{Version: session.Version, DownloadDir: session.DownloadDir}
	}
}

// Refresh fetches the full torrent list once.
func (d *Dispatcher) Refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		torrents, err := d.client.TorrentGet(ctx, nil)
		return messages.SnapshotMsg{Torrents: torrents, Err: err}
	}
}

// SetWanted forwards a wanted toggle for the given file indexes. The
// caller has already marked those leaves pending on the tree; the result
// message echoes the indexes so it knows which leaves to confirm or
// reject.
func (d *Dispatcher) SetWanted(torrentID int64, indexes []int, wanted bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		err := d.client.SetFilesWanted(ctx, torrentID, indexes, wanted)
		return messages.WantedResultMsg{TorrentID: torrentID, Indexes: indexes, Wanted: wanted, Err: err}
	}
}

// SetPriority forwards a priority assignment the same way.
func (d *Dispatcher) SetPriority(torrentID int64, indexes []int, priority types.Priority) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		err := d.client.SetFilePriority(ctx, torrentID, indexes, priority)
		return messages.PriorityResultMsg{TorrentID: torrentID, Indexes: indexes, Priority: priority, Err: err}
	}
}

// Rename forwards a path rename. The caller applies the rename to its
// tree optimistically and rolls it back if the result carries an error.
func (d *Dispatcher) Rename(torrentID int64, oldPath, newName string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		err := d.client.RenamePath(ctx, torrentID, oldPath, newName)
		return messages.RenameResultMsg{TorrentID: torrentID, OldPath: oldPath, NewName: newName, Err: err}
	}
}

// Torrent dispatches a whole-torrent verb to the given ids.
func (d *Dispatcher) Torrent(verb Verb, ids []int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		var err error
		switch verb {
		case VerbPause:
			err = d.client.Stop(ctx, ids)
		case VerbResume:
			err = d.client.Start(ctx, ids)
		case VerbVerify:
			err = d.client.Verify(ctx, ids)
		case VerbReannounce:
			err = d.client.Reannounce(ctx, ids)
		}
		return messages.TorrentActionMsg{Verb: string(verb), IDs: ids, Err: err}
	}
}

// Move relocates a torrent's data.
func (d *Dispatcher) Move(torrentID int64, location string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		err := d.client.SetLocation(ctx, torrentID, location, true)
		return messages.TorrentActionMsg{Verb: string(VerbMove), IDs: []int64{torrentID}, Err: err}
	}
}

// Add submits a torrent by magnet link or .torrent file path.
func (d *Dispatcher) Add(source string, paused bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		res, err := AddSource(ctx, d.client, source, "", paused)
		if err != nil {
			return messages.AddResultMsg{Name: source, Err: err}
		}
		return messages.AddResultMsg{Name: res.Name}
	}
}

// AddSource adds either a magnet link or a local .torrent file, encoding
// the file contents as base64 metainfo the way the daemon expects.
func AddSource(ctx context.Context, client *rpc.Client, source, downloadDir string, paused bool) (*rpc.AddResult, error) {
	req := rpc.AddRequest{DownloadDir: downloadDir, Paused: paused}
	if data, err := os.ReadFile(source); err == nil {
		req.Metainfo = base64.StdEncoding.EncodeToString(data)
	} else {
		req.Filename = source
	}
	return client.Add(ctx, req)
}

// OpenLocal hands a local path to the host shell's opener. Which program
// ends up handling it is the host's business, not ours.
func OpenLocal(path string) tea.Cmd {
	return func() tea.Msg {
		opener := "xdg-open"
		switch runtime.GOOS {
		case "darwin":
			opener = "open"
		case "windows":
			opener = "explorer"
		}
		if err := exec.Command(opener, path).Start(); err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return nil
	}
}
