// Package watch implements watch-directory mode: .torrent files dropped
// into configured directories are validated and submitted to the daemon.
package watch

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sync"
	"time"

	"trawl/internal/config"
	"trawl/internal/log"
	"trawl/internal/rpc"

	"github.com/anacrolix/torrent/metainfo"
)

// DaemonStatus represents the current status of the watch daemon.
type DaemonStatus struct {
	Running          bool      // Whether the daemon is currently active
	WatchDirectories []string  // Directories being watched
	LastActivity     time.Time // Time of last file activity
	TorrentsAdded    int       // Total torrents submitted
}

// Daemon ties a directory watcher to the RPC client: every settled
// .torrent file is parsed, submitted with torrent-add, and then disposed
// of according to the configured post-add action.
type Daemon struct {
	config *config.Config
	client *rpc.Client

	watcher *Watcher

	added        int
	lastActivity time.Time

	// Callback invoked after each file: (path, torrent name, error)
	callback func(string, string, error)

	mutex   sync.RWMutex
	running bool
}

// NewDaemon creates a watch daemon over the given client.
func NewDaemon(cfg *config.Config, client *rpc.Client) (*Daemon, error) {
	watcher, err := New()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Daemon{
		config:       cfg,
		client:       client,
		watcher:      watcher,
		lastActivity: time.Now(),
	}, nil
}

// Start begins watching the configured directories.
func (d *Daemon) Start() error {
	d.mutex.Lock()
	if d.running {
		d.mutex.Unlock()
		return fmt.Errorf("watch daemon is already running")
	}
	d.running = true
	d.mutex.Unlock()

	for _, dir := range d.config.Watch.Directories {
		if err := d.watcher.AddDirectory(dir); err != nil {
			return fmt.Errorf("error adding watch directory %s: %w", dir, err)
		}
	}
	if len(d.watcher.GetDirectories()) == 0 {
		return fmt.Errorf("no directories to watch")
	}

	if err := d.watcher.Start(); err != nil {
		return fmt.Errorf("error starting watcher: %w", err)
	}

	go d.processFiles()
	return nil
}

// Stop halts the daemon.
func (d *Daemon) Stop() {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return
	}
	d.running = false
	d.mutex.Unlock()

	d.watcher.Stop()
}

// SetCallback sets a function to be called after each file is handled.
func (d *Daemon) SetCallback(cb func(string, string, error)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = cb
}

// Status returns the current status of the daemon.
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return DaemonStatus{
		Running:          d.running,
		WatchDirectories: d.watcher.GetDirectories(),
		LastActivity:     d.lastActivity,
		TorrentsAdded:    d.added,
	}
}

func (d *Daemon) processFiles() {
	for file := range d.watcher.Torrents() {
		name, err := d.addFile(file.Path)

		d.mutex.Lock()
		d.lastActivity = time.Now()
		if err == nil {
			d.added++
		}
		cb := d.callback
		d.mutex.Unlock()

		if err != nil {
			log.WithFields(log.F("file", file.Path), log.F("error", err)).Error("failed to add torrent")
		} else {
			log.WithFields(log.F("file", file.Path), log.F("torrent", name)).Info("torrent added")
		}
		if cb != nil {
			cb(file.Path, name, err)
		}
	}
}

// addFile validates the metainfo, submits it, and applies the post-add
// disposition. A file that does not parse as metainfo is skipped without
// touching it: it may be some other application's .torrent-named file.
func (d *Daemon) addFile(path string) (string, error) {
	mi, err := metainfo.LoadFromFile(path)
	if err != nil {
		return "", fmt.Errorf("not a valid torrent file: %w", err)
	}
	info, err := mi.UnmarshalInfo()
	if err != nil {
		return "", fmt.Errorf("bad torrent info dictionary: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.config.RequestTimeout())
	defer cancel()
	res, err := d.client.Add(ctx, rpc.AddRequest{
		Metainfo: base64.StdEncoding.EncodeToString(data),
		Paused:   d.config.Watch.StartPaused,
	})
	if err != nil {
		return info.Name, err
	}

	return res.Name, d.dispose(path)
}

func (d *Daemon) dispose(path string) error {
	switch d.config.Watch.PostAdd {
	case "delete":
		return os.Remove(path)
	case "rename":
		return os.Rename(path, path+".added")
	default:
		return nil
	}
}
