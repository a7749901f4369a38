package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"trawl/internal/log"

	"github.com/fsnotify/fsnotify"
)

// TorrentFile is a .torrent file detected in a watched directory.
type TorrentFile struct {
	Path      string
	Size      int64
	Timestamp time.Time
}

// Watcher monitors directories for new .torrent files using fsnotify.
// Browsers write downloads in chunks, so a file is only reported once its
// size has been stable for a settle period.
type Watcher struct {
	// Directories being watched
	directories []string

	// Channel to deliver settled .torrent files
	torrentChan chan TorrentFile

	// Channel to signal stop
	stopChan chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	// How long a file's size must hold still before it's reported
	settle time.Duration

	// Tracks the event loop and in-flight settle checks so Stop can
	// close torrentChan only after the last sender is gone.
	wg sync.WaitGroup

	mutex   sync.RWMutex
	running bool
}

// New creates a new directory watcher.
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		directories: []string{},
		torrentChan: make(chan TorrentFile, 10),
		stopChan:    make(chan struct{}),
		fsWatcher:   fsWatcher,
		settle:      500 * time.Millisecond,
	}, nil
}

// AddDirectory adds a directory to watch.
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}

	w.mutex.Lock()
	found := false
	for _, existing := range w.directories {
		if existing == dir {
			found = true
			break
		}
	}
	if !found {
		w.directories = append(w.directories, dir)
	}
	w.mutex.Unlock()

	log.WithFields(log.F("directory", dir)).Info("watching directory")
	return nil
}

// Torrents returns the channel settled .torrent files arrive on.
func (w *Watcher) Torrents() <-chan TorrentFile {
	return w.torrentChan
}

// Start begins watching. Events for anything but .torrent files are
// ignored; candidate files go through the settle check before delivery.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.mutex.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
					continue
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".torrent") {
					continue
				}
				w.wg.Add(1)
				go func(name string) {
					defer w.wg.Done()
					w.settleAndDeliver(name)
				}(event.Name)

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.WithFields(log.F("error", err)).Error("fsnotify watcher error")

			case <-w.stopChan:
				return
			}
		}
	}()

	log.Info("watcher started")
	return nil
}

// settleAndDeliver waits until the file's size stops changing, then
// delivers it. A file deleted mid-settle is dropped silently.
func (w *Watcher) settleAndDeliver(path string) {
	var lastSize int64 = -1
	for {
		select {
		case <-w.stopChan:
			return
		case <-time.After(w.settle):
		}

		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			return
		}
		if info.Size() == lastSize {
			select {
			case w.torrentChan <- TorrentFile{Path: path, Size: info.Size(), Timestamp: time.Now()}:
			default:
				log.WithFields(log.F("file", path)).Warn("event channel is full, dropped file")
			}
			return
		}
		lastSize = info.Size()
	}
}

// Stop halts the watcher and closes the delivery channel once every
// in-flight settle check has finished.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if !w.running {
		w.mutex.Unlock()
		return
	}
	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		log.WithFields(log.F("error", err)).Error("error closing fsnotify watcher")
	}
	w.running = false
	w.mutex.Unlock()

	w.wg.Wait()
	close(w.torrentChan)
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// GetDirectories returns the list of directories being watched.
func (w *Watcher) GetDirectories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirsCopy := make([]string, len(w.directories))
	copy(dirsCopy, w.directories)
	return dirsCopy
}
