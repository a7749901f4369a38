package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDeliversSettledTorrents(t *testing.T) {
	tempDir := t.TempDir()

	w, err := New()
	require.NoError(t, err)
	w.settle = 50 * time.Millisecond // keep the test fast

	require.NoError(t, w.AddDirectory(tempDir))
	require.NoError(t, w.Start())
	defer w.Stop()

	// Give fsnotify a moment to establish the watch.
	time.Sleep(100 * time.Millisecond)

	torrentPath := filepath.Join(tempDir, "ubuntu.torrent")
	require.NoError(t, os.WriteFile(torrentPath, []byte("d8:announce0:e"), 0644))

	select {
	case file, ok := <-w.Torrents():
		require.True(t, ok, "channel closed unexpectedly")
		assert.Equal(t, torrentPath, file.Path)
		assert.Equal(t, int64(len("d8:announce0:e")), file.Size)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for settled .torrent file")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	tempDir := t.TempDir()

	w, err := New()
	require.NoError(t, err)
	w.settle = 50 * time.Millisecond

	require.NoError(t, w.AddDirectory(tempDir))
	require.NoError(t, w.Start())
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("hello"), 0644))
	// Mixed-case extensions still count.
	upperPath := filepath.Join(tempDir, "linux.TORRENT")
	require.NoError(t, os.WriteFile(upperPath, []byte("d4:infoe"), 0644))

	select {
	case file := <-w.Torrents():
		assert.Equal(t, upperPath, file.Path, "only .torrent files should be delivered")
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for .torrent file")
	}

	// Nothing else should arrive for the .txt file.
	select {
	case file := <-w.Torrents():
		t.Fatalf("unexpected delivery: %s", file.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherRejectsBadDirectories(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.AddDirectory("/does/not/exist"))

	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.Error(t, w.AddDirectory(file))
}

func TestWatcherStartStop(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	require.NoError(t, w.AddDirectory(t.TempDir()))
	assert.False(t, w.IsRunning())

	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(), "double start should fail")

	w.Stop()
	assert.False(t, w.IsRunning())

	// Stopping twice is harmless and the channel ends up closed.
	w.Stop()
	_, ok := <-w.Torrents()
	assert.False(t, ok)
}
