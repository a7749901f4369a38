package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsServer upgrades every request and hands the connection to serve. It
// returns the ws:// URL to dial.
func wsServer(t *testing.T, serve func(conn *websocket.Conn, n int)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		count++
		serve(conn, count)
		conn.Close()
	}))
	t.Cleanup(srv.Close)
	return strings.Replace(srv.URL, "http", "ws", 1)
}

func newTestFeed(wsURL string) *Feed {
	f := NewFeed(New(wsURL), wsURL, time.Minute)
	f.minBackoff = 10 * time.Millisecond
	f.maxBackoff = 50 * time.Millisecond
	return f
}

// waitForTorrents drains the snapshot channel until a snapshot carries
// torrents, skipping the error snapshots the bridging poll produces when
// the test server has no RPC endpoint.
func waitForTorrents(t *testing.T, f *Feed) Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-f.Snapshots():
			if len(s.Torrents) > 0 {
				return s
			}
		case <-deadline:
			t.Fatal("no torrent snapshot arrived")
		}
	}
}

func TestFeedStreamDeliversStates(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn, n int) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"noise","data":{}}`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"states","data":[{"id":7,"name":"iso"}]}`)))
		// Hold the connection open until the test ends.
		conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newTestFeed(url)
	go f.Run(ctx)

	s := waitForTorrents(t, f)
	require.Len(t, s.Torrents, 1)
	assert.Equal(t, int64(7), s.Torrents[0].ID)
	assert.Equal(t, "iso", s.Torrents[0].Name)
}

func TestFeedReconnectsAfterDrop(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn, n int) {
		// Drop the first connection straight away; serve on the second.
		if n == 1 {
			return
		}
		require.NoError(t, conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"states","data":[{"id":3,"name":"back"}]}`)))
		conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newTestFeed(url)
	go f.Run(ctx)

	s := waitForTorrents(t, f)
	require.Len(t, s.Torrents, 1)
	assert.Equal(t, "back", s.Torrents[0].Name)
}

func TestFeedStreamReleasesConnectionWatcher(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn, n int) {
		// Close immediately so every stream call terminates on its own.
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newTestFeed(url)

	before := runtime.NumGoroutine()
	for i := 0; i < 10; i++ {
		connected, err := f.stream(ctx)
		assert.True(t, connected)
		assert.Error(t, err, "a dropped connection surfaces the read error")
	}
	time.Sleep(100 * time.Millisecond)

	grown := runtime.NumGoroutine() - before
	assert.Less(t, grown, 5, "dead connections must not strand watcher goroutines")
}
