package rpc

import (
	"context"
	"time"

	"trawl/internal/log"
	"trawl/pkg/types"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Snapshot is one refresh delivered by the event feed: the full torrent
// list as the daemon currently sees it.
type Snapshot struct {
	Torrents []types.Torrent
	Err      error
}

// Feed delivers torrent snapshots to the UI, either from the daemon's
// websocket event stream or, when that is unavailable, by polling
// torrent-get on an interval. Both paths produce the same Snapshot
// messages so the consumer never knows the difference.
type Feed struct {
	client     *Client
	wsURL      string
	interval   time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
	snapshots  chan Snapshot
}

// NewFeed creates a feed over client. wsURL may be empty to force
// polling.
func NewFeed(client *Client, wsURL string, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Feed{
		client:     client,
		wsURL:      wsURL,
		interval:   interval,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
		snapshots:  make(chan Snapshot, 1),
	}
}

// Snapshots returns the channel refreshes arrive on.
func (f *Feed) Snapshots() <-chan Snapshot {
	return f.snapshots
}

// Run produces snapshots until ctx is cancelled. With a websocket URL it
// keeps a connection open, reconnecting with capped backoff, and falls
// back to a poll whenever the socket is down so the UI never goes stale.
func (f *Feed) Run(ctx context.Context) {
	if f.wsURL == "" {
		f.poll(ctx)
		return
	}

	backoff := f.minBackoff
	for {
		connected, err := f.stream(ctx)
		if err != nil {
			log.Warn("event stream lost: %v", err)
		}
		if ctx.Err() != nil {
			return
		}
		if connected {
			// The last stream was healthy; start the retry ladder over.
			backoff = f.minBackoff
		}
		// Bridge the gap with one poll before retrying the socket.
		f.deliver(ctx, f.fetch(ctx))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < f.maxBackoff {
			backoff *= 2
		}
	}
}

func (f *Feed) poll(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.deliver(ctx, f.fetch(ctx))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.deliver(ctx, f.fetch(ctx))
		}
	}
}

func (f *Feed) fetch(ctx context.Context) Snapshot {
	torrents, err := f.client.TorrentGet(ctx, nil)
	return Snapshot{Torrents: torrents, Err: err}
}

func (f *Feed) deliver(ctx context.Context, s Snapshot) {
	select {
	case f.snapshots <- s:
	case <-ctx.Done():
	default:
		// Consumer is behind; drop the stale snapshot, a fresher one
		// is coming.
	}
}

// wsEnvelope mirrors the daemon's broadcast frame.
type wsEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// stream reads one websocket connection until it drops. connected
// reports whether the dial succeeded, so Run can tell a dead daemon from
// a stream that was healthy before it broke.
func (f *Feed) stream(ctx context.Context) (connected bool, _ error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	log.Info("connected to event stream at %s", f.wsURL)

	// Unblock ReadMessage on cancellation. The watcher lives only as
	// long as this connection, not until the whole feed shuts down.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var envelope wsEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			log.Warn("bad event frame: %v", err)
			continue
		}
		if envelope.Type != "states" {
			continue
		}
		var torrents []types.Torrent
		if err := json.Unmarshal(envelope.Data, &torrents); err != nil {
			log.Warn("bad states payload: %v", err)
			continue
		}
		f.deliver(ctx, Snapshot{Torrents: torrents})
	}
}
