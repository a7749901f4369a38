// Package rpc implements the client side of the daemon's JSON-RPC
// interface: request/response envelopes over HTTP with the CSRF session
// header handshake, plus the event feed in events.go. The tree model and
// the TUI never see the wire format, only typed results.
package rpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"trawl/internal/errors"
	"trawl/internal/log"
	"trawl/pkg/types"

	"github.com/goccy/go-json"
)

const sessionHeader = "X-Transmission-Session-Id"

// TorrentFields is the field set requested for list refreshes and detail
// views. Files and fileStats ride along so the selection tree can be
// built and patched from the same snapshot.
var TorrentFields = []string{
	"id", "hashString", "name", "status", "errorString", "downloadDir",
	"totalSize", "haveValid", "rateDownload", "rateUpload", "eta",
	"percentDone", "peersConnected", "uploadedEver", "files", "fileStats",
}

// Client talks to a Transmission-compatible daemon.
type Client struct {
	url      string
	username string
	password string
	http     *http.Client

	mu        sync.Mutex
	sessionID string
}

// Option configures a Client.
type Option func(*Client)

// WithAuth sets basic-auth credentials.
func WithAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New creates a client for the given RPC endpoint URL.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:  url,
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the configured endpoint.
func (c *Client) URL() string { return c.url }

type request struct {
	Method    string      `json:"method"`
	Arguments interface{} `json:"arguments,omitempty"`
	Tag       int         `json:"tag,omitempty"`
}

type response struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
	Tag       int             `json:"tag"`
}

// call performs one RPC round trip, retrying exactly once on the 409
// session-id handshake the daemon uses for CSRF protection.
func (c *Client) call(ctx context.Context, method string, args interface{}, out interface{}) error {
	body, err := json.Marshal(request{Method: method, Arguments: args})
	if err != nil {
		return errors.NewRPCError("encode request", method, errors.RPCFailed, err)
	}

	resp, err := c.do(ctx, method, body, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewRPCError("read response", method, errors.RPCFailed, err)
	}

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return errors.NewRPCError("decode response", method, errors.RPCFailed, err)
	}
	if envelope.Result != "success" {
		return errors.NewRPCError(fmt.Sprintf("daemon refused: %s", envelope.Result), method, errors.RPCFailed, nil)
	}
	if out != nil && len(envelope.Arguments) > 0 {
		if err := json.Unmarshal(envelope.Arguments, out); err != nil {
			return errors.NewRPCError("decode arguments", method, errors.RPCFailed, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, body []byte, retried bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewRPCError("build request", method, errors.RPCFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	c.mu.Lock()
	if c.sessionID != "" {
		req.Header.Set(sessionHeader, c.sessionID)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewRPCError("daemon unreachable", method, errors.ConnectFailed, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusConflict:
		id := resp.Header.Get(sessionHeader)
		resp.Body.Close()
		if retried || id == "" {
			return nil, errors.NewRPCError("session handshake failed", method, errors.RPCFailed, nil)
		}
		c.mu.Lock()
		c.sessionID = id
		c.mu.Unlock()
		log.Debug("acquired session id, retrying %s", method)
		return c.do(ctx, method, body, true)
	case http.StatusUnauthorized, http.StatusForbidden:
		resp.Body.Close()
		return nil, errors.NewRPCError("authentication rejected", method, errors.AuthFailed, nil)
	default:
		resp.Body.Close()
		return nil, errors.NewRPCError(fmt.Sprintf("unexpected status %d", resp.StatusCode), method, errors.RPCFailed, nil)
	}
}

// TorrentGet fetches torrents by id; a nil ids slice fetches all.
func (c *Client) TorrentGet(ctx context.Context, ids []int64) ([]types.Torrent, error) {
	args := map[string]interface{}{"fields": TorrentFields}
	if len(ids) > 0 {
		args["ids"] = ids
	}
	var out struct {
		Torrents []types.Torrent `json:"torrents"`
	}
	if err := c.call(ctx, "torrent-get", args, &out); err != nil {
		return nil, err
	}
	return out.Torrents, nil
}

// SetFilesWanted flips the wanted flag for the given file indexes of one
// torrent. The index set comes straight from the selection tree.
func (c *Client) SetFilesWanted(ctx context.Context, id int64, indexes []int, wanted bool) error {
	key := "files-unwanted"
	if wanted {
		key = "files-wanted"
	}
	args := map[string]interface{}{
		"ids": []int64{id},
		key:   indexes,
	}
	return c.call(ctx, "torrent-set", args, nil)
}

// SetFilePriority assigns a priority to the given file indexes of one
// torrent.
func (c *Client) SetFilePriority(ctx context.Context, id int64, indexes []int, priority types.Priority) error {
	var key string
	switch priority {
	case types.PriorityLow:
		key = "priority-low"
	case types.PriorityHigh:
		key = "priority-high"
	default:
		key = "priority-normal"
	}
	args := map[string]interface{}{
		"ids": []int64{id},
		key:   indexes,
	}
	return c.call(ctx, "torrent-set", args, nil)
}

// RenamePath renames a file or directory inside a torrent. The daemon
// answers with the path and name it applied.
func (c *Client) RenamePath(ctx context.Context, id int64, path, name string) error {
	args := map[string]interface{}{
		"ids":  []int64{id},
		"path": path,
		"name": name,
	}
	var out struct {
		Path string `json:"path"`
		Name string `json:"name"`
	}
	return c.call(ctx, "torrent-rename-path", args, &out)
}

// Start resumes the given torrents.
func (c *Client) Start(ctx context.Context, ids []int64) error {
	return c.call(ctx, "torrent-start", map[string]interface{}{"ids": ids}, nil)
}

// Stop pauses the given torrents.
func (c *Client) Stop(ctx context.Context, ids []int64) error {
	return c.call(ctx, "torrent-stop", map[string]interface{}{"ids": ids}, nil)
}

// Verify re-checks local data of the given torrents.
func (c *Client) Verify(ctx context.Context, ids []int64) error {
	return c.call(ctx, "torrent-verify", map[string]interface{}{"ids": ids}, nil)
}

// Reannounce asks the trackers for more peers.
func (c *Client) Reannounce(ctx context.Context, ids []int64) error {
	return c.call(ctx, "torrent-reannounce", map[string]interface{}{"ids": ids}, nil)
}

// SetLocation moves a torrent's data to a new directory.
func (c *Client) SetLocation(ctx context.Context, id int64, location string, move bool) error {
	args := map[string]interface{}{
		"ids":      []int64{id},
		"location": location,
		"move":     move,
	}
	return c.call(ctx, "torrent-set-location", args, nil)
}

// AddRequest describes a torrent to add: either a filename/magnet link or
// raw base64-encoded metainfo.
type AddRequest struct {
	Filename    string `json:"filename,omitempty"`
	Metainfo    string `json:"metainfo,omitempty"`
	DownloadDir string `json:"download-dir,omitempty"`
	Paused      bool   `json:"paused,omitempty"`
}

// AddResult identifies the torrent the daemon added (or already had).
type AddResult struct {
	ID         int64  `json:"id"`
	HashString string `json:"hashString"`
	Name       string `json:"name"`
	Duplicate  bool   `json:"-"`
}

// Add submits a new torrent.
func (c *Client) Add(ctx context.Context, req AddRequest) (*AddResult, error) {
	var out struct {
		Added     *AddResult `json:"torrent-added"`
		Duplicate *AddResult `json:"torrent-duplicate"`
	}
	if err := c.call(ctx, "torrent-add", req, &out); err != nil {
		return nil, err
	}
	if out.Added != nil {
		return out.Added, nil
	}
	if out.Duplicate != nil {
		log.Debug("torrent already present: %s", out.Duplicate.Name)
		out.Duplicate.Duplicate = true
		return out.Duplicate, nil
	}
	return nil, errors.NewRPCError("daemon returned no torrent", "torrent-add", errors.RPCFailed, nil)
}

// Session is the subset of session-get the client shows.
type Session struct {
	Version     string `json:"version"`
	RPCVersion  int64  `json:"rpc-version"`
	DownloadDir string `json:"download-dir"`
}

// SessionGet fetches daemon session information, doubling as a
// connectivity check.
func (c *Client) SessionGet(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.call(ctx, "session-get", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
