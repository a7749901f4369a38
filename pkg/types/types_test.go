package types_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trawl/pkg/types"
)

func TestPriorityUnmarshalStrict(t *testing.T) {
	for raw, want := range map[string]types.Priority{
		"-1": types.PriorityLow,
		"0":  types.PriorityNormal,
		"1":  types.PriorityHigh,
	} {
		var p types.Priority
		require.NoError(t, json.Unmarshal([]byte(raw), &p))
		assert.Equal(t, want, p)
	}

	for _, raw := range []string{"2", "-2", `"high"`, "1.5"} {
		var p types.Priority
		assert.Error(t, json.Unmarshal([]byte(raw), &p), "raw %s", raw)
	}
}

func TestStatusUnmarshalStrict(t *testing.T) {
	var s types.Status
	require.NoError(t, json.Unmarshal([]byte("4"), &s))
	assert.Equal(t, types.StatusDownloading, s)
	assert.Equal(t, "downloading", s.String())

	assert.Error(t, json.Unmarshal([]byte("7"), &s))
	assert.Error(t, json.Unmarshal([]byte(`"seeding"`), &s))
}

func TestTorrentFilesMerge(t *testing.T) {
	var torrent types.Torrent
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 7,
		"name": "dataset",
		"files": [
			{"name": "a/b.txt", "length": 100, "bytesCompleted": 25},
			{"name": "a/c.txt", "length": 200, "bytesCompleted": 0}
		],
		"fileStats": [
			{"bytesCompleted": 50, "wanted": true, "priority": 1}
		]
	}`), &torrent))

	files := torrent.Files()
	require.Len(t, files, 2)

	// fileStats wins where present, and the larger completion count is kept.
	assert.Equal(t, int64(50), files[0].BytesCompleted)
	assert.True(t, files[0].Wanted)
	assert.Equal(t, types.PriorityHigh, files[0].Priority)

	// A short fileStats array leaves daemon defaults in place.
	assert.True(t, files[1].Wanted)
	assert.Equal(t, types.PriorityNormal, files[1].Priority)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "512 B", types.ByteCount(512).String())
	assert.Equal(t, "1.5 KiB", types.ByteCount(1536).String())
	assert.Equal(t, "2.0 MiB", types.ByteCount(2<<20).String())
	assert.Equal(t, "1.0 KiB/s", types.Rate(1024).String())

	assert.Equal(t, "50.0%", types.Ratio(50, 100).String())
	assert.Equal(t, "0.0%", types.Ratio(10, 0).String())
	assert.Equal(t, types.Percent(0), types.Ratio(1, -5))
}
