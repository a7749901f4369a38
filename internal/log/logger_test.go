package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetDebug(false)
	Debug("hidden %s", "message")
	assert.NotContains(t, buf.String(), "hidden message")

	SetDebug(true)
	defer SetDebug(false)
	Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")

	Info("info %d", 42)
	assert.Contains(t, buf.String(), "info 42")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	WithFields(F("torrent", "dataset"), F("id", 7)).Info("added")

	out := buf.String()
	assert.Contains(t, out, "torrent=dataset")
	assert.Contains(t, out, "id=7")
	assert.Contains(t, out, "added")
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trawl.log")

	closeLog, err := ToFile(path)
	require.NoError(t, err)
	defer SetOutput(os.Stderr)

	Info("written to file")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
