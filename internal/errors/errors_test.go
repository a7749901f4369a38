package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())

	err = Newf("formatted %s", "error")
	assert.NotNil(t, err)
	assert.Equal(t, "formatted error", err.Error())

	var appErr *ApplicationError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, Unknown, appErr.Kind())
}

func TestWrapping(t *testing.T) {
	origErr := New("original error")
	wrappedErr := Wrap(origErr, "wrapped")
	assert.NotNil(t, wrappedErr)
	assert.Equal(t, "wrapped: original error", wrappedErr.Error())

	assert.Equal(t, origErr, Unwrap(wrappedErr))

	wrappedFormatted := Wrapf(origErr, "formatted %s", "wrapper")
	assert.Equal(t, "formatted wrapper: original error", wrappedFormatted.Error())

	assert.Nil(t, Wrap(nil, "wrapper"))
	assert.Nil(t, Wrapf(nil, "formatted %s", "wrapper"))

	deepWrapped := Wrap(wrappedErr, "deeper")
	assert.Equal(t, "deeper: wrapped: original error", deepWrapped.Error())

	assert.True(t, Is(wrappedErr, origErr))
	assert.True(t, Is(deepWrapped, origErr))
}

func TestPathError(t *testing.T) {
	pathErr := NewPathError("empty path segment", "a//b.txt", MalformedPath, nil)
	assert.Equal(t, "empty path segment: a//b.txt", pathErr.Error())
	assert.Equal(t, "a//b.txt", pathErr.Path())
	assert.Equal(t, MalformedPath, pathErr.Kind())

	assert.True(t, IsMalformedPath(pathErr))
	assert.False(t, IsRenameFailed(pathErr))

	// A collision counts as malformed input too.
	collision := NewPathError("file and directory share a path", "a", PathCollision, nil)
	assert.True(t, IsMalformedPath(collision))

	renameErr := NewPathError("target already exists", "a/b.txt", RenameFailed, nil)
	assert.True(t, IsRenameFailed(renameErr))
	assert.False(t, IsMalformedPath(renameErr))

	// A rename aimed at a missing path is still a failed rename, but the
	// narrower predicate can tell the cases apart.
	missing := NewPathError("no such path", "a/gone.txt", PathNotFound, nil)
	assert.True(t, IsRenameFailed(missing))
	assert.True(t, IsPathNotFound(missing))
	assert.False(t, IsPathNotFound(renameErr))
}

func TestRPCError(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	rpcErr := NewRPCError("daemon unreachable", "torrent-get", ConnectFailed, cause)

	assert.Contains(t, rpcErr.Error(), "torrent-get")
	assert.Contains(t, rpcErr.Error(), "connection refused")
	assert.Equal(t, "torrent-get", rpcErr.Method())
	assert.True(t, IsConnectFailed(rpcErr))
	assert.True(t, Is(rpcErr, cause))

	authErr := NewRPCError("unauthorized", "session-get", AuthFailed, nil)
	assert.True(t, IsAuthFailed(authErr))
	assert.False(t, IsAuthFailed(rpcErr))
}

func TestConfigError(t *testing.T) {
	cfgErr := NewConfigError("must be >= 1", "daemon.timeout", InvalidConfig, nil)
	assert.Contains(t, cfgErr.Error(), "daemon.timeout")
	assert.Equal(t, "daemon.timeout", cfgErr.Param())
	assert.True(t, IsInvalidConfig(cfgErr))

	// The kind survives stdlib wrapping.
	wrapped := fmt.Errorf("loading config: %w", cfgErr)
	assert.True(t, IsInvalidConfig(wrapped))
}

func TestKindPredicatesOnForeignErrors(t *testing.T) {
	plain := fmt.Errorf("some stdlib error")
	assert.False(t, IsMalformedPath(plain))
	assert.False(t, IsRenameFailed(plain))
	assert.False(t, IsAuthFailed(plain))
	assert.False(t, IsConnectFailed(plain))
	assert.False(t, IsInvalidConfig(plain))
	assert.False(t, IsMalformedPath(nil))
}
