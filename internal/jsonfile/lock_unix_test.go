//go:build unix

package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grovetools/teamboard/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func holdLock(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	require.NoError(t, unix.Flock(int(f.Fd()), unix.LOCK_EX))
	return f
}

func TestReadJSONLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"name":"X"}`)

	holder := holdLock(t, path)
	defer holder.Close()

	var sleeps int32
	r := NewReader(RetryPolicy{Retries: 2, MinBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}, nil)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		atomic.AddInt32(&sleeps, 1)
		return nil
	}

	var v map[string]interface{}
	err := r.ReadJSON(context.Background(), path, &v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeLockTimeout))
	assert.Equal(t, int32(2), atomic.LoadInt32(&sleeps))
}

func TestReadJSONWaitsForWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"name":"X"}`)

	holder := holdLock(t, path)
	r := NewReader(RetryPolicy{Retries: 3, MinBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, nil)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		// The writer finishes while the reader backs off.
		if holder != nil {
			_ = unix.Flock(int(holder.Fd()), unix.LOCK_UN)
			holder.Close()
			holder = nil
		}
		return nil
	}

	var v map[string]interface{}
	require.NoError(t, r.ReadJSON(context.Background(), path, &v))
	assert.Equal(t, "X", v["name"])
}
