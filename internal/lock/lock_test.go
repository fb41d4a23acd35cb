package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.lock")

	a := NewFileLock(path)
	require.NoError(t, a.TryLock())

	b := NewFileLock(path)
	err := b.TryLock()
	require.Error(t, err, "second lock on the same file must fail")
	assert.Contains(t, err.Error(), "another session")

	require.NoError(t, a.Unlock())

	// After release the lock becomes available again.
	require.NoError(t, b.TryLock())
	require.NoError(t, b.Unlock())
}

func TestFileLockRecordsPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.lock")

	fl := NewFileLock(path)
	require.NoError(t, fl.TryLock())
	defer fl.Unlock()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestFileLockUnlockRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.lock")

	fl := NewFileLock(path)
	require.NoError(t, fl.TryLock())
	require.NoError(t, fl.Unlock())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Unlock on an unheld lock is a no-op.
	assert.NoError(t, fl.Unlock())
}

func TestMutexMapSerializesPerKey(t *testing.T) {
	m := NewMutexMap()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("participant")
			counter++
			m.Unlock("participant")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
