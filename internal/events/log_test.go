package events

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []LogEntry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []LogEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e LogEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestLoggerAppendsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	l, err := NewLogger(path, 0)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Append(&LogEntry{
		EventType:       SessionStarted,
		SessionID:       "ses_1",
		ParticipantCode: "MOOD_SART_20260829_101500",
	}))
	require.NoError(t, l.Append(&LogEntry{
		EventType:   PhaseStarted,
		Phase:       "sart_block",
		BlockNumber: 1,
	}))

	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, SessionStarted, entries[0].EventType)
	assert.Equal(t, "ses_1", entries[0].SessionID)
	assert.False(t, entries[0].Timestamp.IsZero(), "timestamp stamped on append")
	assert.Equal(t, 1, entries[1].BlockNumber)
}

func TestLoggerRecordLiftsKnownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	l, err := NewLogger(path, 0)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Record(Event{
		Type:      ProbePresented,
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"session_id":   "ses_2",
			"phase":        "sart_block",
			"block_number": 3,
			"trial_number": 26,
			"tut_rating":   4,
		},
	}))

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "ses_2", entries[0].SessionID)
	assert.Equal(t, 3, entries[0].BlockNumber)
	assert.Equal(t, 26, entries[0].TrialNumber)
	assert.EqualValues(t, 4, entries[0].Details["tut_rating"].(float64))
}

func TestLoggerRotatesAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")
	l, err := NewLogger(path, 256)
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 20; i++ {
		require.NoError(t, l.Append(&LogEntry{
			EventType: RecordWritten,
			Phase:     "sart_block",
			Details:   map[string]any{"padding": "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"},
		}))
	}

	archived, err := filepath.Glob(filepath.Join(dir, "archive", "session.*.jsonl"))
	require.NoError(t, err)
	assert.NotEmpty(t, archived, "rotation must move the full log into archive/")

	// The active file keeps receiving entries after rotation.
	require.NoError(t, l.Append(&LogEntry{EventType: SessionCompleted}))
	entries := readEntries(t, path)
	assert.Equal(t, SessionCompleted, entries[len(entries)-1].EventType)
}

func TestLoggerReopensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")

	l, err := NewLogger(path, 0)
	require.NoError(t, err)
	require.NoError(t, l.Append(&LogEntry{EventType: SessionStarted}))
	require.NoError(t, l.Close())

	l2, err := NewLogger(path, 0)
	require.NoError(t, err)
	require.NoError(t, l2.Append(&LogEntry{EventType: SessionCompleted}))
	require.NoError(t, l2.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, SessionStarted, entries[0].EventType)
	assert.Equal(t, SessionCompleted, entries[1].EventType)
}
