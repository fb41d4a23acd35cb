package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DefaultMaxLogSize caps the event log at 20MB before rotation. A full
	// session writes a few thousand entries, so rotation only triggers when
	// many sessions share a data directory.
	DefaultMaxLogSize = 20 * 1024 * 1024

	logExtension = ".jsonl"
	archiveDir   = "archive"
)

// LogEntry is one line of the session event log.
type LogEntry struct {
	Timestamp       time.Time      `json:"timestamp"`
	EventType       Type           `json:"event_type"`
	SessionID       string         `json:"session_id,omitempty"`
	ParticipantCode string         `json:"participant_code,omitempty"`
	Phase           string         `json:"phase,omitempty"`
	BlockNumber     int            `json:"block_number,omitempty"`
	TrialNumber     int            `json:"trial_number,omitempty"`
	Details         map[string]any `json:"details,omitempty"`
}

// Logger appends session events to a JSONL file, rotating into an archive
// directory when the file exceeds maxSize.
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	size    int64
	maxSize int64
	path    string
}

// NewLogger opens (or creates) the event log at path.
func NewLogger(path string, maxSize int64) (*Logger, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxLogSize
	}
	l := &Logger{path: path, maxSize: maxSize}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Logger) open() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat event log: %w", err)
	}
	l.file = f
	l.size = stat.Size()
	return nil
}

// Append writes one entry, stamping it if the caller left Timestamp zero.
func (l *Logger) Append(entry *LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	data = append(data, '\n')

	if l.size+int64(len(data)) > l.maxSize {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotate event log: %w", err)
		}
	}

	n, err := l.file.Write(data)
	if err != nil {
		return fmt.Errorf("write log entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync event log: %w", err)
	}
	l.size += int64(n)
	return nil
}

// Record is a convenience for bus subscribers: it renders a published
// event into a log entry, lifting the well-known data keys into columns.
func (l *Logger) Record(ev Event) error {
	entry := &LogEntry{
		Timestamp: ev.Timestamp,
		EventType: ev.Type,
		Details:   ev.Data,
	}
	if s, ok := ev.Data["session_id"].(string); ok {
		entry.SessionID = s
	}
	if s, ok := ev.Data["participant_code"].(string); ok {
		entry.ParticipantCode = s
	}
	if s, ok := ev.Data["phase"].(string); ok {
		entry.Phase = s
	}
	if n, ok := ev.Data["block_number"].(int); ok {
		entry.BlockNumber = n
	}
	if n, ok := ev.Data["trial_number"].(int); ok {
		entry.TrialNumber = n
	}
	return l.Append(entry)
}

func (l *Logger) rotate() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close event log: %w", err)
	}

	dir := filepath.Join(filepath.Dir(l.path), archiveDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	base := filepath.Base(l.path)
	stem := base[:len(base)-len(logExtension)]
	name := fmt.Sprintf("%s.%s%s", stem, time.Now().Format("20060102_150405"), logExtension)
	if err := os.Rename(l.path, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("archive event log: %w", err)
	}

	return l.open()
}

// Path returns the active log file path.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Size returns the current log file size in bytes.
func (l *Logger) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Close syncs and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		l.file = nil
		return err
	}
	err := l.file.Close()
	l.file = nil
	return err
}
