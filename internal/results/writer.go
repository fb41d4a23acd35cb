// Package results persists trial records as CSV, one file per session.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lionking1994/moodsart/internal/model"
)

// Filename returns the data file name for a session. The participant code
// already embeds a timestamp, but the session start is appended as well so
// a restarted session never overwrites an earlier file.
func Filename(participantCode string, sessionStart time.Time) string {
	return fmt.Sprintf("participant_%s_%s.csv", participantCode, sessionStart.Format("20060102_150405"))
}

// Writer appends trial records to a session's CSV file. Every Append is
// flushed to the OS so a crash mid-session loses at most the record being
// written.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	csv  *csv.Writer
	path string
	rows int
}

// NewWriter creates the data file under dataDir, writing the header row.
// The directory is created if it does not exist.
func NewWriter(dataDir, participantCode string, sessionStart time.Time) (*Writer, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dataDir, Filename(participantCode, sessionStart))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create data file: %w", err)
	}

	w := &Writer{file: f, csv: csv.NewWriter(f), path: path}
	if err := w.csv.Write(model.RecordHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush header: %w", err)
	}
	return w, nil
}

// Open reopens an existing data file for appending, for session resume.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	return &Writer{file: f, csv: csv.NewWriter(f), path: path}, nil
}

// Path returns the location of the data file.
func (w *Writer) Path() string {
	return w.path
}

// Rows returns the number of records appended through this writer. The
// header row is not counted.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Append validates the record and writes it as one CSV row.
func (w *Writer) Append(rec *model.TrialRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("writer is closed")
	}
	if err := w.csv.Write(rec.Row()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync data file: %w", err)
	}
	w.rows++
	return nil
}

// Close flushes and closes the data file. Appends after Close fail.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return fmt.Errorf("flush data file: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close data file: %w", closeErr)
	}
	return nil
}
