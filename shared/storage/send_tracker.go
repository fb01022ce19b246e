package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// SendTracker persists the id of the last image that was delivered.
//
// The marker is a plain text file holding only the id; its modification time
// is the recency signal. WasAlreadySent never writes; MarkSent is the only
// mutator and should be called after the transport acknowledged the send.
type SendTracker struct {
	filePath string
	lastID   string
	lastMark time.Time
	mu       sync.RWMutex
}

// NewSendTracker creates the data directory if needed and reads the marker once
func NewSendTracker(dataDir, fileName string) (*SendTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &SendTracker{
		filePath: filepath.Join(dataDir, fileName),
	}

	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load send marker: %w", err)
	}

	return tracker, nil
}

// WasAlreadySent reports whether id matches the last persisted id
func (st *SendTracker) WasAlreadySent(id string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.lastID != "" && st.lastID == id
}

// MarkSent replaces the marker with id
func (st *SendTracker) MarkSent(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.save(id); err != nil {
		return err
	}

	info, err := os.Stat(st.filePath)
	if err != nil {
		return fmt.Errorf("failed to stat marker: %w", err)
	}
	st.lastID = id
	st.lastMark = info.ModTime()
	return nil
}

// TimeSinceLastMark returns the age of the marker. Without a marker the
// age is measured from the Unix epoch.
func (st *SendTracker) TimeSinceLastMark() time.Duration {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if st.lastMark.IsZero() {
		return time.Since(time.Unix(0, 0))
	}
	return time.Since(st.lastMark)
}

// LastSent returns the persisted id, empty when nothing was sent yet
func (st *SendTracker) LastSent() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.lastID
}

func (st *SendTracker) load() error {
	info, err := os.Stat(st.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing sent yet
			return nil
		}
		return fmt.Errorf("failed to stat marker file: %w", err)
	}

	data, err := os.ReadFile(st.filePath)
	if err != nil {
		return fmt.Errorf("failed to read marker file: %w", err)
	}

	st.lastID = strings.TrimSpace(string(data))
	st.lastMark = info.ModTime()
	return nil
}

// save writes to a sibling temp file and renames it over the marker so a
// reader never sees a partial id
func (st *SendTracker) save(id string) error {
	tmp, err := os.CreateTemp(filepath.Dir(st.filePath), ".marker-*")
	if err != nil {
		return fmt.Errorf("failed to create temp marker: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(id); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close marker: %w", err)
	}

	if err := os.Rename(tmpName, st.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace marker: %w", err)
	}
	return nil
}
