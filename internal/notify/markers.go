// Package notify manages one-shot notification markers and per-session
// activity sentinels.
//
// A marker records that an informational message has already been
// emitted for a given (event, session) pair. Its creation is the
// concurrency guard: exclusive-create either succeeds for exactly one
// writer or fails, and a failure simply means another invocation won
// the race. Nothing here is ever an error worth blocking work over.
package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store manages marker and sentinel files under a single directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created
// lazily on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the marker directory.
func (s *Store) Dir() string { return s.dir }

// Mark records that the message for event has been emitted for the
// given session. Returns true only for the invocation that created the
// marker; false means it already exists, another writer won the race,
// or the filesystem refused — all equivalent outcomes for a one-shot
// message.
func (s *Store) Mark(event, sessionID string) bool {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return false
	}
	path := filepath.Join(s.dir, fmt.Sprintf(".notified.%s.%s", event, sessionID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// TouchActivity records the session's last interaction time in a
// sentinel file. A separate file avoids racing ledger writes on every
// tool use; the sentinel is folded into the ledger entry at close.
func (s *Store) TouchActivity(sessionID string, now time.Time) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, ".activity."+sessionID)
	stamp := now.Format("2006-01-02T15:04:05-07:00")
	return os.WriteFile(path, []byte(stamp+"\n"), 0644)
}

// LastActivity returns the recorded last-interaction stamp for the
// session, if any.
func (s *Store) LastActivity(sessionID string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, ".activity."+sessionID))
	if err != nil {
		return "", false
	}
	stamp := strings.TrimSpace(string(data))
	return stamp, stamp != ""
}

// RecordWork stores the minutes of work accumulated since the last real
// break, as measured by the mid-session checker.
func (s *Store) RecordWork(sessionID string, minutes int) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, ".work-since-break."+sessionID)
	return os.WriteFile(path, []byte(strconv.Itoa(minutes)+"\n"), 0644)
}

// WorkSinceBreak returns the recorded work minutes for the session, if
// a parseable sentinel exists.
func (s *Store) WorkSinceBreak(sessionID string) (int, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, ".work-since-break."+sessionID))
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return minutes, true
}

// CleanSession removes every marker and sentinel owned by the session.
// Markers written as directories by older versions are removed too.
func (s *Store) CleanSession(sessionID string) {
	if sessionID == "" {
		return
	}
	patterns := []string{
		".notified.*." + sessionID,
		".activity." + sessionID,
		".work-since-break." + sessionID,
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
		if err != nil {
			continue
		}
		for _, m := range matches {
			_ = os.Remove(m)
		}
	}
}
