// Package session maintains the on-disk session ledger and derives
// break obligations from it.
//
// The ledger is shared by every concurrently running launcher on the
// machine. Writers follow a read-modify-write discipline with atomic
// replacement; a last-writer-wins race between terminals is an accepted
// trade-off, and every read degrades gracefully (a corrupt file is an
// empty ledger, a malformed entry is an invisible one).
package session

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one bracketed work session. Timestamps are stored as strings
// so a single malformed stamp never poisons the rest of the file.
type Entry struct {
	ID             string  `json:"id"`
	StartTime      string  `json:"start_time"`
	EndTime        *string `json:"end_time"`
	ProjectDir     string  `json:"project_dir"`
	Forced         bool    `json:"forced"`
	LastActivity   string  `json:"last_activity,omitempty"`
	WorkSinceBreak *int    `json:"work_since_break,omitempty"`
}

// Log is the ledger file contents.
type Log struct {
	Sessions []Entry `json:"sessions"`
}

// Ledger is a file-backed session log.
type Ledger struct {
	path string
	mu   sync.Mutex
}

// NewLedger returns a Ledger stored at path. The file is created lazily
// on first write.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// newSessionID returns a short random session identifier.
func newSessionID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}

// Load reads the ledger, treating a missing, unreadable, or corrupt
// file as empty.
func (l *Ledger) Load() Log {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *Ledger) load() Log {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Log{}
	}
	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return Log{}
	}
	return log
}

func (l *Ledger) save(log Log) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}

// Open appends a new open entry and returns its identifier.
func (l *Ledger) Open(projectDir string, forced bool, now time.Time) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	log := l.load()
	id := newSessionID()
	log.Sessions = append(log.Sessions, Entry{
		ID:         id,
		StartTime:  formatStamp(now),
		ProjectDir: projectDir,
		Forced:     forced,
	})
	if err := l.save(log); err != nil {
		return "", err
	}
	return id, nil
}

// Close sets the end timestamp of the still-open entry with the given
// id. Closing an absent or already-closed session is a no-op, not an
// error. lastActivity falls back to the end stamp when empty;
// workSinceBreak is recorded only when non-nil.
func (l *Ledger) Close(id string, now time.Time, lastActivity string, workSinceBreak *int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	log := l.load()
	for i := range log.Sessions {
		s := &log.Sessions[i]
		if s.ID != id || s.EndTime != nil {
			continue
		}
		end := formatStamp(now)
		s.EndTime = &end
		if strings.TrimSpace(lastActivity) != "" {
			s.LastActivity = strings.TrimSpace(lastActivity)
		} else {
			s.LastActivity = end
		}
		if workSinceBreak != nil {
			s.WorkSinceBreak = workSinceBreak
		}
		break
	}
	return l.save(log)
}

// Reconcile force-closes open entries whose start is older than
// threshold, using their own start time as a conservative end time.
// Entries whose start fails to parse are force-closed too. Returns the
// ids of the sessions it closed so callers can clean their markers.
func (l *Ledger) Reconcile(now time.Time, threshold time.Duration) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	nowWall := WallClock(now)
	log := l.load()
	var closed []string
	for i := range log.Sessions {
		s := &log.Sessions[i]
		if s.EndTime != nil {
			continue
		}
		start, err := ParseStamp(s.StartTime)
		if err != nil {
			// Unparseable start: close it where it stands.
			end := s.StartTime
			if end == "" {
				end = formatStamp(now)
			}
			s.EndTime = &end
			if s.ID != "" {
				closed = append(closed, s.ID)
			}
			continue
		}
		if nowWall.Sub(start) > threshold {
			end := s.StartTime
			s.EndTime = &end
			closed = append(closed, s.ID)
		}
	}
	if err := l.save(log); err != nil {
		return closed, err
	}
	return closed, nil
}

// formatStamp renders a timestamp with the local offset, mirroring the
// ledger's established wire format.
func formatStamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-07:00")
}

// stampLayouts are accepted ledger timestamp shapes, offset-bearing
// first. Fractional seconds are accepted by the parser for both.
var stampLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05",
}

// ParseStamp parses a ledger timestamp tolerantly and normalizes it to
// its own wall-clock reading (offsets are recorded but comparisons are
// wall-clock, matching how entries from different machines and DST
// regimes are reconciled).
func ParseStamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "Z") {
		s = s[:len(s)-1] + "+00:00"
	}
	var t time.Time
	var err error
	for _, layout := range stampLayouts {
		t, err = time.Parse(layout, s)
		if err == nil {
			return WallClock(t), nil
		}
	}
	return time.Time{}, err
}

// WallClock strips the offset, keeping the literal clock reading.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
