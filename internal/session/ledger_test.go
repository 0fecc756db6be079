package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noon = time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)

func tempLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(filepath.Join(t.TempDir(), "session-log.json"))
}

func TestLoadMissingFile(t *testing.T) {
	l := tempLedger(t)
	assert.Empty(t, l.Load().Sessions)
}

func TestLoadCorruptFile(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, os.WriteFile(l.Path(), []byte("{not json"), 0644))
	assert.Empty(t, l.Load().Sessions)

	require.NoError(t, os.WriteFile(l.Path(), []byte(`{"sessions": "oops"}`), 0644))
	assert.Empty(t, l.Load().Sessions)
}

func TestOpenCreatesEntry(t *testing.T) {
	l := tempLedger(t)

	id, err := l.Open("/home/javi/project", false, noon)
	require.NoError(t, err)
	assert.Len(t, id, 8)

	log := l.Load()
	require.Len(t, log.Sessions, 1)
	s := log.Sessions[0]
	assert.Equal(t, id, s.ID)
	assert.Equal(t, "/home/javi/project", s.ProjectDir)
	assert.False(t, s.Forced)
	assert.Nil(t, s.EndTime)

	start, err := ParseStamp(s.StartTime)
	require.NoError(t, err)
	assert.True(t, start.Equal(WallClock(noon)))
}

func TestOpenAppendsAndIDsDiffer(t *testing.T) {
	l := tempLedger(t)

	a, err := l.Open("/p", false, noon)
	require.NoError(t, err)
	b, err := l.Open("/p", true, noon.Add(time.Hour))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	log := l.Load()
	require.Len(t, log.Sessions, 2)
	assert.True(t, log.Sessions[1].Forced)
}

func TestCloseSetsEndAndActivity(t *testing.T) {
	l := tempLedger(t)
	id, err := l.Open("/p", false, noon)
	require.NoError(t, err)

	work := 42
	require.NoError(t, l.Close(id, noon.Add(30*time.Minute), "2026-02-22T12:25:00+00:00", &work))

	s := l.Load().Sessions[0]
	require.NotNil(t, s.EndTime)
	end, err := ParseStamp(*s.EndTime)
	require.NoError(t, err)
	assert.True(t, end.Equal(WallClock(noon.Add(30*time.Minute))))
	assert.Equal(t, "2026-02-22T12:25:00+00:00", s.LastActivity)
	require.NotNil(t, s.WorkSinceBreak)
	assert.Equal(t, 42, *s.WorkSinceBreak)
}

func TestCloseDefaultsActivityToEnd(t *testing.T) {
	l := tempLedger(t)
	id, err := l.Open("/p", false, noon)
	require.NoError(t, err)

	require.NoError(t, l.Close(id, noon.Add(time.Hour), "  ", nil))

	s := l.Load().Sessions[0]
	require.NotNil(t, s.EndTime)
	assert.Equal(t, *s.EndTime, s.LastActivity)
	assert.Nil(t, s.WorkSinceBreak)
}

func TestCloseUnknownIDIsNoop(t *testing.T) {
	l := tempLedger(t)
	_, err := l.Open("/p", false, noon)
	require.NoError(t, err)

	require.NoError(t, l.Close("deadbeef", noon.Add(time.Hour), "", nil))
	assert.Nil(t, l.Load().Sessions[0].EndTime)
}

func TestCloseTwiceKeepsFirstEnd(t *testing.T) {
	l := tempLedger(t)
	id, err := l.Open("/p", false, noon)
	require.NoError(t, err)

	require.NoError(t, l.Close(id, noon.Add(time.Hour), "", nil))
	first := *l.Load().Sessions[0].EndTime

	require.NoError(t, l.Close(id, noon.Add(2*time.Hour), "", nil))
	assert.Equal(t, first, *l.Load().Sessions[0].EndTime)
}

func TestReconcileClosesStaleOpenSessions(t *testing.T) {
	l := tempLedger(t)
	stale, err := l.Open("/p", false, noon.Add(-5*time.Hour))
	require.NoError(t, err)
	fresh, err := l.Open("/p", false, noon.Add(-time.Hour))
	require.NoError(t, err)

	closed, err := l.Reconcile(noon, 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{stale}, closed)

	log := l.Load()
	for _, s := range log.Sessions {
		switch s.ID {
		case stale:
			require.NotNil(t, s.EndTime)
			// Conservative: the orphan is closed at its own start.
			assert.Equal(t, s.StartTime, *s.EndTime)
		case fresh:
			assert.Nil(t, s.EndTime)
		}
	}
}

func TestReconcileLeavesClosedAlone(t *testing.T) {
	l := tempLedger(t)
	id, err := l.Open("/p", false, noon.Add(-10*time.Hour))
	require.NoError(t, err)
	require.NoError(t, l.Close(id, noon.Add(-9*time.Hour), "", nil))

	closed, err := l.Reconcile(noon, 4*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, closed)
}

func TestReconcileUnparseableStart(t *testing.T) {
	l := tempLedger(t)
	log := Log{Sessions: []Entry{
		{ID: "bad1", StartTime: "not-a-timestamp"},
		{ID: "bad2", StartTime: ""},
	}}
	data, err := json.Marshal(log)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(l.Path()), 0755))
	require.NoError(t, os.WriteFile(l.Path(), data, 0644))

	closed, err := l.Reconcile(noon, 4*time.Hour)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bad1", "bad2"}, closed)

	for _, s := range l.Load().Sessions {
		require.NotNil(t, s.EndTime, "session %s", s.ID)
	}
}

func TestParseStampShapes(t *testing.T) {
	for _, in := range []string{
		"2026-02-22T12:00:00+00:00",
		"2026-02-22T12:00:00-05:00",
		"2026-02-22T12:00:00Z",
		"2026-02-22T12:00:00",
		"2026-02-22T12:00:00.123456",
		" 2026-02-22T12:00:00 ",
	} {
		got, err := ParseStamp(in)
		require.NoError(t, err, "input %q", in)
		// Offsets are recorded but ignored: every shape above reads
		// noon on the wall clock.
		assert.Equal(t, 12, got.Hour(), "input %q", in)
		assert.Equal(t, 22, got.Day(), "input %q", in)
	}

	_, err := ParseStamp("yesterday")
	assert.Error(t, err)
	_, err = ParseStamp("")
	assert.Error(t, err)
}

func TestWallClockStripsOffset(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	at := time.Date(2026, 2, 22, 9, 30, 0, 0, est)

	w := WallClock(at)
	assert.Equal(t, 9, w.Hour())
	assert.Equal(t, 30, w.Minute())
	assert.Equal(t, time.UTC, w.Location())
}

func TestLedgerFileIsIndentedJSON(t *testing.T) {
	l := tempLedger(t)
	_, err := l.Open("/p", false, noon)
	require.NoError(t, err)

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"sessions\"")

	var log Log
	require.NoError(t, json.Unmarshal(data, &log))
	assert.Len(t, log.Sessions, 1)
}
