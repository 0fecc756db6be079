package schedule

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/humanmd/guard/internal/config"
)

const secondsPerDay = 86400

// BlockedPeriodEpoch is one blocked period resolved to absolute time.
type BlockedPeriodEpoch struct {
	Name       string `json:"name"`
	StartEpoch int64  `json:"start_epoch"`
	EndEpoch   int64  `json:"end_epoch"`
}

// SnapshotMessages carries the one-shot message templates into the
// snapshot so the mid-session checker never re-reads the policy.
type SnapshotMessages struct {
	SessionLimit  string `json:"session_limit"`
	WindDown      string `json:"wind_down"`
	BlockedPeriod string `json:"blocked_period"`
	BreakReminder string `json:"break_reminder"`
	OutsideHours  string `json:"outside_hours"`
}

// Snapshot is the flat, timezone-agnostic projection of the policy for
// "right now". The mid-session checker consumes it with nothing but
// epoch-vs-epoch comparisons; all timezone and wraparound reasoning
// happens here, once, at check time.
type Snapshot struct {
	SessionID       string               `json:"session_id"`
	StartEpoch      int64                `json:"start_epoch"`
	MaxEpoch        int64                `json:"max_epoch"`
	WarnEpoch       int64                `json:"warn_epoch"`
	WindDownEpoch   int64                `json:"wind_down_epoch"`
	EndAllowedEpoch int64                `json:"end_allowed_epoch"`
	BlockedPeriods  []BlockedPeriodEpoch `json:"blocked_periods"`
	Enforcement     string               `json:"enforcement"`
	MinBreakSeconds int                  `json:"min_break_seconds"`
	Messages        SnapshotMessages     `json:"messages"`
}

// newSnapshotID returns a short random identifier.
func newSnapshotID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}

// epochAt converts a wall-clock minute of today (today as seen in loc at
// the instant now) to an absolute epoch. time.Date applies the zone's
// UTC offset for that specific date, so DST transitions resolve
// correctly.
func epochAt(minutes int, now time.Time, loc *time.Location) int64 {
	local := now.In(loc)
	year, month, day := local.Date()
	return time.Date(year, month, day, minutes/60, minutes%60, 0, 0, loc).Unix()
}

// Compile projects the policy's daily rules onto absolute epochs
// anchored to the instant now.
func Compile(p *config.Policy, now time.Time, loc *time.Location) *Snapshot {
	sched := p.Schedule
	nowEpoch := now.Unix()

	maxSeconds := int64(p.Sessions.MaxContinuousMinutes) * 60

	startMinutes := clockOrDefault(sched.AllowedHours.Start, 0)
	endMinutes := clockOrDefault(sched.AllowedHours.End, 23*60+59)

	local := now.In(loc)
	nowMinutes := local.Hour()*60 + local.Minute()

	// Wind-down anchoring must account for which side of an overnight
	// window it falls on relative to the instant.
	var windDownEpoch int64
	if sched.WindDown != nil {
		if wdMinutes, ok := parseClock(sched.WindDown.Start); ok {
			windDownEpoch = epochAt(wdMinutes, now, loc)
			if endMinutes != 0 && endMinutes < startMinutes {
				if wdMinutes >= startMinutes {
					// Evening side: already past if we are post-midnight.
					if nowMinutes < endMinutes {
						windDownEpoch -= secondsPerDay
					}
				} else {
					// Morning side: still ahead if we are pre-midnight.
					if nowMinutes >= startMinutes {
						windDownEpoch += secondsPerDay
					}
				}
			}
		}
	}

	var endEpoch int64
	if endMinutes == 0 {
		// 00:00 denotes the day boundary: tomorrow's midnight.
		endEpoch = epochAt(0, now, loc) + secondsPerDay
	} else {
		endEpoch = epochAt(endMinutes, now, loc)
		if endMinutes < startMinutes && endEpoch <= nowEpoch {
			// Wrapped window whose end already passed today crosses into
			// tomorrow.
			endEpoch += secondsPerDay
		}
	}

	blocked := make([]BlockedPeriodEpoch, 0, len(sched.BlockedPeriods))
	for _, bp := range sched.BlockedPeriods {
		bpStart, okStart := parseClock(bp.Start)
		bpEnd, okEnd := parseClock(bp.End)
		if !okStart || !okEnd {
			continue
		}
		startEpoch := epochAt(bpStart, now, loc)
		bpEndEpoch := epochAt(bpEnd, now, loc)
		if bpEndEpoch <= startEpoch {
			bpEndEpoch += secondsPerDay
		}
		// A future-looking overnight period may have a live instance that
		// began yesterday; membership tests must see that instance.
		if startEpoch > nowEpoch {
			prevStart := startEpoch - secondsPerDay
			prevEnd := bpEndEpoch - secondsPerDay
			if nowEpoch >= prevStart && nowEpoch < prevEnd {
				startEpoch = prevStart
				bpEndEpoch = prevEnd
			}
		}
		name := bp.Name
		if name == "" {
			name = "unknown"
		}
		blocked = append(blocked, BlockedPeriodEpoch{
			Name:       name,
			StartEpoch: startEpoch,
			EndEpoch:   bpEndEpoch,
		})
	}

	return &Snapshot{
		SessionID:       newSnapshotID(),
		StartEpoch:      nowEpoch,
		MaxEpoch:        nowEpoch + maxSeconds,
		WarnEpoch:       nowEpoch + maxSeconds*4/5,
		WindDownEpoch:   windDownEpoch,
		EndAllowedEpoch: endEpoch,
		BlockedPeriods:  blocked,
		Enforcement:     p.Enforcement,
		MinBreakSeconds: p.Sessions.MinBreakMinutes * 60,
		Messages: SnapshotMessages{
			SessionLimit:  p.Message("session_limit"),
			WindDown:      p.Message("wind_down"),
			BlockedPeriod: p.Message("blocked_period"),
			BreakReminder: p.Message("break_reminder"),
			OutsideHours:  p.Message("outside_hours"),
		},
	}
}

// Write persists the snapshot atomically, replacing any previous one.
func (s *Snapshot) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
