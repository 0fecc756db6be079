// Package schedule classifies instants against a policy's recurring
// daily rules and projects those rules onto absolute epochs.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/humanmd/guard/internal/config"
)

// minutesPerDay is the length of the wall-clock minute axis.
const minutesPerDay = 24 * 60

// Status is the evaluation outcome for an instant.
type Status string

const (
	StatusOK       Status = "ok"
	StatusBlocked  Status = "blocked"
	StatusWindDown Status = "wind_down"
)

// Reason tags why an instant is blocked.
type Reason string

const (
	ReasonOutsideHours  Reason = "outside_hours"
	ReasonBlockedDay    Reason = "blocked_day"
	ReasonBlockedPeriod Reason = "blocked_period"
)

// Result is a schedule classification. PeriodName is set only for
// blocked_period.
type Result struct {
	Status     Status
	Reason     Reason
	PeriodName string
}

// LoadZone resolves an IANA zone name, falling back to UTC for empty or
// unrecognized names rather than failing the check.
func LoadZone(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	if hours < 0 || hours > 23 || mins < 0 || mins > 59 {
		return 0, false
	}
	return hours*60 + mins, true
}

// clockOrDefault parses a clock string, substituting fallback minutes
// when the string is unusable.
func clockOrDefault(s string, fallback int) int {
	if m, ok := parseClock(s); ok {
		return m
	}
	return fallback
}

// inWindow reports half-open membership of now on the 24h minute axis.
// When end < start the window wraps midnight.
func inWindow(now, start, end int) bool {
	if start < end {
		return now >= start && now < end
	}
	return now >= start || now < end
}

// Evaluate classifies now against the policy's daily rules. It is a pure
// function; now must already be expressed in the policy's timezone.
//
// Precedence: blocked day, then allowed hours, then blocked periods in
// declaration order, then wind-down.
func Evaluate(p *config.Policy, now time.Time) Result {
	sched := p.Schedule
	nowMinutes := now.Hour()*60 + now.Minute()

	weekday := now.Weekday().String()
	for _, day := range sched.BlockedDays {
		if strings.EqualFold(strings.TrimSpace(day), weekday) {
			return Result{Status: StatusBlocked, Reason: ReasonBlockedDay}
		}
	}

	start := clockOrDefault(sched.AllowedHours.Start, 0)
	end := clockOrDefault(sched.AllowedHours.End, 23*60+59)
	if end == 0 {
		// end=00:00 denotes the day boundary, not start of today
		end = minutesPerDay
	}
	if !inWindow(nowMinutes, start, end) {
		return Result{Status: StatusBlocked, Reason: ReasonOutsideHours}
	}

	for _, bp := range sched.BlockedPeriods {
		bpStart, okStart := parseClock(bp.Start)
		bpEnd, okEnd := parseClock(bp.End)
		if !okStart || !okEnd {
			continue
		}
		if inWindow(nowMinutes, bpStart, bpEnd) {
			name := bp.Name
			if name == "" {
				name = "unknown"
			}
			return Result{Status: StatusBlocked, Reason: ReasonBlockedPeriod, PeriodName: name}
		}
	}

	if sched.WindDown != nil {
		if wdStart, ok := parseClock(sched.WindDown.Start); ok {
			// Membership runs to the effective window end, wrapping when
			// the wind-down sits on the evening side of an overnight window.
			if inWindow(nowMinutes, wdStart, end%minutesPerDay) {
				return Result{Status: StatusWindDown}
			}
		}
	}

	return Result{Status: StatusOK}
}
