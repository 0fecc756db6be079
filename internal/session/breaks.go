package session

import "time"

// BreakResult reports whether work may proceed and, if not, how many
// whole minutes of break remain.
type BreakResult struct {
	OK          bool
	MinutesLeft int
}

// CheckBreak decides whether the operator is owed a break right now.
//
// An open, non-stale, non-future entry means another terminal is
// actively working; that terminal's session will enforce its own limit,
// so this one does not demand a break. Stale open entries (abandoned
// sessions) do not get that benefit.
//
// Closed entries are walked newest-first, accumulating work since the
// last real break. An entry contributes its recorded work_since_break
// when present (idle gaps inside a long-open session already deducted),
// otherwise its wall-clock duration. A gap of at least minBreak minutes
// between consecutive sessions is a real break and stops the walk.
// Entries whose contribution is under minBreak minutes are trivial: they
// neither count as work nor as rest, but they still chain gaps.
//
// A break is owed only once cumulative work reaches maxContinuous
// minutes and the time since the last interaction is still under
// minBreak. Malformed timestamps disqualify only their own entry.
func CheckBreak(log Log, minBreak, maxContinuous int, now time.Time, staleAfter time.Duration) BreakResult {
	ok := BreakResult{OK: true}
	if len(log.Sessions) == 0 {
		return ok
	}
	nowWall := WallClock(now)

	for _, s := range log.Sessions {
		if s.EndTime != nil || s.StartTime == "" {
			continue
		}
		start, err := ParseStamp(s.StartTime)
		if err != nil {
			continue
		}
		age := nowWall.Sub(start)
		if age >= 0 && age < staleAfter {
			return ok
		}
	}

	var (
		cumulative      float64
		lastInteraction time.Time
		prevStart       time.Time // start of the chronologically later session
	)

	for i := len(log.Sessions) - 1; i >= 0; i-- {
		s := log.Sessions[i]
		if s.EndTime == nil || *s.EndTime == "" || s.StartTime == "" {
			continue
		}
		end, err := ParseStamp(*s.EndTime)
		if err != nil {
			continue
		}
		start, err := ParseStamp(s.StartTime)
		if err != nil {
			continue
		}

		interaction := end
		if s.LastActivity != "" {
			if t, err := ParseStamp(s.LastActivity); err == nil {
				interaction = t
			}
		}

		if !prevStart.IsZero() {
			gap := prevStart.Sub(interaction).Minutes()
			if gap >= float64(minBreak) {
				break // real break found
			}
		}

		duration := end.Sub(start).Minutes()
		if s.WorkSinceBreak != nil {
			duration = float64(*s.WorkSinceBreak)
		}
		if duration < float64(minBreak) {
			// Trivial sessions still interrupt gap chaining.
			prevStart = start
			continue
		}

		cumulative += duration
		if lastInteraction.IsZero() {
			lastInteraction = interaction
		}
		prevStart = start
	}

	if lastInteraction.IsZero() {
		return ok
	}
	if cumulative < float64(maxContinuous) {
		return ok
	}

	elapsed := nowWall.Sub(lastInteraction).Minutes()
	if elapsed >= float64(minBreak) {
		return ok
	}
	return BreakResult{OK: false, MinutesLeft: int(float64(minBreak) - elapsed)}
}
