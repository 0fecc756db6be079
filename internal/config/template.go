package config

// DefaultPolicyYAML returns a commented starter human.md for `init`.
func DefaultPolicyYAML() string {
	return `# human.md — working-hours and session policy
# Generated by: human-guard init
#
# The guard only enforces files that declare "framework: human-md".
# Delete this file (or the marker) to disable enforcement entirely.

version: "1.1"
framework: human-md

operator:
  name: "you"
  timezone: "UTC"   # IANA zone name; unknown zones fall back to UTC

schedule:
  allowed_hours:
    start: "09:00"
    end: "00:00"    # 00:00 means end of day; end < start wraps midnight
  # blocked_days:
  #   - Sunday
  blocked_periods:
    - name: "family"
      start: "18:00"
      end: "21:00"
  wind_down:
    start: "23:30"  # warn-only tail of the allowed window

sessions:
  max_continuous_minutes: 150
  min_break_minutes: 15

# soft blocks, advisory only warns
enforcement: soft

messages:
  outside_hours: >
    Outside working hours.
  blocked_period: >
    This time is reserved.
  wind_down: >
    Start wrapping up.
  session_limit: >
    You have been at it long enough.
  break_reminder: >
    Time to step away for a bit.
`
}
