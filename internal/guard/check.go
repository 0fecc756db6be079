// Package guard wires config ingestion, schedule evaluation, the
// session ledger, and notification markers into the check and
// session-bracketing operations the launcher calls.
//
// Nothing in this package surfaces a hard failure: every broken or
// ambiguous internal state resolves toward "allow". An enforcement
// layer whose own failure mode blocked the operator would be worse
// than no enforcement at all.
package guard

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/humanmd/guard/internal/config"
	"github.com/humanmd/guard/internal/notify"
	"github.com/humanmd/guard/internal/schedule"
	"github.com/humanmd/guard/internal/session"
)

// Outcome is the externally visible result of a check.
type Outcome int

const (
	// Proceed means work may start (includes advisory-mode warnings).
	Proceed Outcome = iota
	// Blocked means work must not start.
	Blocked
	// WindDown means work may proceed but should be wrapped up.
	WindDown
)

// ExitCode maps an outcome to the process exit code contract consumed
// by the launcher: 0 proceed, 1 blocked, 2 wind-down.
func (o Outcome) ExitCode() int { return int(o) }

// EnforcementAdvisory downgrades every block to a warning.
const EnforcementAdvisory = "advisory"

// Options parameterizes a check invocation. Zero values fall back to
// the environment-derived defaults.
type Options struct {
	ConfigPaths []string
	StatePath   string
	LedgerPath  string
	MarkerDir   string
	Force       bool
	// Now pins the instant for the whole invocation; zero means the
	// current time. The clock is read once, never mid-computation.
	Now time.Time
	// Stderr receives human-readable block and warning messages.
	Stderr io.Writer
}

func (o *Options) fill() {
	env := config.LoadEnv()
	if o.ConfigPaths == nil {
		o.ConfigPaths = config.SearchPaths()
	}
	if o.StatePath == "" {
		o.StatePath = env.StatePath
	}
	if o.LedgerPath == "" {
		o.LedgerPath = env.LedgerPath
	}
	if o.MarkerDir == "" {
		o.MarkerDir = env.MarkerDir
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// OrphanThreshold returns the staleness threshold for orphan
// reconciliation.
func OrphanThreshold() time.Duration {
	return time.Duration(config.LoadEnv().OrphanHours) * time.Hour
}

// Check runs the full pre-session flow: load policy, classify the
// instant, reconcile orphans, enforce breaks, and write a fresh
// session-state snapshot. Force suppresses every blocking outcome but
// still refreshes the snapshot. An absent policy means no enforcement.
func Check(opts Options) Outcome {
	opts.fill()

	policy := config.Load(opts.ConfigPaths)
	if policy == nil {
		return Proceed
	}

	loc := schedule.LoadZone(policy.Operator.Timezone)
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	local := now.In(loc)

	advisory := policy.Enforcement == EnforcementAdvisory
	result := schedule.Evaluate(policy, local)

	writeState := func() {
		_ = schedule.Compile(policy, local, loc).Write(opts.StatePath)
	}

	if result.Status == schedule.StatusBlocked && !opts.Force {
		if msg := policy.Message(string(result.Reason)); msg != "" {
			fmt.Fprintln(opts.Stderr, msg)
		}
		if advisory {
			writeState()
			return Proceed
		}
		return Blocked
	}

	if result.Status == schedule.StatusWindDown && !opts.Force {
		if msg := policy.Message("wind_down"); msg != "" {
			fmt.Fprintln(opts.Stderr, msg)
		}
		// The session may proceed, so it still gets a snapshot.
		writeState()
		return WindDown
	}

	ledger := session.NewLedger(opts.LedgerPath)
	markers := notify.NewStore(opts.MarkerDir)
	threshold := OrphanThreshold()
	if closed, err := ledger.Reconcile(local, threshold); err == nil {
		for _, id := range closed {
			markers.CleanSession(id)
		}
	}

	breakResult := session.CheckBreak(
		ledger.Load(),
		policy.Sessions.MinBreakMinutes,
		policy.Sessions.MaxContinuousMinutes,
		local,
		threshold,
	)
	if !breakResult.OK && !opts.Force {
		fmt.Fprintf(opts.Stderr, "Need %d more minutes of break.\n", breakResult.MinutesLeft)
		if advisory {
			writeState()
			return Proceed
		}
		return Blocked
	}

	writeState()
	return Proceed
}

// StartSession opens a ledger entry for the given project directory and
// returns its identifier.
func StartSession(ledgerPath, projectDir string, forced bool, now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now()
	}
	return session.NewLedger(ledgerPath).Open(projectDir, forced, now)
}

// EndSession closes the ledger entry, folding in the activity and
// work-since-break sentinels, then removes the session's markers.
func EndSession(ledgerPath, markerDir, id string, now time.Time) error {
	if now.IsZero() {
		now = time.Now()
	}
	markers := notify.NewStore(markerDir)

	lastActivity, _ := markers.LastActivity(id)
	var work *int
	if minutes, ok := markers.WorkSinceBreak(id); ok {
		work = &minutes
	}

	err := session.NewLedger(ledgerPath).Close(id, now, lastActivity, work)
	markers.CleanSession(id)
	return err
}

// TouchSession refreshes the session's last-activity sentinel and,
// when workedMinutes is non-negative, its work-since-break sentinel.
func TouchSession(markerDir, id string, workedMinutes int, now time.Time) error {
	if now.IsZero() {
		now = time.Now()
	}
	markers := notify.NewStore(markerDir)
	if err := markers.TouchActivity(id, now); err != nil {
		return err
	}
	if workedMinutes >= 0 {
		return markers.RecordWork(id, workedMinutes)
	}
	return nil
}
