package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/humanmd/guard/internal/config"
	"github.com/humanmd/guard/internal/session"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check guard readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Policy discovery.
	paths := config.SearchPaths()
	policy := config.Load(paths)
	if policy != nil {
		found := ""
		for _, p := range paths {
			if raw, err := os.ReadFile(p); err == nil && config.Parse(raw) != nil {
				found = p
				break
			}
		}
		checks = append(checks, checkResult{
			label:  "policy",
			ok:     true,
			detail: found,
		})
	} else {
		checks = append(checks, checkResult{
			label:  "policy",
			ok:     false,
			detail: "no human.md with framework marker found (guard is inactive)",
			fix:    "human-guard init",
		})
	}

	// 2. Timezone.
	if policy != nil {
		name := policy.Operator.Timezone
		if _, err := time.LoadLocation(name); err == nil {
			checks = append(checks, checkResult{
				label:  "timezone",
				ok:     true,
				detail: name,
			})
		} else {
			checks = append(checks, checkResult{
				label:  "timezone",
				ok:     false,
				detail: fmt.Sprintf("%q is not a known zone, falling back to UTC", name),
				fix:    "set operator.timezone to an IANA zone name",
			})
		}
	}

	env := config.LoadEnv()

	// 3. Ledger health.
	ledger := session.NewLedger(env.LedgerPath)
	if _, err := os.Stat(env.LedgerPath); err == nil {
		log := ledger.Load()
		open := 0
		stale := 0
		threshold := time.Duration(env.OrphanHours) * time.Hour
		for _, s := range log.Sessions {
			if s.EndTime != nil {
				continue
			}
			open++
			if start, err := session.ParseStamp(s.StartTime); err != nil || time.Since(start) > threshold {
				stale++
			}
		}
		detail := fmt.Sprintf("%d sessions, %d open", len(log.Sessions), open)
		result := checkResult{label: "session ledger", ok: true, detail: detail}
		if stale > 0 {
			result.ok = false
			result.detail = fmt.Sprintf("%s (%d orphaned)", detail, stale)
			result.fix = "human-guard check"
		}
		checks = append(checks, result)
	} else {
		checks = append(checks, checkResult{
			label:  "session ledger",
			ok:     true,
			detail: "not created yet",
		})
	}

	// 4. State path writable.
	if dryRunWrite(env.StatePath) {
		checks = append(checks, checkResult{
			label:  "session state",
			ok:     true,
			detail: env.StatePath,
		})
	} else {
		checks = append(checks, checkResult{
			label:  "session state",
			ok:     false,
			detail: fmt.Sprintf("cannot write %s", env.StatePath),
		})
	}

	failed := 0
	for _, c := range checks {
		mark := "ok"
		if !c.ok {
			mark = "FAIL"
			failed++
		}
		fmt.Printf("%-16s [%s] %s\n", c.label, mark, c.detail)
		if c.fix != "" {
			fmt.Printf("%-16s        fix: %s\n", "", c.fix)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

// dryRunWrite reports whether path's parent accepts a write without
// leaving anything behind.
func dryRunWrite(path string) bool {
	probe := path + ".doctor"
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		return false
	}
	os.Remove(probe)
	return true
}
