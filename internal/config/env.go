package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Env holds environment overrides for guard file locations and tuning.
// Unset paths fall back to the ~/.claude layout.
type Env struct {
	// MarkerDir holds notification markers and activity sentinels.
	MarkerDir string `env:"GUARD_DIR"`
	// StatePath is where the session-state snapshot is written.
	StatePath string `env:"GUARD_STATE_PATH"`
	// LedgerPath is the session log location.
	LedgerPath string `env:"GUARD_LOG_PATH"`
	// OrphanHours is the staleness threshold for orphan reconciliation.
	OrphanHours int `env:"GUARD_ORPHAN_HOURS" envDefault:"4"`
}

// LoadEnv parses environment overrides and fills defaults. It never
// fails: bad values leave the defaults in place.
func LoadEnv() Env {
	e := Env{OrphanHours: 4}
	if err := env.Parse(&e); err != nil {
		e = Env{OrphanHours: 4}
	}
	if e.OrphanHours <= 0 {
		e.OrphanHours = 4
	}

	base := ""
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".claude")
	}
	if e.MarkerDir == "" {
		e.MarkerDir = filepath.Join(base, "human-guard")
	}
	if e.StatePath == "" {
		e.StatePath = filepath.Join(base, "session-state.json")
	}
	if e.LedgerPath == "" {
		e.LedgerPath = filepath.Join(base, "session-log.json")
	}
	return e
}
