// Package config loads and validates human.md policy files.
//
// A policy is either fully present or absent: anything that fails to
// read, parse, or carry the framework marker is treated as "no policy",
// never as a partially enforced one.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrameworkMarker is the required top-level marker for a valid policy.
const FrameworkMarker = "human-md"

// Defaults applied to accepted policies with missing fields.
const (
	DefaultStart                = "00:00"
	DefaultEnd                  = "23:59"
	DefaultMaxContinuousMinutes = 150
	DefaultMinBreakMinutes      = 15
	DefaultEnforcement          = "soft"
	DefaultTimezone             = "UTC"
)

// Operator identifies the human the policy protects.
type Operator struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// Window is a daily wall-clock interval. End may be numerically before
// Start, which denotes a window wrapping midnight.
type Window struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Period is a named blocked sub-interval inside the allowed window.
type Period struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// WindDown marks the start of the warn-only tail of the allowed window.
type WindDown struct {
	Start string `yaml:"start"`
}

// Schedule holds the recurring daily rules.
type Schedule struct {
	AllowedHours   Window    `yaml:"allowed_hours"`
	BlockedDays    []string  `yaml:"blocked_days"`
	BlockedPeriods []Period  `yaml:"blocked_periods"`
	WindDown       *WindDown `yaml:"wind_down"`
}

// Sessions holds session and break limits.
type Sessions struct {
	MaxContinuousMinutes int `yaml:"max_continuous_minutes"`
	MinBreakMinutes      int `yaml:"min_break_minutes"`
}

// Policy is a validated human.md configuration.
type Policy struct {
	Version     string            `yaml:"version"`
	Framework   string            `yaml:"framework"`
	Operator    Operator          `yaml:"operator"`
	Schedule    Schedule          `yaml:"schedule"`
	Sessions    Sessions          `yaml:"sessions"`
	Enforcement string            `yaml:"enforcement"`
	Messages    map[string]string `yaml:"messages"`
}

// Message returns the trimmed message template for an event kind, or ""
// if none is configured.
func (p *Policy) Message(kind string) string {
	if p == nil || p.Messages == nil {
		return ""
	}
	return strings.TrimSpace(p.Messages[kind])
}

// Parse decodes raw human.md text into a Policy. Returns nil on empty
// input, malformed YAML, or a document without the framework marker.
// It never returns an error: an unusable policy is an absent policy.
func Parse(raw []byte) *Policy {
	text := normalize(string(raw))
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var p Policy
	if err := yaml.Unmarshal([]byte(text), &p); err != nil {
		return nil
	}
	if p.Framework != FrameworkMarker {
		return nil
	}

	p.applyDefaults()
	return &p
}

// Load returns the first path whose contents parse to an accepted
// policy, probing in order. Unreadable or invalid candidates are
// skipped. Returns nil when no candidate qualifies.
func Load(paths []string) *Policy {
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if p := Parse(raw); p != nil {
			return p
		}
	}
	return nil
}

// SearchPaths returns candidate human.md locations, closest scope first:
// current directory, repository root, then the global ~/.claude copy.
func SearchPaths() []string {
	paths := []string{"human.md"}

	if root := findRepoRoot(); root != "" {
		if cwd, err := os.Getwd(); err != nil || root != cwd {
			paths = append(paths, filepath.Join(root, "human.md"))
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".claude", "human.md"))
	}
	return paths
}

// findRepoRoot walks up from the working directory looking for .git.
// Returns "" when not inside a repository.
func findRepoRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// normalize prepares raw text for YAML decoding: line endings become \n
// and tabs become two spaces (human.md files are edited by hand and tabs
// would otherwise reject the whole document).
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.ReplaceAll(text, "\t", "  ")
}

func (p *Policy) applyDefaults() {
	if p.Operator.Timezone == "" {
		p.Operator.Timezone = DefaultTimezone
	}
	if p.Schedule.AllowedHours.Start == "" {
		p.Schedule.AllowedHours.Start = DefaultStart
	}
	if p.Schedule.AllowedHours.End == "" {
		p.Schedule.AllowedHours.End = DefaultEnd
	}
	if p.Sessions.MaxContinuousMinutes <= 0 {
		p.Sessions.MaxContinuousMinutes = DefaultMaxContinuousMinutes
	}
	if p.Sessions.MinBreakMinutes <= 0 {
		p.Sessions.MinBreakMinutes = DefaultMinBreakMinutes
	}
	if p.Enforcement == "" {
		p.Enforcement = DefaultEnforcement
	}
}
