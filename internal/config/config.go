package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds Ninho tunables.
type Config struct {
	// StaleQuestionDays is the age in days after which an open question
	// is flagged as stale.
	StaleQuestionDays int `json:"stale_question_days"`

	// ThrottleSeconds is the minimum gap between Stop-hook PRD updates.
	ThrottleSeconds int `json:"throttle_seconds"`

	// RecentDays is how many days back session-start context looks for
	// learnings and prompt summaries.
	RecentDays int `json:"recent_days"`

	// MaxRecentPrompts caps the recent-conversation entries injected at
	// session start.
	MaxRecentPrompts int `json:"max_recent_prompts"`

	// MaxFullPRDs caps how many PRDs are injected with full content.
	MaxFullPRDs int `json:"max_full_prds"`

	// MaxFullPRDChars caps one PRD's injected content (~4 chars/token).
	MaxFullPRDChars int `json:"max_full_prd_chars"`

	// FullPRDBudget is the combined character budget for full PRD injection.
	FullPRDBudget int `json:"full_prd_budget"`

	// MaxWeeklySummaryChars caps the injected latest weekly summary.
	MaxWeeklySummaryChars int `json:"max_weekly_summary_chars"`

	// IndexMaxHashes caps each dedupe index, oldest evicted first.
	IndexMaxHashes int `json:"index_max_hashes"`

	// HistoryMaxEntries caps the summary generation history log.
	HistoryMaxEntries int `json:"history_max_entries"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StaleQuestionDays:     7,
		ThrottleSeconds:       30,
		RecentDays:            3,
		MaxRecentPrompts:      15,
		MaxFullPRDs:           3,
		MaxFullPRDChars:       2000,
		FullPRDBudget:         6400,
		MaxWeeklySummaryChars: 800,
		IndexMaxHashes:        1000,
		HistoryMaxEntries:     100,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.ninho.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithProject loads configuration from both the global (~/.ninho) and
// project (.ninho) directories. Project config takes precedence for any
// non-zero value. Either or both files may be missing.
func LoadWithProject(globalDir, projectNinhoDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}
	project, err := loadFileRaw(filepath.Join(projectNinhoDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(Merge(DefaultConfig(), global), project), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs. Overlay values take precedence
// when non-zero.
func Merge(base, overlay *Config) *Config {
	result := *overlay

	pick := func(dst *int, fallback int) {
		if *dst == 0 {
			*dst = fallback
		}
	}

	pick(&result.StaleQuestionDays, base.StaleQuestionDays)
	pick(&result.ThrottleSeconds, base.ThrottleSeconds)
	pick(&result.RecentDays, base.RecentDays)
	pick(&result.MaxRecentPrompts, base.MaxRecentPrompts)
	pick(&result.MaxFullPRDs, base.MaxFullPRDs)
	pick(&result.MaxFullPRDChars, base.MaxFullPRDChars)
	pick(&result.FullPRDBudget, base.FullPRDBudget)
	pick(&result.MaxWeeklySummaryChars, base.MaxWeeklySummaryChars)
	pick(&result.IndexMaxHashes, base.IndexMaxHashes)
	pick(&result.HistoryMaxEntries, base.HistoryMaxEntries)

	return &result
}
