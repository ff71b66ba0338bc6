package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.StaleQuestionDays != 7 {
		t.Errorf("StaleQuestionDays = %d, want 7", cfg.StaleQuestionDays)
	}
	if cfg.ThrottleSeconds != 30 {
		t.Errorf("ThrottleSeconds = %d, want 30", cfg.ThrottleSeconds)
	}
	if cfg.IndexMaxHashes != 1000 {
		t.Errorf("IndexMaxHashes = %d, want 1000", cfg.IndexMaxHashes)
	}
	if cfg.HistoryMaxEntries != 100 {
		t.Errorf("HistoryMaxEntries = %d, want 100", cfg.HistoryMaxEntries)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Should return defaults
	if cfg.StaleQuestionDays != 7 {
		t.Errorf("StaleQuestionDays = %d, want default 7", cfg.StaleQuestionDays)
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{"throttle_seconds": 60}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ThrottleSeconds != 60 {
		t.Errorf("ThrottleSeconds = %d, want 60", cfg.ThrottleSeconds)
	}
	// Everything else falls back to defaults
	if cfg.StaleQuestionDays != 7 {
		t.Errorf("StaleQuestionDays = %d, want default 7", cfg.StaleQuestionDays)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{not json`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestLoadWithProject_ProjectWins(t *testing.T) {
	globalDir := t.TempDir()
	projectDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(`{"recent_days": 5, "throttle_seconds": 45}`), 0644); err != nil {
		t.Fatalf("write global config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "config.json"), []byte(`{"recent_days": 10}`), 0644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, err := LoadWithProject(globalDir, projectDir)
	if err != nil {
		t.Fatalf("LoadWithProject failed: %v", err)
	}

	if cfg.RecentDays != 10 {
		t.Errorf("RecentDays = %d, want project value 10", cfg.RecentDays)
	}
	if cfg.ThrottleSeconds != 45 {
		t.Errorf("ThrottleSeconds = %d, want global value 45", cfg.ThrottleSeconds)
	}
	if cfg.MaxRecentPrompts != 15 {
		t.Errorf("MaxRecentPrompts = %d, want default 15", cfg.MaxRecentPrompts)
	}
}

func TestMerge_ZeroOverlayKeepsBase(t *testing.T) {
	base := DefaultConfig()
	merged := Merge(base, &Config{})

	if *merged != *base {
		t.Errorf("Merge with zero overlay = %+v, want %+v", merged, base)
	}
}
