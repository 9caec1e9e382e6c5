package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("DIGEST_STORE", "")
	t.Setenv("DART_TARGET_MARKETS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Store.Driver != "badger" {
		t.Errorf("Expected store driver to be badger, got %s", cfg.Store.Driver)
	}

	if len(cfg.DART.TargetMarkets) != 2 || cfg.DART.TargetMarkets[0] != "KOSPI" || cfg.DART.TargetMarkets[1] != "KOSDAQ" {
		t.Errorf("Expected target markets [KOSPI KOSDAQ], got %v", cfg.DART.TargetMarkets)
	}

	if cfg.Selection.SecondPickMinScore != 78.0 {
		t.Errorf("Expected second pick min score 78, got %v", cfg.Selection.SecondPickMinScore)
	}

	if cfg.Selection.SecondPickMinGap != 6.0 {
		t.Errorf("Expected second pick min gap 6, got %v", cfg.Selection.SecondPickMinGap)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DART_TARGET_MARKETS", " kosdaq, KOSDAQ ,konex")
	t.Setenv("DART_TOP_N_MAX", "5")
	t.Setenv("DART_SECOND_PICK_MIN_SCORE", "70.5")
	t.Setenv("DART_NOTIFY_ON_SKIP", "off")
	t.Setenv("DRY_RUN", "yes")
	t.Setenv("LLM_TIMEOUT", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if len(cfg.DART.TargetMarkets) != 2 || cfg.DART.TargetMarkets[0] != "KOSDAQ" || cfg.DART.TargetMarkets[1] != "KONEX" {
		t.Errorf("Expected target markets [KOSDAQ KONEX], got %v", cfg.DART.TargetMarkets)
	}

	// TOP_N_MAX is clamped to 1..2
	if cfg.Selection.TopNMax != 2 {
		t.Errorf("Expected TopNMax to be clamped to 2, got %d", cfg.Selection.TopNMax)
	}

	if cfg.Selection.SecondPickMinScore != 70.5 {
		t.Errorf("Expected second pick min score 70.5, got %v", cfg.Selection.SecondPickMinScore)
	}

	if cfg.Slack.NotifyOnSkip {
		t.Error("Expected NotifyOnSkip to be false")
	}

	if !cfg.DryRun {
		t.Error("Expected DryRun to be true")
	}

	if cfg.LLM.Timeout != 15*time.Second {
		t.Errorf("Expected LLM timeout 15s, got %v", cfg.LLM.Timeout)
	}
}

func TestValidatePostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DIGEST_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DATABASE_URL is missing for postgres store, got nil")
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "qa")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for unknown ENV, got nil")
	}
}

func TestValidateInvalidTimezone(t *testing.T) {
	t.Setenv("DART_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for invalid timezone, got nil")
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("DIGEST_TEST_BOOL", tt.value)
			if got := getEnvAsBool("DIGEST_TEST_BOOL", !tt.want); got != tt.want {
				t.Errorf("getEnvAsBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{DART: DARTConfig{Timezone: "Asia/Seoul"}}

	_, offset := time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC).In(cfg.Location()).Zone()
	if offset != 9*60*60 {
		t.Errorf("Expected +09:00 offset, got %d", offset)
	}
}

func TestLoadFile(t *testing.T) {
	// t.Setenv restores the original value; unset so the file can supply it
	t.Setenv("DART_COMPANY_MAP_PATH", "")
	os.Unsetenv("DART_COMPANY_MAP_PATH")

	path := filepath.Join(t.TempDir(), "digest.env")
	if err := os.WriteFile(path, []byte("DART_COMPANY_MAP_PATH=/tmp/companies.csv\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.DART.CompanyMapPath != "/tmp/companies.csv" {
		t.Errorf("Expected company map path from env file, got %s", cfg.DART.CompanyMapPath)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected error for missing env file")
	}
}
