package tuning

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wonny/dart-digest/pkg/config"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default tuning invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeYAML(t, `
meta:
  version: "2026-02"
selection:
  floor: 65
market_bonus:
  KOSDAQ: 1.5
`)

	cfg, yamlData, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Selection.Floor != 65 {
		t.Errorf("expected floor=65, got %v", cfg.Selection.Floor)
	}
	// YAML 에 없는 값은 base 유지
	if cfg.Weights.Event != 0.45 || cfg.Selection.SecondPickMinScore != 78 {
		t.Errorf("base values lost: %+v", cfg)
	}
	if cfg.BonusFor("KOSDAQ") != 1.5 || cfg.BonusFor("KOSPI") != 0 {
		t.Errorf("unexpected bonus: %+v", cfg.MarketBonus)
	}
	if len(yamlData) == 0 {
		t.Error("expected raw yaml bytes")
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeYAML(t, `
selection:
  flor: 65
`)

	if _, _, err := Load(path, Default()); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	path := writeYAML(t, `
weights:
  event: 0.5
`)

	_, _, err := Load(path, Default())
	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "weights" {
		t.Errorf("expected field=weights, got %s", vErr.Field)
	}
}

func TestLoadDoesNotMutateBase(t *testing.T) {
	base := Default()
	path := writeYAML(t, `
market_bonus:
  KOSPI: 2
`)

	if _, _, err := Load(path, base); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if base.BonusFor("KOSPI") != 0 {
		t.Error("base market bonus mutated")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		Selection: config.SelectionConfig{
			TopNMax:            1,
			SecondPickMinScore: 80,
			SecondPickMinGap:   4,
		},
	}

	tuned, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if tuned.Selection.TopNMax != 1 || tuned.Selection.SecondPickMinScore != 80 || tuned.Selection.SecondPickMinGap != 4 {
		t.Errorf("env values not applied: %+v", tuned.Selection)
	}

	cfg.Selection.TuningPath = writeYAML(t, "selection:\n  second_pick_min_gap: 3\n")
	tuned, err = FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig with yaml failed: %v", err)
	}
	if tuned.Selection.SecondPickMinGap != 3 || tuned.Selection.TopNMax != 1 {
		t.Errorf("yaml should override env: %+v", tuned.Selection)
	}
}

func TestHash(t *testing.T) {
	cfg := Default()
	cfg.MarketBonus = map[string]float64{"KOSPI": 1, "KOSDAQ": 2}

	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}

	cfg.Selection.Floor = 61
	hash3, _ := Hash(cfg)
	if hash == hash3 {
		t.Error("hash should change with config")
	}
}

func TestValidateWeightsSum(t *testing.T) {
	tests := []struct {
		weights []float64
		target  float64
		valid   bool
	}{
		{[]float64{0.45, 0.30, 0.15, 0.10}, 1.0, true},
		{[]float64{0.5, 0.5}, 1.0, true},
		{[]float64{0.3, 0.3, 0.3}, 1.0, false}, // 0.9
		{[]float64{}, 1.0, false},
	}

	for _, tc := range tests {
		err := validateWeightsSum(tc.weights, tc.target, 1e-6)
		if tc.valid && err != nil {
			t.Errorf("validateWeightsSum(%v) expected valid, got error: %v", tc.weights, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("validateWeightsSum(%v) expected error, got nil", tc.weights)
		}
	}
}

func TestValidateSelection(t *testing.T) {
	cfg := Default()
	cfg.Selection.TopNMax = 3
	if err := Validate(cfg); err == nil {
		t.Error("expected error for top_n_max=3")
	}

	cfg = Default()
	cfg.MarketBonus = map[string]float64{"KOSPI": -1}
	if err := Validate(cfg); err == nil {
		t.Error("expected error for negative bonus")
	}
}

func TestLoadNormalizesMarketBonusKeys(t *testing.T) {
	path := writeYAML(t, `
market_bonus:
  kospi: 5
  " Kosdaq ": 1
`)

	cfg, _, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BonusFor("KOSPI") != 5 || cfg.BonusFor("KOSDAQ") != 1 {
		t.Errorf("unexpected bonus: %+v", cfg.MarketBonus)
	}
	if cfg.BonusFor("kospi") != 5 {
		t.Error("BonusFor should ignore case")
	}

	dup := writeYAML(t, `
market_bonus:
  kospi: 5
  KOSPI: 2
`)
	_, _, err = Load(dup, Default())
	var vErr ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "market_bonus.KOSPI" {
		t.Fatalf("expected duplicate market_bonus.KOSPI error, got %v", err)
	}
}

func TestValidateReportsFirstInvalidWeight(t *testing.T) {
	cfg := Default()
	cfg.Weights.Event = -0.1
	cfg.Weights.Financial = 1.5
	cfg.Weights.Confidence = 2

	// 여러 가중치가 잘못돼도 항상 선언 순서상 첫 필드를 보고
	for i := 0; i < 20; i++ {
		var vErr ValidationError
		if err := Validate(cfg); !errors.As(err, &vErr) || vErr.Field != "weights.event" {
			t.Fatalf("expected weights.event, got %v", err)
		}
	}
}
