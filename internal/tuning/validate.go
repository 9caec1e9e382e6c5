package tuning

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (실행 전 중단)
func Validate(cfg *Config) error {
	// === Weights ===
	weights := []struct {
		field string
		value float64
	}{
		{"weights.event", cfg.Weights.Event},
		{"weights.financial", cfg.Weights.Financial},
		{"weights.persistence", cfg.Weights.Persistence},
		{"weights.confidence", cfg.Weights.Confidence},
	}
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return ValidationError{w.field, "must be in [0, 1]"}
		}
	}
	if err := validateWeightsSum(cfg.Weights.Slice(), 1.0, 1e-6); err != nil {
		return ValidationError{"weights", err.Error()}
	}

	// === Selection ===
	if err := validateScoreRange(cfg.Selection.Floor); err != nil {
		return ValidationError{"selection.floor", err.Error()}
	}
	if cfg.Selection.TopNMax < 1 || cfg.Selection.TopNMax > 2 {
		return ValidationError{"selection.top_n_max", "must be 1 or 2"}
	}
	if err := validateScoreRange(cfg.Selection.SecondPickMinScore); err != nil {
		return ValidationError{"selection.second_pick_min_score", err.Error()}
	}
	if err := validateScoreRange(cfg.Selection.SecondPickMinGap); err != nil {
		return ValidationError{"selection.second_pick_min_gap", err.Error()}
	}

	// === Market bonus ===
	markets := make([]string, 0, len(cfg.MarketBonus))
	for market := range cfg.MarketBonus {
		markets = append(markets, market)
	}
	sort.Strings(markets)
	for _, market := range markets {
		if cfg.MarketBonus[market] < 0 {
			return ValidationError{"market_bonus." + market, "must be >= 0"}
		}
	}

	return nil
}

// validateWeightsSum는 가중치 합이 target 인지 검증
func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

func validateScoreRange(v float64) error {
	if v < 0 || v > 100 {
		return errors.New("must be in [0, 100]")
	}
	return nil
}
