package tuning

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/dart-digest/pkg/config"
)

// Load reads a YAML file on top of base and validates the result
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string, base *Config) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read tuning file: %w", err)
	}

	cfg := *base
	cfg.MarketBonus = copyBonus(base.MarketBonus)

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cfg); err != nil {
		return nil, nil, fmt.Errorf("decode tuning file: %w", err)
	}

	bonus, err := normalizeBonus(cfg.MarketBonus)
	if err != nil {
		return nil, data, err
	}
	cfg.MarketBonus = bonus

	if err := Validate(&cfg); err != nil {
		return nil, data, err
	}

	return &cfg, data, nil
}

// FromConfig builds the effective tuning
// 우선순위: YAML(DART_TUNING_PATH) > 환경변수 > 기본값
func FromConfig(cfg *config.Config) (*Config, error) {
	base := Default()
	base.Selection.TopNMax = cfg.Selection.TopNMax
	base.Selection.SecondPickMinScore = cfg.Selection.SecondPickMinScore
	base.Selection.SecondPickMinGap = cfg.Selection.SecondPickMinGap

	if cfg.Selection.TuningPath == "" {
		if err := Validate(base); err != nil {
			return nil, err
		}
		return base, nil
	}

	tuned, _, err := Load(cfg.Selection.TuningPath, base)
	if err != nil {
		return nil, err
	}
	return tuned, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: encoding/json 은 map 키를 정렬하므로 MarketBonus 도 재현 가능
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// normalizeBonus upper-cases market codes to match the market filter
func normalizeBonus(in map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		market := strings.ToUpper(strings.TrimSpace(k))
		if _, dup := out[market]; dup {
			return nil, ValidationError{"market_bonus." + market, "duplicate market code"}
		}
		out[market] = v
	}
	return out, nil
}

func copyBonus(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
