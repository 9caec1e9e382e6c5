package tuning

import "strings"

// Config는 공시 채점/선정의 가중치와 임계값
// 숨은 상수 대신 YAML + 환경변수로 관리
type Config struct {
	Meta        Meta               `yaml:"meta" json:"meta"`
	Weights     Weights            `yaml:"weights" json:"weights"`
	Selection   Selection          `yaml:"selection" json:"selection"`
	MarketBonus map[string]float64 `yaml:"market_bonus" json:"market_bonus"` // 시장별 가산점 (RankScore 전용)
}

// Meta 메타 정보
type Meta struct {
	Version string `yaml:"version" json:"version"`
}

// Weights 종합 점수 가중치 (합 = 1.0)
type Weights struct {
	Event       float64 `yaml:"event" json:"event"`
	Financial   float64 `yaml:"financial" json:"financial"`
	Persistence float64 `yaml:"persistence" json:"persistence"`
	Confidence  float64 `yaml:"confidence" json:"confidence"`
}

// Slice returns the weights in formula order
func (w Weights) Slice() []float64 {
	return []float64{w.Event, w.Financial, w.Persistence, w.Confidence}
}

// Selection 일일 선정 규칙
type Selection struct {
	Floor              float64 `yaml:"floor" json:"floor"`                                 // 1순위 최저 점수
	TopNMax            int     `yaml:"top_n_max" json:"top_n_max"`                         // 1 또는 2
	SecondPickMinScore float64 `yaml:"second_pick_min_score" json:"second_pick_min_score"` // 2순위 최저 점수
	SecondPickMinGap   float64 `yaml:"second_pick_min_gap" json:"second_pick_min_gap"`     // 1·2순위 허용 점수차
}

// Default returns the baseline tuning
func Default() *Config {
	return &Config{
		Meta: Meta{Version: "default"},
		Weights: Weights{
			Event:       0.45,
			Financial:   0.30,
			Persistence: 0.15,
			Confidence:  0.10,
		},
		Selection: Selection{
			Floor:              60.0,
			TopNMax:            2,
			SecondPickMinScore: 78.0,
			SecondPickMinGap:   6.0,
		},
		MarketBonus: map[string]float64{},
	}
}

// BonusFor returns the market bonus (0 when not configured)
func (c *Config) BonusFor(market string) float64 {
	if c.MarketBonus == nil {
		return 0
	}
	return c.MarketBonus[strings.ToUpper(market)]
}
