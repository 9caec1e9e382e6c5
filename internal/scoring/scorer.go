package scoring

import (
	"math"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/internal/tuning"
	"github.com/wonny/dart-digest/pkg/logger"
)

// Scorer computes the weighted total per disclosure
// ⭐ SSOT: 공시 종합 점수 계산은 여기서만
type Scorer struct {
	tuning *tuning.Config
	logger *logger.Logger
}

// NewScorer creates a new scorer
func NewScorer(t *tuning.Config, log *logger.Logger) *Scorer {
	return &Scorer{
		tuning: t,
		logger: log,
	}
}

// Score scores a single disclosure for the given market
// 동일 입력 → 동일 출력 (시각/난수 의존 없음)
func (s *Scorer) Score(d contracts.Disclosure, market string) contracts.ScoredDisclosure {
	body := d.Title + "\n" + d.Description

	rule := Classify(d.Title)
	financial, financialReason := FinancialImpact(body)
	confidence, confidenceReason := Confidence(d.Title, body)

	w := s.tuning.Weights
	total := rule.EventScore*w.Event +
		financial*w.Financial +
		rule.PersistenceScore*w.Persistence +
		confidence*w.Confidence

	reasons := make([]string, 0, 3)
	for _, r := range []string{rule.Reason, financialReason, confidenceReason} {
		if r != "" {
			reasons = append(reasons, r)
		}
	}

	return contracts.ScoredDisclosure{
		Disclosure:       d,
		Market:           market,
		EventType:        rule.EventType,
		EventScore:       rule.EventScore,
		FinancialScore:   financial,
		PersistenceScore: rule.PersistenceScore,
		ConfidenceScore:  confidence,
		MarketBonus:      s.tuning.BonusFor(market),
		TotalScore:       round2(total),
		Reasons:          reasons,
	}
}

// ScoreAll scores candidates in input order
func (s *Scorer) ScoreAll(candidates []contracts.Candidate) []contracts.ScoredDisclosure {
	out := make([]contracts.ScoredDisclosure, 0, len(candidates))
	for _, c := range candidates {
		scored := s.Score(c.Disclosure, c.Market)

		s.logger.WithFields(map[string]interface{}{
			"receipt_no": scored.Disclosure.ReceiptNo,
			"company":    scored.Disclosure.Company,
			"event_type": scored.EventType,
			"score":      scored.TotalScore,
		}).Debug("Scored disclosure")

		out = append(out, scored)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
