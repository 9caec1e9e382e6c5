package selection

import (
	"math"
	"sort"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/internal/tuning"
	"github.com/wonny/dart-digest/pkg/logger"
)

// Decision explains why the policy returned what it did
type Decision string

const (
	DecisionEmpty              Decision = "empty"
	DecisionBelowFloor         Decision = "below_floor"
	DecisionSinglePick         Decision = "single_pick"
	DecisionSecondaryLowScore  Decision = "secondary_low_score"
	DecisionSecondaryGap       Decision = "secondary_gap"
	DecisionSecondarySameEvent Decision = "secondary_same_event"
	DecisionTwoPicks           Decision = "two_picks"
)

// Policy picks the top 1~2 disclosures of the day
// ⭐ SSOT: 일일 선정 규칙은 여기서만
type Policy struct {
	rules  tuning.Selection
	logger *logger.Logger
}

// NewPolicy creates a new selection policy
func NewPolicy(rules tuning.Selection, log *logger.Logger) *Policy {
	return &Policy{
		rules:  rules,
		logger: log,
	}
}

// Rank returns a copy sorted by RankScore desc, then published time desc
// 동점은 안정 정렬로 입력 순서 유지
func Rank(items []contracts.ScoredDisclosure) []contracts.ScoredDisclosure {
	ranked := make([]contracts.ScoredDisclosure, len(items))
	copy(ranked, items)

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].RankScore(), ranked[j].RankScore()
		if si != sj {
			return si > sj
		}
		return ranked[i].Disclosure.PublishedAt.After(ranked[j].Disclosure.PublishedAt)
	})

	return ranked
}

// Decide applies floor, gap and diversity rules to the candidates
func (p *Policy) Decide(items []contracts.ScoredDisclosure) ([]contracts.ScoredDisclosure, Decision) {
	selected, decision := p.decide(Rank(items))

	fields := map[string]interface{}{
		"candidates": len(items),
		"selected":   len(selected),
		"decision":   string(decision),
	}
	if len(selected) > 0 {
		fields["top_receipt_no"] = selected[0].Disclosure.ReceiptNo
		fields["top_score"] = selected[0].RankScore()
	}
	p.logger.WithFields(fields).Info("Selection decided")

	return selected, decision
}

func (p *Policy) decide(ranked []contracts.ScoredDisclosure) ([]contracts.ScoredDisclosure, Decision) {
	if len(ranked) == 0 {
		return nil, DecisionEmpty
	}

	primary := ranked[0]
	if primary.RankScore() < p.rules.Floor {
		return nil, DecisionBelowFloor
	}

	selected := []contracts.ScoredDisclosure{primary}
	if p.rules.TopNMax < 2 || len(ranked) < 2 {
		return selected, DecisionSinglePick
	}

	secondary := ranked[1]
	gap := math.Round((primary.RankScore()-secondary.RankScore())*100) / 100

	switch {
	case secondary.RankScore() < p.rules.SecondPickMinScore:
		return selected, DecisionSecondaryLowScore
	case gap > p.rules.SecondPickMinGap:
		return selected, DecisionSecondaryGap
	case secondary.EventType == primary.EventType:
		return selected, DecisionSecondarySameEvent
	}

	return append(selected, secondary), DecisionTwoPicks
}
