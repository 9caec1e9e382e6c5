package market

import (
	"strings"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/logger"
)

// Filter keeps disclosures listed on the target markets
type Filter struct {
	lookup  contracts.MarketLookup
	targets map[string]bool
	logger  *logger.Logger
}

// NewFilter creates a market filter
func NewFilter(lookup contracts.MarketLookup, targets []string, log *logger.Logger) *Filter {
	set := make(map[string]bool, len(targets))
	for _, t := range targets {
		set[strings.ToUpper(strings.TrimSpace(t))] = true
	}
	return &Filter{
		lookup:  lookup,
		targets: set,
		logger:  log,
	}
}

// Apply resolves each disclosure's market and drops the rest
// 회사맵 우선, 없으면 소스의 MarketHint 사용
func (f *Filter) Apply(items []contracts.Disclosure) []contracts.Candidate {
	out := make([]contracts.Candidate, 0, len(items))
	unknown := 0

	for _, d := range items {
		mkt, ok := f.lookup.MarketOf(d.Company)
		if !ok {
			mkt = strings.ToUpper(d.MarketHint)
		}
		if mkt == "" {
			unknown++
			continue
		}
		if !f.targets[mkt] {
			continue
		}
		out = append(out, contracts.Candidate{Disclosure: d, Market: mkt})
	}

	f.logger.WithFields(map[string]interface{}{
		"input":   len(items),
		"kept":    len(out),
		"unknown": unknown,
	}).Debug("Market filter applied")

	return out
}
