package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/dart-digest/internal/contracts"
)

func TestBacktestRunAt(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)

	at := backtestRunAt("20250110", loc)
	assert.Equal(t, time.Date(2025, 1, 10, 18, 10, 0, 0, loc), at)
	assert.True(t, backtestRunAt("2025-01-10", loc).IsZero())
}

func TestPrintRunResult(t *testing.T) {
	var buf bytes.Buffer
	PrintRunResult(&buf, &contracts.RunResult{
		RunID:    "run-1",
		Date:     "2025-01-10",
		Status:   contracts.RunSkipped,
		Message:  "No new disclosures after deduplication.",
		Counts:   contracts.RunCounts{Fetched: 3, InMarket: 2},
		Duration: 12,
	})

	out := buf.String()
	assert.Contains(t, out, "[skipped] No new disclosures after deduplication.\n")
	assert.Contains(t, out, "fetched=3 in_market=2 new=0 scored=0")
	assert.NotContains(t, out, "decision=")
}

func TestPrintSelection(t *testing.T) {
	var buf bytes.Buffer
	sel := &contracts.Selection{
		Date:   "2025-01-10",
		RunID:  "run-1",
		Origin: contracts.OriginFallback,
		Items: []contracts.ScoredDisclosure{{
			Disclosure: contracts.Disclosure{Title: "테스트회사(유상증자결정)", Link: "https://dart.fss.or.kr/x"},
			EventType:  "지배구조/자본변동",
			TotalScore: 92.49,
		}},
	}
	PrintSelection(&buf, sel)

	out := buf.String()
	assert.Contains(t, out, "Report 2025-01-10")
	assert.Contains(t, out, "1. 테스트회사(유상증자결정) [지배구조/자본변동] rank=92.49 total=92.49")

	buf.Reset()
	PrintSelection(&buf, &contracts.Selection{Date: "2025-01-11"})
	assert.Contains(t, buf.String(), "(no picks)")
}
