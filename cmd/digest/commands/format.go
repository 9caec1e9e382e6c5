package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/wonny/dart-digest/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleSeparator = "═══════════════════════════════════════════════════════════"
	singleSeparator = "───────────────────────────────────────────────────────────"
)

// PrintRunResult prints the "[status] message" line and the stage counts
func PrintRunResult(w io.Writer, result *contracts.RunResult) {
	fmt.Fprintf(w, "[%s] %s\n", result.Status, result.Message)
	fmt.Fprintf(w, "  run_id=%s date=%s fetched=%d in_market=%d new=%d scored=%d",
		result.RunID, result.Date,
		result.Counts.Fetched, result.Counts.InMarket, result.Counts.New, result.Counts.Scored)
	if result.Decision != "" {
		fmt.Fprintf(w, " decision=%s", result.Decision)
	}
	fmt.Fprintf(w, " (%dms)\n", result.Duration)
}

// PrintSelection prints the picks of a saved report
// Example: 1. 테스트회사 유상증자결정 [지배구조/자본변동] rank=92.49
func PrintSelection(w io.Writer, sel *contracts.Selection) {
	fmt.Fprintln(w, doubleSeparator)
	fmt.Fprintf(w, "  Report %s\n", sel.Date)
	fmt.Fprintln(w, singleSeparator)
	fmt.Fprintf(w, "  Run ID    : %s\n", sel.RunID)
	fmt.Fprintf(w, "  Run At    : %s\n", sel.RunAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  Origin    : %s (%s)\n", sel.Origin, sel.Generator)
	fmt.Fprintf(w, "  Delivered : %t\n", sel.Delivered)
	fmt.Fprintln(w, singleSeparator)

	if len(sel.Items) == 0 {
		fmt.Fprintln(w, "  (no picks)")
	}
	for i, item := range sel.Items {
		fmt.Fprintf(w, "  %d. %s [%s] rank=%.2f total=%.2f\n",
			i+1, item.Disclosure.Title, item.EventType, item.RankScore(), item.TotalScore)
		fmt.Fprintf(w, "     %s\n", item.Disclosure.Link)
	}
	fmt.Fprintln(w, doubleSeparator)
}

// PrintArticle prints the article framed by separators
func PrintArticle(w io.Writer, article string) {
	fmt.Fprintln(w, singleSeparator)
	fmt.Fprintln(w, strings.TrimRight(article, "\n"))
	fmt.Fprintln(w, singleSeparator)
}
