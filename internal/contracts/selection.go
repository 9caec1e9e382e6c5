package contracts

import "time"

// ReportDateLayout is the key format of saved reports
const ReportDateLayout = "2006-01-02"

// NarrativeOrigin tells whether the article came from a generator or the template
type NarrativeOrigin string

const (
	OriginGenerated NarrativeOrigin = "generated"
	OriginFallback  NarrativeOrigin = "fallback"
)

// Selection is the daily output of one run
// ⭐ SSOT: 일자별 리포트 (date 키로 덮어쓰기)
type Selection struct {
	Date       string             `json:"date"` // YYYY-MM-DD
	RunID      string             `json:"run_id"`
	RunAt      time.Time          `json:"run_at"`
	Items      []ScoredDisclosure `json:"items"`
	Article    string             `json:"article"`
	Origin     NarrativeOrigin    `json:"origin"`
	Generator  string             `json:"generator"`
	TuningHash string             `json:"tuning_hash"`
	Delivered  bool               `json:"delivered"`
}

// ReceiptNos returns the receipt numbers of the selected items in order
func (s *Selection) ReceiptNos() []string {
	out := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		out = append(out, item.Disclosure.ReceiptNo)
	}
	return out
}

// RunStatus is the terminal state of a run
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// RunCounts tracks how many items survived each stage
type RunCounts struct {
	Fetched  int `json:"fetched"`
	InMarket int `json:"in_market"`
	New      int `json:"new"`
	Scored   int `json:"scored"`
}

// RunResult is returned by every pipeline run
type RunResult struct {
	RunID     string     `json:"run_id"`
	Date      string     `json:"date"`
	Status    RunStatus  `json:"status"`
	Message   string     `json:"message"`
	Decision  string     `json:"decision,omitempty"`
	Counts    RunCounts  `json:"counts"`
	Selection *Selection `json:"selection,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	Duration  int64      `json:"duration_ms"`
}
