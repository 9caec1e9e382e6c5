package contracts

import (
	"math"
	"time"
)

// SourceKind identifies where a disclosure was read from
type SourceKind string

const (
	SourceRSS      SourceKind = "rss"      // 오늘의 공시 RSS
	SourceOpenDART SourceKind = "opendart" // OpenDART list.json (과거 일자)
)

// Disclosure represents a single DART filing
// ⭐ SSOT: 공시 원본 레코드 (생성 후 불변)
type Disclosure struct {
	Company     string     `json:"company"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	ReceiptNo   string     `json:"receipt_no"` // 접수번호, dedup 키
	PublishedAt time.Time  `json:"published_at"`
	Description string     `json:"description"`
	MarketHint  string     `json:"market_hint,omitempty"` // OpenDART corp_cls 기반
	Source      SourceKind `json:"source"`
}

// IsValid reports whether the record carries the fields the pipeline depends on
func (d *Disclosure) IsValid() bool {
	return d.ReceiptNo != "" && d.Title != "" && d.Link != ""
}

// ScoredDisclosure is a disclosure annotated with scoring output
// ⭐ SSOT: 채점 결과 (Scorer → Policy → Narrator)
type ScoredDisclosure struct {
	Disclosure Disclosure `json:"disclosure"`
	Market     string     `json:"market"`
	EventType  string     `json:"event_type"`

	EventScore       float64 `json:"event_score"`
	FinancialScore   float64 `json:"financial_score"`
	PersistenceScore float64 `json:"persistence_score"`
	ConfidenceScore  float64 `json:"confidence_score"`
	MarketBonus      float64 `json:"market_bonus"`

	TotalScore float64  `json:"total_score"` // 가중합, 소수 2자리
	Reasons    []string `json:"reasons"`
}

// RankScore is the score every ranking comparison uses
// ⭐ SSOT: 시장 보너스는 여기서만 더함
func (s *ScoredDisclosure) RankScore() float64 {
	return math.Round((s.TotalScore+s.MarketBonus)*100) / 100
}

// ProcessedRecord is a dedup ledger entry
type ProcessedRecord struct {
	ReceiptNo   string    `json:"receipt_no"`
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	Market      string    `json:"market"`
	EventType   string    `json:"event_type"`
	TotalScore  float64   `json:"total_score"`
	PublishedAt time.Time `json:"published_at"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// NewsItem is a related news article attached to a selected disclosure
type NewsItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"` // YYYY-MM-DD
}

// Candidate pairs a disclosure with its resolved listing market
type Candidate struct {
	Disclosure Disclosure `json:"disclosure"`
	Market     string     `json:"market"`
}
