package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Ledger lookups for unknown keys
var ErrNotFound = errors.New("not found")

// Source produces the day's raw disclosures
// ⭐ SSOT: 공시 수집 인터페이스
type Source interface {
	Fetch(ctx context.Context) ([]Disclosure, error)
}

// MarketLookup maps a company name to its listing market
// ⭐ SSOT: 회사명 → 시장 조회 인터페이스
type MarketLookup interface {
	MarketOf(company string) (string, bool)
}

// Ledger is the dedup and report store
// ⭐ SSOT: 중복 제거/리포트 저장 인터페이스
type Ledger interface {
	IsProcessed(ctx context.Context, receiptNo string) (bool, error)
	MarkProcessed(ctx context.Context, scored *ScoredDisclosure) error
	GetProcessed(ctx context.Context, receiptNo string) (*ProcessedRecord, error)
	ReportExists(ctx context.Context, date string) (bool, error)
	SaveReport(ctx context.Context, sel *Selection) error
	GetReport(ctx context.Context, date string) (*Selection, error)
	ListReports(ctx context.Context, limit int) ([]*Selection, error)
	Close() error
}

// Pinger is implemented by ledgers that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// NarrativeResult is the outcome of article generation
type NarrativeResult struct {
	Text      string
	Origin    NarrativeOrigin
	Generator string
	Err       error // 생성기 실패 사유 (fallback 일 때)
}

// Narrator turns the selection into article text
// ⭐ SSOT: 기사 생성 인터페이스 (실패 시 템플릿으로 대체)
type Narrator interface {
	Write(ctx context.Context, runAt time.Time, selected []ScoredDisclosure, news map[string][]NewsItem) NarrativeResult
}

// NewsFinder looks up related news for a scored disclosure
type NewsFinder interface {
	Related(ctx context.Context, scored *ScoredDisclosure) ([]NewsItem, error)
}

// Publisher delivers the final text
// 미설정 대상은 (false, nil)
type Publisher interface {
	Publish(ctx context.Context, text string, selected []ScoredDisclosure, runAt time.Time) (bool, error)
	PublishText(ctx context.Context, text string) (bool, error)
}

// RunLock serialises runs for the same report date across processes
type RunLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
