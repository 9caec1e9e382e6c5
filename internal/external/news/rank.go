package news

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"

	"github.com/wonny/dart-digest/internal/contracts"
)

const (
	// MaxItems kept per disclosure
	MaxItems = 2

	// maxCandidates stops collecting unrelated headlines
	maxCandidates = 6

	maxAge = 30 * 24 * time.Hour
)

// Candidate is a parsed search hit before ranking
type Candidate struct {
	Title       string
	Link        string
	Source      string
	PublishedAt *time.Time
}

// ParseFeed reads the search RSS, dedups by link
// 후보가 6개 이상이면 회사명이 제목에 없는 항목은 건너뜀
func ParseFeed(r io.Reader, company string) ([]Candidate, error) {
	parser := rss.Parser{}
	feed, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse news RSS: %w", err)
	}

	seen := make(map[string]bool)
	name := compact(company)
	out := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" || seen[link] {
			continue
		}
		if len(out) >= maxCandidates && !mentions(title, name) {
			continue
		}
		seen[link] = true

		source := ""
		if item.Source != nil {
			source = strings.TrimSpace(item.Source.Title)
		}

		out = append(out, Candidate{
			Title:       title,
			Link:        link,
			Source:      source,
			PublishedAt: item.PubDateParsed,
		})
	}

	return out, nil
}

// Rank scores candidates by relevance and recency and keeps the top max
// 발행시각이 없거나 30일 초과는 제외
func Rank(candidates []Candidate, company string, now time.Time, max int) []contracts.NewsItem {
	type scoredCandidate struct {
		Candidate
		score int
	}

	name := compact(company)
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.PublishedAt == nil {
			continue
		}
		age := now.Sub(*c.PublishedAt)
		if age > maxAge {
			continue
		}

		score := 0
		if mentions(c.Title, name) {
			score += 5
		}
		switch {
		case age <= 7*24*time.Hour:
			score += 4
		case age <= 14*24*time.Hour:
			score += 3
		default:
			score += 2
		}
		scored = append(scored, scoredCandidate{Candidate: c, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].PublishedAt.After(*scored[j].PublishedAt)
	})

	if len(scored) > max {
		scored = scored[:max]
	}

	items := make([]contracts.NewsItem, 0, len(scored))
	for _, s := range scored {
		items = append(items, contracts.NewsItem{
			Title:       s.Title,
			Link:        s.Link,
			Source:      s.Source,
			PublishedAt: s.PublishedAt.Format(contracts.ReportDateLayout),
		})
	}
	return items
}

// compact removes spaces so "SK 하이닉스" matches "SK하이닉스"
func compact(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// mentions reports whether title names the compacted company
func mentions(title, name string) bool {
	return name != "" && strings.Contains(compact(title), name)
}
