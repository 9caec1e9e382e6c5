package dart

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/httputil"
	"github.com/wonny/dart-digest/pkg/logger"
)

var (
	receiptPattern = regexp.MustCompile(`(\d{14})`)
	leadingBracket = regexp.MustCompile(`^\[[^\]]+\]\s*`)
)

// RSSSource reads the DART today feed
// ⭐ SSOT: 오늘의 공시 RSS 수집은 여기서만
type RSSSource struct {
	http   *httputil.Client
	url    string
	logger *logger.Logger
	now    func() time.Time
}

// NewRSSSource creates a new RSS source
func NewRSSSource(feedURL string, log *logger.Logger) *RSSSource {
	return &RSSSource{
		http:   httputil.NewWithHTTPClient(log, newLegacyCompatibleClient(DefaultTimeout)),
		url:    feedURL,
		logger: log,
		now:    time.Now,
	}
}

// Fetch implements contracts.Source
func (s *RSSSource) Fetch(ctx context.Context) ([]contracts.Disclosure, error) {
	body, err := s.http.GetBody(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch DART RSS: %w", err)
	}

	items, err := ParseRSS(bytes.NewReader(body), s.now())
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"disclosures": len(items),
	}).Info("Fetched DART RSS")

	return items, nil
}

// ParseRSS converts feed items into disclosures
// 제목/링크/접수번호가 없는 항목은 버림, pubDate 오류 시 now 사용
func ParseRSS(r io.Reader, now time.Time) ([]contracts.Disclosure, error) {
	parser := rss.Parser{}
	feed, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse DART RSS: %w", err)
	}

	out := make([]contracts.Disclosure, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		receiptNo := ExtractReceiptNo(link)
		if title == "" || link == "" || receiptNo == "" {
			continue
		}

		published := now
		if item.PubDateParsed != nil {
			published = *item.PubDateParsed
		}

		out = append(out, contracts.Disclosure{
			Company:     ExtractCompany(title),
			Title:       title,
			Link:        link,
			ReceiptNo:   receiptNo,
			PublishedAt: published,
			Description: strings.TrimSpace(item.Description),
			Source:      contracts.SourceRSS,
		})
	}

	return out, nil
}

// ExtractCompany returns the company part of "회사명 (공시제목)"
func ExtractCompany(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	if company := strings.TrimSpace(strings.SplitN(title, "(", 2)[0]); company != "" {
		return company
	}

	// "(유)..." 처럼 괄호로 시작하는 경우
	cleaned := leadingBracket.ReplaceAllString(title, "")
	return strings.TrimSpace(strings.SplitN(cleaned, " ", 2)[0])
}

// ExtractReceiptNo reads rcpNo/rcpno from the link, falling back to a 14-digit match
func ExtractReceiptNo(link string) string {
	if u, err := url.Parse(link); err == nil {
		q := u.Query()
		for _, key := range []string{"rcpNo", "rcpno"} {
			if v := q.Get(key); v != "" {
				return v
			}
		}
	}

	if m := receiptPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}
