package news

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/httputil"
	"github.com/wonny/dart-digest/pkg/logger"
	"github.com/wonny/dart-digest/pkg/redis"
)

const (
	// DefaultBaseURL is the Google News RSS search endpoint
	DefaultBaseURL = "https://news.google.com/rss/search"

	// DefaultTimeout per search request
	DefaultTimeout = 12 * time.Second

	browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Client searches related news for selected disclosures
// ⭐ SSOT: 관련 뉴스 검색은 이 클라이언트에서만
type Client struct {
	http    *httputil.Client
	logger  *logger.Logger
	cache   *redis.Cache
	baseURL string
	now     func() time.Time
}

// NewClient creates a new Google News client
func NewClient(log *logger.Logger) *Client {
	return &Client{
		http:    httputil.NewWithTimeout(log, DefaultTimeout).WithRetry(1, 500*time.Millisecond).WithUserAgent(browserUA),
		logger:  log,
		baseURL: DefaultBaseURL,
		now:     time.Now,
	}
}

// WithBaseURL overrides the search endpoint
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithCache caches results per receipt number
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// WithRateLimiter throttles searches across processes
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter) *Client {
	c.http.WithRedisRateLimit(limiter, redis.NewsRateLimit)
	return c
}

// Related implements contracts.NewsFinder
func (c *Client) Related(ctx context.Context, scored *contracts.ScoredDisclosure) ([]contracts.NewsItem, error) {
	company := strings.TrimSpace(scored.Disclosure.Company)
	if company == "" {
		return nil, nil
	}

	cacheKey := redis.NewsKey(scored.Disclosure.ReceiptNo)
	if c.cache != nil && scored.Disclosure.ReceiptNo != "" {
		var cached []contracts.NewsItem
		if ok, err := c.cache.Get(ctx, cacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	query := BuildQuery(company, scored.Disclosure.Title, scored.EventType)
	body, err := c.http.GetBody(ctx, c.searchURL(query))
	if err != nil {
		return nil, fmt.Errorf("search news for %s: %w", company, err)
	}

	candidates, err := ParseFeed(bytes.NewReader(body), company)
	if err != nil {
		return nil, err
	}

	items := Rank(candidates, company, c.now(), MaxItems)

	c.logger.WithFields(map[string]interface{}{
		"company": company,
		"query":   query,
		"found":   len(candidates),
		"kept":    len(items),
	}).Debug("Related news searched")

	if c.cache != nil && scored.Disclosure.ReceiptNo != "" {
		if err := c.cache.Set(ctx, cacheKey, items, redis.TTLShort); err != nil {
			c.logger.WithError(err).Warn("Failed to cache related news")
		}
	}

	return items, nil
}

func (c *Client) searchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "ko")
	params.Set("gl", "KR")
	params.Set("ceid", "KR:ko")
	return c.baseURL + "?" + params.Encode()
}

// eventHints are appended to the query per event category
var eventHints = map[string]string{
	"지배구조/자본변동": "유상증자 감자 전환사채",
	"M&A/사업재편":  "합병 인수 분할",
	"감사/리스크":    "감사의견 리스크",
	"수주/계약":     "공급계약 수주",
	"실적/전망":     "실적 전망",
	"지배주주/특수관계": "최대주주 지배구조",
	"주주환원":      "배당 자사주",
}

// BuildQuery composes "회사 + 공시 핵심어 + 분류 힌트"
func BuildQuery(company, title, eventType string) string {
	core := strings.ReplaceAll(title, company, " ")
	core = strings.NewReplacer("(", " ", ")", " ").Replace(core)
	core = strings.Join(strings.Fields(core), " ")

	hint, ok := eventHints[eventType]
	if !ok {
		hint = "공시"
	}

	parts := []string{company}
	if core != "" {
		parts = append(parts, core)
	}
	parts = append(parts, hint)
	return strings.Join(parts, " ")
}
