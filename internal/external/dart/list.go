package dart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/logger"
	"github.com/wonny/dart-digest/pkg/redis"
)

var yyyymmdd = regexp.MustCompile(`^\d{8}$`)

// ListSource reads one day of disclosures from OpenDART (backtest / --date)
type ListSource struct {
	client  *Client
	date    string // YYYYMMDD
	markets []string
	loc     *time.Location
	logger  *logger.Logger
}

// NewListSource validates the date and creates a source
func NewListSource(client *Client, date string, markets []string, loc *time.Location, log *logger.Logger) (*ListSource, error) {
	if !yyyymmdd.MatchString(date) {
		return nil, fmt.Errorf("target date must be YYYYMMDD: %q", date)
	}
	if _, err := time.Parse("20060102", date); err != nil {
		return nil, fmt.Errorf("target date must be YYYYMMDD: %w", err)
	}
	if client.apiKey == "" {
		return nil, fmt.Errorf("DART_API_KEY is required for --date")
	}
	if loc == nil {
		loc = time.UTC
	}

	return &ListSource{
		client:  client,
		date:    date,
		markets: markets,
		loc:     loc,
		logger:  log,
	}, nil
}

// Fetch implements contracts.Source
// corp_cls 별로 모든 페이지를 조회하고 접수번호로 중복 제거
func (s *ListSource) Fetch(ctx context.Context) ([]contracts.Disclosure, error) {
	seen := make(map[string]bool)
	var classes []string
	for _, m := range s.markets {
		cls, ok := CorpClsOf(m)
		if !ok || seen[cls] {
			continue
		}
		seen[cls] = true
		classes = append(classes, cls)
	}

	collected := make(map[string]contracts.Disclosure)
	for _, cls := range classes {
		items, err := s.client.ListByDate(ctx, s.date, cls)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			d, ok := s.toDisclosure(item, cls)
			if !ok {
				continue
			}
			collected[d.ReceiptNo] = d
		}
	}

	out := make([]contracts.Disclosure, 0, len(collected))
	for _, d := range collected {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].ReceiptNo > out[j].ReceiptNo
	})

	s.logger.WithFields(map[string]interface{}{
		"date":        s.date,
		"corp_cls":    classes,
		"disclosures": len(out),
	}).Info("Fetched OpenDART disclosures")

	return out, nil
}

func (s *ListSource) toDisclosure(item ListItem, corpCls string) (contracts.Disclosure, bool) {
	receiptNo := strings.TrimSpace(item.RceptNo)
	if receiptNo == "" {
		return contracts.Disclosure{}, false
	}

	company := strings.TrimSpace(item.CorpName)
	report := strings.TrimSpace(item.ReportNm)
	title := report
	if company != "" && report != "" {
		title = fmt.Sprintf("%s (%s)", company, report)
	}

	var parts []string
	for _, p := range []string{item.FlrNm, item.Rm} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	rceptDt := strings.TrimSpace(item.RceptDt)
	if rceptDt == "" {
		rceptDt = s.date
	}
	published, err := time.ParseInLocation("20060102", rceptDt, s.loc)
	if err != nil {
		published = time.Now().In(s.loc)
	}

	return contracts.Disclosure{
		Company:     company,
		Title:       title,
		Link:        ViewerURL(receiptNo),
		ReceiptNo:   receiptNo,
		PublishedAt: published,
		Description: strings.Join(parts, " / "),
		MarketHint:  MarketOfCorpCls(corpCls),
		Source:      contracts.SourceOpenDART,
	}, true
}

// ListByDate returns every page of list.json for one date and corp_cls
func (c *Client) ListByDate(ctx context.Context, date, corpCls string) ([]ListItem, error) {
	cacheKey := redis.DisclosureListKey(date, corpCls)
	if c.cache != nil {
		var cached []ListItem
		if ok, err := c.cache.Get(ctx, cacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	var all []ListItem
	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, date, corpCls, page)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			break // 013: 데이터 없음
		}
		all = append(all, resp.Items...)

		totalPage := resp.TotalPage
		if totalPage < 1 {
			totalPage = 1
		}
		if page >= totalPage {
			break
		}
	}

	if c.cache != nil {
		ttl := redis.TTLDaily
		if date == time.Now().Format("20060102") {
			ttl = redis.TTLMedium // 당일은 공시가 계속 추가됨
		}
		if err := c.cache.Set(ctx, cacheKey, all, ttl); err != nil {
			c.logger.WithError(err).Warn("Failed to cache OpenDART list")
		}
	}

	return all, nil
}

// fetchPage fetches a single page
// Status codes: 000 = success, 013 = no data (nil, nil), others = error
func (c *Client) fetchPage(ctx context.Context, date, corpCls string, page int) (*ListResponse, error) {
	params := url.Values{}
	params.Set("crtfc_key", c.apiKey)
	params.Set("bgn_de", date)
	params.Set("end_de", date)
	params.Set("corp_cls", corpCls)
	params.Set("sort", "date")
	params.Set("sort_m", "desc")
	params.Set("page_no", strconv.Itoa(page))
	params.Set("page_count", "100")

	body, err := c.http.GetBody(ctx, c.baseURL+"/api/list.json?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("OpenDART request failed (corp_cls=%s page=%d): %w", corpCls, page, err)
	}

	var result ListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode OpenDART response: %w", err)
	}

	switch result.Status {
	case "000":
		return &result, nil
	case "013":
		return nil, nil
	default:
		msg := result.Message
		if msg == "" {
			msg = "Unknown OpenDART error"
		}
		return nil, fmt.Errorf("OpenDART API error %s: %s", result.Status, msg)
	}
}
