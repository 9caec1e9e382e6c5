package dart

import (
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/dart-digest/pkg/httputil"
	"github.com/wonny/dart-digest/pkg/logger"
	"github.com/wonny/dart-digest/pkg/redis"
)

// DefaultTimeout applies to the RSS fetch and each OpenDART page
const DefaultTimeout = 20 * time.Second

// Client handles communication with OpenDART (list.json)
// ⭐ SSOT: DART API 호출은 이 클라이언트에서만
type Client struct {
	http    *httputil.Client
	logger  *logger.Logger
	cache   *redis.Cache
	apiKey  string
	baseURL string
}

// NewClient creates a new OpenDART client
// DART API requires legacy TLS configuration (RSA key exchange)
func NewClient(apiKey, baseURL string, log *logger.Logger) *Client {
	return &Client{
		http:    httputil.NewWithHTTPClient(log, newLegacyCompatibleClient(DefaultTimeout)),
		logger:  log,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// WithCache caches list responses per (date, corp_cls)
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// WithRateLimiter shares the OpenDART quota across processes
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter) *Client {
	c.http.WithRedisRateLimit(limiter, redis.DARTRateLimit)
	return c
}

// newLegacyCompatibleClient creates an HTTP client compatible with legacy TLS servers
// DART server requires RSA key exchange cipher suites which Go 1.22+ no longer offers by default
func newLegacyCompatibleClient(timeout time.Duration) *http.Client {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,

		// Include RSA KEX cipher suites for legacy server compatibility
		CipherSuites: []uint16{
			// ECDHE (modern) - will be used if server supports
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,

			// RSA KEX (legacy) - required for DART
			tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_RSA_WITH_AES_128_CBC_SHA,
			tls.TLS_RSA_WITH_AES_256_CBC_SHA,
		},
	}

	tr := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false, // Disable HTTP/2 for legacy server compatibility

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout:   10 * time.Second,
		TLSClientConfig:       tlsCfg,
		MaxIdleConns:          20,
		MaxConnsPerHost:       5, // Reduced to avoid overwhelming DART
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
}

// ListResponse represents OpenDART list.json response
type ListResponse struct {
	Status     string     `json:"status"`
	Message    string     `json:"message"`
	PageNo     int        `json:"page_no"`
	PageCount  int        `json:"page_count"`
	TotalCount int        `json:"total_count"`
	TotalPage  int        `json:"total_page"`
	Items      []ListItem `json:"list"`
}

// ListItem represents a single disclosure item
type ListItem struct {
	CorpCode  string `json:"corp_code"`
	CorpName  string `json:"corp_name"`
	StockCode string `json:"stock_code"`
	CorpCls   string `json:"corp_cls"`  // Y: 유가, K: 코스닥, N: 코넥스, E: 기타
	ReportNm  string `json:"report_nm"` // 공시 제목
	RceptNo   string `json:"rcept_no"`  // 접수번호
	FlrNm     string `json:"flr_nm"`    // 공시 제출인
	RceptDt   string `json:"rcept_dt"`  // 접수일자 (YYYYMMDD)
	Rm        string `json:"rm"`        // 비고
}

// Markets
const (
	MarketKOSPI  = "KOSPI"
	MarketKOSDAQ = "KOSDAQ"
	MarketKONEX  = "KONEX"
	MarketETC    = "ETC"
)

// MarketOfCorpCls returns the market for an OpenDART corp_cls
func MarketOfCorpCls(corpCls string) string {
	switch corpCls {
	case "Y":
		return MarketKOSPI
	case "K":
		return MarketKOSDAQ
	case "N":
		return MarketKONEX
	default:
		return MarketETC
	}
}

// CorpClsOf returns the corp_cls queried for a target market
// KOSPI/KOSDAQ 외 시장은 조회하지 않음
func CorpClsOf(market string) (string, bool) {
	switch strings.ToUpper(market) {
	case MarketKOSPI:
		return "Y", true
	case MarketKOSDAQ:
		return "K", true
	default:
		return "", false
	}
}

// ViewerURL builds the DART disclosure URL
func ViewerURL(receiptNo string) string {
	return "https://dart.fss.or.kr/dsaf001/main.do?rcpNo=" + receiptNo
}
