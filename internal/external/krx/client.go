package krx

import (
	"time"

	"github.com/wonny/dart-digest/pkg/httputil"
	"github.com/wonny/dart-digest/pkg/logger"
)

// DefaultTimeout for one KIND download
const DefaultTimeout = 30 * time.Second

// KIND listed-company downloads (EUC-KR HTML table)
var kindURLs = map[string]string{
	"KOSPI":  "https://kind.krx.co.kr/corpgeneral/corpList.do?method=download&marketType=stockMkt",
	"KOSDAQ": "https://kind.krx.co.kr/corpgeneral/corpList.do?method=download&marketType=kosdaqMkt",
}

// Client downloads the KRX KIND company lists
// ⭐ SSOT: KRX 상장사 목록 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	urls       map[string]string
}

// NewClient creates a new KIND client
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		urls:       kindURLs,
	}
}

// WithURLs overrides the per-market download URLs
func (c *Client) WithURLs(urls map[string]string) *Client {
	c.urls = urls
	return c
}
