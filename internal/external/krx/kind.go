package krx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/wonny/dart-digest/internal/market"
)

// Markets downloaded by Update, in order
var Markets = []string{"KOSPI", "KOSDAQ"}

// FetchMarket downloads and parses one market's company list
func (c *Client) FetchMarket(ctx context.Context, mkt string) ([]market.Company, error) {
	url, ok := c.urls[mkt]
	if !ok {
		return nil, fmt.Errorf("unsupported market: %s", mkt)
	}

	body, err := c.httpClient.GetBody(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download %s company list: %w", mkt, err)
	}

	companies, err := ParseKIND(body, mkt)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"market":    mkt,
		"companies": len(companies),
	}).Info("Fetched KIND company list")

	return companies, nil
}

// ParseKIND parses the EUC-KR table: 회사명 | 시장구분 | 종목코드 | ...
func ParseKIND(body []byte, defaultMarket string) ([]market.Company, error) {
	reader := transform.NewReader(bytes.NewReader(body), korean.EUCKR.NewDecoder())
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse KIND table: %w", err)
	}

	var companies []market.Company
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 3 {
			return
		}

		name := cleanText(cells.Eq(0).Text())
		if name == "회사명" {
			return
		}
		marketCell := cleanText(cells.Eq(1).Text())
		ticker := strings.ToUpper(cleanText(cells.Eq(2).Text()))
		if name == "" || ticker == "" {
			return
		}

		resolved := defaultMarket
		switch {
		case strings.Contains(marketCell, "코스닥"):
			resolved = "KOSDAQ"
		case strings.Contains(marketCell, "유가"):
			resolved = "KOSPI"
		}

		companies = append(companies, market.Company{Name: name, Ticker: ticker, Market: resolved})
	})

	return companies, nil
}

// Update downloads every market and writes the company map CSV
// (회사명, 종목코드) 기준 중복 제거, 시장/회사명/종목코드 순 정렬
func (c *Client) Update(ctx context.Context, outPath string) (int, error) {
	unique := make(map[[2]string]market.Company)
	for _, mkt := range Markets {
		companies, err := c.FetchMarket(ctx, mkt)
		if err != nil {
			return 0, err
		}
		for _, co := range companies {
			unique[[2]string{co.Name, co.Ticker}] = co
		}
	}

	rows := make([]market.Company, 0, len(unique))
	for _, co := range unique {
		rows = append(rows, co)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create company map: %w", err)
	}
	defer f.Close()

	if err := market.WriteCSV(f, rows); err != nil {
		return 0, fmt.Errorf("write company map: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"path":      outPath,
		"companies": len(rows),
	}).Info("Company map updated")

	return len(rows), nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
