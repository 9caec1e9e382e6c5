package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// CSV header used by the company map
var csvHeader = []string{"company_name", "ticker", "market"}

var (
	punctuation = strings.NewReplacer(".", "", "·", "", "ㆍ", "", ",", "", "'", "", `"`, "")
	parenthesis = regexp.MustCompile(`\([^)]*\)`)
)

// Company is one row of the company map
type Company struct {
	Name   string `json:"company_name"`
	Ticker string `json:"ticker"`
	Market string `json:"market"`
}

// Universe maps normalised company names to listings
// ⭐ SSOT: 회사명 → 시장 조회는 여기서만
type Universe struct {
	mu    sync.RWMutex
	items map[string]Company
}

// NewUniverse builds a universe from rows (later rows win on duplicate names)
func NewUniverse(companies []Company) *Universe {
	return &Universe{items: index(companies)}
}

func index(companies []Company) map[string]Company {
	items := make(map[string]Company, len(companies))
	for _, c := range companies {
		name := strings.TrimSpace(c.Name)
		mkt := strings.ToUpper(strings.TrimSpace(c.Market))
		if name == "" || mkt == "" {
			continue
		}
		items[Normalize(name)] = Company{Name: name, Ticker: strings.TrimSpace(c.Ticker), Market: mkt}
	}
	return items
}

// LoadUniverse reads the company map CSV
// 파일/컬럼 누락은 설정 오류
func LoadUniverse(path string) (*Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("company map not found: %w", err)
		}
		return nil, fmt.Errorf("open company map: %w", err)
	}
	defer f.Close()

	companies, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load company map %s: %w", path, err)
	}
	return NewUniverse(companies), nil
}

// Reload swaps in the rows of path; the current map is kept on error
func (u *Universe) Reload(path string) error {
	fresh, err := LoadUniverse(path)
	if err != nil {
		return err
	}

	u.mu.Lock()
	u.items = fresh.items
	u.mu.Unlock()
	return nil
}

// ReadCSV parses company_name,ticker,market rows (extra columns ignored)
func ReadCSV(r io.Reader) ([]Company, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimPrefix(strings.TrimSpace(col), "\ufeff")] = i
	}
	for _, col := range csvHeader {
		if _, ok := index[col]; !ok {
			return nil, errors.New("company map CSV must contain columns: company_name,ticker,market")
		}
	}

	field := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var companies []Company
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		companies = append(companies, Company{
			Name:   field(row, "company_name"),
			Ticker: field(row, "ticker"),
			Market: strings.ToUpper(field(row, "market")),
		})
	}

	return companies, nil
}

// WriteCSV writes companies sorted by market, name, ticker
func WriteCSV(w io.Writer, companies []Company) error {
	sorted := make([]Company, len(companies))
	copy(sorted, companies)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Market != b.Market {
			return a.Market < b.Market
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Ticker < b.Ticker
	})

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range sorted {
		if err := writer.Write([]string{c.Name, c.Ticker, c.Market}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Lookup returns the listing for a company name
// 정확 매칭 실패 시 괄호 부분을 제거하고 재시도
func (u *Universe) Lookup(name string) (Company, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	key := Normalize(name)
	if c, ok := u.items[key]; ok {
		return c, true
	}

	c, ok := u.items[parenthesis.ReplaceAllString(key, "")]
	return c, ok
}

// MarketOf implements contracts.MarketLookup
func (u *Universe) MarketOf(name string) (string, bool) {
	c, ok := u.Lookup(name)
	if !ok {
		return "", false
	}
	return c.Market, true
}

// Len returns the number of companies
func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.items)
}

// CountByMarket returns company counts per market
func (u *Universe) CountByMarket() map[string]int {
	u.mu.RLock()
	defer u.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range u.items {
		counts[c.Market]++
	}
	return counts
}

// Normalize trims, upper-cases and strips whitespace and punctuation
func Normalize(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return punctuation.Replace(s)
}
