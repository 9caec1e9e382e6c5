package krx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/wonny/dart-digest/internal/market"
	"github.com/wonny/dart-digest/pkg/httputil"
	"github.com/wonny/dart-digest/pkg/logger"
)

func eucKR(t *testing.T, s string) []byte {
	t.Helper()
	out, err := korean.EUCKR.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

const kospiTable = `<html><head><meta http-equiv="Content-Type" content="text/html; charset=euc-kr"></head><body>
<table>
<tr><th>회사명</th><th>시장구분</th><th>종목코드</th><th>업종</th></tr>
<tr><td>삼성전자</td><td>유가</td><td>005930</td><td>통신 및 방송 장비 제조업</td></tr>
<tr><td>  NAVER  </td><td>유가</td><td>035420</td><td>서비스업</td></tr>
<tr><td>빈코드</td><td>유가</td><td></td><td></td></tr>
<tr><td>짧은행</td></tr>
</table></body></html>`

const kosdaqTable = `<table>
<tr><th>회사명</th><th>시장구분</th><th>종목코드</th></tr>
<tr><td>카카오게임즈</td><td>코스닥</td><td>293490</td></tr>
<tr><td>삼성전자</td><td>유가</td><td>005930</td></tr>
</table>`

func TestParseKIND(t *testing.T) {
	companies, err := ParseKIND(eucKR(t, kospiTable), "KOSPI")
	require.NoError(t, err)
	require.Len(t, companies, 2)

	assert.Equal(t, market.Company{Name: "삼성전자", Ticker: "005930", Market: "KOSPI"}, companies[0])
	assert.Equal(t, "NAVER", companies[1].Name)
}

func TestParseKIND_MarketCellWins(t *testing.T) {
	companies, err := ParseKIND(eucKR(t, kosdaqTable), "KOSPI")
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "KOSDAQ", companies[0].Market)
	assert.Equal(t, "KOSPI", companies[1].Market)
}

func TestUpdate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/kospi", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(eucKR(t, kospiTable))
	})
	mux.HandleFunc("/kosdaq", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(eucKR(t, kosdaqTable))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(httputil.New(logger.NewNop()), logger.NewNop()).WithURLs(map[string]string{
		"KOSPI":  server.URL + "/kospi",
		"KOSDAQ": server.URL + "/kosdaq",
	})

	out := filepath.Join(t.TempDir(), "data", "companies.csv")
	count, err := client.Update(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 3, count) // 삼성전자 중복 제거

	u, err := market.LoadUniverse(out)
	require.NoError(t, err)
	mkt, ok := u.MarketOf("카카오게임즈")
	assert.True(t, ok)
	assert.Equal(t, "KOSDAQ", mkt)
}

func TestFetchMarket_Unsupported(t *testing.T) {
	client := NewClient(httputil.New(logger.NewNop()), logger.NewNop())
	_, err := client.FetchMarket(context.Background(), "KONEX")
	assert.Error(t, err)
}
