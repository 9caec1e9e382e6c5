package narrative

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dart-digest/internal/contracts"
)

const (
	// EmptyArticle is returned when nothing was selected
	EmptyArticle = "오늘은 분석 대상 공시가 없습니다."

	// Disclaimer closes every article
	Disclaimer = "\n\n---\n본 콘텐츠는 정보 제공 목적이며, 특정 종목의 매수·매도 추천이 아닙니다. 투자 판단과 책임은 투자자 본인에게 있습니다."

	runAtLayout = "2006-01-02 15:04:05"
)

// investorViews maps an event category to its interpretation paragraph
var investorViews = map[string]string{
	"지배구조/자본변동": "주식 수 변화와 자금 사용처가 주당가치에 미치는 영향을 우선 점검해야 한다. 희석 규모 대비 조달 자금이 이익 체력 개선으로 이어지는지가 관건이다.",
	"M&A/사업재편":  "거래 이후 사업 포트폴리오와 현금흐름 구조가 어떻게 바뀌는지가 핵심이다. 인수 가격의 적정성과 통합 비용이 중기 수익성에 반영되는 속도를 봐야 한다.",
	"감사/리스크":    "감사 의견과 재무 신뢰성 이슈는 밸류에이션 할인 요인으로 장기간 남을 수 있다. 해소 경로와 일정이 구체적으로 제시되는지 확인이 필요하다.",
	"수주/계약":     "계약 규모가 매출 대비 어느 정도인지, 이행 기간 동안 마진이 유지되는지가 중요하다. 일회성 수주인지 반복 가능한 공급 구조인지 구분해 봐야 한다.",
	"실적/전망":     "일회성 요인을 걷어낸 영업이익 추세가 시장 기대와 어떻게 다른지가 핵심이다. 가이던스 변화는 이후 분기 추정치 조정으로 이어질 수 있다.",
	"지배주주/특수관계": "지배주주와 특수관계인 거래는 소수주주 이익과의 정렬 여부를 판단하는 근거가 된다. 거래 조건의 공정성과 반복 여부를 추적해야 한다.",
	"주주환원":      "환원 정책의 지속 가능성은 잉여현금흐름과 투자 계획에 달려 있다. 일회성 환원인지 정책화된 환원인지에 따라 평가가 달라진다.",
}

const defaultInvestorView = "공시 자체의 단기 파급력은 제한적일 수 있으나, 후속 공시와 실적 반영 여부에 따라 해석이 달라질 수 있다."

// Template renders the deterministic fallback article
// 접수번호/시나리오 섹션은 넣지 않음
func Template(selected []contracts.ScoredDisclosure, news map[string][]contracts.NewsItem, runAt time.Time) string {
	if len(selected) == 0 {
		return EmptyArticle
	}

	blocks := []string{
		"# " + Headline(selected),
		"작성시각: " + runAt.Format(runAtLayout),
		strings.Join(summaryLines(selected), "\n"),
	}
	for i := range selected {
		item := &selected[i]
		blocks = append(blocks, itemBlock(i+1, item, news[item.Disclosure.ReceiptNo]))
	}

	return strings.Join(blocks, "\n\n") + Disclaimer
}

// Headline builds the article title for one or two picks
func Headline(selected []contracts.ScoredDisclosure) string {
	first := selected[0]
	if len(selected) == 1 {
		return fmt.Sprintf("%s 공시 심층: %s의 중장기 함의", first.Disclosure.Company, first.EventType)
	}
	return fmt.Sprintf("오늘의 핵심 공시 2선: %s·%s 이슈의 구조적 파장", first.Disclosure.Company, selected[1].Disclosure.Company)
}

func summaryLines(selected []contracts.ScoredDisclosure) []string {
	lines := []string{"## 핵심 요약"}
	for _, item := range selected {
		lines = append(lines, fmt.Sprintf("- %s: %s (%.1f점)", item.Disclosure.Company, item.EventType, item.TotalScore))
	}
	return append(lines, "- 단기 변동성보다 이익체력·자본구조·거버넌스 변화의 지속성에 초점을 맞춤")
}

func itemBlock(rank int, item *contracts.ScoredDisclosure, news []contracts.NewsItem) string {
	reasons := item.Reasons
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}

	lines := []string{
		fmt.Sprintf("## %d. %s - %s", rank, item.Disclosure.Company, item.EventType),
		"- 공시명: " + item.Disclosure.Title,
		"- 링크: " + item.Disclosure.Link,
		fmt.Sprintf("- 종합 중요도: %.1f / 100", item.TotalScore),
		"- 핵심 판단 근거: " + strings.Join(reasons, " / "),
		"",
		"### 왜 중장기적으로 중요한가",
		longTermView(item),
		"",
		"### 관련 뉴스 요약",
		newsSummary(news),
		"",
		"### 투자자 관점 해석",
		investorView(item.EventType),
		"",
		"### 후속 체크포인트",
		followUps,
	}
	return strings.Join(lines, "\n")
}

func longTermView(item *contracts.ScoredDisclosure) string {
	return fmt.Sprintf(
		"이번 공시는 `%s` 성격으로 분류됐다. 이벤트 점수(%.1f)와 지속성 점수(%.1f)가 높아 "+
			"단기 뉴스플로우를 넘어 중기 실적 추정치 및 밸류에이션 가정 변경 가능성이 있다.",
		item.EventType, item.EventScore, item.PersistenceScore)
}

func newsSummary(news []contracts.NewsItem) string {
	if len(news) == 0 {
		return "- 관련 보도를 찾지 못했다. 공시 원문 중심으로 판단한다."
	}

	lines := make([]string, 0, len(news))
	for _, n := range news {
		meta := n.PublishedAt
		if n.Source != "" {
			meta = n.Source + ", " + meta
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)\n  %s", n.Title, meta, n.Link))
	}
	return strings.Join(lines, "\n")
}

func investorView(eventType string) string {
	if view, ok := investorViews[eventType]; ok {
		return view
	}
	return defaultInvestorView
}

const followUps = "1) 후속 정정공시/첨부정정 여부\n" +
	"2) 분기 실적 공시에서의 숫자 반영 속도\n" +
	"3) 자금조달/부채비율/현금흐름 등 재무지표의 실제 변화"
