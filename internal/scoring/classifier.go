package scoring

import (
	"strings"
	"unicode"
)

// EventRule is one row of the classification table
type EventRule struct {
	EventType        string
	Keywords         []string
	EventScore       float64
	PersistenceScore float64
	Reason           string
}

// EventRules is evaluated top to bottom, first match wins
// ⭐ SSOT: 이벤트 분류 우선순위 (순서 변경 금지)
var EventRules = []EventRule{
	{
		EventType:        "지배구조/자본변동",
		Keywords:         []string{"유상증자", "무상증자", "감자", "전환사채", "신주인수권부사채"},
		EventScore:       95,
		PersistenceScore: 88,
		Reason:           "자본구조 변화는 희석/레버리지/주주가치에 중장기 영향을 줄 가능성이 큼",
	},
	{
		EventType:        "M&A/사업재편",
		Keywords:         []string{"합병", "분할", "영업양수", "영업양도", "주식양수도", "인수"},
		EventScore:       92,
		PersistenceScore: 90,
		Reason:           "사업 포트폴리오 재편은 이익체력과 밸류에이션 체계를 바꿀 수 있음",
	},
	{
		EventType:        "감사/리스크",
		Keywords:         []string{"감사의견", "의견거절", "한정", "부적정", "회생", "상장폐지", "영업정지"},
		EventScore:       96,
		PersistenceScore: 84,
		Reason:           "감사/규제 이벤트는 자금조달과 시장 신뢰도에 구조적 영향을 미칠 수 있음",
	},
	{
		EventType:        "수주/계약",
		Keywords:         []string{"단일판매", "공급계약", "장기공급", "수주"},
		EventScore:       85,
		PersistenceScore: 82,
		Reason:           "대형 계약은 중기 매출 가시성과 실적 추정치를 바꿀 수 있음",
	},
	{
		EventType:        "실적/전망",
		Keywords:         []string{"잠정실적", "영업실적", "실적", "매출액", "영업이익", "당기순이익", "전망"},
		EventScore:       80,
		PersistenceScore: 75,
		Reason:           "실적 체력 변화는 이익 추정과 멀티플 재평가로 이어질 수 있음",
	},
	{
		EventType:        "지배주주/특수관계",
		Keywords:         []string{"최대주주", "특수관계인", "임원", "자사주", "자기주식"},
		EventScore:       77,
		PersistenceScore: 78,
		Reason:           "지배주주 관련 이벤트는 거버넌스 프리미엄/디스카운트 요인",
	},
	{
		EventType:        "주주환원",
		Keywords:         []string{"배당", "자기주식취득", "소각", "주주환원"},
		EventScore:       72,
		PersistenceScore: 70,
		Reason:           "주주환원 정책은 장기 자본배분 기대를 바꿀 수 있음",
	},
}

// FallbackRule applies when no keyword matches
var FallbackRule = EventRule{
	EventType:        "기타",
	EventScore:       55,
	PersistenceScore: 50,
	Reason:           "핵심 이벤트 분류에 직접 매칭되지 않아 보수적으로 평가",
}

// Classify returns the first rule whose keyword appears in the title
func Classify(title string) EventRule {
	compact := stripSpaces(title)
	for _, rule := range EventRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(compact, kw) {
				return rule
			}
		}
	}
	return FallbackRule
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
