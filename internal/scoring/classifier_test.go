package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"capital", "삼성전자(유상증자결정)", "지배구조/자본변동"},
		{"merger", "현대차(회사합병결정)", "M&A/사업재편"},
		{"audit", "에이비씨(감사의견거절)", "감사/리스크"},
		{"contract", "카카오(단일판매ㆍ공급계약체결)", "수주/계약"},
		{"earnings", "LG화학(연결재무제표기준영업(잠정)실적(공정공시))", "실적/전망"},
		{"controlling", "SK(최대주주변경)", "지배주주/특수관계"},
		{"return", "KT(현금ㆍ현물배당결정)", "주주환원"},
		{"fallback", "테스트회사 (임시주주총회 소집결의)", "기타"},
		{"whitespace removed", "테스트 (유상 증자 결정)", "지배구조/자본변동"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.title).EventType)
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	// 키워드 등장 순서와 무관하게 먼저 선언된 규칙이 이긴다
	assert.Equal(t, "지배구조/자본변동", Classify("합병 후 유상증자 결정").EventType)
	assert.Equal(t, "지배구조/자본변동", Classify("유상증자 및 합병 결정").EventType)

	// 자기주식취득은 지배주주 규칙(자기주식)에 먼저 걸린다
	assert.Equal(t, "지배주주/특수관계", Classify("자기주식취득결정").EventType)
}

func TestEventRulesOrder(t *testing.T) {
	expected := []string{
		"지배구조/자본변동",
		"M&A/사업재편",
		"감사/리스크",
		"수주/계약",
		"실적/전망",
		"지배주주/특수관계",
		"주주환원",
	}

	if assert.Len(t, EventRules, len(expected)) {
		for i, rule := range EventRules {
			assert.Equal(t, expected[i], rule.EventType, "rule %d", i)
			assert.NotEmpty(t, rule.Reason)
		}
	}
}

func TestFallbackRule(t *testing.T) {
	rule := Classify("정기주주총회결과")
	assert.Equal(t, "기타", rule.EventType)
	assert.Equal(t, 55.0, rule.EventScore)
	assert.Equal(t, 50.0, rule.PersistenceScore)
	assert.Equal(t, "핵심 이벤트 분류에 직접 매칭되지 않아 보수적으로 평가", rule.Reason)
}
