package scoring

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// 1.2조, 3500억, 40,000백만 ...
	amountPattern  = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(조|억|백만|천만|만원|원)`)
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

var unitMultiplier = map[string]float64{
	"조":  1e12,
	"억":  1e8,
	"백만": 1e6,
	"천만": 1e7,
	"만원": 1e4,
	"원":  1,
}

const (
	amountBaseline    = 35.0
	percentBaseline   = 30.0
	financialFloor    = 40.0
	confidenceInitial = 55.0
)

const (
	reasonFinancialWeak    = "재무 임팩트를 뒷받침하는 수치 정보가 제한적"
	reasonFinancialAmount  = "공시 내 금액 단서가 커 재무 영향 가능성을 높게 반영"
	reasonFinancialPercent = "공시 내 비율 변화 단서가 커 이익 변동성을 높게 반영"
	reasonConfidenceWeak   = "신뢰도를 높이는 구조적 단서가 제한적"
	reasonConfidencePrefix = "신뢰도 판단: "
)

var decisiveWords = []string{"결정", "체결", "확정", "승인"}

// AmountScore maps the largest KRW amount in text onto [50, 100]
// 1e8원 ≈ 68, 1e10원 ≈ 80, 1e12원 ≈ 92
func AmountScore(text string) float64 {
	matches := amountPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return amountBaseline
	}

	maxValue := 0.0
	found := false
	for _, m := range matches {
		num, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		value := num * unitMultiplier[m[2]]
		if !found || value > maxValue {
			maxValue = value
			found = true
		}
	}
	if !found {
		return amountBaseline
	}

	score := 20.0 + 6.0*math.Log10(math.Max(maxValue, 1))
	return clamp(score, 50, 100)
}

// PercentScore maps the largest percentage in text via fixed thresholds
func PercentScore(text string) float64 {
	matches := percentPattern.FindAllStringSubmatch(text, -1)
	high := -1.0
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v > high {
			high = v
		}
	}

	switch {
	case high < 0:
		return percentBaseline
	case high >= 100:
		return 85
	case high >= 50:
		return 78
	case high >= 20:
		return 70
	case high >= 10:
		return 60
	default:
		return 50
	}
}

// FinancialImpact combines amount and percent cues
func FinancialImpact(text string) (float64, string) {
	amount := AmountScore(text)
	pct := PercentScore(text)

	score := math.Min(100, math.Max(amount, pct))
	if score <= financialFloor {
		return financialFloor, reasonFinancialWeak
	}
	if amount >= pct {
		return score, reasonFinancialAmount
	}
	return score, reasonFinancialPercent
}

// Confidence scores how concrete the filing reads
// 규칙 적용 순서: 숫자 → 정정 → 제목 길이 → 확정성 단어
func Confidence(title, text string) (float64, string) {
	score := confidenceInitial
	var parts []string

	if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
		score += 15
		parts = append(parts, "숫자 단서 포함")
	}

	if strings.Contains(title, "정정") {
		score -= 12
		parts = append(parts, "정정공시로 불확실성 가중")
	}

	if utf8.RuneCountInString(title) >= 12 {
		score += 8
		parts = append(parts, "제목 정보량 충분")
	}

	for _, w := range decisiveWords {
		if strings.Contains(title, w) {
			score += 10
			parts = append(parts, "행위의 확정성 단어 포함")
			break
		}
	}

	score = clamp(score, 30, 95)
	if len(parts) == 0 {
		return score, reasonConfidenceWeak
	}
	return score, reasonConfidencePrefix + strings.Join(parts, ", ")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
