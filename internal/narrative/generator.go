package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/config"
)

// SystemPrompt sets the writer persona for every provider
const SystemPrompt = "당신은 한국 증권업계 셀사이드 애널리스트 출신의 경제부 베테랑 기자다. " +
	"DART 공시를 바탕으로 중장기 가치 영향 중심의 심층 기사만 작성한다. " +
	"사실과 추론을 분리하고, 투자권유처럼 보이는 단정 표현을 피한다."

const temperature = 0.2

// Generator produces article text from a prompt pair
type Generator interface {
	Name() string
	Generate(ctx context.Context, system, user string) (string, error)
}

// NewGenerator builds the configured provider, or nil when its key is missing
func NewGenerator(cfg *config.Config) Generator {
	if !cfg.HasLLM() {
		return nil
	}
	switch cfg.LLM.Provider {
	case "anthropic":
		return NewAnthropicGenerator(cfg.LLM.AnthropicAPIKey, cfg.LLM.AnthropicModel)
	default:
		return NewOpenAIGenerator(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIModel)
	}
}

type promptFact struct {
	Rank        int                  `json:"rank"`
	Company     string               `json:"company"`
	Market      string               `json:"market"`
	Title       string               `json:"title"`
	URL         string               `json:"url"`
	PublishedAt string               `json:"published_at"`
	EventType   string               `json:"event_type"`
	Score       float64              `json:"score"`
	Reasons     []string             `json:"reasons"`
	Description string               `json:"description"`
	News        []contracts.NewsItem `json:"related_news"`
}

// BuildUserPrompt renders the facts block and writing requirements
func BuildUserPrompt(selected []contracts.ScoredDisclosure, news map[string][]contracts.NewsItem, runAt time.Time) (string, error) {
	facts := make([]promptFact, 0, len(selected))
	for i, item := range selected {
		d := item.Disclosure
		facts = append(facts, promptFact{
			Rank:        i + 1,
			Company:     d.Company,
			Market:      item.Market,
			Title:       d.Title,
			URL:         d.Link,
			PublishedAt: d.PublishedAt.Format(time.RFC3339),
			EventType:   item.EventType,
			Score:       item.TotalScore,
			Reasons:     item.Reasons,
			Description: d.Description,
			News:        news[d.ReceiptNo],
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(facts); err != nil {
		return "", fmt.Errorf("encode prompt facts: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("기준시각: " + runAt.Format(time.RFC3339) + "\n")
	sb.WriteString("아래 공시 후보를 대상으로 심층 기사 작성:\n")
	sb.WriteString("```json\n" + strings.TrimSpace(buf.String()) + "\n```\n")
	sb.WriteString("요구사항:\n")
	sb.WriteString("1) 제목 1개, 3줄 요약, 본문(사실/해석 분리), 관련 뉴스 요약, 투자자 관점 해석, 후속 체크포인트를 포함\n")
	sb.WriteString("2) 각 기업 섹션에 회사명과 원문 링크를 그대로 명시\n")
	sb.WriteString("3) 단기 주가 예측 대신 중장기 펀더멘털 관점으로 설명\n")
	sb.WriteString("4) 마지막에 투자권유 아님 면책 1문장\n")
	return sb.String(), nil
}

// cleanArticle strips a surrounding markdown code fence
func cleanArticle(content string) string {
	content = strings.TrimSpace(content)
	for _, fence := range []string{"```markdown", "```md", "```"} {
		if strings.HasPrefix(content, fence) {
			content = strings.TrimPrefix(content, fence)
			content = strings.TrimSuffix(strings.TrimSpace(content), "```")
			break
		}
	}
	return strings.TrimSpace(content)
}
