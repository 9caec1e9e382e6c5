package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/httputil"
	"github.com/wonny/dart-digest/pkg/logger"
	"github.com/wonny/dart-digest/pkg/redis"
)

const (
	// ChunkSize is the maximum characters per webhook message
	ChunkSize = 3200

	// DefaultTimeout per webhook call
	DefaultTimeout = 15 * time.Second

	// minSplitOffset: 줄바꿈 분할은 청크 시작에서 이 이상 떨어져 있을 때만
	minSplitOffset = 200

	// IntroPrefix heads every message this publisher sends
	IntroPrefix = "[DART 심층 리포트]"
)

// Publisher posts reports to a Slack incoming webhook
// ⭐ SSOT: Slack 전송은 여기서만
type Publisher struct {
	http       *httputil.Client
	logger     *logger.Logger
	webhookURL string
	channel    string
}

// NewPublisher creates a publisher; an empty webhook disables delivery
func NewPublisher(webhookURL, channel string, log *logger.Logger) *Publisher {
	return &Publisher{
		// 웹훅 재시도는 중복 게시가 될 수 있음
		http:       httputil.NewWithTimeout(log, DefaultTimeout).DisableRetry(),
		logger:     log,
		webhookURL: strings.TrimSpace(webhookURL),
		channel:    strings.TrimSpace(channel),
	}
}

// WithRateLimiter throttles webhook posts across processes
func (p *Publisher) WithRateLimiter(limiter *redis.RateLimiter) *Publisher {
	p.http.WithRedisRateLimit(limiter, redis.SlackRateLimit)
	return p
}

// Configured reports whether a webhook URL is set
func (p *Publisher) Configured() bool {
	return p.webhookURL != ""
}

type payload struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"`
}

// Publish implements contracts.Publisher
func (p *Publisher) Publish(ctx context.Context, text string, selected []contracts.ScoredDisclosure, runAt time.Time) (bool, error) {
	if !p.Configured() {
		return false, nil
	}

	chunks := ChunkText(text, ChunkSize)
	first := ""
	if len(chunks) > 0 {
		first = chunks[0]
		chunks = chunks[1:]
	}
	messages := append([]string{Intro(selected, runAt) + "\n\n" + first}, chunks...)

	for i, msg := range messages {
		if err := p.post(ctx, msg); err != nil {
			return false, fmt.Errorf("slack publish failed at chunk %d: %w", i+1, err)
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"chunks":   len(messages),
		"selected": len(selected),
	}).Info("Report published to Slack")

	return true, nil
}

// PublishText implements contracts.Publisher
func (p *Publisher) PublishText(ctx context.Context, text string) (bool, error) {
	if !p.Configured() {
		return false, nil
	}
	if err := p.post(ctx, text); err != nil {
		return false, fmt.Errorf("slack publish failed: %w", err)
	}
	return true, nil
}

func (p *Publisher) post(ctx context.Context, text string) error {
	resp, err := p.http.PostJSON(ctx, p.webhookURL, payload{Text: text, Channel: p.channel})
	if err != nil {
		return err
	}

	if _, err := httputil.ReadBody(resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			if statusErr.StatusCode < 400 {
				return nil
			}
			return fmt.Errorf("%d %s", statusErr.StatusCode, statusErr.Body)
		}
		return err
	}
	return nil
}

// Intro renders "[DART 심층 리포트] YYYY-MM-DD\n선정 공시: 회사(점수), ..."
func Intro(selected []contracts.ScoredDisclosure, runAt time.Time) string {
	picked := make([]string, 0, len(selected))
	for _, item := range selected {
		picked = append(picked, fmt.Sprintf("%s(%.1f)", item.Disclosure.Company, item.TotalScore))
	}
	return fmt.Sprintf("%s %s\n선정 공시: %s", IntroPrefix, runAt.Format(contracts.ReportDateLayout), strings.Join(picked, ", "))
}

// ChunkText splits text into pieces of at most size characters
func ChunkText(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if end < len(runes) {
			if split := lastNewline(runes, start, end); split > start+minSplitOffset {
				end = split
			}
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end
	}
	return chunks
}

func lastNewline(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}
