package narrative

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/pkg/logger"
)

// TemplateGenerator names the deterministic writer in results
const TemplateGenerator = "template"

var (
	// ErrEmptyArticle is recorded when the generator returned no text
	ErrEmptyArticle = errors.New("generator returned empty article")

	// ErrFactGate is recorded when generated text misses a company or link
	ErrFactGate = errors.New("generated article failed fact gate")
)

// Writer implements contracts.Narrator
// ⭐ SSOT: LLM 실패/공백/팩트게이트 미통과 → 템플릿
type Writer struct {
	generator Generator
	timeout   time.Duration
	logger    *logger.Logger
}

// NewWriter creates a writer; a nil generator always uses the template
func NewWriter(generator Generator, timeout time.Duration, log *logger.Logger) *Writer {
	return &Writer{
		generator: generator,
		timeout:   timeout,
		logger:    log,
	}
}

// Write implements contracts.Narrator
func (w *Writer) Write(ctx context.Context, runAt time.Time, selected []contracts.ScoredDisclosure, news map[string][]contracts.NewsItem) contracts.NarrativeResult {
	if len(selected) == 0 {
		return contracts.NarrativeResult{Text: EmptyArticle, Origin: contracts.OriginFallback, Generator: TemplateGenerator}
	}

	if w.generator == nil {
		return w.fallback(selected, news, runAt, nil)
	}

	text, err := w.generate(ctx, selected, news, runAt)
	if err != nil {
		w.logger.WithFields(map[string]interface{}{
			"generator": w.generator.Name(),
			"error":     err.Error(),
		}).Warn("Narrative generation fell back to template")
		return w.fallback(selected, news, runAt, err)
	}

	return contracts.NarrativeResult{
		Text:      text,
		Origin:    contracts.OriginGenerated,
		Generator: w.generator.Name(),
	}
}

func (w *Writer) generate(ctx context.Context, selected []contracts.ScoredDisclosure, news map[string][]contracts.NewsItem, runAt time.Time) (string, error) {
	prompt, err := BuildUserPrompt(selected, news, runAt)
	if err != nil {
		return "", err
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	text, err := w.generator.Generate(ctx, SystemPrompt, prompt)
	if err != nil {
		return "", err
	}

	text = cleanArticle(text)
	if text == "" {
		return "", ErrEmptyArticle
	}
	if !PassesFactGate(text, selected) {
		return "", ErrFactGate
	}
	return text, nil
}

func (w *Writer) fallback(selected []contracts.ScoredDisclosure, news map[string][]contracts.NewsItem, runAt time.Time, cause error) contracts.NarrativeResult {
	return contracts.NarrativeResult{
		Text:      Template(selected, news, runAt),
		Origin:    contracts.OriginFallback,
		Generator: TemplateGenerator,
		Err:       cause,
	}
}
