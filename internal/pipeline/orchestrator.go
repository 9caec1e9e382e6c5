package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/internal/market"
	"github.com/wonny/dart-digest/internal/scoring"
	"github.com/wonny/dart-digest/internal/selection"
	"github.com/wonny/dart-digest/pkg/logger"
)

// lockTTL bounds how long a crashed run can hold the date lock
const lockTTL = 15 * time.Minute

// Skip and completion messages
const (
	MsgNoNew          = "No new disclosures after deduplication."
	MsgBelowThreshold = "No disclosure passed the importance threshold."
	MsgNotSent        = "Report generated but not sent to Slack (missing SLACK_WEBHOOK_URL)."
	MsgInProgress     = "Another run for this date is in progress."
	noticePrefix      = "[DART 심층 리포트]"
)

// Deps are the collaborators of one orchestrator
// News, Publisher, Lock 은 nil 허용
type Deps struct {
	Filter     *market.Filter
	Scorer     *scoring.Scorer
	Policy     *selection.Policy
	Ledger     contracts.Ledger
	Narrator   contracts.Narrator
	News       contracts.NewsFinder
	Publisher  contracts.Publisher
	Lock       contracts.RunLock
	Markets    []string
	TuningHash string
	Location   *time.Location
}

// Options control a single run
type Options struct {
	Force        bool      // 중복 제거 생략
	DryRun       bool      // 전송 생략
	NotifyOnSkip bool      // 스킵 시 알림 전송
	RunAt        time.Time // zero 이면 현재 시각
}

// Orchestrator runs fetch → market → dedup → score → mark → select → narrate → save → publish
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	deps Deps

	mu        sync.Mutex // 동일 프로세스 내 실행 직렬화
	observers []func(contracts.RunResult)
	obsMu     sync.RWMutex

	now    func() time.Time
	logger *logger.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(deps Deps, log *logger.Logger) *Orchestrator {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &Orchestrator{
		deps:   deps,
		now:    time.Now,
		logger: log,
	}
}

// Subscribe registers fn to receive every finished run
func (o *Orchestrator) Subscribe(fn func(contracts.RunResult)) {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()
	o.observers = append(o.observers, fn)
}

// Run executes one pipeline run against source
// 모든 실행은 completed/skipped/failed 중 하나로 끝남
func (o *Orchestrator) Run(ctx context.Context, source contracts.Source, opts Options) *contracts.RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	runAt := opts.RunAt
	if runAt.IsZero() {
		runAt = o.now()
	}
	runAt = runAt.In(o.deps.Location)

	result := &contracts.RunResult{
		RunID:     uuid.New().String(),
		Date:      runAt.Format(contracts.ReportDateLayout),
		StartedAt: o.now(),
	}
	log := o.logger.WithRun(result.RunID, result.Date).WithFields(map[string]interface{}{
		"force":   opts.Force,
		"dry_run": opts.DryRun,
	})
	log.Info("Starting digest run")

	defer func() {
		result.Duration = time.Since(result.StartedAt).Milliseconds()
		log.WithFields(map[string]interface{}{
			"status":   string(result.Status),
			"message":  result.Message,
			"duration": result.Duration,
		}).Info("Digest run finished")
		o.notify(*result)
	}()

	if o.deps.Lock != nil {
		release, ok, err := o.deps.Lock.Acquire(ctx, "run:"+result.Date, lockTTL)
		switch {
		case err != nil:
			log.WithError(err).Warn("Run lock unavailable, continuing without it")
		case !ok:
			result.Status = contracts.RunSkipped
			result.Message = MsgInProgress
			return result
		default:
			defer release()
		}
	}

	// 당일 리포트가 이미 있으면 재전송하지 않음 (--force 로 덮어쓰기)
	if !opts.Force {
		exists, err := o.deps.Ledger.ReportExists(ctx, result.Date)
		switch {
		case err != nil:
			o.fail(result, contracts.StageDedup, err, log)
			return result
		case exists:
			o.skip(result, ReportExistsMessage(result.Date))
			return result
		}
	}

	o.run(ctx, source, opts, runAt, result, log)

	if result.Status == contracts.RunSkipped && opts.NotifyOnSkip && !opts.DryRun {
		o.sendSkipNotice(ctx, runAt, result.Message, log)
	}
	return result
}

func (o *Orchestrator) run(ctx context.Context, source contracts.Source, opts Options, runAt time.Time, result *contracts.RunResult, log *logger.Logger) {
	// FETCH
	disclosures, err := source.Fetch(ctx)
	if err != nil {
		o.fail(result, contracts.StageFetch, err, log)
		return
	}
	result.Counts.Fetched = len(disclosures)
	o.logStage(log, contracts.StageFetch, len(disclosures))

	// MARKET
	candidates := o.deps.Filter.Apply(disclosures)
	result.Counts.InMarket = len(candidates)
	o.logStage(log, contracts.StageMarket, len(candidates))
	if len(candidates) == 0 {
		o.skip(result, fmt.Sprintf("No %s disclosures found.", strings.Join(o.deps.Markets, "/")))
		return
	}

	// DEDUP
	if !opts.Force {
		candidates, err = o.dedup(ctx, candidates)
		if err != nil {
			o.fail(result, contracts.StageDedup, err, log)
			return
		}
	}
	result.Counts.New = len(candidates)
	o.logStage(log, contracts.StageDedup, len(candidates))
	if len(candidates) == 0 {
		o.skip(result, MsgNoNew)
		return
	}

	// SCORE
	scored := o.deps.Scorer.ScoreAll(candidates)
	result.Counts.Scored = len(scored)
	o.logStage(log, contracts.StageScore, len(scored))

	// MARK
	for i := range scored {
		if err := o.deps.Ledger.MarkProcessed(ctx, &scored[i]); err != nil {
			o.fail(result, contracts.StageMark, err, log)
			return
		}
	}
	o.logStage(log, contracts.StageMark, len(scored))

	// SELECT
	selected, decision := o.deps.Policy.Decide(scored)
	result.Decision = string(decision)
	o.logStage(log, contracts.StageSelect, len(selected))
	if len(selected) == 0 {
		o.skip(result, MsgBelowThreshold)
		return
	}

	// NARRATE
	news := o.relatedNews(ctx, selected, log)
	narrative := o.deps.Narrator.Write(ctx, runAt, selected, news)
	narrateLog := log.WithStage(contracts.StageNarrate).WithFields(map[string]interface{}{
		"origin":    string(narrative.Origin),
		"generator": narrative.Generator,
	})
	if narrative.Err != nil {
		narrateLog = narrateLog.WithError(narrative.Err)
	}
	narrateLog.Info("Stage completed")

	sel := &contracts.Selection{
		Date:       result.Date,
		RunID:      result.RunID,
		RunAt:      runAt,
		Items:      selected,
		Article:    narrative.Text,
		Origin:     narrative.Origin,
		Generator:  narrative.Generator,
		TuningHash: o.deps.TuningHash,
	}
	result.Selection = sel

	// SAVE
	if err := o.deps.Ledger.SaveReport(ctx, sel); err != nil {
		o.fail(result, contracts.StageSave, err, log)
		return
	}
	o.logStage(log, contracts.StageSave, len(selected))

	result.Status = contracts.RunCompleted
	result.Message = fmt.Sprintf("Generated report with %d disclosure(s).", len(selected))
	if opts.DryRun {
		return
	}

	// PUBLISH
	o.publish(ctx, sel, result, log)
}

func (o *Orchestrator) dedup(ctx context.Context, candidates []contracts.Candidate) ([]contracts.Candidate, error) {
	out := make([]contracts.Candidate, 0, len(candidates))
	for _, c := range candidates {
		seen, err := o.deps.Ledger.IsProcessed(ctx, c.Disclosure.ReceiptNo)
		if err != nil {
			return nil, err
		}
		if !seen {
			out = append(out, c)
		}
	}
	return out, nil
}

// relatedNews looks up news per selected item; failures become no news
func (o *Orchestrator) relatedNews(ctx context.Context, selected []contracts.ScoredDisclosure, log *logger.Logger) map[string][]contracts.NewsItem {
	news := make(map[string][]contracts.NewsItem, len(selected))
	if o.deps.News == nil {
		return news
	}

	for i := range selected {
		item := &selected[i]
		found, err := o.deps.News.Related(ctx, item)
		if err != nil {
			log.WithReceipt(item.Disclosure.ReceiptNo).WithError(err).Warn("Related news lookup failed")
			continue
		}
		news[item.Disclosure.ReceiptNo] = found
	}
	return news
}

func (o *Orchestrator) publish(ctx context.Context, sel *contracts.Selection, result *contracts.RunResult, log *logger.Logger) {
	if o.deps.Publisher == nil {
		result.Message = MsgNotSent
		return
	}

	sent, err := o.deps.Publisher.Publish(ctx, sel.Article, sel.Items, sel.RunAt)
	switch {
	case err != nil:
		log.WithError(err).Warn("Report delivery failed")
		result.Message = "Report generated but not delivered: " + err.Error()
		return
	case !sent:
		result.Message = MsgNotSent
		return
	}

	sel.Delivered = true
	if err := o.deps.Ledger.SaveReport(ctx, sel); err != nil {
		log.WithError(err).Warn("Failed to record delivery")
	}
	o.logStage(log, contracts.StagePublish, len(sel.Items))
}

func (o *Orchestrator) sendSkipNotice(ctx context.Context, runAt time.Time, message string, log *logger.Logger) {
	if o.deps.Publisher == nil {
		return
	}
	if _, err := o.deps.Publisher.PublishText(ctx, SkipNotice(runAt, message)); err != nil {
		log.WithError(err).Warn("Skip notice delivery failed")
	}
}

// ReportExistsMessage is the skip message for a date that already has a report
func ReportExistsMessage(date string) string {
	return fmt.Sprintf("%s report already exists; skipping.", date)
}

// SkipNotice renders "[DART 심층 리포트] YYYY-MM-DD\n{message}"
func SkipNotice(runAt time.Time, message string) string {
	return fmt.Sprintf("%s %s\n%s", noticePrefix, runAt.Format(contracts.ReportDateLayout), message)
}

func (o *Orchestrator) skip(result *contracts.RunResult, message string) {
	result.Status = contracts.RunSkipped
	result.Message = message
}

func (o *Orchestrator) fail(result *contracts.RunResult, stage contracts.Stage, err error, log *logger.Logger) {
	log.WithStage(stage).WithError(err).Error("Stage failed")

	result.Status = contracts.RunFailed
	result.Message = fmt.Sprintf("%s failed: %v", stage, err)
}

func (o *Orchestrator) logStage(log *logger.Logger, stage contracts.Stage, count int) {
	log.WithStage(stage).WithField("count", count).Info("Stage completed")
}

func (o *Orchestrator) notify(result contracts.RunResult) {
	o.obsMu.RLock()
	defer o.obsMu.RUnlock()
	for _, fn := range o.observers {
		fn(result)
	}
}
