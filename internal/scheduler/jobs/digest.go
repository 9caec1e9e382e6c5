package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/internal/pipeline"
	"github.com/wonny/dart-digest/internal/scheduler"
	"github.com/wonny/dart-digest/pkg/logger"
)

// Runner is the part of the orchestrator the job needs
type Runner interface {
	Run(ctx context.Context, source contracts.Source, opts pipeline.Options) *contracts.RunResult
}

// DigestJob runs the daily disclosure digest
// ⭐ SSOT: 일일 다이제스트 스케줄은 이 Job에서만
type DigestJob struct {
	runner   Runner
	source   contracts.Source
	opts     pipeline.Options
	schedule string
	logger   *logger.Logger
}

// NewDigestJob creates a new digest job
func NewDigestJob(runner Runner, source contracts.Source, opts pipeline.Options, schedule string, log *logger.Logger) *DigestJob {
	return &DigestJob{
		runner:   runner,
		source:   source,
		opts:     opts,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *DigestJob) Name() string {
	return "dart_digest"
}

// Schedule returns the cron schedule (weekdays 18:10 by default)
func (j *DigestJob) Schedule() string {
	return j.schedule
}

// Run executes one digest run
// 채점 이후 단계 실패는 재시도하지 않음 (재실행 시 중복 제거로 스킵됨)
func (j *DigestJob) Run(ctx context.Context) error {
	result := j.runner.Run(ctx, j.source, j.opts)

	j.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"status":  string(result.Status),
		"message": result.Message,
	}).Info("Scheduled digest finished")

	if result.Status != contracts.RunFailed {
		return nil
	}
	if result.Counts.Scored > 0 {
		return fmt.Errorf("digest run %s: %s: %w", result.RunID, result.Message, scheduler.ErrNoRetry)
	}
	return fmt.Errorf("digest run %s: %s", result.RunID, result.Message)
}
