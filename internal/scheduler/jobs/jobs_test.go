package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/internal/pipeline"
	"github.com/wonny/dart-digest/internal/scheduler"
	"github.com/wonny/dart-digest/pkg/logger"
)

type fakeRunner struct {
	result contracts.RunResult
	opts   pipeline.Options
}

func (f *fakeRunner) Run(ctx context.Context, source contracts.Source, opts pipeline.Options) *contracts.RunResult {
	f.opts = opts
	r := f.result
	return &r
}

func TestDigestJob_Run(t *testing.T) {
	tests := []struct {
		name      string
		result    contracts.RunResult
		wantErr   bool
		retryable bool
	}{
		{"completed", contracts.RunResult{Status: contracts.RunCompleted}, false, false},
		{"skipped", contracts.RunResult{Status: contracts.RunSkipped}, false, false},
		{"fetch failed", contracts.RunResult{Status: contracts.RunFailed, Message: "FETCH failed: timeout"}, true, true},
		{
			"save failed after scoring",
			contracts.RunResult{Status: contracts.RunFailed, Message: "SAVE failed: disk", Counts: contracts.RunCounts{Scored: 3}},
			true, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: tt.result}
			job := NewDigestJob(runner, nil, pipeline.Options{NotifyOnSkip: true}, "0 10 18 * * 1-5", logger.NewNop())

			err := job.Run(context.Background())
			assert.True(t, runner.opts.NotifyOnSkip)
			assert.Equal(t, "dart_digest", job.Name())
			assert.Equal(t, "0 10 18 * * 1-5", job.Schedule())

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, !tt.retryable, errors.Is(err, scheduler.ErrNoRetry))
		})
	}
}

type fakeUpdater struct {
	err  error
	path string
}

func (f *fakeUpdater) Update(ctx context.Context, outPath string) (int, error) {
	f.path = outPath
	return 42, f.err
}

type fakeReloader struct {
	reloaded string
}

func (f *fakeReloader) Reload(path string) error {
	f.reloaded = path
	return nil
}

func TestCompanyMapJob_Run(t *testing.T) {
	updater := &fakeUpdater{}
	reloader := &fakeReloader{}
	job := NewCompanyMapJob(updater, reloader, "data/companies.csv", logger.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "data/companies.csv", updater.path)
	assert.Equal(t, "data/companies.csv", reloader.reloaded)
}

func TestCompanyMapJob_UpdateFailureSkipsReload(t *testing.T) {
	updater := &fakeUpdater{err: errors.New("kind down")}
	reloader := &fakeReloader{}
	job := NewCompanyMapJob(updater, reloader, "data/companies.csv", logger.NewNop())

	assert.Error(t, job.Run(context.Background()))
	assert.Empty(t, reloader.reloaded)
}
