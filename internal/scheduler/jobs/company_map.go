package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/dart-digest/pkg/logger"
)

// Updater rewrites the company map file
type Updater interface {
	Update(ctx context.Context, outPath string) (int, error)
}

// Reloader picks up a rewritten company map
type Reloader interface {
	Reload(path string) error
}

// CompanyMapJob refreshes the company map from KIND weekly
type CompanyMapJob struct {
	updater  Updater
	reloader Reloader
	path     string
	logger   *logger.Logger
}

// NewCompanyMapJob creates a new company map job
func NewCompanyMapJob(updater Updater, reloader Reloader, path string, log *logger.Logger) *CompanyMapJob {
	return &CompanyMapJob{
		updater:  updater,
		reloader: reloader,
		path:     path,
		logger:   log,
	}
}

// Name returns the job name
func (j *CompanyMapJob) Name() string {
	return "company_map_update"
}

// Schedule returns the cron schedule (Mondays 07:00)
func (j *CompanyMapJob) Schedule() string {
	return "0 0 7 * * 1"
}

// Run downloads the listings and reloads the universe
func (j *CompanyMapJob) Run(ctx context.Context) error {
	count, err := j.updater.Update(ctx, j.path)
	if err != nil {
		return fmt.Errorf("update company map: %w", err)
	}

	if err := j.reloader.Reload(j.path); err != nil {
		return fmt.Errorf("reload company map: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"path":      j.path,
		"companies": count,
	}).Info("Company map refreshed")

	return nil
}
