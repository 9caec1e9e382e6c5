package commands

import (
	"context"
	"fmt"

	"github.com/wonny/dart-digest/internal/contracts"
	"github.com/wonny/dart-digest/internal/external/dart"
	"github.com/wonny/dart-digest/internal/external/news"
	"github.com/wonny/dart-digest/internal/external/slack"
	"github.com/wonny/dart-digest/internal/market"
	"github.com/wonny/dart-digest/internal/narrative"
	"github.com/wonny/dart-digest/internal/pipeline"
	"github.com/wonny/dart-digest/internal/scoring"
	"github.com/wonny/dart-digest/internal/selection"
	"github.com/wonny/dart-digest/internal/storage"
	"github.com/wonny/dart-digest/internal/tuning"
	"github.com/wonny/dart-digest/pkg/config"
	"github.com/wonny/dart-digest/pkg/logger"
	"github.com/wonny/dart-digest/pkg/redis"
)

// redisPrefix namespaces every cache, lock and rate limit key
const redisPrefix = "dart_digest"

// app holds the wired collaborators shared by the commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	redis    *redis.Client
	universe *market.Universe
	ledger   contracts.Ledger
	orch     *pipeline.Orchestrator
}

// loadConfig loads the configuration and applies the global flags
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// openLedger opens only the store (report show)
func openLedger(ctx context.Context) (*config.Config, contracts.Ledger, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	ledger, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return cfg, ledger, nil
}

// newApp wires config → redis → universe → tuning → ledger → orchestrator
// 설정 오류는 부수효과 이전에 반환
func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	universe, err := market.LoadUniverse(cfg.DART.CompanyMapPath)
	if err != nil {
		return nil, err
	}

	tun, err := tuning.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}
	tuningHash, err := tuning.Hash(tun)
	if err != nil {
		return nil, fmt.Errorf("hash tuning: %w", err)
	}

	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		// Redis 는 선택 사항: 연결 실패 시 비활성화로 계속
		log.WithError(err).Warn("Redis unavailable, continuing without cache and lock")
		rdb = redis.Disabled()
	}

	ledger, err := storage.Open(ctx, cfg, log)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	limiter := redis.NewRateLimiter(rdb, redisPrefix)
	publisher := slack.NewPublisher(cfg.Slack.WebhookURL, cfg.Slack.Channel, log).WithRateLimiter(limiter)

	deps := pipeline.Deps{
		Filter:     market.NewFilter(universe, cfg.DART.TargetMarkets, log),
		Scorer:     scoring.NewScorer(tun, log),
		Policy:     selection.NewPolicy(tun.Selection, log),
		Ledger:     ledger,
		Narrator:   narrative.NewWriter(narrative.NewGenerator(cfg), cfg.LLM.Timeout, log),
		Publisher:  publisher,
		Lock:       redis.NewRunLock(rdb, redisPrefix),
		Markets:    cfg.DART.TargetMarkets,
		TuningHash: tuningHash,
		Location:   cfg.Location(),
	}
	if cfg.NewsEnabled {
		deps.News = news.NewClient(log).
			WithCache(redis.NewCache(rdb, redisPrefix)).
			WithRateLimiter(limiter)
	}

	log.WithFields(map[string]interface{}{
		"companies":   universe.Len(),
		"markets":     cfg.DART.TargetMarkets,
		"store":       cfg.Store.Driver,
		"llm":         cfg.HasLLM(),
		"slack":       publisher.Configured(),
		"news":        cfg.NewsEnabled,
		"redis":       rdb.Enabled(),
		"tuning_hash": tuningHash,
	}).Debug("Digest wired")

	return &app{
		cfg:      cfg,
		log:      log,
		redis:    rdb,
		universe: universe,
		ledger:   ledger,
		orch:     pipeline.NewOrchestrator(deps, log),
	}, nil
}

// rssSource returns the live DART RSS source
func (a *app) rssSource() contracts.Source {
	return dart.NewRSSSource(a.cfg.DART.RSSURL, a.log)
}

// listSource returns the OpenDART list source for a YYYYMMDD date
func (a *app) listSource(date string) (contracts.Source, error) {
	client := dart.NewClient(a.cfg.DART.APIKey, a.cfg.DART.BaseURL, a.log).
		WithCache(redis.NewCache(a.redis, redisPrefix)).
		WithRateLimiter(redis.NewRateLimiter(a.redis, redisPrefix))
	source, err := dart.NewListSource(client, date, a.cfg.DART.TargetMarkets, a.cfg.Location(), a.log)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// defaultOptions are the run options derived from config
func (a *app) defaultOptions() pipeline.Options {
	return pipeline.Options{
		DryRun:       a.cfg.DryRun,
		NotifyOnSkip: a.cfg.Slack.NotifyOnSkip,
	}
}

// Close releases the ledger and redis connection
func (a *app) Close() {
	if err := a.ledger.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close ledger")
	}
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}
