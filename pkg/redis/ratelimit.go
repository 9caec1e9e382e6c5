package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding window rate limiting using Redis
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // "dart", "news", "slack"
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// minRetryDelay floors the sleep between Wait attempts
const minRetryDelay = 20 * time.Millisecond

// slidingWindow admits one request if the window has room
// 반환: {허용 여부, 남은 횟수, 재시도까지 ms}
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry = window_ms
	if oldest[2] then
		retry = tonumber(oldest[2]) + window_ms - now
	end
	return {0, 0, retry}
`)

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	allowed, remaining, _, err := r.allow(ctx, cfg)
	return allowed, remaining, err
}

func (r *RateLimiter) allow(ctx context.Context, cfg RateLimitConfig) (bool, int, time.Duration, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, 0, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now().UnixMilli()

	// member 는 프로세스 간 같은 ms 충돌을 피하기 위해 uuid 를 붙임
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		cfg.Window.Milliseconds(),
		cfg.Limit,
		member,
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(result) != 3 {
		return false, 0, 0, fmt.Errorf("rate limit script returned %d values", len(result))
	}

	return result[0] == 1, int(result[1]), time.Duration(result[2]) * time.Millisecond, nil
}

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, retryAfter, err := r.allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		if retryAfter < minRetryDelay {
			retryAfter = minRetryDelay
		}
		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Predefined rate limit configs for external APIs
var (
	// OpenDART: 일 20,000회 / 분당 1,000회 제한 (보수적으로 분당 100회)
	DARTRateLimit = RateLimitConfig{
		Key:    "dart",
		Limit:  100,
		Window: time.Minute,
	}

	// Google News RSS: 공식 한도 없음, 초당 2회로 제한
	NewsRateLimit = RateLimitConfig{
		Key:    "news",
		Limit:  2,
		Window: time.Second,
	}

	// Slack incoming webhook: 초당 1회
	SlackRateLimit = RateLimitConfig{
		Key:    "slack",
		Limit:  1,
		Window: time.Second,
	}
)
