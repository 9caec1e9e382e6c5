package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunLock serialises digest runs for the same report date across processes
// ⭐ SSOT: 분산 실행 잠금은 여기서만
type RunLock struct {
	client *Client
	prefix string
}

// NewRunLock creates a run lock
func NewRunLock(client *Client, prefix string) *RunLock {
	return &RunLock{client: client, prefix: prefix}
}

// releaseScript deletes the key only if we still own it
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Acquire tries to take the lock (SET NX PX).
// Returns ok=false without error when another holder owns it.
// When Redis is disabled the lock is always granted.
func (l *RunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if !l.client.Enabled() {
		return func() {}, true, nil
	}

	fullKey := fmt.Sprintf("%s:lock:%s", l.prefix, key)
	token := uuid.NewString()

	ok, err := l.client.Redis().SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lock acquire failed: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// 호출자 ctx 가 취소됐어도 해제는 시도
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client.Redis(), []string{fullKey}, token).Err()
	}

	return release, true, nil
}
