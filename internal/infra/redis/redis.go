// Package redis holds the Redis-backed helpers: a short-lived cache for the
// analytics summary and the idempotency-key lock used at checkout.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"everesthemp-backend/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

const summaryKey = "analytics:summary"

// SummaryCache never fails the caller: Redis errors are logged and treated
// as a miss.
type SummaryCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
	log *slog.Logger
}

func NewSummaryCache(rdb goredis.Cmdable, ttl time.Duration, log *slog.Logger) *SummaryCache {
	return &SummaryCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *SummaryCache) Get(ctx context.Context) (*domain.Summary, bool) {
	b, err := c.rdb.Get(ctx, summaryKey).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("analytics cache read failed", "error", err)
		}
		return nil, false
	}
	var s domain.Summary
	if err := json.Unmarshal(b, &s); err != nil {
		c.log.Warn("analytics cache entry unreadable", "error", err)
		return nil, false
	}
	return &s, true
}

func (c *SummaryCache) Set(ctx context.Context, s *domain.Summary) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, summaryKey, data, c.ttl).Err(); err != nil {
		c.log.Warn("analytics cache write failed", "error", err)
	}
}

func (c *SummaryCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, summaryKey).Err(); err != nil {
		c.log.Warn("analytics cache invalidate failed", "error", err)
	}
}

type KeyLocker struct {
	rdb goredis.Cmdable
}

func NewKeyLocker(rdb goredis.Cmdable) *KeyLocker {
	return &KeyLocker{rdb: rdb}
}

func lockKey(key string) string {
	return "checkout:idem:" + key
}

// Acquire reports false when another attempt already holds key.
func (l *KeyLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, lockKey(key), "1", ttl).Result()
	if err != nil {
		return false, domain.StorageError("acquire idempotency key", err)
	}
	return ok, nil
}

func (l *KeyLocker) Release(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, lockKey(key)).Err(); err != nil {
		return domain.StorageError("release idempotency key", err)
	}
	return nil
}

// LocalKeyLocker is the single-process fallback when Redis is not
// configured.
type LocalKeyLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalKeyLocker() *LocalKeyLocker {
	return &LocalKeyLocker{held: map[string]time.Time{}, now: time.Now}
}

func (l *LocalKeyLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, exp := range l.held {
		if !now.Before(exp) {
			delete(l.held, k)
		}
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

func (l *LocalKeyLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
