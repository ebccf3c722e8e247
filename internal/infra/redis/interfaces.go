package redis

import (
	"context"
	"time"

	"everesthemp-backend/internal/domain"
)

type SummaryCacheInterface interface {
	Get(ctx context.Context) (*domain.Summary, bool)
	Set(ctx context.Context, s *domain.Summary)
	Invalidate(ctx context.Context)
}

// KeyLockerInterface guards a checkout attempt keyed by its idempotency key.
type KeyLockerInterface interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

var (
	_ SummaryCacheInterface = (*SummaryCache)(nil)
	_ KeyLockerInterface    = (*KeyLocker)(nil)
	_ KeyLockerInterface    = (*LocalKeyLocker)(nil)
)
