package services

import (
	"context"
	"log/slog"
	"time"

	"everesthemp-backend/internal/domain"
	cache "everesthemp-backend/internal/infra/redis"
	"everesthemp-backend/internal/repository"

	"golang.org/x/sync/errgroup"
)

const (
	recentOrdersLimit = 5
	topProductsLimit  = 5
)

type AnalyticsService struct {
	store repository.Store
	cache cache.SummaryCacheInterface
	loc   *time.Location
	log   *slog.Logger
	now   func() time.Time
}

func NewAnalyticsService(store repository.Store, loc *time.Location, log *slog.Logger) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{store: store, loc: loc, log: log, now: time.Now}
}

func (s *AnalyticsService) SetCache(c cache.SummaryCacheInterface) {
	s.cache = c
}

// StartOfDay is local midnight of the calendar day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Summary builds the admin dashboard roll-up. Every figure is read from the
// store; nothing is taken from a client.
func (s *AnalyticsService) Summary(ctx context.Context) (*domain.Summary, error) {
	if s.cache != nil {
		if sum, ok := s.cache.Get(ctx); ok {
			return sum, nil
		}
	}

	now := s.now()
	today := StartOfDay(now, s.loc)
	sum := &domain.Summary{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.TotalUsers, err = s.store.Users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		sum.TotalOrders, err = s.store.Analytics.CountOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		sum.TotalSales, err = s.store.Analytics.TotalSales(gctx)
		return err
	})
	g.Go(func() (err error) {
		sum.TotalCategories, err = s.store.Categories.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		sum.TotalProducts, err = s.store.Products.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		sum.RecentOrders, err = s.store.Analytics.RecentOrders(gctx, recentOrdersLimit)
		return err
	})
	g.Go(func() (err error) {
		sum.TopProducts, err = s.store.Analytics.TopProducts(gctx, topProductsLimit)
		return err
	})
	g.Go(func() error {
		w, err := s.store.Analytics.OrdersSince(gctx, today)
		sum.NewOrdersToday, sum.RevenueToday = w.Count, w.Revenue
		return err
	})
	g.Go(func() (err error) {
		sum.NewCustomersToday, err = s.store.Users.CountSince(gctx, today)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("summary failed", "error", err)
		return nil, err
	}

	if sum.RecentOrders == nil {
		sum.RecentOrders = []domain.RecentOrder{}
	}
	if sum.TopProducts == nil {
		sum.TopProducts = []domain.TopProduct{}
	}
	if s.cache != nil {
		s.cache.Set(ctx, sum)
	}
	return sum, nil
}
