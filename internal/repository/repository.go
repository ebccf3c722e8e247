// Package repository declares the store contracts the services depend on.
// Implementations live in the mongo and memory subpackages.
//
// Lookups of a single record return domain.ErrNotFound when it is absent and
// every driver failure is wrapped as domain.ErrStorage.
package repository

import (
	"context"
	"time"

	"everesthemp-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductRepository interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	// FindByIDs skips ids that do not resolve.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Archive(ctx context.Context, id primitive.ObjectID) error
	// ReserveStock decrements stock only when at least qty units remain and
	// returns domain.ErrConflict otherwise.
	ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) error
	ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error
	Count(ctx context.Context) (int64, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	List(ctx context.Context, role domain.Role) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, user primitive.ObjectID, key string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, user primitive.ObjectID) ([]domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ReferencesProduct(ctx context.Context, product primitive.ObjectID) (bool, error)
}

type WishlistRepository interface {
	// Get returns an empty wishlist, not an error, when none exists yet.
	Get(ctx context.Context, user primitive.ObjectID) (*domain.Wishlist, error)
	Add(ctx context.Context, user, product primitive.ObjectID) error
	Remove(ctx context.Context, user, product primitive.ObjectID) error
}

// AnalyticsRepository runs the roll-ups behind the admin dashboard.
type AnalyticsRepository interface {
	CountOrders(ctx context.Context) (int64, error)
	TotalSales(ctx context.Context) (int64, error)
	TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error)
	RecentOrders(ctx context.Context, limit int) ([]domain.RecentOrder, error)
	OrdersSince(ctx context.Context, since time.Time) (domain.OrderWindow, error)
}

// Store bundles every repository one backend provides.
type Store struct {
	Products   ProductRepository
	Categories CategoryRepository
	Users      UserRepository
	Orders     OrderRepository
	Wishlists  WishlistRepository
	Analytics  AnalyticsRepository
	Ping       func(ctx context.Context) error
	Close      func(ctx context.Context) error
}
