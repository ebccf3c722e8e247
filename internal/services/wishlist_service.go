package services

import (
	"context"
	"log/slog"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
	log       *slog.Logger
}

func NewWishlistService(w repository.WishlistRepository, p repository.ProductRepository, log *slog.Logger) *WishlistService {
	return &WishlistService{wishlists: w, products: p, log: log}
}

// List returns the products on the user's wishlist. Products that have since
// been removed from the catalog are skipped.
func (s *WishlistService) List(ctx context.Context, user primitive.ObjectID) ([]domain.Product, error) {
	w, err := s.wishlists.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(w.Products) == 0 {
		return []domain.Product{}, nil
	}
	products, err := s.products.FindByIDs(ctx, w.Products)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// Add is idempotent: a product already on the list stays there once.
func (s *WishlistService) Add(ctx context.Context, user, product primitive.ObjectID) error {
	if product.IsZero() {
		return domain.Errorf(domain.ErrValidation, "productId is required")
	}
	if _, err := s.products.FindByID(ctx, product); err != nil {
		return err
	}
	return s.wishlists.Add(ctx, user, product)
}

// Remove succeeds whether or not the product was on the list.
func (s *WishlistService) Remove(ctx context.Context, user, product primitive.ObjectID) error {
	return s.wishlists.Remove(ctx, user, product)
}
