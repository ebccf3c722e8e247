package services

import (
	"context"
	"log/slog"
	"strings"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	orders     repository.OrderRepository
	log        *slog.Logger
}

func NewCatalogService(p repository.ProductRepository, c repository.CategoryRepository, o repository.OrderRepository, log *slog.Logger) *CatalogService {
	return &CatalogService{products: p, categories: c, orders: o, log: log}
}

func (s *CatalogService) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	if f.Page < 0 || f.Limit < 0 {
		return nil, domain.Errorf(domain.ErrValidation, "page and limit must not be negative")
	}
	f.Search = strings.TrimSpace(f.Search)
	return s.products.List(ctx, f)
}

func (s *CatalogService) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = primitive.NilObjectID
	p.Archived = false
	if p.TrackInventory {
		p.InStock = p.Stock > 0
	}
	return s.products.Create(ctx, p)
}

// UpdateProduct replaces the editable fields of a product. Orders keep their
// own copies of name and price, so edits never reach placed orders.
func (s *CatalogService) UpdateProduct(ctx context.Context, id primitive.ObjectID, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	p.Archived = false
	if p.TrackInventory {
		p.InStock = p.Stock > 0
	}
	return s.products.Update(ctx, p)
}

// DeleteProduct hard-deletes a product no order refers to and archives it
// otherwise. It reports whether the product was archived.
//
// The product is archived before orders are checked, so checkout can no
// longer price it. An order that priced it earlier and lands after the
// delete is caught by the second check, which puts the product back as
// archived.
func (s *CatalogService) DeleteProduct(ctx context.Context, id primitive.ObjectID) (bool, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.products.Archive(ctx, id); err != nil {
		return false, err
	}
	referenced, err := s.orders.ReferencesProduct(ctx, id)
	if err != nil {
		return false, err
	}
	if referenced {
		s.log.Info("product archived", "product", id.Hex())
		return true, nil
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return false, err
	}
	referenced, err = s.orders.ReferencesProduct(ctx, id)
	if err != nil {
		return false, err
	}
	if referenced {
		p.Archived = true
		p.InStock = false
		if err := s.products.Create(ctx, p); err != nil {
			return false, err
		}
		s.log.Warn("order landed during delete; product restored as archived", "product", id.Hex())
		return true, nil
	}
	s.log.Info("product deleted", "product", id.Hex())
	return false, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func validateCategory(c *domain.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Errorf(domain.ErrValidation, "category name is required")
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, c *domain.Category) error {
	if err := validateCategory(c); err != nil {
		return err
	}
	c.ID = primitive.NilObjectID
	return s.categories.Create(ctx, c)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id primitive.ObjectID, c *domain.Category) error {
	if err := validateCategory(c); err != nil {
		return err
	}
	c.ID = id
	return s.categories.Update(ctx, c)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	return s.categories.Delete(ctx, id)
}
