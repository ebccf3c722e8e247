// Package seed loads a catalog description from YAML and writes it to a
// store. Running it twice is safe: existing categories and users are kept.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"everesthemp-backend/internal/auth"
	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"
	"everesthemp-backend/internal/services"

	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Admin      *Admin     `yaml:"admin"`
	Categories []Category `yaml:"categories"`
	Products   []Product  `yaml:"products"`
}

type Admin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Product struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       int64    `yaml:"price"`
	Images      []string `yaml:"images"`
	Category    string   `yaml:"category"`
	Collection  string   `yaml:"collection"`
	Colors      []string `yaml:"colors"`
	Sizes       []string `yaml:"sizes"`
	Stock       *int     `yaml:"stock"`
	SKU         string   `yaml:"sku"`
	Rating      float64  `yaml:"rating"`
	ReviewCount int      `yaml:"reviewCount"`
	Features    []string `yaml:"features"`
	Care        []string `yaml:"care"`
}

// toDomain maps a seed entry onto a product. A stock value turns on
// inventory tracking.
func (p Product) toDomain() domain.Product {
	out := domain.Product{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Images:      p.Images,
		Category:    p.Category,
		Collection:  domain.Collection(p.Collection),
		Colors:      p.Colors,
		Sizes:       p.Sizes,
		InStock:     true,
		SKU:         p.SKU,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Features:    p.Features,
		Care:        p.Care,
	}
	if p.Stock != nil {
		out.TrackInventory = true
		out.Stock = *p.Stock
	}
	return out
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing seed YAML: %w", err)
	}
	return &c, nil
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

type Result struct {
	Categories int
	Products   int
	Admin      bool
}

// Apply writes c through the catalog service so seeded products get the same
// validation as ones created over the API. Products are skipped when one with
// the same name is already listed.
func Apply(ctx context.Context, c *Catalog, catalog *services.CatalogService, users repository.UserRepository) (Result, error) {
	var res Result

	for _, cat := range c.Categories {
		err := catalog.CreateCategory(ctx, &domain.Category{Name: cat.Name, Description: cat.Description})
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("category %q: %w", cat.Name, err)
		}
		res.Categories++
	}

	existing, err := catalog.ListProducts(ctx, domain.ProductFilter{})
	if err != nil {
		return res, err
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Name] = true
	}
	for _, sp := range c.Products {
		if seen[sp.Name] {
			continue
		}
		p := sp.toDomain()
		if err := catalog.CreateProduct(ctx, &p); err != nil {
			return res, fmt.Errorf("product %q: %w", sp.Name, err)
		}
		seen[sp.Name] = true
		res.Products++
	}

	if c.Admin != nil {
		created, err := seedAdmin(ctx, c.Admin, users)
		if err != nil {
			return res, err
		}
		res.Admin = created
	}
	return res, nil
}

func seedAdmin(ctx context.Context, a *Admin, users repository.UserRepository) (bool, error) {
	if a.Email == "" || a.Password == "" {
		return false, domain.Errorf(domain.ErrValidation, "admin needs an email and a password")
	}
	hashed, err := auth.HashPassword(a.Password)
	if err != nil {
		return false, err
	}
	u := &domain.User{Name: a.Name, Email: a.Email, Password: hashed, Role: domain.RoleAdmin}
	err = users.Create(ctx, u)
	if errors.Is(err, domain.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("admin %q: %w", a.Email, err)
	}
	return true, nil
}
