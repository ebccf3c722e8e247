package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"everesthemp-backend/internal/cart"
	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"
	"everesthemp-backend/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newStore(t *testing.T) (*memory.DB, repository.Store) {
	t.Helper()
	db := memory.New()
	return db, db.Store()
}

func createProduct(t *testing.T, store repository.Store, p domain.Product) *domain.Product {
	t.Helper()
	if !p.TrackInventory {
		p.InStock = true
	}
	require.NoError(t, store.Products.Create(context.Background(), &p))
	return &p
}

func lineFor(p *domain.Product, qty int, size, color string) cart.Item {
	return cart.Item{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty, Size: size, Color: color}
}

func validShipping() domain.ShippingInfo {
	return domain.ShippingInfo{
		FullName: "Pema Sherpa",
		Email:    "pema@example.com",
		Phone:    "9800000000",
		Address:  "Thamel 12",
		City:     "Kathmandu",
		State:    "Bagmati",
		ZipCode:  "44600",
	}
}
