package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository/memory"
	"everesthemp-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
admin:
  name: Store Admin
  email: admin@everesthemp.test
  password: change-me-please
categories:
  - name: Shirts
  - name: Bags
    description: Totes and backpacks
products:
  - name: Hemp Tee
    price: 2500
    category: Shirts
    collection: Unisex
    sizes: [S, M, L]
  - name: Limited Tote
    price: 1800
    category: Bags
    collection: Women
    stock: 3
`

func TestApply(t *testing.T) {
	ctx := context.Background()
	store := memory.New().Store()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := services.NewCatalogService(store.Products, store.Categories, store.Orders, log)

	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)
	require.Len(t, c.Products, 2)

	res, err := Apply(ctx, c, catalog, store.Users)
	require.NoError(t, err)
	assert.Equal(t, Result{Categories: 2, Products: 2, Admin: true}, res)

	tote, err := catalog.ListProducts(ctx, domain.ProductFilter{Search: "limited"})
	require.NoError(t, err)
	require.Len(t, tote, 1)
	assert.True(t, tote[0].TrackInventory)
	assert.Equal(t, 3, tote[0].Stock)

	admin, err := store.Users.FindByEmail(ctx, "admin@everesthemp.test")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	res, err = Apply(ctx, c, catalog, store.Users)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("products: [unterminated"))
	assert.Error(t, err)
}
