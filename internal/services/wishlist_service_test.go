package services

import (
	"context"
	"errors"
	"testing"

	"everesthemp-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWishlist(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	svc := NewWishlistService(store.Wishlists, store.Products, discard)
	user := primitive.NewObjectID()
	tee := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500})
	tote := createProduct(t, store, domain.Product{Name: "Tote", Price: 1800})

	empty, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, svc.Add(ctx, user, tee.ID))
	require.NoError(t, svc.Add(ctx, user, tee.ID))
	require.NoError(t, svc.Add(ctx, user, tote.ID))

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Tee", list[0].Name)

	err = svc.Add(ctx, user, primitive.NewObjectID())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, svc.Remove(ctx, user, primitive.NewObjectID()))
	require.NoError(t, svc.Remove(ctx, user, tee.ID))
	require.NoError(t, svc.Remove(ctx, user, tee.ID))

	require.NoError(t, store.Products.Archive(ctx, tote.ID))
	list, err = svc.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, list)
}
