package services

import (
	"context"
	"testing"
	"time"

	"everesthemp-backend/internal/cart"
	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStartOfDay(t *testing.T) {
	kathmandu := time.FixedZone("NPT", 5*3600+45*60)
	at := time.Date(2026, 3, 9, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, kathmandu), StartOfDay(at, kathmandu))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), StartOfDay(at, time.UTC))
}

func TestSummary_EmptyStore(t *testing.T) {
	_, store := newStore(t)
	svc := NewAnalyticsService(store, time.UTC, discard)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.TotalSales)
	assert.Zero(t, sum.TotalOrders)
	assert.Zero(t, sum.NewOrdersToday)
	assert.NotNil(t, sum.RecentOrders)
	assert.Empty(t, sum.RecentOrders)
	assert.NotNil(t, sum.TopProducts)
	assert.Empty(t, sum.TopProducts)
}

func TestSummary_RollsUpOrders(t *testing.T) {
	db, store := newStore(t)
	ctx := context.Background()
	loc := time.UTC
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, loc)

	db.SetClock(func() time.Time { return now.Add(-48 * time.Hour) })
	customer := &domain.User{Name: "Old Customer", Email: "old@example.com", Role: domain.RoleCustomer}
	require.NoError(t, store.Users.Create(ctx, customer))
	tee := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500})
	hat := createProduct(t, store, domain.Product{Name: "Cap", Price: 1500})
	require.NoError(t, store.Categories.Create(ctx, &domain.Category{Name: "Shirts"}))

	orders := newOrderService(store)
	place := func(items ...cart.Item) *domain.Order {
		res, err := orders.SubmitOrder(ctx, customer.ID, CheckoutRequest{
			Items:          items,
			ShippingInfo:   validShipping(),
			PaymentMethod:  domain.PaymentCard,
			ShippingMethod: domain.ShippingStandard,
		})
		require.NoError(t, err)
		return res.Order
	}
	old := place(lineFor(tee, 1, "", ""))

	db.SetClock(func() time.Time { return now.Add(-time.Hour) })
	require.NoError(t, store.Users.Create(ctx, &domain.User{Name: "New Customer", Email: "new@example.com", Role: domain.RoleCustomer}))
	require.NoError(t, store.Users.Create(ctx, &domain.User{Name: "New Admin", Email: "admin@example.com", Role: domain.RoleAdmin}))
	recent := place(lineFor(hat, 3, "", ""))

	svc := NewAnalyticsService(store, loc, discard)
	svc.now = func() time.Time { return now }
	sum, err := svc.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), sum.TotalUsers)
	assert.Equal(t, int64(2), sum.TotalOrders)
	assert.Equal(t, old.Total+recent.Total, sum.TotalSales)
	assert.Equal(t, int64(1), sum.TotalCategories)
	assert.Equal(t, int64(2), sum.TotalProducts)
	assert.Equal(t, int64(1), sum.NewOrdersToday)
	assert.Equal(t, recent.Total, sum.RevenueToday)
	assert.Equal(t, int64(1), sum.NewCustomersToday)

	require.Len(t, sum.RecentOrders, 2)
	assert.Equal(t, recent.ID, sum.RecentOrders[0].ID)
	assert.Equal(t, "Old Customer", sum.RecentOrders[0].UserName)

	require.Len(t, sum.TopProducts, 2)
	assert.Equal(t, domain.TopProduct{Product: hat.ID, Name: "Cap", Sales: 3, Revenue: 4500}, sum.TopProducts[0])
}

func TestSummary_UsesCache(t *testing.T) {
	_, store := newStore(t)
	cached := &domain.Summary{TotalOrders: 42, RecentOrders: []domain.RecentOrder{}, TopProducts: []domain.TopProduct{}}

	c := new(mocks.MockSummaryCache)
	c.On("Get", mock.Anything).Return(cached, true).Once()
	svc := NewAnalyticsService(store, time.UTC, discard)
	svc.SetCache(c)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Same(t, cached, sum)

	c.On("Get", mock.Anything).Return(nil, false).Once()
	c.On("Set", mock.Anything, mock.AnythingOfType("*domain.Summary")).Once()
	sum, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.TotalOrders)
	c.AssertExpectations(t)
}

func TestTopProducts_TieBreak(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	require.NoError(t, store.Orders.Create(ctx, &domain.Order{Items: []domain.OrderItem{
		{Product: b, Name: "B", Price: 100, Quantity: 2},
		{Product: a, Name: "A", Price: 900, Quantity: 2},
	}}))

	sum, err := NewAnalyticsService(store, time.UTC, discard).Summary(ctx)
	require.NoError(t, err)
	require.Len(t, sum.TopProducts, 2)
	assert.Equal(t, a, sum.TopProducts[0].Product)
}
