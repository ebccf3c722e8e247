package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"everesthemp-backend/internal/auth"
	"everesthemp-backend/internal/cart"
	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/infra/khalti"
	rabbit "everesthemp-backend/internal/infra/rabbitmq"
	"everesthemp-backend/internal/mocks"
	"everesthemp-backend/internal/pricing"
	"everesthemp-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newOrderService(store repository.Store) *OrderService {
	return NewOrderService(store.Products, store.Orders, pricing.DefaultRules(), rabbit.NopPublisher{}, discard)
}

func TestSubmitOrder_FreezesLineItems(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	shirt := createProduct(t, store, domain.Product{Name: "Hemp Shirt", Price: 50000, Sizes: []string{"M", "L"}, Images: []string{"shirt.jpg"}})
	tote := createProduct(t, store, domain.Product{Name: "Hemp Tote", Price: 20000, Colors: []string{"Natural"}})

	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.AnythingOfType("domain.OrderEvent")).Return(nil)
	svc := NewOrderService(store.Products, store.Orders, pricing.DefaultRules(), pub, discard)

	user := primitive.NewObjectID()
	total := int64(101700)
	res, err := svc.SubmitOrder(ctx, user, CheckoutRequest{
		Items: []cart.Item{
			lineFor(shirt, 1, "M", ""),
			lineFor(tote, 1, "", "Natural"),
			lineFor(tote, 1, "", "Natural"),
		},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCard,
		ShippingMethod: domain.ShippingStandard,
		Total:          &total,
	})
	require.NoError(t, err)
	order := res.Order
	assert.False(t, res.Replayed)
	assert.Equal(t, int64(101700), order.Total)
	assert.Equal(t, domain.Breakdown{Subtotal: 90000, Tax: 11700, Total: 101700}, order.Breakdown)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.Equal(t, domain.ShippingProcessing, order.ShippingStatus)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "shirt.jpg", order.Items[0].Image)
	assert.Equal(t, 2, order.Items[1].Quantity)
	pub.AssertExpectations(t)

	shirt.Price = 99999
	require.NoError(t, store.Products.Update(ctx, shirt))

	stored, err := store.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), stored.Items[0].Price)
	assert.Equal(t, int64(101700), stored.Total)
}

func TestSubmitOrder_PricesFromCatalog(t *testing.T) {
	_, store := newStore(t)
	p := createProduct(t, store, domain.Product{Name: "Hemp Cap", Price: 1500})
	svc := newOrderService(store)

	item := lineFor(p, 2, "", "")
	item.Price = 1
	item.Name = "Free Cap"
	res, err := svc.SubmitOrder(context.Background(), primitive.NewObjectID(), CheckoutRequest{
		Items:          []cart.Item{item},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCOD,
		ShippingMethod: domain.ShippingExpress,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hemp Cap", res.Order.Items[0].Name)
	assert.Equal(t, int64(1500), res.Order.Items[0].Price)
	assert.Equal(t, int64(3000+250+390+100), res.Order.Total)
}

func TestSubmitOrder_Rejections(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	tee := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500, Sizes: []string{"S"}})
	gone := createProduct(t, store, domain.Product{Name: "Old Tee", Price: 2500})
	require.NoError(t, store.Products.Archive(ctx, gone.ID))
	soldOut := &domain.Product{Name: "Sold Out", Price: 2500}
	require.NoError(t, store.Products.Create(ctx, soldOut))

	wrongTotal := int64(1)
	base := func() CheckoutRequest {
		return CheckoutRequest{
			Items:          []cart.Item{lineFor(tee, 1, "S", "")},
			ShippingInfo:   validShipping(),
			PaymentMethod:  domain.PaymentEsewa,
			ShippingMethod: domain.ShippingStandard,
		}
	}

	tests := []struct {
		name   string
		user   primitive.ObjectID
		modify func(*CheckoutRequest)
		want   error
	}{
		{"anonymous", primitive.NilObjectID, func(*CheckoutRequest) {}, domain.ErrUnauthenticated},
		{"empty cart", primitive.NewObjectID(), func(r *CheckoutRequest) { r.Items = nil }, domain.ErrValidation},
		{"unknown payment method", primitive.NewObjectID(), func(r *CheckoutRequest) { r.PaymentMethod = "bitcoin" }, domain.ErrValidation},
		{"unknown shipping method", primitive.NewObjectID(), func(r *CheckoutRequest) { r.ShippingMethod = "drone" }, domain.ErrValidation},
		{"missing address", primitive.NewObjectID(), func(r *CheckoutRequest) { r.ShippingInfo.Address = "" }, domain.ErrValidation},
		{"size not offered", primitive.NewObjectID(), func(r *CheckoutRequest) { r.Items[0].Size = "XL" }, domain.ErrValidation},
		{"archived product", primitive.NewObjectID(), func(r *CheckoutRequest) { r.Items = []cart.Item{lineFor(gone, 1, "", "")} }, domain.ErrValidation},
		{"out of stock", primitive.NewObjectID(), func(r *CheckoutRequest) { r.Items = []cart.Item{lineFor(soldOut, 1, "", "")} }, domain.ErrConflict},
		{"total mismatch", primitive.NewObjectID(), func(r *CheckoutRequest) { r.Total = &wrongTotal }, domain.ErrValidation},
		{"quantity above limit", primitive.NewObjectID(), func(r *CheckoutRequest) { r.Items[0].Quantity = cart.MaxQuantity + 1 }, domain.ErrValidation},
		{"merged lines above limit", primitive.NewObjectID(), func(r *CheckoutRequest) {
			r.Items = []cart.Item{lineFor(tee, cart.MaxQuantity, "S", ""), lineFor(tee, 1, "S", "")}
		}, domain.ErrValidation},
	}

	svc := newOrderService(store)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.modify(&req)
			_, err := svc.SubmitOrder(ctx, tt.user, req)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	orders, err := store.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSubmitOrder_HugeQuantityIsRejected(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	robe := createProduct(t, store, domain.Product{Name: "Hemp Robe", Price: 50000})
	svc := newOrderService(store)

	_, err := svc.SubmitOrder(ctx, primitive.NewObjectID(), CheckoutRequest{
		Items:          []cart.Item{lineFor(robe, 200000000000000, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCOD,
		ShippingMethod: domain.ShippingStandard,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Quote(ctx, []cart.Item{lineFor(robe, 200000000000000, "", "")}, domain.ShippingStandard, domain.PaymentCOD)
	assert.ErrorIs(t, err, domain.ErrValidation)

	orders, err := store.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSubmitOrder_CompensatesStock(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	plenty := createProduct(t, store, domain.Product{Name: "Socks", Price: 800, TrackInventory: true, Stock: 5, InStock: true})
	scarce := createProduct(t, store, domain.Product{Name: "Jacket", Price: 9000, TrackInventory: true, Stock: 1, InStock: true})
	svc := newOrderService(store)

	_, err := svc.SubmitOrder(ctx, primitive.NewObjectID(), CheckoutRequest{
		Items:          []cart.Item{lineFor(plenty, 2, "", ""), lineFor(scarce, 2, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCard,
		ShippingMethod: domain.ShippingStandard,
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	got, err := store.Products.FindByID(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	got, err = store.Products.FindByID(ctx, scarce.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

func TestSubmitOrder_StorageFailureReleasesStock(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	p := createProduct(t, store, domain.Product{Name: "Beanie", Price: 1200, TrackInventory: true, Stock: 3, InStock: true})

	orders := new(mocks.MockOrderRepository)
	orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Return(domain.StorageError("insert order", errors.New("connection reset")))
	svc := NewOrderService(store.Products, orders, pricing.DefaultRules(), rabbit.NopPublisher{}, discard)

	_, err := svc.SubmitOrder(ctx, primitive.NewObjectID(), CheckoutRequest{
		Items:          []cart.Item{lineFor(p, 2, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCard,
		ShippingMethod: domain.ShippingStandard,
	})
	assert.True(t, errors.Is(err, domain.ErrStorage))

	got, err := store.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	orders.AssertExpectations(t)
}

func TestSubmitOrder_IdempotencyKey(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	p := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500})
	svc := newOrderService(store)
	user := primitive.NewObjectID()

	req := CheckoutRequest{
		Items:          []cart.Item{lineFor(p, 1, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCard,
		ShippingMethod: domain.ShippingStandard,
		IdempotencyKey: "4c1b7c52-checkout",
	}
	first, err := svc.SubmitOrder(ctx, user, req)
	require.NoError(t, err)
	second, err := svc.SubmitOrder(ctx, user, req)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	orders, err := store.Orders.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	other, err := svc.SubmitOrder(ctx, primitive.NewObjectID(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Order.ID, other.Order.ID)
}

func TestSubmitOrder_KeyInFlight(t *testing.T) {
	_, store := newStore(t)
	p := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500})
	user := primitive.NewObjectID()

	locker := new(mocks.MockKeyLocker)
	locker.On("Acquire", mock.Anything, user.Hex()+":retry-1", mock.Anything).Return(false, nil)
	svc := newOrderService(store)
	svc.SetKeyLocker(locker, time.Minute)

	_, err := svc.SubmitOrder(context.Background(), user, CheckoutRequest{
		Items:          []cart.Item{lineFor(p, 1, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCard,
		ShippingMethod: domain.ShippingStandard,
		IdempotencyKey: "retry-1",
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	locker.AssertExpectations(t)
}

func TestSubmitOrder_InvalidatesSummary(t *testing.T) {
	_, store := newStore(t)
	p := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500})

	summary := new(mocks.MockSummaryCache)
	summary.On("Invalidate", mock.Anything).Once()
	svc := newOrderService(store)
	svc.SetSummaryCache(summary)

	_, err := svc.SubmitOrder(context.Background(), primitive.NewObjectID(), CheckoutRequest{
		Items:          []cart.Item{lineFor(p, 1, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCard,
		ShippingMethod: domain.ShippingStandard,
	})
	require.NoError(t, err)
	summary.AssertExpectations(t)
}

func TestSubmitOrder_PublishFailureKeepsOrder(t *testing.T) {
	_, store := newStore(t)
	p := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500})

	pub := new(mocks.MockPublisher)
	pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(errors.New("channel closed"))
	svc := NewOrderService(store.Products, store.Orders, pricing.DefaultRules(), pub, discard)

	res, err := svc.SubmitOrder(context.Background(), primitive.NewObjectID(), CheckoutRequest{
		Items:          []cart.Item{lineFor(p, 1, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCard,
		ShippingMethod: domain.ShippingStandard,
	})
	require.NoError(t, err)
	assert.False(t, res.Order.ID.IsZero())
}

func TestSubmitOrder_Khalti(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	p := createProduct(t, store, domain.Product{Name: "Hoodie", Price: 6500})

	gw := new(mocks.MockGateway)
	gw.On("Initiate", mock.Anything, mock.MatchedBy(func(req khalti.InitiateRequest) bool {
		return req.Amount == khalti.ToPaisa(7345) && req.ReturnURL == "https://shop.test/return"
	})).Return(&khalti.InitiateResponse{Pidx: "pidx-1", PaymentURL: "https://pay.khalti.com/?pidx=pidx-1"}, nil)
	gw.On("Lookup", mock.Anything, "pidx-1").Return(&khalti.LookupResponse{
		Pidx: "pidx-1", Status: khalti.StatusCompleted, TotalAmount: khalti.ToPaisa(7345),
	}, nil)

	svc := newOrderService(store)
	svc.SetPaymentGateway(gw, KhaltiSettings{ReturnURL: "https://shop.test/return", WebsiteURL: "https://shop.test"})

	user := primitive.NewObjectID()
	res, err := svc.SubmitOrder(ctx, user, CheckoutRequest{
		Items:          []cart.Item{lineFor(p, 1, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentKhalti,
		ShippingMethod: domain.ShippingStandard,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.khalti.com/?pidx=pidx-1", res.PaymentURL)

	stored, err := store.Orders.FindByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pidx-1", stored.PaymentReference)

	_, err = svc.VerifyKhaltiPayment(ctx, auth.Identity{UserID: primitive.NewObjectID(), Role: domain.RoleCustomer}, res.Order.ID, "pidx-1")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	paid, err := svc.VerifyKhaltiPayment(ctx, auth.Identity{UserID: user, Role: domain.RoleCustomer}, res.Order.ID, "pidx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, paid.PaymentStatus)

	_, err = svc.VerifyKhaltiPayment(ctx, auth.Identity{UserID: user, Role: domain.RoleCustomer}, res.Order.ID, "pidx-other")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	gw.AssertExpectations(t)
}

func TestQuote(t *testing.T) {
	_, store := newStore(t)
	p := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500})
	svc := newOrderService(store)

	q, err := svc.Quote(context.Background(), []cart.Item{lineFor(p, 1, "", ""), lineFor(p, 3, "", "")}, domain.ShippingStandard, domain.PaymentCard)
	require.NoError(t, err)
	require.Len(t, q.Items, 1)
	assert.Equal(t, 4, q.Items[0].Quantity)
	assert.Equal(t, domain.Breakdown{Subtotal: 10000, Tax: 1300, Total: 11300}, q.Breakdown)
}

func TestUpdateOrder(t *testing.T) {
	db, store := newStore(t)
	ctx := context.Background()
	p := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500})
	svc := newOrderService(store)
	res, err := svc.SubmitOrder(ctx, primitive.NewObjectID(), CheckoutRequest{
		Items:          []cart.Item{lineFor(p, 1, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCOD,
		ShippingMethod: domain.ShippingStandard,
	})
	require.NoError(t, err)
	id := res.Order.ID

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	db.SetClock(func() time.Time { return now })

	shipped, delivered, bogus := domain.ShippingShipped, domain.ShippingDelivered, domain.ShippingStatus("lost")
	paid := domain.PaymentPaid
	tracking := "NP-123"

	_, err = svc.UpdateOrder(ctx, id, domain.OrderUpdate{ShippingStatus: &bogus})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.UpdateOrder(ctx, id, domain.OrderUpdate{ShippingStatus: &delivered})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	o, err := svc.UpdateOrder(ctx, id, domain.OrderUpdate{ShippingStatus: &shipped, TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, "NP-123", o.TrackingNumber)

	o, err = svc.UpdateOrder(ctx, id, domain.OrderUpdate{ShippingStatus: &delivered, PaymentStatus: &paid})
	require.NoError(t, err)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, now, *o.DeliveredAt)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)

	_, err = svc.UpdateOrder(ctx, primitive.NewObjectID(), domain.OrderUpdate{PaymentStatus: &paid})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestOrderAccess(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()
	p := createProduct(t, store, domain.Product{Name: "Tee", Price: 2500})
	svc := newOrderService(store)
	owner := primitive.NewObjectID()
	res, err := svc.SubmitOrder(ctx, owner, CheckoutRequest{
		Items:          []cart.Item{lineFor(p, 1, "", "")},
		ShippingInfo:   validShipping(),
		PaymentMethod:  domain.PaymentCard,
		ShippingMethod: domain.ShippingStandard,
	})
	require.NoError(t, err)

	stranger := auth.Identity{UserID: primitive.NewObjectID(), Role: domain.RoleCustomer}
	admin := auth.Identity{UserID: primitive.NewObjectID(), Role: domain.RoleAdmin}

	_, err = svc.GetOrder(ctx, stranger, res.Order.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = svc.ListOrdersByUser(ctx, stranger, owner)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	got, err := svc.GetOrder(ctx, admin, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.User)

	mine, err := svc.ListOrdersByUser(ctx, auth.Identity{UserID: owner, Role: domain.RoleCustomer}, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.DeleteOrder(ctx, res.Order.ID))
	_, err = svc.GetOrder(ctx, admin, res.Order.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
