package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"everesthemp-backend/internal/auth"
	"everesthemp-backend/internal/cart"
	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/infra/khalti"
	rabbit "everesthemp-backend/internal/infra/rabbitmq"
	cache "everesthemp-backend/internal/infra/redis"
	"everesthemp-backend/internal/pricing"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CheckoutRequest struct {
	Items          []cart.Item
	ShippingInfo   domain.ShippingInfo
	PaymentMethod  domain.PaymentMethod
	ShippingMethod domain.ShippingMethod
	// Total is what the shopper was shown. When present it must match the
	// server's own computation.
	Total          *int64
	OrderNotes     string
	IdempotencyKey string
}

type CheckoutResult struct {
	Order      *domain.Order
	PaymentURL string
	// Replayed is set when an earlier attempt with the same idempotency key
	// already created the order.
	Replayed bool
}

type Quote struct {
	Items     []domain.OrderItem `json:"items"`
	Breakdown domain.Breakdown   `json:"breakdown"`
}

// KhaltiSettings are the URLs Khalti sends the shopper back to.
type KhaltiSettings struct {
	ReturnURL  string
	WebsiteURL string
}

type OrderService struct {
	products  repository.ProductRepository
	orders    repository.OrderRepository
	rules     pricing.Rules
	publisher rabbit.PublisherInterface
	locker    cache.KeyLockerInterface
	lockTTL   time.Duration
	summary   cache.SummaryCacheInterface
	gateway   khalti.GatewayInterface
	khalti    KhaltiSettings
	log       *slog.Logger
	now       func() time.Time
}

func NewOrderService(p repository.ProductRepository, o repository.OrderRepository, rules pricing.Rules, pub rabbit.PublisherInterface, log *slog.Logger) *OrderService {
	return &OrderService{
		products:  p,
		orders:    o,
		rules:     rules,
		publisher: pub,
		locker:    cache.NewLocalKeyLocker(),
		lockTTL:   10 * time.Minute,
		log:       log,
		now:       time.Now,
	}
}

func (s *OrderService) SetKeyLocker(l cache.KeyLockerInterface, ttl time.Duration) {
	s.locker = l
	s.lockTTL = ttl
}

func (s *OrderService) SetSummaryCache(c cache.SummaryCacheInterface) {
	s.summary = c
}

func (s *OrderService) SetPaymentGateway(g khalti.GatewayInterface, settings KhaltiSettings) {
	s.gateway = g
	s.khalti = settings
}

func (s *OrderService) Rules() pricing.Rules {
	return s.rules
}

// snapshot prices a cart against the live catalog. The returned lines are
// the frozen copies stored on the order.
func (s *OrderService) snapshot(ctx context.Context, items []cart.Item) ([]domain.OrderItem, error) {
	if len(items) == 0 {
		return nil, domain.Errorf(domain.ErrValidation, "cart is empty")
	}
	c := cart.FromItems(items)

	lines := make([]domain.OrderItem, 0, c.Len())
	for _, it := range c.Items() {
		if it.ProductID.IsZero() {
			return nil, domain.Errorf(domain.ErrValidation, "cart line without a product")
		}
		if it.Quantity > cart.MaxQuantity {
			return nil, domain.Errorf(domain.ErrValidation, "at most %d of one item per order", cart.MaxQuantity)
		}
		p, err := s.products.FindByID(ctx, it.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrValidation, "product %s is no longer available", it.ProductID.Hex())
		}
		if err != nil {
			return nil, err
		}
		if !p.InStock && !p.TrackInventory {
			return nil, domain.Errorf(domain.ErrConflict, "%s is out of stock", p.Name)
		}
		if !domain.Offers(p.Sizes, it.Size) {
			return nil, domain.Errorf(domain.ErrValidation, "%s is not available in size %q", p.Name, it.Size)
		}
		if !domain.Offers(p.Colors, it.Color) {
			return nil, domain.Errorf(domain.ErrValidation, "%s is not available in color %q", p.Name, it.Color)
		}
		lines = append(lines, domain.OrderItem{
			Product:  p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: it.Quantity,
			Color:    it.Color,
			Size:     it.Size,
			Image:    p.PrimaryImage(),
		})
	}
	return lines, nil
}

func validateMethods(ship domain.ShippingMethod, pay domain.PaymentMethod) error {
	if !ship.Valid() {
		return domain.Errorf(domain.ErrValidation, "unknown shipping method %q", ship)
	}
	if !pay.Valid() {
		return domain.Errorf(domain.ErrValidation, "unknown payment method %q", pay)
	}
	return nil
}

// Quote prices a cart exactly as SubmitOrder would, without reserving
// anything.
func (s *OrderService) Quote(ctx context.Context, items []cart.Item, ship domain.ShippingMethod, pay domain.PaymentMethod) (*Quote, error) {
	if err := validateMethods(ship, pay); err != nil {
		return nil, err
	}
	lines, err := s.snapshot(ctx, items)
	if err != nil {
		return nil, err
	}
	b, err := s.rules.Quote(pricing.OrderLines(lines), ship, pay)
	if err != nil {
		return nil, err
	}
	return &Quote{Items: lines, Breakdown: b}, nil
}

func (s *OrderService) SubmitOrder(ctx context.Context, userID primitive.ObjectID, req CheckoutRequest) (*CheckoutResult, error) {
	if userID.IsZero() {
		return nil, domain.Errorf(domain.ErrUnauthenticated, "sign in to place an order")
	}
	if err := validateMethods(req.ShippingMethod, req.PaymentMethod); err != nil {
		return nil, err
	}
	if err := req.ShippingInfo.Validate(); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if prev, err := s.replay(ctx, userID, req.IdempotencyKey); prev != nil || err != nil {
			return prev, err
		}
		lock := userID.Hex() + ":" + req.IdempotencyKey
		ok, err := s.locker.Acquire(ctx, lock, s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			if prev, err := s.replay(ctx, userID, req.IdempotencyKey); prev != nil || err != nil {
				return prev, err
			}
			return nil, domain.Errorf(domain.ErrConflict, "this checkout is already being processed")
		}
		defer func() {
			if err := s.locker.Release(context.Background(), lock); err != nil {
				s.log.Warn("release idempotency key", "error", err)
			}
		}()
	}

	lines, err := s.snapshot(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.rules.Quote(pricing.OrderLines(lines), req.ShippingMethod, req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if req.Total != nil && *req.Total != breakdown.Total {
		return nil, domain.Errorf(domain.ErrValidation, "order total %d does not match %d", *req.Total, breakdown.Total)
	}

	reserved, err := s.reserveStock(ctx, lines)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		User:           userID,
		Items:          lines,
		ShippingInfo:   req.ShippingInfo,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  domain.PaymentPending,
		ShippingMethod: req.ShippingMethod,
		ShippingStatus: domain.ShippingProcessing,
		Breakdown:      breakdown,
		Total:          breakdown.Total,
		OrderNotes:     req.OrderNotes,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseStock(reserved)
		if errors.Is(err, domain.ErrConflict) && req.IdempotencyKey != "" {
			if prev, perr := s.replay(ctx, userID, req.IdempotencyKey); prev != nil || perr != nil {
				return prev, perr
			}
		}
		s.log.Error("order not saved", "user", userID.Hex(), "error", err)
		return nil, err
	}
	s.log.Info("order placed", "order", order.ID.Hex(), "user", userID.Hex(), "total", order.Total)

	s.afterWrite(ctx, domain.EventOrderCreated, order)

	result := &CheckoutResult{Order: order}
	if order.PaymentMethod == domain.PaymentKhalti && s.gateway != nil {
		result.PaymentURL = s.initiateKhalti(ctx, order)
	}
	return result, nil
}

func (s *OrderService) replay(ctx context.Context, userID primitive.ObjectID, key string) (*CheckoutResult, error) {
	prev, err := s.orders.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Order: prev, Replayed: true}, nil
}

type reservation struct {
	product primitive.ObjectID
	qty     int
}

// reserveStock decrements inventory for tracked products. On failure every
// earlier reservation is returned and nothing stays decremented.
func (s *OrderService) reserveStock(ctx context.Context, lines []domain.OrderItem) ([]reservation, error) {
	var order []primitive.ObjectID
	qty := map[primitive.ObjectID]int{}
	for _, l := range lines {
		if _, seen := qty[l.Product]; !seen {
			order = append(order, l.Product)
		}
		qty[l.Product] += l.Quantity
	}

	var reserved []reservation
	for _, id := range order {
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			s.releaseStock(reserved)
			return nil, err
		}
		if !p.TrackInventory {
			continue
		}
		if err := s.products.ReserveStock(ctx, id, qty[id]); err != nil {
			s.releaseStock(reserved)
			if errors.Is(err, domain.ErrConflict) {
				return nil, domain.Errorf(domain.ErrConflict, "not enough %s in stock", p.Name)
			}
			return nil, err
		}
		reserved = append(reserved, reservation{product: id, qty: qty[id]})
	}
	return reserved, nil
}

func (s *OrderService) releaseStock(reserved []reservation) {
	for _, r := range reserved {
		if err := s.products.ReleaseStock(context.Background(), r.product, r.qty); err != nil {
			s.log.Error("stock not released", "product", r.product.Hex(), "qty", r.qty, "error", err)
		}
	}
}

// afterWrite runs the side effects of an order write. None of them can fail
// the request.
func (s *OrderService) afterWrite(ctx context.Context, event string, o *domain.Order) {
	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	if err := s.publisher.Publish(ctx, event, domain.NewOrderEvent(o, s.now())); err != nil {
		s.log.Warn("order event not published", "event", event, "order", o.ID.Hex(), "error", err)
	}
}

func (s *OrderService) initiateKhalti(ctx context.Context, o *domain.Order) string {
	resp, err := s.gateway.Initiate(ctx, khalti.InitiateRequest{
		ReturnURL:         s.khalti.ReturnURL,
		WebsiteURL:        s.khalti.WebsiteURL,
		Amount:            khalti.ToPaisa(o.Total),
		PurchaseOrderID:   o.ID.Hex(),
		PurchaseOrderName: fmt.Sprintf("Everest Hemp order %s", o.ID.Hex()),
		CustomerInfo: khalti.CustomerInfo{
			Name:  o.ShippingInfo.FullName,
			Email: o.ShippingInfo.Email,
			Phone: o.ShippingInfo.Phone,
		},
	})
	if err != nil {
		s.log.Error("khalti initiate failed", "order", o.ID.Hex(), "error", err)
		return ""
	}
	o.PaymentReference = resp.Pidx
	o.UpdatedAt = s.now()
	if err := s.orders.Update(ctx, o); err != nil {
		s.log.Error("payment reference not saved", "order", o.ID.Hex(), "pidx", resp.Pidx, "error", err)
	}
	return resp.PaymentURL
}

// VerifyKhaltiPayment asks Khalti for the state of pidx and records the
// outcome on the order.
func (s *OrderService) VerifyKhaltiPayment(ctx context.Context, caller auth.Identity, orderID primitive.ObjectID, pidx string) (*domain.Order, error) {
	if s.gateway == nil {
		return nil, domain.Errorf(domain.ErrValidation, "khalti payments are not enabled")
	}
	if pidx == "" {
		return nil, domain.Errorf(domain.ErrValidation, "pidx is required")
	}
	o, err := s.GetOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != domain.PaymentKhalti {
		return nil, domain.Errorf(domain.ErrValidation, "order is not paid with khalti")
	}
	if o.PaymentReference != "" && o.PaymentReference != pidx {
		return nil, domain.Errorf(domain.ErrValidation, "pidx does not belong to this order")
	}

	res, err := s.gateway.Lookup(ctx, pidx)
	if err != nil {
		s.log.Error("khalti lookup failed", "order", o.ID.Hex(), "error", err)
		return nil, domain.StorageError("khalti lookup", err)
	}

	status := o.PaymentStatus
	switch res.Status {
	case khalti.StatusCompleted:
		if res.TotalAmount != khalti.ToPaisa(o.Total) {
			s.log.Warn("khalti amount mismatch", "order", o.ID.Hex(), "paid", res.TotalAmount, "expected", khalti.ToPaisa(o.Total))
			status = domain.PaymentFailed
		} else {
			status = domain.PaymentPaid
		}
	case khalti.StatusExpired, khalti.StatusCanceled:
		status = domain.PaymentFailed
	case khalti.StatusRefunded:
		status = domain.PaymentRefunded
	}
	if status == o.PaymentStatus && o.PaymentReference == pidx {
		return o, nil
	}

	o.PaymentStatus = status
	o.PaymentReference = pidx
	o.UpdatedAt = s.now()
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, domain.EventOrderUpdated, o)
	return o, nil
}

// GetOrder returns the order if caller owns it or is an admin.
func (s *OrderService) GetOrder(ctx context.Context, caller auth.Identity, id primitive.ObjectID) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(o.User) {
		return nil, domain.Errorf(domain.ErrForbidden, "order belongs to another user")
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

func (s *OrderService) ListOrdersByUser(ctx context.Context, caller auth.Identity, user primitive.ObjectID) ([]domain.Order, error) {
	if !caller.CanAccess(user) {
		return nil, domain.Errorf(domain.ErrForbidden, "cannot list another user's orders")
	}
	return s.orders.ListByUser(ctx, user)
}

func (s *OrderService) UpdateOrder(ctx context.Context, id primitive.ObjectID, up domain.OrderUpdate) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := up.Apply(o, s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.log.Info("order updated", "order", id.Hex(), "paymentStatus", o.PaymentStatus, "shippingStatus", o.ShippingStatus)
	s.afterWrite(ctx, domain.EventOrderUpdated, o)
	return o, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	if s.summary != nil {
		s.summary.Invalidate(ctx)
	}
	s.log.Info("order deleted", "order", id.Hex())
	return nil
}
