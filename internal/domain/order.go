package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentEsewa  PaymentMethod = "esewa"
	PaymentKhalti PaymentMethod = "khalti"
	PaymentCOD    PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentEsewa, PaymentKhalti, PaymentCOD:
		return true
	}
	return false
}

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

func (m ShippingMethod) Valid() bool {
	return m == ShippingStandard || m == ShippingExpress
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type ShippingStatus string

const (
	ShippingProcessing ShippingStatus = "processing"
	ShippingShipped    ShippingStatus = "shipped"
	ShippingDelivered  ShippingStatus = "delivered"
	ShippingCancelled  ShippingStatus = "cancelled"
)

func (s ShippingStatus) Valid() bool {
	switch s {
	case ShippingProcessing, ShippingShipped, ShippingDelivered, ShippingCancelled:
		return true
	}
	return false
}

var shippingTransitions = map[ShippingStatus][]ShippingStatus{
	ShippingProcessing: {ShippingShipped, ShippingCancelled},
	ShippingShipped:    {ShippingDelivered, ShippingCancelled},
}

// CanTransition reports whether an order may move from s to next. Setting the
// current value again is always allowed; delivered and cancelled are final.
func (s ShippingStatus) CanTransition(next ShippingStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range shippingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Price    int64              `bson:"price" json:"price"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Color    string             `bson:"color,omitempty" json:"color,omitempty"`
	Size     string             `bson:"size,omitempty" json:"size,omitempty"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
}

type ShippingInfo struct {
	FullName string `bson:"fullName" json:"fullName"`
	Email    string `bson:"email" json:"email"`
	Phone    string `bson:"phone" json:"phone"`
	Address  string `bson:"address" json:"address"`
	City     string `bson:"city" json:"city"`
	State    string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode  string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
}

func (s ShippingInfo) Validate() error {
	switch {
	case s.FullName == "":
		return wrap(ErrValidation, "shipping name is required")
	case s.Phone == "" && s.Email == "":
		return wrap(ErrValidation, "a shipping phone or email is required")
	case s.Address == "":
		return wrap(ErrValidation, "shipping address is required")
	case s.City == "":
		return wrap(ErrValidation, "shipping city is required")
	}
	return nil
}

// Breakdown is the priced view of a set of lines. Total already includes
// every other component.
type Breakdown struct {
	Subtotal int64 `bson:"subtotal" json:"subtotal"`
	Shipping int64 `bson:"shipping" json:"shipping"`
	Tax      int64 `bson:"tax" json:"tax"`
	CODFee   int64 `bson:"codFee" json:"codFee"`
	Total    int64 `bson:"total" json:"total"`
}

type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User             primitive.ObjectID `bson:"user" json:"user"`
	Items            []OrderItem        `bson:"items" json:"items"`
	ShippingInfo     ShippingInfo       `bson:"shippingInfo" json:"shippingInfo"`
	PaymentMethod    PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus    PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	ShippingMethod   ShippingMethod     `bson:"shippingMethod" json:"shippingMethod"`
	ShippingStatus   ShippingStatus     `bson:"shippingStatus" json:"shippingStatus"`
	Breakdown        Breakdown          `bson:"breakdown" json:"breakdown"`
	Total            int64              `bson:"total" json:"total"`
	OrderNotes       string             `bson:"orderNotes,omitempty" json:"orderNotes,omitempty"`
	TrackingNumber   string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	PaymentReference string             `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	IdempotencyKey   string             `bson:"idempotencyKey,omitempty" json:"-"`
	DeliveredAt      *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID primitive.ObjectID) bool {
	return o.User == userID
}

// OrderUpdate is the admin-editable part of an order. Line items are never
// part of it.
type OrderUpdate struct {
	PaymentStatus  *PaymentStatus  `json:"paymentStatus"`
	ShippingStatus *ShippingStatus `json:"shippingStatus"`
	TrackingNumber *string         `json:"trackingNumber"`
}

// Apply validates the update against o and, if it is acceptable, mutates o.
func (up OrderUpdate) Apply(o *Order, now time.Time) error {
	if up.PaymentStatus != nil && !up.PaymentStatus.Valid() {
		return Errorf(ErrValidation, "unknown payment status %q", *up.PaymentStatus)
	}
	if up.ShippingStatus != nil {
		next := *up.ShippingStatus
		if !next.Valid() {
			return Errorf(ErrValidation, "unknown shipping status %q", next)
		}
		if !o.ShippingStatus.CanTransition(next) {
			return Errorf(ErrConflict, "cannot move order from %s to %s", o.ShippingStatus, next)
		}
	}

	if up.PaymentStatus != nil {
		o.PaymentStatus = *up.PaymentStatus
	}
	if up.ShippingStatus != nil {
		if *up.ShippingStatus == ShippingDelivered && o.DeliveredAt == nil {
			delivered := now
			o.DeliveredAt = &delivered
		}
		o.ShippingStatus = *up.ShippingStatus
	}
	if up.TrackingNumber != nil {
		o.TrackingNumber = *up.TrackingNumber
	}
	o.UpdatedAt = now
	return nil
}

type Wishlist struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	User     primitive.ObjectID   `bson:"user" json:"user"`
	Products []primitive.ObjectID `bson:"products" json:"products"`
}
