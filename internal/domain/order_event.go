package domain

import "time"

const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
)

type OrderEvent struct {
	OrderID        string         `json:"orderId"`
	UserID         string         `json:"userId"`
	Total          int64          `json:"total"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	ShippingStatus ShippingStatus `json:"shippingStatus"`
	OccurredAt     time.Time      `json:"occurredAt"`
}

func NewOrderEvent(o *Order, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:        o.ID.Hex(),
		UserID:         o.User.Hex(),
		Total:          o.Total,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		ShippingStatus: o.ShippingStatus,
		OccurredAt:     at,
	}
}
