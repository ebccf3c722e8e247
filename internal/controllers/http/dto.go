package http

import (
	"everesthemp-backend/internal/cart"
	"everesthemp-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type QuoteRequest struct {
	Items          []cart.Item           `json:"items" binding:"required"`
	ShippingMethod domain.ShippingMethod `json:"shippingMethod"`
	PaymentMethod  domain.PaymentMethod  `json:"paymentMethod"`
}

type CreateOrderRequest struct {
	Items          []cart.Item           `json:"items" binding:"required"`
	ShippingInfo   domain.ShippingInfo   `json:"shippingInfo"`
	PaymentMethod  domain.PaymentMethod  `json:"paymentMethod"`
	ShippingMethod domain.ShippingMethod `json:"shippingMethod"`
	Total          *int64                `json:"total"`
	OrderNotes     string                `json:"orderNotes"`
}

type CreateOrderResponse struct {
	*domain.Order
	PaymentURL string `json:"paymentUrl,omitempty"`
}

type KhaltiVerifyRequest struct {
	OrderID primitive.ObjectID `json:"orderId" binding:"required"`
	Pidx    string             `json:"pidx" binding:"required"`
}

type WishlistRequest struct {
	ProductID primitive.ObjectID `json:"productId" binding:"required"`
}

type DeleteProductResponse struct {
	ID       primitive.ObjectID `json:"id"`
	Archived bool               `json:"archived"`
}
