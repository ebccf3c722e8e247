package http

import (
	"net/http"
	"strings"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/services"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

// QuoteCart prices a cart snapshot without placing an order. Missing
// methods default to standard shipping and card payment.
func (h *Handler) QuoteCart(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	if req.ShippingMethod == "" {
		req.ShippingMethod = domain.ShippingStandard
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCard
	}
	q, err := h.orders.Quote(c.Request.Context(), req.Items, req.ShippingMethod, req.PaymentMethod)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	caller := identity(c)

	res, err := h.orders.SubmitOrder(c.Request.Context(), caller.UserID, services.CheckoutRequest{
		Items:          req.Items,
		ShippingInfo:   req.ShippingInfo,
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
		Total:          req.Total,
		OrderNotes:     req.OrderNotes,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, CreateOrderResponse{Order: res.Order, PaymentURL: res.PaymentURL})
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) ListUserOrders(c *gin.Context) {
	user, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	orders, err := h.orders.ListOrdersByUser(c.Request.Context(), identity(c), user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), identity(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var up domain.OrderUpdate
	if err := c.ShouldBindJSON(&up); err != nil {
		badRequest(c, "invalid input")
		return
	}
	o, err := h.orders.UpdateOrder(c.Request.Context(), id, up)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) VerifyKhalti(c *gin.Context) {
	var req KhaltiVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	o, err := h.orders.VerifyKhaltiPayment(c.Request.Context(), identity(c), req.OrderID, req.Pidx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
