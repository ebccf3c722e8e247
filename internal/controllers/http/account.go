package http

import (
	"net/http"

	"everesthemp-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	u, token, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{User: u, Token: token})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	u, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{User: u, Token: token})
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	u, err := h.users.GetUser(c.Request.Context(), identity(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	var up domain.UserUpdate
	if err := c.ShouldBindJSON(&up); err != nil {
		badRequest(c, "invalid input")
		return
	}
	u, err := h.users.UpdateUser(c.Request.Context(), identity(c), id, up)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context(), domain.Role(c.Query("role")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetWishlist(c *gin.Context) {
	products, err := h.wishlists.List(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) AddToWishlist(c *gin.Context) {
	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid input")
		return
	}
	user := identity(c).UserID
	if err := h.wishlists.Add(c.Request.Context(), user, req.ProductID); err != nil {
		h.respondError(c, err)
		return
	}
	h.GetWishlist(c)
}

func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	product, ok := objectIDParam(c, "productId")
	if !ok {
		return
	}
	if err := h.wishlists.Remove(c.Request.Context(), identity(c).UserID, product); err != nil {
		h.respondError(c, err)
		return
	}
	h.GetWishlist(c)
}

func (h *Handler) Summary(c *gin.Context) {
	sum, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
