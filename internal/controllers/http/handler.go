package http

import (
	"errors"
	"log/slog"
	"net/http"

	"everesthemp-backend/internal/auth"
	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	catalog   *services.CatalogService
	orders    *services.OrderService
	wishlists *services.WishlistService
	analytics *services.AnalyticsService
	users     *services.UserService
	tokens    *auth.TokenIssuer
	ping      func(c *gin.Context) error
	log       *slog.Logger
}

type Services struct {
	Catalog   *services.CatalogService
	Orders    *services.OrderService
	Wishlists *services.WishlistService
	Analytics *services.AnalyticsService
	Users     *services.UserService
}

func NewHandler(s Services, tokens *auth.TokenIssuer, ping func(c *gin.Context) error, log *slog.Logger) *Handler {
	return &Handler{
		catalog:   s.Catalog,
		orders:    s.Orders,
		wishlists: s.Wishlists,
		analytics: s.Analytics,
		users:     s.Users,
		tokens:    tokens,
		ping:      ping,
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/categories", h.ListCategories)
	api.POST("/cart/quote", h.QuoteCart)

	authed := api.Group("")
	authed.Use(h.tokens.Middleware())
	authed.POST("/orders", h.CreateOrder)
	authed.GET("/orders/user/:userId", h.ListUserOrders)
	authed.GET("/orders/:id", h.GetOrder)
	authed.POST("/payments/khalti/verify", h.VerifyKhalti)
	authed.GET("/wishlist", h.GetWishlist)
	authed.POST("/wishlist", h.AddToWishlist)
	authed.DELETE("/wishlist/:productId", h.RemoveFromWishlist)
	authed.GET("/users/:userId", h.GetUser)
	authed.PUT("/users/:userId", h.UpdateUser)

	admin := authed.Group("")
	admin.Use(auth.RequireAdmin())
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.POST("/categories", h.CreateCategory)
	admin.PUT("/categories/:id", h.UpdateCategory)
	admin.DELETE("/categories/:id", h.DeleteCategory)
	admin.GET("/orders", h.ListOrders)
	admin.PUT("/orders/:id", h.UpdateOrder)
	admin.DELETE("/orders/:id", h.DeleteOrder)
	admin.GET("/analytics/summary", h.Summary)
	admin.GET("/users", h.ListUsers)
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.ping(c); err != nil {
		h.log.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps a service error onto a status code. Storage failures
// are logged and reported without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"requestId", c.GetString(requestIDKey),
			"error", err,
		)
		c.JSON(status, gin.H{"error": "Server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// objectIDParam parses a path parameter and answers 400 when it is not a
// valid ObjectID.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func identity(c *gin.Context) auth.Identity {
	id, _ := auth.FromContext(c)
	return id
}
