package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"everesthemp-backend/internal/auth"
	"everesthemp-backend/internal/config"
	httpctrl "everesthemp-backend/internal/controllers/http"
	"everesthemp-backend/internal/infra/khalti"
	"everesthemp-backend/internal/infra/rabbitmq"
	cache "everesthemp-backend/internal/infra/redis"
	"everesthemp-backend/internal/repository"
	"everesthemp-backend/internal/repository/memory"
	mongorepo "everesthemp-backend/internal/repository/mongo"
	"everesthemp-backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx := context.Background()
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Warn("store close", "error", err)
		}
	}()

	var publisher rabbitmq.PublisherInterface = rabbitmq.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, log)
		if err != nil {
			log.Error("rabbitmq", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
		log.Info("publishing order events", "exchange", cfg.RabbitMQExchange)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	orders := services.NewOrderService(store.Products, store.Orders, cfg.Pricing, publisher, log)
	analytics := services.NewAnalyticsService(store, cfg.Timezone, log)

	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		summary := cache.NewSummaryCache(rdb, cfg.AnalyticsCacheTTL, log)
		analytics.SetCache(summary)
		orders.SetSummaryCache(summary)
		orders.SetKeyLocker(cache.NewKeyLocker(rdb), cfg.IdempotencyTTL)
		log.Info("redis enabled")
	} else {
		orders.SetKeyLocker(cache.NewLocalKeyLocker(), cfg.IdempotencyTTL)
	}

	if cfg.KhaltiSecretKey != "" {
		orders.SetPaymentGateway(
			khalti.NewClient(cfg.KhaltiBaseURL, cfg.KhaltiSecretKey, 10*time.Second),
			services.KhaltiSettings{ReturnURL: cfg.KhaltiReturnURL, WebsiteURL: cfg.KhaltiWebsite},
		)
		log.Info("khalti payments enabled", "baseUrl", cfg.KhaltiBaseURL)
	}

	handler := httpctrl.NewHandler(httpctrl.Services{
		Catalog:   services.NewCatalogService(store.Products, store.Categories, store.Orders, log),
		Orders:    orders,
		Wishlists: services.NewWishlistService(store.Wishlists, store.Products, log),
		Analytics: analytics,
		Users:     services.NewUserService(store.Users, tokens, log),
	}, tokens, func(c *gin.Context) error { return store.Ping(c.Request.Context()) }, log)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpctrl.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server run", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return memory.New().Store(), nil
	}

	client, err := mongorepo.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return repository.Store{}, err
	}
	db := client.Database(cfg.MongoDatabase)

	idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mongorepo.EnsureIndexes(idxCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return repository.Store{}, err
	}
	log.Info("connected to mongo", "database", cfg.MongoDatabase)
	return mongorepo.NewStore(client, db), nil
}
