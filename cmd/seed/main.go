package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"everesthemp-backend/internal/config"
	mongorepo "everesthemp-backend/internal/repository/mongo"
	"everesthemp-backend/internal/seed"
	"everesthemp-backend/internal/services"
)

func main() {
	file := flag.String("file", "seed/catalog.yaml", "catalog YAML to load")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}
	catalog, err := seed.LoadFile(*file)
	if err != nil {
		log.Error("seed file", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := mongorepo.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Error("mongo", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDatabase)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		log.Error("indexes", "error", err)
		os.Exit(1)
	}
	store := mongorepo.NewStore(client, db)

	svc := services.NewCatalogService(store.Products, store.Categories, store.Orders, log)
	res, err := seed.Apply(ctx, catalog, svc, store.Users)
	if err != nil {
		log.Error("seed", "error", err)
		os.Exit(1)
	}
	log.Info("seeded", "categories", res.Categories, "products", res.Products, "admin", res.Admin)
}
