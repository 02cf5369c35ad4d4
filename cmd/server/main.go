package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"inventario/internal/cart"
	"inventario/internal/catalog"
	"inventario/internal/checkout"
	"inventario/internal/config"
	"inventario/internal/db"
	"inventario/internal/es"
	"inventario/internal/events"
	"inventario/internal/handlers"
	"inventario/internal/ledger"
	"inventario/internal/logging"
	loggingmw "inventario/internal/middleware/logging"
	httpserver "inventario/internal/transport/http"
)

const productIndex = "products"

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}
	if cfg.SeedDemoData {
		if err := db.SeedDemoData(database); err != nil {
			log.Fatalf("db seed error: %v", err)
		}
	}

	producer := events.New(cfg.KafkaBrokers)

	var esClient *elasticsearch.Client
	if cfg.ESURL != "" {
		esClient, err = es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	catalogSvc := &catalog.Service{DB: database}
	carts := cart.NewStore(catalogSvc)
	ledgerSvc := &ledger.Service{DB: database}
	manager := checkout.NewManager(carts, ledgerSvc, cfg.CheckoutDelay, cfg.CheckoutTimeout)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:     &handlers.AuthHandler{DB: database, JWTSecret: cfg.JWTSecret, Producer: producer},
		ProductHandler:  &handlers.ProductHandler{Catalog: catalogSvc, Producer: producer, ES: esClient, ESIndex: productIndex},
		CartHandler:     &handlers.CartHandler{Carts: carts, Producer: producer},
		CheckoutHandler: &handlers.CheckoutHandler{DB: database, Manager: manager, Producer: producer},
		OrderHandler:    &handlers.OrderHandler{Ledger: ledgerSvc, Producer: producer},
		JWTSecret:       cfg.JWTSecret,
	}
	if esClient != nil {
		deps.SearchHandler = &handlers.SearchHandler{ES: esClient, Index: productIndex}
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("producer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
