package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/umerkang66/db-lab-project/internal/config"
	"github.com/umerkang66/db-lab-project/internal/es"
	"github.com/umerkang66/db-lab-project/internal/handlers"
	"github.com/umerkang66/db-lab-project/internal/handlers/cart"
	orderhdl "github.com/umerkang66/db-lab-project/internal/handlers/order"
	"github.com/umerkang66/db-lab-project/internal/logging"
	"github.com/umerkang66/db-lab-project/internal/mykafka"
	ordersvc "github.com/umerkang66/db-lab-project/internal/service/order"
	"github.com/umerkang66/db-lab-project/internal/service/token"
	httpserver "github.com/umerkang66/db-lab-project/internal/transport/http"
	"github.com/umerkang66/db-lab-project/internal/validate"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod, err = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
		if err != nil {
			log.Fatal(err)
		}
	} else {
		logger.Warn("KAFKA_ADDRESS not set, events disabled")
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Validator = validate.New()

	tokenService := &token.Service{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	orderService := &ordersvc.Service{DB: db}

	deps := httpserver.Deps{
		DB:             db,
		AuthHandler:    &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: prod, ES: esClient, Index: "product"},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "product"},
		CartHandler:    &cart.CartHandler{DB: db, Producer: prod},
		OrderHandler:   &orderhdl.OrderHandler{Svc: orderService, Producer: prod},
		TokenService:   tokenService,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
