package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	webAdapter "mandi-billing/internal/adapters/web"
	"mandi-billing/internal/app"
	"mandi-billing/internal/cache"
	"mandi-billing/internal/config"
	"mandi-billing/internal/core"
	"mandi-billing/internal/db"
	"mandi-billing/internal/event"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	var store core.Store = db.NewStore(pool)
	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: settings cache disabled: %v", err)
		} else {
			defer rdb.Close()
			store = cache.NewSettingsStore(store, rdb, cfg.RatesCacheTTL)
		}
	}

	var notifier core.InvoiceNotifier
	if cfg.AMQPURL != "" {
		publisher, err := event.Dial(cfg.AMQPURL, cfg.InvoiceQueue)
		if err != nil {
			log.Printf("Warning: invoice events disabled: %v", err)
		} else {
			defer publisher.Close()
			notifier = publisher
		}
	}

	svc := app.NewAppService(store, notifier, cfg.Location, cfg.Workers)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           webAdapter.NewHandler(svc, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("server starting on :%s (billing timezone %s)", cfg.ServerPort, cfg.Location)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	log.Println("server stopped")
}
