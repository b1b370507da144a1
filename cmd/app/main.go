package main

import (
	"context"
	"log"
	"os"

	"mandi-billing/internal/adapters/cli"
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

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	var store core.Store = db.NewStore(pool)
	if cfg.RedisURL != "" {
		if rdb, err := cache.NewClient(ctx, cfg.RedisURL); err == nil {
			defer rdb.Close()
			store = cache.NewSettingsStore(store, rdb, cfg.RatesCacheTTL)
		}
	}

	var notifier core.InvoiceNotifier
	if cfg.AMQPURL != "" {
		if publisher, err := event.Dial(cfg.AMQPURL, cfg.InvoiceQueue); err == nil {
			defer publisher.Close()
			notifier = publisher
		} else {
			log.Printf("Warning: invoice events disabled: %v", err)
		}
	}

	svc := app.NewAppService(store, notifier, cfg.Location, cfg.Workers)

	if err := cli.Run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		pool.Close()
		log.Fatal(err)
	}
}
