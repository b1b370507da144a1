package main

import (
	"log"
	"os"
	"strconv"

	"mandi-billing/internal/config"
	"mandi-billing/internal/db"
)

// Usage: migrate [up | down [steps]]
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("[CONFIG] DATABASE_URL is not set")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			log.Fatalf("[MIGRATE] %v", err)
		}
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil || steps <= 0 {
				log.Fatalf("[MIGRATE] invalid step count %q", os.Args[2])
			}
		}
		if err := db.MigrateDown(cfg.DatabaseURL, steps); err != nil {
			log.Fatalf("[MIGRATE] %v", err)
		}
	default:
		log.Fatalf("Unknown command: %s (want up or down)", cmd)
	}

	log.Println("[DONE] All migrations processed.")
}
