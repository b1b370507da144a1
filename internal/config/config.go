// Package config reads runtime settings from the environment (and .env, when present).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	// RedisURL empty disables the settings cache.
	RedisURL      string
	RatesCacheTTL time.Duration
	// AMQPURL empty disables invoice events.
	AMQPURL        string
	InvoiceQueue   string
	ServerPort     string
	AllowedOrigins string
	// Location is the calendar used to bucket lots into days.
	Location *time.Location
	Workers  int
}

// Load reads .env (if any) and then the environment. Unset values take their defaults;
// values that are set but malformed are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:    getenv("DATABASE_URL"),
		RedisURL:       getenv("REDIS_URL"),
		AMQPURL:        getenv("AMQP_URL"),
		InvoiceQueue:   orDefault(getenv("INVOICE_EVENTS_QUEUE"), "invoice_events"),
		ServerPort:     orDefault(getenv("SERVER_PORT"), "8080"),
		AllowedOrigins: getenv("ALLOWED_ORIGINS"),
	}

	ttl := orDefault(getenv("RATES_CACHE_TTL"), "5m")
	d, err := time.ParseDuration(ttl)
	if err != nil || d <= 0 {
		return nil, fmt.Errorf("invalid RATES_CACHE_TTL %q", ttl)
	}
	cfg.RatesCacheTTL = d

	tz := orDefault(getenv("BILLING_TIMEZONE"), "Asia/Kolkata")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	workers := orDefault(getenv("BILLING_WORKERS"), "8")
	n, err := strconv.Atoi(workers)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid BILLING_WORKERS %q", workers)
	}
	cfg.Workers = n

	return cfg, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
