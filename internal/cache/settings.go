// Package cache keeps tenant rate settings in Redis so day-bill fan-out does not hit
// PostgreSQL once per farmer and buyer.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"mandi-billing/internal/core"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// SettingsStore is a core.Store whose GetTenantSettings is read through Redis. Every other
// method goes straight to the wrapped store. Redis failures fall back to the wrapped store.
type SettingsStore struct {
	core.Store
	rdb *redis.Client
	ttl time.Duration
}

// NewSettingsStore wraps store. ttl <= 0 means DefaultTTL.
func NewSettingsStore(store core.Store, rdb *redis.Client, ttl time.Duration) *SettingsStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SettingsStore{Store: store, rdb: rdb, ttl: ttl}
}

func settingsKey(tenantID int) string {
	return fmt.Sprintf("mandi:tenant:%d:settings", tenantID)
}

// GetTenantSettings caches absent settings too (as JSON null), so tenants running on
// defaults are not re-queried on every request.
func (s *SettingsStore) GetTenantSettings(ctx context.Context, tenantID int) (*core.TenantSettings, error) {
	key := settingsKey(tenantID)

	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var settings *core.TenantSettings
		if jerr := json.Unmarshal(raw, &settings); jerr == nil {
			return settings, nil
		}
		log.Printf("[CACHE] discarding undecodable entry %s", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("[CACHE] read %s failed, using database: %v", key, err)
	}

	settings, err := s.Store.GetTenantSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(settings)
	if err != nil {
		return settings, nil
	}
	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		log.Printf("[CACHE] write %s failed: %v", key, err)
	}
	return settings, nil
}
