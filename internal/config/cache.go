package config

import (
	"strings"
	"time"
)

// CacheConfig defines the two caches the service keeps in front of the
// booking API.
//
// The response cache holds raw GET responses keyed by their full URL for
// ResponseTTL; any POST clears it.  The tiered cache keeps the workshop
// catalog for CatalogTTL (revalidated in the background once older than
// CatalogRevalidateAfter) and scheduled events for EventsTTL.  HTTPTTL bounds
// the rendered calendar kept in Redis between lane updates.  Store selects
// where the tiers and responses live: "redis" or "memory".  Redis falls back
// to memory when no client could be created.
type CacheConfig struct {
	Store                  string
	Prefix                 string
	ResponseTTL            time.Duration
	CatalogTTL             time.Duration
	CatalogRevalidateAfter time.Duration
	CatalogRefreshEvery    time.Duration
	EventsTTL              time.Duration
	EventsRefreshEvery     time.Duration
	HTTPTTL                time.Duration
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are the values the site has always used.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Store:                  strings.ToLower(envStr("CACHE_STORE", "redis")),
		Prefix:                 envStr("CACHE_PREFIX", "wh"),
		ResponseTTL:            envDur("CACHE_RESPONSE_TTL", 2*time.Minute),
		CatalogTTL:             envDur("CACHE_CATALOG_TTL", 7*24*time.Hour),
		CatalogRevalidateAfter: envDur("CACHE_CATALOG_REVALIDATE_AFTER", 24*time.Hour),
		CatalogRefreshEvery:    envDur("CACHE_CATALOG_REFRESH_EVERY", 24*time.Hour),
		EventsTTL:              envDur("CACHE_EVENTS_TTL", 5*time.Minute),
		EventsRefreshEvery:     envDur("CACHE_EVENTS_REFRESH_EVERY", 5*time.Minute),
		HTTPTTL:                envDur("CACHE_HTTP_TTL", 30*time.Second),
	}
}

// UseRedis reports whether Redis was requested as the backing store.
func (c CacheConfig) UseRedis() bool { return c.Store == "redis" }
