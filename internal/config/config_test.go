package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadCacheConfigDefaults(t *testing.T) {
	c := LoadCacheConfig()
	assert.True(t, c.UseRedis())
	assert.Equal(t, "wh", c.Prefix)
	assert.Equal(t, 2*time.Minute, c.ResponseTTL)
	assert.Equal(t, 7*24*time.Hour, c.CatalogTTL)
	assert.Equal(t, 24*time.Hour, c.CatalogRevalidateAfter)
	assert.Equal(t, 5*time.Minute, c.EventsTTL)
	assert.Equal(t, 30*time.Second, c.HTTPTTL)
}

func TestLoadCacheConfigOverrides(t *testing.T) {
	t.Setenv("CACHE_STORE", "MEMORY")
	t.Setenv("CACHE_EVENTS_TTL", "90s")
	t.Setenv("CACHE_CATALOG_TTL", "not-a-duration")
	c := LoadCacheConfig()
	assert.False(t, c.UseRedis())
	assert.Equal(t, 90*time.Second, c.EventsTTL)
	assert.Equal(t, 7*24*time.Hour, c.CatalogTTL)
}

func TestLoadRateLimitConfig(t *testing.T) {
	c := LoadRateLimitConfig()
	assert.True(t, c.Enabled)
	assert.Equal(t, 30, c.Capacity)
	assert.InDelta(t, 0.5, c.PerSecond(), 1e-9)
	assert.Equal(t, 10*time.Minute, c.TTL)

	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	c = LoadRateLimitConfig()
	assert.False(t, c.Enabled)
	assert.Equal(t, 5, c.Capacity)
	assert.Equal(t, time.Minute, c.RefillInterval)
	assert.Equal(t, 5*time.Minute, c.TTL)
}

func TestLoad(t *testing.T) {
	t.Setenv("APPS_SCRIPT_URL", "https://script.example.com/exec")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AMQP_URL", "amqp://broker:5672/")
	t.Setenv("API_TIMEOUT", "10s")

	c := Load()
	assert.Equal(t, "https://script.example.com/exec", c.APIBaseURL)
	assert.Equal(t, 10*time.Second, c.APITimeout)
	assert.Equal(t, "NZD", c.Currency)
	assert.Equal(t, 30*time.Minute, c.SessionIdleTTL)
	assert.Equal(t, "amqp://broker:5672/", c.RabbitURL)
	assert.False(t, c.AdminEnabled())

	t.Setenv("DB_USER", "app")
	t.Setenv("RABBITMQ_URL", "amqp://primary:5672/")
	c = Load()
	assert.True(t, c.AdminEnabled())
	assert.Equal(t, "amqp://primary:5672/", c.RabbitURL)
}

func TestRedisOptions(t *testing.T) {
	o := RedisOptions()
	assert.Equal(t, "localhost:6379", o.Addr)
	assert.Nil(t, o.TLSConfig)

	t.Setenv("REDIS_ADDR", "cache:6380")
	assert.Equal(t, "cache:6380", RedisOptions().Addr)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TLS", "yes")
	o = RedisOptions()
	assert.Equal(t, "redis:6379", o.Addr)
	assert.Equal(t, 3, o.DB)
	assert.NotNil(t, o.TLSConfig)
}

func TestEnvBool(t *testing.T) {
	cases := map[string]bool{"1": true, "TRUE": true, "on": true, "0": false, "No": false, "off": false}
	for raw, want := range cases {
		t.Setenv("FLAG", raw)
		assert.Equal(t, want, envBool("FLAG", !want), raw)
	}
	t.Setenv("FLAG", "maybe")
	assert.True(t, envBool("FLAG", true))
}
