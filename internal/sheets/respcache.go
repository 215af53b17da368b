package sheets

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache holds unwrapped GET payloads keyed by the full request URL.
type ResponseCache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Set(ctx context.Context, key string, data json.RawMessage, ttl time.Duration)
	Clear(ctx context.Context)
}

type memEntry struct {
	data   json.RawMessage
	expiry time.Time
}

// MemoryResponseCache is the per-process response cache.
type MemoryResponseCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryResponseCache() *MemoryResponseCache {
	return &MemoryResponseCache{entries: make(map[string]memEntry), now: time.Now}
}

func (m *MemoryResponseCache) Get(_ context.Context, key string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiry) {
		delete(m.entries, key)
		return nil, false
	}
	return e.data, true
}

func (m *MemoryResponseCache) Set(_ context.Context, key string, data json.RawMessage, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = memEntry{data: data, expiry: m.now().Add(ttl)}
	m.mu.Unlock()
}

func (m *MemoryResponseCache) Clear(context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]memEntry)
	m.mu.Unlock()
}

// RedisResponseCache shares GET responses between service instances. Keys
// are prefix:sha1(url) so long query strings stay bounded.
type RedisResponseCache struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisResponseCache(rdb *redis.Client, prefix string) *RedisResponseCache {
	return &RedisResponseCache{rdb: rdb, prefix: prefix}
}

func (r *RedisResponseCache) key(url string) string {
	sum := sha1.Sum([]byte(url))
	return fmt.Sprintf("%s:%x", r.prefix, sum[:])
}

func (r *RedisResponseCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	bs, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("sheets: response cache read failed: %v", err)
		}
		return nil, false
	}
	return json.RawMessage(bs), true
}

func (r *RedisResponseCache) Set(ctx context.Context, key string, data json.RawMessage, ttl time.Duration) {
	if err := r.rdb.SetEx(ctx, r.key(key), []byte(data), ttl).Err(); err != nil {
		log.Printf("sheets: response cache write failed: %v", err)
	}
}

// Clear deletes every key under the prefix. A failure leaves entries to
// expire on their own TTL; it is logged, not returned, because the POST
// that triggered it has already succeeded.
func (r *RedisResponseCache) Clear(ctx context.Context) {
	iter := r.rdb.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("sheets: response cache scan failed: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("sheets: response cache clear failed: %v", err)
	}
}
