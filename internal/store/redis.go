package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores values in Redis under prefix:key.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisKV wraps rdb. prefix namespaces every key ("wh" gives "wh:key").
func NewRedisKV(rdb *redis.Client, prefix string) *RedisKV {
	return &RedisKV{rdb: rdb, prefix: prefix}
}

func (r *RedisKV) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return bs, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttlHint time.Duration) error {
	if ttlHint < 0 {
		ttlHint = 0
	}
	return r.rdb.Set(ctx, r.key(key), value, ttlHint).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}
