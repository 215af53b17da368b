// Package store defines the key-value storage the tiered cache persists its
// lanes into, with an in-process implementation and a Redis implementation.
// Stores never interpret the bytes they hold; expiry policy belongs to the
// reader.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("store: key not found")

// KV is the storage capability the cache layer needs. ttlHint is advisory:
// zero means keep until deleted.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlHint time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Entry is a cached value together with the time it was written.
type Entry[T any] struct {
	Data      T         `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Age returns how old the entry is at now.
func (e Entry[T]) Age(now time.Time) time.Duration { return now.Sub(e.Timestamp) }

// LoadEntry reads and decodes the entry stored under key.
func LoadEntry[T any](ctx context.Context, kv KV, key string) (Entry[T], error) {
	var e Entry[T]
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return e, nil
}

// SaveEntry encodes data with timestamp ts and stores it under key.
func SaveEntry[T any](ctx context.Context, kv KV, key string, data T, ts time.Time, ttlHint time.Duration) error {
	raw, err := json.Marshal(Entry[T]{Data: data, Timestamp: ts})
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw, ttlHint)
}
