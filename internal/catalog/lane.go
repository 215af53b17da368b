package catalog

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/iliyamo/workshop-booking/internal/store"
)

// Lane names one of the two persisted cache lanes.
type Lane string

const (
	LaneCatalog Lane = "catalog"
	LaneEvents  Lane = "events"
)

// Persisted keys of the two lanes.
const (
	CatalogKey = "wh_workshop_catalog"
	EventsKey  = "wh_scheduled_events"
)

// lane is one independently expiring slice of remote data. A lane with a
// non-zero revalidateAfter serves entries younger than ttl but refreshes
// them in the background once they pass revalidateAfter.
type lane[T any] struct {
	id              Lane
	key             string
	ttl             time.Duration
	revalidateAfter time.Duration
	fetch           func(context.Context) (T, error)

	c            *TieredCache
	revalidating atomic.Bool
}

// cached returns the stored entry whatever its age.
func (l *lane[T]) cached(ctx context.Context) (store.Entry[T], bool) {
	e, err := store.LoadEntry[T](ctx, l.c.kv, l.key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("catalog: read %s lane: %v", l.id, err)
		}
		return e, false
	}
	return e, true
}

// load serves the stored entry while it is inside its TTL and fetches
// synchronously otherwise.
func (l *lane[T]) load(ctx context.Context) (store.Entry[T], error) {
	if e, ok := l.cached(ctx); ok {
		age := e.Age(l.c.now())
		if age < l.ttl {
			if l.revalidateAfter > 0 && age > l.revalidateAfter {
				l.revalidate()
			}
			return e, nil
		}
	}
	return l.refresh(ctx)
}

// refresh fetches, persists and announces a new entry. Concurrent callers
// share one fetch, which runs on the cache's background context so that a
// caller leaving early neither cancels nor discards it for the others. A
// result that arrives after the background context is done is dropped.
func (l *lane[T]) refresh(ctx context.Context) (store.Entry[T], error) {
	if err := ctx.Err(); err != nil {
		return store.Entry[T]{}, err
	}
	ch := l.c.group.DoChan(l.key, func() (any, error) {
		fctx := l.c.background()
		data, err := l.fetch(fctx)
		if err != nil {
			return nil, err
		}
		if err := fctx.Err(); err != nil {
			log.Printf("catalog: discarding %s result: %v", l.id, err)
			return nil, err
		}
		e := store.Entry[T]{Data: data, Timestamp: l.c.now()}
		if err := store.SaveEntry(fctx, l.c.kv, l.key, e.Data, e.Timestamp, 0); err != nil {
			log.Printf("catalog: persist %s lane: %v", l.id, err)
		}
		l.c.notify(Update{Lane: l.id, At: e.Timestamp})
		return e, nil
	})
	select {
	case <-ctx.Done():
		return store.Entry[T]{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return store.Entry[T]{}, r.Err
		}
		return r.Val.(store.Entry[T]), nil
	}
}

// revalidate starts at most one background refresh.
func (l *lane[T]) revalidate() {
	if !l.revalidating.CompareAndSwap(false, true) {
		return
	}
	log.Printf("catalog: %s lane is stale, refreshing in background", l.id)
	l.c.goBackground(func(ctx context.Context) {
		defer l.revalidating.Store(false)
		if d := l.c.opts.RevalidateDelay; d > 0 {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return
			}
		}
		if _, err := l.refresh(ctx); err != nil {
			log.Printf("catalog: background refresh of %s lane failed: %v", l.id, err)
		}
	})
}

// info describes the stored entry at now.
func (l *lane[T]) info(ctx context.Context, now time.Time) LaneInfo {
	li := LaneInfo{Lane: l.id, Key: l.key, TTLSeconds: l.ttl.Seconds()}
	e, ok := l.cached(ctx)
	if !ok {
		return li
	}
	age := e.Age(now)
	li.Exists = true
	li.Timestamp = e.Timestamp
	li.AgeSeconds = age.Seconds()
	li.Expired = age >= l.ttl
	if !li.Expired {
		li.ExpiresInSeconds = (l.ttl - age).Seconds()
	}
	return li
}
