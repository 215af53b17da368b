package catalog

import (
	"context"
	"log"
	"time"
)

// Start runs the periodic refresh of both lanes until ctx is done. It also
// binds background revalidation to ctx. Failures are logged and the next
// tick tries again.
func (c *TieredCache) Start(ctx context.Context) {
	c.mu.Lock()
	c.bgCtx = ctx
	c.mu.Unlock()

	c.every(ctx, c.opts.EventsRefreshEvery, LaneEvents, func(ctx context.Context) error {
		_, err := c.events.refresh(ctx)
		return err
	})
	c.every(ctx, c.opts.CatalogRefreshEvery, LaneCatalog, func(ctx context.Context) error {
		_, err := c.catalog.refresh(ctx)
		return err
	})
	log.Printf("catalog: background refresh started (events every %s, catalog every %s)",
		c.opts.EventsRefreshEvery, c.opts.CatalogRefreshEvery)
}

// Wait blocks until every background goroutine has returned.
func (c *TieredCache) Wait() { c.wg.Wait() }

func (c *TieredCache) every(ctx context.Context, d time.Duration, id Lane, refresh func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := refresh(ctx); err != nil && ctx.Err() == nil {
					log.Printf("catalog: scheduled refresh of %s lane failed: %v", id, err)
				}
			}
		}
	}()
}

// background is the context shared fetches and revalidation run on. It is
// the one passed to Start, or context.Background before that.
func (c *TieredCache) background() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bgCtx
}

func (c *TieredCache) goBackground(fn func(context.Context)) {
	ctx := c.background()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(ctx)
	}()
}

// Subscribe registers fn for lane updates. fn runs on the goroutine that
// wrote the lane and must not block. The returned func unregisters it.
func (c *TieredCache) Subscribe(fn func(Update)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *TieredCache) notify(u Update) {
	c.mu.Lock()
	fns := make([]func(Update), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}
