// Package catalog keeps the workshop catalog and the scheduled events in
// two persisted lanes with their own freshness rules, and serves the
// reconciled view of both.
//
// The catalog lane changes rarely: it is served for up to a week and
// revalidated in the background once it is a day old. The events lane
// carries seat counts and is never served past its five minute TTL.
package catalog

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/workshop-booking/internal/availability"
	"github.com/iliyamo/workshop-booking/internal/model"
	"github.com/iliyamo/workshop-booking/internal/store"
)

// ErrWorkshopNotFound is returned by WorkshopByID for ids missing from the catalog.
var ErrWorkshopNotFound = errors.New("catalog: workshop not found")

// Source is the remote API surface the cache reads from. *sheets.Client
// satisfies it.
type Source interface {
	GetWorkshops(ctx context.Context) ([]model.Workshop, error)
	GetAllEvents(ctx context.Context) ([]model.Event, error)
	GetEventsForWorkshop(ctx context.Context, workshopID string) ([]model.Event, error)
	ClearCache(ctx context.Context)
}

// Options tunes lane lifetimes and refresh cadence. Zero durations take
// the defaults, except RevalidateDelay where zero means no delay.
type Options struct {
	CatalogTTL             time.Duration
	CatalogRevalidateAfter time.Duration
	CatalogRefreshEvery    time.Duration
	EventsTTL              time.Duration
	EventsRefreshEvery     time.Duration
	RevalidateDelay        time.Duration
	Now                    func() time.Time
}

// DefaultOptions returns the production lifetimes.
func DefaultOptions() Options {
	return Options{
		CatalogTTL:             7 * 24 * time.Hour,
		CatalogRevalidateAfter: 24 * time.Hour,
		CatalogRefreshEvery:    24 * time.Hour,
		EventsTTL:              5 * time.Minute,
		EventsRefreshEvery:     5 * time.Minute,
		RevalidateDelay:        2 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.CatalogTTL <= 0 {
		o.CatalogTTL = def.CatalogTTL
	}
	if o.CatalogRevalidateAfter <= 0 {
		o.CatalogRevalidateAfter = def.CatalogRevalidateAfter
	}
	if o.CatalogRefreshEvery <= 0 {
		o.CatalogRefreshEvery = def.CatalogRefreshEvery
	}
	if o.EventsTTL <= 0 {
		o.EventsTTL = def.EventsTTL
	}
	if o.EventsRefreshEvery <= 0 {
		o.EventsRefreshEvery = def.EventsRefreshEvery
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Snapshot is the reconciled view handed to readers. Degraded is set when
// it was assembled from whatever the store held after a failed fetch.
type Snapshot struct {
	Workshops   []model.EnrichedWorkshop `json:"workshops"`
	Events      []model.Event            `json:"events"`
	LastUpdated time.Time                `json:"lastUpdated"`
	CatalogAge  time.Duration            `json:"-"`
	EventsAge   time.Duration            `json:"-"`
	Degraded    bool                     `json:"degraded"`
}

// LaneInfo describes one lane's stored entry.
type LaneInfo struct {
	Lane             Lane      `json:"lane"`
	Key              string    `json:"key"`
	Exists           bool      `json:"exists"`
	Timestamp        time.Time `json:"timestamp,omitempty"`
	AgeSeconds       float64   `json:"ageSeconds"`
	TTLSeconds       float64   `json:"ttlSeconds"`
	ExpiresInSeconds float64   `json:"expiresInSeconds"`
	Expired          bool      `json:"expired"`
}

// Info is the state of both lanes.
type Info struct {
	Catalog LaneInfo `json:"catalog"`
	Events  LaneInfo `json:"events"`
}

// Update announces that a lane was rewritten.
type Update struct {
	Lane Lane      `json:"lane"`
	At   time.Time `json:"at"`
}

// TieredCache is safe for concurrent use.
type TieredCache struct {
	src   Source
	kv    store.KV
	opts  Options
	group singleflight.Group

	catalog *lane[[]model.Workshop]
	events  *lane[[]model.Event]

	mu     sync.Mutex
	bgCtx  context.Context
	subs   map[int]func(Update)
	nextID int

	wg sync.WaitGroup
}

// New builds a cache reading from src and persisting into kv.
func New(src Source, kv store.KV, opts Options) *TieredCache {
	c := &TieredCache{
		src:   src,
		kv:    kv,
		opts:  opts.withDefaults(),
		bgCtx: context.Background(),
		subs:  make(map[int]func(Update)),
	}
	c.catalog = &lane[[]model.Workshop]{
		id:              LaneCatalog,
		key:             CatalogKey,
		ttl:             c.opts.CatalogTTL,
		revalidateAfter: c.opts.CatalogRevalidateAfter,
		fetch:           src.GetWorkshops,
		c:               c,
	}
	c.events = &lane[[]model.Event]{
		id:    LaneEvents,
		key:   EventsKey,
		ttl:   c.opts.EventsTTL,
		fetch: src.GetAllEvents,
		c:     c,
	}
	return c
}

func (c *TieredCache) now() time.Time { return c.opts.Now() }

// Init loads the catalog and then the events and reconciles them. When a
// fetch fails it falls back to the stored lanes regardless of age, and to
// an empty degraded snapshot when nothing is stored. The error is non-nil
// only when ctx itself is done.
func (c *TieredCache) Init(ctx context.Context) (Snapshot, error) {
	cat, err := c.catalog.load(ctx)
	if err != nil {
		return c.fallback(ctx, err)
	}
	ev, err := c.events.load(ctx)
	if err != nil {
		return c.fallback(ctx, err)
	}
	return c.snapshot(cat, ev, false), nil
}

func (c *TieredCache) fallback(ctx context.Context, cause error) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	log.Printf("catalog: load failed, serving stored data: %v", cause)
	cat, ok := c.catalog.cached(ctx)
	if !ok {
		log.Printf("catalog: nothing stored, serving empty snapshot")
		return Snapshot{
			Workshops:   []model.EnrichedWorkshop{},
			Events:      []model.Event{},
			LastUpdated: c.now(),
			Degraded:    true,
		}, nil
	}
	ev, _ := c.events.cached(ctx)
	return c.snapshot(cat, ev, true), nil
}

func (c *TieredCache) snapshot(cat store.Entry[[]model.Workshop], ev store.Entry[[]model.Event], degraded bool) Snapshot {
	now := c.now()
	workshops := cat.Data
	if workshops == nil {
		workshops = []model.Workshop{}
	}
	events := ev.Data
	if events == nil {
		events = []model.Event{}
	}
	s := Snapshot{
		Workshops:   availability.Reconcile(workshops, events, now),
		Events:      events,
		LastUpdated: now,
		Degraded:    degraded,
	}
	if !cat.Timestamp.IsZero() {
		s.CatalogAge = cat.Age(now)
	}
	if !ev.Timestamp.IsZero() {
		s.EventsAge = ev.Age(now)
	}
	return s
}

// ForceRefresh drops the client's response cache and refetches both lanes.
// It does not delete the stored lanes up front the way Clear does: each
// lane is overwritten only once its new data is in, so a failed refresh
// returns the error and leaves the previous entries for degraded reads.
func (c *TieredCache) ForceRefresh(ctx context.Context) (Snapshot, error) {
	c.src.ClearCache(ctx)
	cat, err := c.catalog.refresh(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	ev, err := c.events.refresh(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return c.snapshot(cat, ev, false), nil
}

// AllWithLiveAvailability serves the catalog lane as usual but always
// refetches the events.
func (c *TieredCache) AllWithLiveAvailability(ctx context.Context) (Snapshot, error) {
	cat, err := c.catalog.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	ev, err := c.events.refresh(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return c.snapshot(cat, ev, false), nil
}

// WorkshopByID returns one catalog entry enriched with its live events.
func (c *TieredCache) WorkshopByID(ctx context.Context, id string) (model.EnrichedWorkshop, error) {
	cat, err := c.catalog.load(ctx)
	if err != nil {
		return model.EnrichedWorkshop{}, err
	}
	for _, w := range cat.Data {
		if w.WorkshopID != id {
			continue
		}
		events, err := c.src.GetEventsForWorkshop(ctx, id)
		if err != nil {
			return model.EnrichedWorkshop{}, err
		}
		return availability.Enrich(w, events, c.now()), nil
	}
	return model.EnrichedWorkshop{}, ErrWorkshopNotFound
}

// Info reports existence, age and expiry of both lanes.
func (c *TieredCache) Info(ctx context.Context) Info {
	now := c.now()
	return Info{
		Catalog: c.catalog.info(ctx, now),
		Events:  c.events.info(ctx, now),
	}
}

// Clear drops both lanes and the client's response cache.
func (c *TieredCache) Clear(ctx context.Context) error {
	c.src.ClearCache(ctx)
	if err := c.kv.Delete(ctx, CatalogKey); err != nil {
		return err
	}
	if err := c.kv.Delete(ctx, EventsKey); err != nil {
		return err
	}
	log.Printf("catalog: lanes cleared")
	return nil
}
