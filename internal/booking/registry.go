package booking

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/workshop-booking/internal/catalog"
)

// DefaultIdleTTL is how long an untouched wizard session is kept.
const DefaultIdleTTL = 30 * time.Minute

type session struct {
	wizard   *Wizard
	lastSeen time.Time
}

// Registry holds live wizard sessions keyed by a random id.
type Registry struct {
	backend Backend
	idleTTL time.Duration
	opts    []Option
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry returns an empty registry. opts are applied to every wizard
// it creates.
func NewRegistry(backend Backend, idleTTL time.Duration, opts ...Option) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		backend:  backend,
		idleTTL:  idleTTL,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create starts a wizard over snap. A seeded event is selected straight
// away; if that fails the wizard stays on the first step with the error
// recorded in its state.
func (r *Registry) Create(ctx context.Context, snap catalog.Snapshot, seed Seed) (string, *Wizard) {
	w := New(r.backend, snap, seed, r.opts...)
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = &session{wizard: w, lastSeen: r.now()}
	r.mu.Unlock()

	if seed.EventID != "" {
		if _, err := w.Transition(ctx, SelectEvent{EventID: seed.EventID}); err != nil {
			log.Printf("booking: session %s: preselected event %s not selected: %v", id, seed.EventID, err)
		}
	}
	return id, w
}

// Get returns the wizard for id and marks it as used.
func (r *Registry) Get(id string) (*Wizard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s.wizard, nil
}

// Delete forgets id.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// it removed. Busy wizards are kept.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) && !s.wizard.Busy() {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				log.Printf("booking: expired %d idle sessions", n)
			}
		}
	}
}
