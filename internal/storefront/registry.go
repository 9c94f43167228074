package storefront

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/session"
)

// Visitor is the state owned by one browser: its cart and its session.
type Visitor struct {
	ID      string
	Cart    *cart.Cart
	Session *session.Store

	lastSeen time.Time
}

// Registry creates visitors on first contact and drops them when they go
// idle. Sessions live in the shared storage under the visitor id, so a
// returning visitor keeps their login across restarts while the cart is
// rebuilt empty.
type Registry struct {
	mu       sync.Mutex
	visitors map[string]*Visitor

	storage    session.Storage
	sessionTTL time.Duration
	idle       time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

type RegistryOption func(*Registry)

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(storage session.Storage, sessionTTL, idle time.Duration, logger *slog.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		visitors:   make(map[string]*Visitor),
		storage:    storage,
		sessionTTL: sessionTTL,
		idle:       idle,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the visitor for id, creating it when unknown. An id that is
// not a UUID is replaced with a fresh one; callers must hand the returned
// Visitor.ID back to the client.
func (r *Registry) Open(id string) *Visitor {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if v, ok := r.visitors[id]; ok {
		v.lastSeen = now
		return v
	}

	v := &Visitor{
		ID:   id,
		Cart: cart.New(),
		Session: session.NewStore(
			session.Namespace(r.storage, "visitor:"+id+":"),
			r.logger,
			session.WithTTL(r.sessionTTL),
			session.WithClock(r.now),
		),
		lastSeen: now,
	}
	r.visitors[id] = v
	r.logger.Debug("visitor opened", "visitor_id", id)
	return v
}

// Close forgets the visitor's in-memory state. Its persisted session is left
// for Logout to clear.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.visitors, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// Sweep closes every visitor idle for longer than the idle timeout and
// reports how many were closed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idle)
	closed := 0
	for id, v := range r.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(r.visitors, id)
			closed++
		}
	}
	return closed
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("closed idle visitors", "count", n, "remaining", r.Len())
			}
		}
	}
}
