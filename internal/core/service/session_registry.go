package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaibharat/management-hub/internal/core/ports"
)

const defaultIdleTTL = 30 * time.Minute

// ProviderFactory binds an identity provider to one browser session.
type ProviderFactory func(sessionID string) ports.IdentityProvider

type registryEntry struct {
	session  *SessionContext
	lastSeen time.Time
	leases   int
}

// SessionRegistry owns the SessionContext of every live browser session.
// Contexts are created on first use and closed once idle for longer than
// the configured TTL. A leased context is never idle.
type SessionRegistry struct {
	base    context.Context
	factory ProviderFactory
	idleTTL time.Duration
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
	onSize  func(int)
}

// NewSessionRegistry creates an empty registry. base bounds the lifetime of
// the background session resolutions. If idleTTL <= 0, defaultIdleTTL is used.
func NewSessionRegistry(base context.Context, factory ProviderFactory, idleTTL time.Duration, log zerolog.Logger) *SessionRegistry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &SessionRegistry{
		base:    base,
		factory: factory,
		idleTTL: idleTTL,
		log:     log,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// OnSizeChange installs a hook called with the entry count after it changes.
func (r *SessionRegistry) OnSizeChange(fn func(int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSize = fn
}

// Get returns the session context for sessionID, creating it when absent.
func (r *SessionRegistry) Get(sessionID string) *SessionContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryLocked(sessionID).session
}

// Acquire returns the session context for sessionID and holds it against
// Sweep until release is called. release is idempotent.
func (r *SessionRegistry) Acquire(sessionID string) (*SessionContext, func()) {
	r.mu.Lock()
	e := r.entryLocked(sessionID)
	e.leases++
	r.mu.Unlock()

	var once sync.Once
	return e.session, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			e.leases--
			e.lastSeen = r.now()
		})
	}
}

func (r *SessionRegistry) entryLocked(sessionID string) *registryEntry {
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = r.now()
		return e
	}

	sc := NewSessionContext(r.base, r.factory(sessionID), r.log.With().Str("session_id", sessionID).Logger())
	e := &registryEntry{session: sc, lastSeen: r.now()}
	r.entries[sessionID] = e
	r.sizeChangedLocked()
	return e
}

// Len is the number of live session contexts.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep closes and drops unleased contexts idle for longer than the TTL.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.idleTTL)
	var stale []*SessionContext
	for id, e := range r.entries {
		if e.leases == 0 && e.lastSeen.Before(cutoff) {
			stale = append(stale, e.session)
			delete(r.entries, id)
		}
	}
	if len(stale) > 0 {
		r.sizeChangedLocked()
	}
	r.mu.Unlock()

	for _, sc := range stale {
		sc.Close()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is cancelled, then closes everything.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug().Int("evicted", n).Msg("idle sessions evicted")
			}
		}
	}
}

func (r *SessionRegistry) closeAll() {
	r.mu.Lock()
	all := make([]*SessionContext, 0, len(r.entries))
	for id, e := range r.entries {
		all = append(all, e.session)
		delete(r.entries, id)
	}
	r.sizeChangedLocked()
	r.mu.Unlock()

	for _, sc := range all {
		sc.Close()
	}
}

func (r *SessionRegistry) sizeChangedLocked() {
	if r.onSize != nil {
		r.onSize(len(r.entries))
	}
}
