package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
)

// Listener observes session state changes.
type Listener func(domain.SessionState)

type subscription struct {
	listener Listener
	active   atomic.Bool
}

// SessionContext holds the session state of one browser session and keeps
// it in sync with the identity provider.
//
// Listeners run synchronously on the goroutine that caused the change and
// always in subscription order. A listener must not call Logout or SignIn
// on the same context.
type SessionContext struct {
	provider ports.IdentityProvider
	log      zerolog.Logger

	mu        sync.Mutex
	state     domain.SessionState
	subs      []*subscription
	resolved  chan struct{}
	closeOnce sync.Once
	stopWatch func()

	notifyMu sync.Mutex
}

// NewSessionContext enters Loading and asks the provider for the current
// identity in the background. Provider notifications are the only other
// path that moves the state.
func NewSessionContext(ctx context.Context, provider ports.IdentityProvider, log zerolog.Logger) *SessionContext {
	s := &SessionContext{
		provider: provider,
		log:      log,
		state:    domain.Loading(),
		resolved: make(chan struct{}),
	}
	s.stopWatch = provider.OnIdentityChanged(func(id *domain.Identity) {
		s.transition(domain.StateFor(id))
	})
	go s.resolve(ctx)
	return s
}

func (s *SessionContext) resolve(ctx context.Context) {
	id, err := s.provider.CurrentIdentity(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session resolution failed, treating as signed out")
		id = nil
	}

	// A provider notification that got here first is newer; keep it.
	s.apply(domain.StateFor(id), true)
}

// Current is a synchronous read of the latest known state.
func (s *SessionContext) Current() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Resolved waits until the state has left Loading or ctx is done, and
// returns the state at that moment.
func (s *SessionContext) Resolved(ctx context.Context) domain.SessionState {
	select {
	case <-s.resolved:
	case <-ctx.Done():
	}
	return s.Current()
}

// Subscribe registers l for every subsequent change. The returned func is
// safe to call any number of times; after the first call l is never
// invoked again.
func (s *SessionContext) Subscribe(l Listener) (unsubscribe func()) {
	sub := &subscription{listener: l}
	sub.active.Store(true)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, candidate := range s.subs {
				if candidate == sub {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// SignIn hands credentials to the provider and, on success, moves the
// session to Authenticated.
func (s *SessionContext) SignIn(ctx context.Context, creds domain.Credentials) (domain.Identity, error) {
	id, err := s.provider.SignIn(ctx, creds)
	if err != nil {
		return domain.Identity{}, err
	}
	s.transition(domain.Authenticated(*id))
	return *id, nil
}

// Logout asks the provider to end the session. On failure the state is
// left untouched and the error wraps domain.ErrLogoutFailed.
func (s *SessionContext) Logout(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLogoutFailed, err)
	}
	s.transition(domain.Unauthenticated())
	return nil
}

// Close stops following provider notifications.
func (s *SessionContext) Close() {
	s.closeOnce.Do(func() {
		if s.stopWatch != nil {
			s.stopWatch()
		}
	})
}

func (s *SessionContext) transition(next domain.SessionState) {
	s.apply(next, false)
}

func (s *SessionContext) apply(next domain.SessionState, onlyFromLoading bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.state.Equal(next) || (onlyFromLoading && !s.state.IsLoading()) {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = next
	if prev.IsLoading() {
		close(s.resolved)
	}
	subs := make([]*subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	s.log.Debug().
		Str("from", prev.String()).
		Str("to", next.String()).
		Msg("session state changed")

	for _, sub := range subs {
		if sub.active.Load() {
			sub.listener(next)
		}
	}
}
