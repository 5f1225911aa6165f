package ports

import (
	"context"
	"time"

	"github.com/jaibharat/management-hub/internal/core/domain"
)

// SessionBindings maps browser session IDs to signed-in identities and
// fans out changes to watchers. Every write bumps the session's binding
// version; a higher version is always the newer state.
type SessionBindings interface {
	// Get returns the bound identity (nil when signed out) and its version.
	Get(ctx context.Context, sessionID string) (*domain.Identity, uint64, error)
	Put(ctx context.Context, sessionID string, id domain.Identity, ttl time.Duration) (uint64, error)
	Delete(ctx context.Context, sessionID string) (uint64, error)
	Watch(sessionID string, cb func(IdentityChange)) (unsubscribe func())
}

// IdentityChange is a sign-in or sign-out observed for one session.
// Identity is nil for sign-out.
type IdentityChange struct {
	SessionID string
	Identity  *domain.Identity
	Version   uint64
}

// IdentityChangeHandler consumes changes pulled off the dispatcher.
type IdentityChangeHandler interface {
	Deliver(ctx context.Context, change IdentityChange) error
}
