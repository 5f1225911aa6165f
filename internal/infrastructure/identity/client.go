package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
)

// SessionClient is the identity provider as seen by one browser session.
// The signed-in identity lives in the session bindings; credentials are
// checked by the configured authenticator.
//
// The client remembers the newest binding version it has written or
// observed and drops notifications that are not newer, so a delayed echo
// of an earlier sign-in cannot undo a later sign-out.
type SessionClient struct {
	sessionID string
	bindings  ports.SessionBindings
	auth      ports.Authenticator
	ttl       time.Duration

	mu      sync.Mutex
	version uint64
}

func NewSessionClient(sessionID string, bindings ports.SessionBindings, auth ports.Authenticator, ttl time.Duration) *SessionClient {
	return &SessionClient{sessionID: sessionID, bindings: bindings, auth: auth, ttl: ttl}
}

// NewProviderFactory returns a constructor suitable for the session registry.
func NewProviderFactory(bindings ports.SessionBindings, auth ports.Authenticator, ttl time.Duration) func(string) ports.IdentityProvider {
	return func(sessionID string) ports.IdentityProvider {
		return NewSessionClient(sessionID, bindings, auth, ttl)
	}
}

func (c *SessionClient) CurrentIdentity(ctx context.Context) (*domain.Identity, error) {
	id, version, err := c.bindings.Get(ctx, c.sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthUnavailable, err)
	}
	c.advance(version)
	return id, nil
}

func (c *SessionClient) OnIdentityChanged(cb func(*domain.Identity)) func() {
	return c.bindings.Watch(c.sessionID, func(change ports.IdentityChange) {
		if c.advance(change.Version) {
			cb(change.Identity)
		}
	})
}

func (c *SessionClient) SignOut(ctx context.Context) error {
	version, err := c.bindings.Delete(ctx, c.sessionID)
	if err != nil {
		return err
	}
	c.advance(version)
	return nil
}

func (c *SessionClient) SignIn(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	id, err := c.auth.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	version, err := c.bindings.Put(ctx, c.sessionID, *id, c.ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthUnavailable, err)
	}
	c.advance(version)
	return id, nil
}

// advance records version and reports whether it was newer than anything
// seen before.
func (c *SessionClient) advance(version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version <= c.version {
		return false
	}
	c.version = version
	return true
}
