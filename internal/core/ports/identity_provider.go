package ports

import (
	"context"

	"github.com/jaibharat/management-hub/internal/core/domain"
)

// IdentityProvider is the external authority a session context stays in
// sync with. Implementations are bound to a single browser session.
type IdentityProvider interface {
	// CurrentIdentity resolves the signed-in identity, nil when nobody is.
	CurrentIdentity(ctx context.Context) (*domain.Identity, error)
	// OnIdentityChanged registers cb for sign-in/sign-out notifications.
	// cb receives nil on sign-out. The returned func deregisters cb.
	OnIdentityChanged(cb func(*domain.Identity)) (unsubscribe func())
	SignOut(ctx context.Context) error
	SignIn(ctx context.Context, creds domain.Credentials) (*domain.Identity, error)
}

// Authenticator verifies credentials for one or more sign-in methods.
type Authenticator interface {
	Authenticate(ctx context.Context, creds domain.Credentials) (*domain.Identity, error)
}
