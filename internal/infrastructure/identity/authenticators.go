package identity

import (
	"context"

	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
)

// Authenticators routes credentials to the authenticator registered for
// their sign-in method. An empty method means password.
type Authenticators struct {
	byMethod map[string]ports.Authenticator
}

func NewAuthenticators() *Authenticators {
	return &Authenticators{byMethod: make(map[string]ports.Authenticator)}
}

// Register adds auth under method, replacing any previous one.
func (a *Authenticators) Register(method string, auth ports.Authenticator) *Authenticators {
	a.byMethod[method] = auth
	return a
}

// Supports reports whether method has an authenticator.
func (a *Authenticators) Supports(method string) bool {
	_, ok := a.byMethod[method]
	return ok
}

func (a *Authenticators) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	method := creds.Method
	if method == "" {
		method = domain.MethodPassword
	}
	auth, ok := a.byMethod[method]
	if !ok {
		return nil, domain.ErrUnsupportedMethod
	}
	creds.Method = method
	return auth.Authenticate(ctx, creds)
}
