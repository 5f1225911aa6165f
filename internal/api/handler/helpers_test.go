package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jaibharat/management-hub/internal/api/middleware"
	"github.com/jaibharat/management-hub/internal/api/views"
	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
	"github.com/jaibharat/management-hub/internal/core/service"
)

// memProvider is an in-memory identity provider for one session.
type memProvider struct {
	mu         sync.Mutex
	id         *domain.Identity
	signInErr  error
	signOutErr error
	lastCreds  domain.Credentials
	watchers   map[int]func(*domain.Identity)
	next       int
}

func (p *memProvider) CurrentIdentity(context.Context) (*domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id, nil
}

func (p *memProvider) OnIdentityChanged(cb func(*domain.Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watchers == nil {
		p.watchers = map[int]func(*domain.Identity){}
	}
	n := p.next
	p.next++
	p.watchers[n] = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.watchers, n)
	}
}

func (p *memProvider) SignOut(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signOutErr != nil {
		return p.signOutErr
	}
	p.id = nil
	return nil
}

func (p *memProvider) SignIn(_ context.Context, creds domain.Credentials) (*domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastCreds = creds
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	email := creds.Email
	if creds.Method == domain.MethodOIDC {
		email = "sso@example.com"
	}
	id := domain.Identity{UID: "uid-" + email, Email: email}
	p.id = &id
	return &id, nil
}

// emit simulates a sign-in or sign-out made elsewhere.
func (p *memProvider) emit(id *domain.Identity) {
	p.mu.Lock()
	p.id = id
	cbs := make([]func(*domain.Identity), 0, len(p.watchers))
	for _, cb := range p.watchers {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()
	for _, cb := range cbs {
		cb(id)
	}
}

type sessionFixture struct {
	mu        sync.Mutex
	providers map[string]*memProvider
	signInErr error
	registry  *service.SessionRegistry
	policy    *service.RolePolicy
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		providers: map[string]*memProvider{},
		policy:    service.NewRolePolicy([]string{"testadmin@example.com"}),
	}
	f.registry = service.NewSessionRegistry(context.Background(), func(sid string) ports.IdentityProvider {
		return f.provider(sid)
	}, time.Minute, zerolog.Nop())
	return f
}

// provider returns the provider of sid, creating a signed-out one.
func (f *sessionFixture) provider(sid string) *memProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.providers[sid]
	if !ok {
		p = &memProvider{signInErr: f.signInErr}
		f.providers[sid] = p
	}
	return p
}

// failSignIns makes every provider created from now on reject sign-in.
func (f *sessionFixture) failSignIns(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInErr = err
}

// attempts counts the providers that received credentials.
func (f *sessionFixture) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.providers {
		p.mu.Lock()
		if p.lastCreds.Method != "" {
			n++
		}
		p.mu.Unlock()
	}
	return n
}

// signedIn prepares sid with id already bound.
func (f *sessionFixture) signedIn(sid string, id domain.Identity) *memProvider {
	p := f.provider(sid)
	p.mu.Lock()
	p.id = &id
	p.mu.Unlock()
	return p
}

// resolved waits for sid's session context to leave Loading.
func (f *sessionFixture) resolved(t *testing.T, sid string) *service.SessionContext {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sc := f.registry.Get(sid)
	if sc.Resolved(ctx).IsLoading() {
		t.Fatalf("session %s did not resolve", sid)
	}
	return sc
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Renderer = views.MustNew()
	e.Validator = NewValidator()
	return e
}

func withSession(c echo.Context, sid string) echo.Context {
	c.Set(middleware.ContextKeySessionID, sid)
	return c
}
