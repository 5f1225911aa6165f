package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jaibharat/management-hub/internal/api/middleware"
	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
	"github.com/jaibharat/management-hub/internal/core/service"
	"github.com/jaibharat/management-hub/internal/infrastructure/http/handlers"
	"github.com/jaibharat/management-hub/internal/pkg/config"
)

const testSecret = "router-test-secret"

type fixedProvider struct{ id *domain.Identity }

func (p fixedProvider) CurrentIdentity(context.Context) (*domain.Identity, error) { return p.id, nil }
func (p fixedProvider) OnIdentityChanged(func(*domain.Identity)) func()          { return func() {} }
func (p fixedProvider) SignOut(context.Context) error                            { return nil }

func (p fixedProvider) SignIn(context.Context, domain.Credentials) (*domain.Identity, error) {
	return nil, domain.ErrInvalidCredentials
}

type noAccounts struct{}

func (noAccounts) Authenticate(context.Context, domain.Credentials) (*domain.Identity, error) {
	return nil, domain.ErrInvalidCredentials
}

func (noAccounts) Register(context.Context, string, string, string) (*domain.Account, error) {
	return nil, domain.ErrAccountExists
}

type routerFixture struct {
	mu         sync.Mutex
	identities map[string]*domain.Identity
	handler    http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{identities: map[string]*domain.Identity{}}

	cfg := &config.Config{
		AppName: "Test Hub",
		Env:     "development",
		Session: config.SessionConfig{
			Secret:         testSecret,
			TTL:            time.Hour,
			IdleTTL:        time.Minute,
			LoadingTimeout: time.Second,
		},
	}
	registry := service.NewSessionRegistry(context.Background(), func(sid string) ports.IdentityProvider {
		f.mu.Lock()
		defer f.mu.Unlock()
		return fixedProvider{id: f.identities[sid]}
	}, time.Minute, zerolog.Nop())

	f.handler = NewRouter(Dependencies{
		Config:   cfg,
		Sessions: registry,
		Policy:   service.NewRolePolicy([]string{"testadmin@example.com"}),
		Accounts: noAccounts{},
		HealthChecks: map[string]handlers.Check{
			"noop": func(context.Context) error { return nil },
		},
		Log:      zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	})
	return f
}

// signIn binds email to a fresh session and returns its cookie.
func (f *routerFixture) signIn(t *testing.T, sid, email string) *http.Cookie {
	t.Helper()
	f.mu.Lock()
	f.identities[sid] = &domain.Identity{UID: "uid-" + sid, Email: email}
	f.mu.Unlock()

	token, err := middleware.IssueSessionToken([]byte(testSecret), sid, time.Hour, time.Now())
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

func (f *routerFixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	f := newRouterFixture(t)

	require.Equal(t, http.StatusOK, f.get("/health").Code)

	rec := f.get("/health/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "noop")

	f.get("/health")
	rec = f.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "portal_requests_total")
}

func TestRouter_SwaggerDoc(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.get("/swagger/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/api/session/stream")
}

func TestRouter_LoginPageIssuesSession(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.get("/auth/login?role=admin")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Test Hub")

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			found = true
			require.True(t, c.HttpOnly)
		}
	}
	require.True(t, found, "session cookie not issued")
}

func TestRouter_AdminRequiresSignIn(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.get("/admin/students?page=2")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/auth/login?role=admin&redirect="), loc)
	require.Contains(t, loc, "page%3D2")
}

func TestRouter_StudentCannotOpenAdmin(t *testing.T) {
	f := newRouterFixture(t)
	cookie := f.signIn(t, "sid-student", "random@x.com")

	rec := f.get("/admin/dashboard", cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Access Denied")

	rec = f.get("/student/profile", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdminOpensBothGroups(t *testing.T) {
	f := newRouterFixture(t)
	cookie := f.signIn(t, "sid-admin", "testadmin@example.com")

	require.Equal(t, http.StatusOK, f.get("/admin/dashboard", cookie).Code)
	require.Equal(t, http.StatusOK, f.get("/student/profile", cookie).Code)

	rec := f.get("/admin", cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

func TestRouter_SessionAPI(t *testing.T) {
	f := newRouterFixture(t)
	cookie := f.signIn(t, "sid-api", "testadmin@example.com")

	rec := f.get("/api/session", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"state":"authenticated"`)
	require.Contains(t, rec.Body.String(), `"admin"`)
}
