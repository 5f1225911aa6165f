package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jaibharat/management-hub/internal/api/metrics"
	"github.com/jaibharat/management-hub/internal/api/views"
	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
	"github.com/jaibharat/management-hub/internal/core/service"
)

const (
	// ContextKeyIdentity holds the authorised domain.Identity for guarded handlers.
	ContextKeyIdentity = "identity"

	defaultLoadingTimeout = 2 * time.Second
)

// SessionLookup finds the session context of a browser session.
type SessionLookup interface {
	Get(sessionID string) *service.SessionContext
}

// GuardConfig wires the guard middleware.
type GuardConfig struct {
	Guard          *service.AccessGuard
	Sessions       SessionLookup
	LoadingTimeout time.Duration
	AppName        string
	Log            zerolog.Logger
}

// Guard gates a route group. It waits up to LoadingTimeout for the session
// to resolve, then serves the guard's outcome: the loading page, a 303 to
// the login entry point, the 403 denial page, or the wrapped handler with
// the identity in the context.
func Guard(cfg GuardConfig) echo.MiddlewareFunc {
	timeout := cfg.LoadingTimeout
	if timeout <= 0 {
		timeout = defaultLoadingTimeout
	}
	group := cfg.Guard.Group().Name

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := cfg.Sessions.Get(SessionID(c))

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			session.Resolved(ctx)
			cancel()

			nav := &requestNavigator{path: c.Request().RequestURI}
			m := cfg.Guard.Mount(session, nav, service.GuardViews{Protected: ports.ViewFunc(func(map[string]any) {})}, nil)
			defer m.Unmount()

			out := m.Outcome()
			metrics.GuardDecisionsTotal.WithLabelValues(group, out.Kind.String()).Inc()

			switch out.Kind {
			case service.OutcomeLoading:
				cfg.Log.Debug().Str("group", group).Str("path", nav.path).Msg("session still loading")
				c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
				return c.Render(http.StatusOK, views.PageLoading, views.LoadingPage{
					Base:           views.Base{AppName: cfg.AppName},
					RefreshSeconds: 1,
				})
			case service.OutcomeRedirect:
				return c.Redirect(http.StatusSeeOther, out.Target)
			case service.OutcomeDenied:
				cfg.Log.Info().Str("group", group).Str("uid", out.Identity.UID).Msg("access denied")
				return c.Render(http.StatusForbidden, views.PageDenied, views.DeniedPage{
					Base:      views.Base{AppName: cfg.AppName},
					LoginPath: out.LoginPath,
				})
			default:
				c.Set(ContextKeyIdentity, out.Identity)
				return next(c)
			}
		}
	}
}

// IdentityFrom returns the identity stored by Guard.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(ContextKeyIdentity).(domain.Identity)
	return id, ok
}

// requestNavigator captures the guard's navigation for one request.
type requestNavigator struct {
	path   string
	target string
}

func (n *requestNavigator) Navigate(path string, _ ports.NavigateOptions) {
	n.target = path
}

func (n *requestNavigator) CurrentPath() string {
	return n.path
}
