package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jaibharat/management-hub/internal/api/middleware"
	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/service"
)

const noticeCookieName = "portal_notice"

// ctxIdentity returns the identity the guard authorised. Handlers behind
// the guard never see a request without one.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing session identity")
	}
	return id, nil
}

// ctxSession returns the session context of the requesting browser.
func ctxSession(c echo.Context, sessions middleware.SessionLookup) (*service.SessionContext, error) {
	sid := middleware.SessionID(c)
	if sid == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return sessions.Get(sid), nil
}

// resolvedState waits up to timeout for the session to leave Loading.
func resolvedState(c echo.Context, session *service.SessionContext, timeout time.Duration) domain.SessionState {
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()
	return session.Resolved(ctx)
}

// setNotice stores a one-shot message for the next rendered page.
func setNotice(c echo.Context, msg string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     noticeCookieName,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeNotice reads and clears the one-shot message.
func takeNotice(c echo.Context) string {
	cookie, err := c.Cookie(noticeCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	c.SetCookie(&http.Cookie{Name: noticeCookieName, Value: "", Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return msg
}
