package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookieName = "portal_session"
	// ContextKeySessionID holds the browser session ID in the echo context.
	ContextKeySessionID = "session_id"

	sessionIssuer = "portal"
)

var errSessionToken = errors.New("invalid session token")

// SessionConfig configures the browser session cookie.
type SessionConfig struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// Session makes sure every request carries a browser session. The session
// ID travels in an HS256-signed cookie; a missing or invalid cookie gets a
// fresh session.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if cookie, err := c.Cookie(SessionCookieName); err == nil {
				if id, err := ParseSessionToken(cfg.Secret, cookie.Value); err == nil {
					sid = id
				}
			}

			if sid == "" {
				sid = NewSessionID()
				cookie, err := SessionCookie(cfg, sid, time.Now())
				if err != nil {
					return err
				}
				c.SetCookie(cookie)
			}

			c.Set(ContextKeySessionID, sid)
			return next(c)
		}
	}
}

// NewSessionID returns a fresh, unguessable browser session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// SessionCookie builds the signed cookie carrying sid.
func SessionCookie(cfg SessionConfig, sid string, now time.Time) (*http.Cookie, error) {
	token, err := IssueSessionToken(cfg.Secret, sid, cfg.TTL, now)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// SwitchSession moves the request and the browser onto sid.
func SwitchSession(c echo.Context, sid string, cookie *http.Cookie) {
	c.SetCookie(cookie)
	c.Set(ContextKeySessionID, sid)
}

// SessionID returns the browser session ID set by Session.
func SessionID(c echo.Context) string {
	sid, _ := c.Get(ContextKeySessionID).(string)
	return sid
}

// IssueSessionToken signs a session ID.
func IssueSessionToken(secret []byte, sessionID string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseSessionToken verifies token and returns the session ID it carries.
func ParseSessionToken(secret []byte, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid || claims.ID == "" {
		return "", errSessionToken
	}
	return claims.ID, nil
}
