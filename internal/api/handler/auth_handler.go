package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/jaibharat/management-hub/internal/api/metrics"
	"github.com/jaibharat/management-hub/internal/api/middleware"
	"github.com/jaibharat/management-hub/internal/api/views"
	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
	"github.com/jaibharat/management-hub/internal/core/service"
)

const (
	oidcStateCookieName = "portal_oidc_state"
	oidcStateTTL        = 5 * time.Minute

	msgInvalidLogin  = "Invalid email or password."
	msgLoginFailed   = "Failed to login. Please check your credentials."
	msgThrottled     = "Too many failed attempts. Please try again later."
	msgLogoutFailed  = "Logout failed. Please try again."
	msgSSOFailed     = "Single sign-on failed. Please try again."
	defaultLoginRole = domain.RoleStudent
)

// OIDCStarter builds the authorization URL of the single sign-on flow.
type OIDCStarter interface {
	AuthCodeURL(state string) string
}

// AuthConfig wires AuthHandler.
type AuthConfig struct {
	Sessions       middleware.SessionLookup
	Cookie         middleware.SessionConfig
	Accounts       ports.AccountService
	Policy         *service.RolePolicy
	OIDC           OIDCStarter
	LoadingTimeout time.Duration
	CookieSecure   bool
	AppName        string
	Log            zerolog.Logger
}

type AuthHandler struct {
	cfg AuthConfig
}

// NewAuthHandler builds the login, registration and logout endpoints.
// cfg.OIDC may be nil when single sign-on is not configured.
func NewAuthHandler(cfg AuthConfig) *AuthHandler {
	if cfg.LoadingTimeout <= 0 {
		cfg.LoadingTimeout = 2 * time.Second
	}
	return &AuthHandler{cfg: cfg}
}

type loginForm struct {
	Email    string `form:"email"    validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
	Role     string `form:"role"`
	Redirect string `form:"redirect"`
}

type registerRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type accountResponse struct {
	Account *domain.Account `json:"account"`
}

// LoginPage renders the sign-in form.
//
// @Summary      Login page
// @Tags         auth
// @Produce      html
// @Param        role      query  string  false  "Login tab"  Enums(student, admin)
// @Param        redirect  query  string  false  "Local path to return to after sign-in"
// @Success      200
// @Success      303  "Already signed in, sent to the return target"
// @Router       /auth/login [get]
func (h *AuthHandler) LoginPage(c echo.Context) error {
	role := parseRole(c.QueryParam("role"))
	redirect := c.QueryParam("redirect")

	session, err := ctxSession(c, h.cfg.Sessions)
	if err != nil {
		return err
	}
	state := resolvedState(c, session, h.cfg.LoadingTimeout)
	if id, ok := state.Identity(); ok && (role != domain.RoleAdmin || h.cfg.Policy.IsAdmin(id)) {
		return c.Redirect(http.StatusSeeOther, service.SafeRedirect(redirect, role))
	}

	return h.renderLogin(c, http.StatusOK, loginForm{Role: string(role), Redirect: redirect}, takeNotice(c), "")
}

// Login signs the browser session in with email and password.
//
// @Summary      Password sign-in
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      html
// @Param        email     formData  string  true   "Email"
// @Param        password  formData  string  true   "Password (min 6)"
// @Param        role      formData  string  false  "Login tab"  Enums(student, admin)
// @Param        redirect  formData  string  false  "Local path to return to"
// @Success      303  "Signed in, sent to the return target"
// @Failure      400  "Form invalid"
// @Failure      401  "Invalid credentials"
// @Failure      429  "Too many attempts"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return h.renderLogin(c, http.StatusBadRequest, form, "", "invalid form submission")
	}
	role := parseRole(form.Role)
	form.Role = string(role)

	if err := c.Validate(&form); err != nil {
		msg := err.Error()
		var ve *ValidationError
		if errors.As(err, &ve) {
			msg = ve.First()
		}
		return h.renderLogin(c, http.StatusBadRequest, form, "", msg)
	}

	session, err := ctxSession(c, h.cfg.Sessions)
	if err != nil {
		return err
	}

	err = h.signIn(c, session, domain.Credentials{
		Method:   domain.MethodPassword,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		return h.loginFailed(c, form, domain.MethodPassword, err)
	}

	metrics.SignInsTotal.WithLabelValues(domain.MethodPassword, "success").Inc()
	return c.Redirect(http.StatusSeeOther, service.SafeRedirect(form.Redirect, role))
}

// signIn authenticates on a fresh browser session and moves the browser
// onto it. A failed attempt leaves the cookie and prev as they were. prev
// is logged out when it was signed in.
func (h *AuthHandler) signIn(c echo.Context, prev *service.SessionContext, creds domain.Credentials) error {
	sid := middleware.NewSessionID()
	cookie, err := middleware.SessionCookie(h.cfg.Cookie, sid, time.Now())
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.cfg.Sessions.Get(sid).SignIn(ctx, creds); err != nil {
		return err
	}
	middleware.SwitchSession(c, sid, cookie)

	if prev.Current().Kind() == domain.SessionAuthenticated {
		if err := prev.Logout(ctx); err != nil {
			h.cfg.Log.Warn().Err(err).Msg("previous session not signed out")
		}
	}
	return nil
}

func (h *AuthHandler) loginFailed(c echo.Context, form loginForm, method string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		metrics.SignInsTotal.WithLabelValues(method, "invalid").Inc()
		return h.renderLogin(c, http.StatusUnauthorized, form, "", msgInvalidLogin)
	case errors.Is(err, domain.ErrTooManyAttempts):
		metrics.SignInsTotal.WithLabelValues(method, "throttled").Inc()
		return h.renderLogin(c, http.StatusTooManyRequests, form, "", msgThrottled)
	default:
		metrics.SignInsTotal.WithLabelValues(method, "error").Inc()
		h.cfg.Log.Error().Err(err).Str("method", method).Msg("sign-in failed")
		return h.renderLogin(c, http.StatusServiceUnavailable, form, "", msgLoginFailed)
	}
}

func (h *AuthHandler) renderLogin(c echo.Context, code int, form loginForm, notice, errMsg string) error {
	role := parseRole(form.Role)
	page := views.LoginPage{
		Base:          views.Base{AppName: h.cfg.AppName, Notice: notice},
		Role:          string(role),
		Redirect:      form.Redirect,
		Email:         form.Email,
		Error:         errMsg,
		StudentTabURL: loginURL(domain.RoleStudent, form.Redirect),
		AdminTabURL:   loginURL(domain.RoleAdmin, form.Redirect),
	}
	if h.cfg.OIDC != nil {
		page.OIDCURL = "/auth/oidc/login?" + returnQuery(role, form.Redirect).Encode()
	}
	return c.Render(code, views.PageLogin, page)
}

// Register creates a password account.
//
// @Summary      Register an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.cfg.Accounts.Register(c.Request().Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return err
	}

	h.cfg.Log.Info().Str("account_id", account.ID).Msg("account registered")
	return c.JSON(http.StatusCreated, accountResponse{Account: account})
}

// Logout ends the browser session. A failed logout keeps the session
// signed in and sends the viewer back with a notice.
//
// @Summary      Logout
// @Tags         auth
// @Success      303  "Signed out, sent to the login page; on failure sent back with a notice"
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	session, err := ctxSession(c, h.cfg.Sessions)
	if err != nil {
		return err
	}

	if err := session.Logout(c.Request().Context()); err != nil {
		metrics.LogoutFailuresTotal.Inc()
		h.cfg.Log.Warn().Err(err).Msg("logout failed")
		setNotice(c, msgLogoutFailed, h.cfg.CookieSecure)
		return c.Redirect(http.StatusSeeOther, backTarget(c))
	}

	return c.Redirect(http.StatusSeeOther, service.LoginPath(defaultLoginRole))
}

// OIDCLogin starts the single sign-on flow.
//
// @Summary      Start single sign-on
// @Tags         auth
// @Param        role      query  string  false  "Login tab"  Enums(student, admin)
// @Param        redirect  query  string  false  "Local path to return to"
// @Success      302  "Sent to the identity provider"
// @Failure      404  {object}  map[string]string
// @Router       /auth/oidc/login [get]
func (h *AuthHandler) OIDCLogin(c echo.Context) error {
	if h.cfg.OIDC == nil {
		return echo.ErrNotFound
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	q := returnQuery(parseRole(c.QueryParam("role")), c.QueryParam("redirect"))
	q.Set("state", state)
	c.SetCookie(&http.Cookie{
		Name:     oidcStateCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(q.Encode())),
		Path:     "/auth/oidc",
		MaxAge:   int(oidcStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, h.cfg.OIDC.AuthCodeURL(state))
}

// OIDCCallback completes the single sign-on flow.
//
// @Summary      Single sign-on callback
// @Tags         auth
// @Param        state  query  string  true  "Opaque state"
// @Param        code   query  string  true  "Authorization code"
// @Success      303  "Signed in, sent to the return target; on failure sent to the login page"
// @Failure      400  {object}  map[string]string
// @Router       /auth/oidc/callback [get]
func (h *AuthHandler) OIDCCallback(c echo.Context) error {
	if h.cfg.OIDC == nil {
		return echo.ErrNotFound
	}

	saved, ok := readOIDCState(c)
	c.SetCookie(&http.Cookie{Name: oidcStateCookieName, Value: "", Path: "/auth/oidc", MaxAge: -1})
	if !ok || saved.Get("state") == "" || saved.Get("state") != c.QueryParam("state") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid oauth state")
	}
	role := parseRole(saved.Get("role"))

	session, err := ctxSession(c, h.cfg.Sessions)
	if err != nil {
		return err
	}

	err = h.signIn(c, session, domain.Credentials{
		Method: domain.MethodOIDC,
		Code:   c.QueryParam("code"),
	})
	if err != nil {
		metrics.SignInsTotal.WithLabelValues(domain.MethodOIDC, "invalid").Inc()
		h.cfg.Log.Warn().Err(err).Msg("single sign-on failed")
		setNotice(c, msgSSOFailed, h.cfg.CookieSecure)
		return c.Redirect(http.StatusSeeOther, loginURL(role, saved.Get("redirect")))
	}

	metrics.SignInsTotal.WithLabelValues(domain.MethodOIDC, "success").Inc()
	return c.Redirect(http.StatusSeeOther, service.SafeRedirect(saved.Get("redirect"), role))
}

func readOIDCState(c echo.Context) (url.Values, bool) {
	cookie, err := c.Cookie(oidcStateCookieName)
	if err != nil {
		return nil, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil, false
	}
	q, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, false
	}
	return q, true
}

func parseRole(raw string) domain.Role {
	if domain.Role(raw) == domain.RoleAdmin {
		return domain.RoleAdmin
	}
	return defaultLoginRole
}

// loginURL is the login entry point for role, keeping redirect when set.
func loginURL(role domain.Role, redirect string) string {
	if redirect == "" {
		return service.LoginPath(role)
	}
	return service.RedirectTarget(role, redirect)
}

func returnQuery(role domain.Role, redirect string) url.Values {
	q := url.Values{}
	q.Set("role", string(role))
	if redirect != "" {
		q.Set("redirect", redirect)
	}
	return q
}

// backTarget is the local page the request came from, or the site root.
func backTarget(c echo.Context) string {
	ref, err := url.Parse(c.Request().Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != c.Request().Host) {
		return "/"
	}
	target := ref.Path
	if ref.RawQuery != "" {
		target += "?" + ref.RawQuery
	}
	return service.SafeRedirect(target, defaultLoginRole)
}
