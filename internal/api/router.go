package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/jaibharat/management-hub/docs"
	"github.com/jaibharat/management-hub/internal/api/handler"
	"github.com/jaibharat/management-hub/internal/api/middleware"
	"github.com/jaibharat/management-hub/internal/api/views"
	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
	"github.com/jaibharat/management-hub/internal/core/service"
	"github.com/jaibharat/management-hub/internal/infrastructure/http/handlers"
	"github.com/jaibharat/management-hub/internal/pkg/config"
)

// Dependencies are the collaborators the router hands to handlers.
type Dependencies struct {
	Config       *config.Config
	Sessions     *service.SessionRegistry
	Policy       *service.RolePolicy
	Accounts     ports.AccountService
	OIDC         handler.OIDCStarter
	HealthChecks map[string]handlers.Check
	Log          zerolog.Logger

	// Registry backs the request metrics and /metrics. Nil means the
	// Prometheus default registry.
	Registry *prometheus.Registry
}

// NewRouter builds the Echo instance with every route registered.
func NewRouter(deps Dependencies) *echo.Echo {
	cfg := deps.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = views.MustNew()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig(deps.Registry)))

	// --- Health, metrics, docs (no session) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(deps.HealthChecks).Readiness)
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Everything else runs inside a browser session ---
	cookie := middleware.SessionConfig{
		Secret: []byte(cfg.Session.Secret),
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.CookieSecure,
	}
	session := middleware.Session(cookie)

	authHandler := handler.NewAuthHandler(handler.AuthConfig{
		Sessions:       deps.Sessions,
		Cookie:         cookie,
		Accounts:       deps.Accounts,
		Policy:         deps.Policy,
		OIDC:           deps.OIDC,
		LoadingTimeout: cfg.Session.LoadingTimeout,
		CookieSecure:   cfg.Session.CookieSecure,
		AppName:        cfg.AppName,
		Log:            deps.Log.With().Str("component", "auth").Logger(),
	})

	auth := e.Group("/auth", session)
	auth.GET("/login", authHandler.LoginPage)
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/oidc/login", authHandler.OIDCLogin)
	auth.GET("/oidc/callback", authHandler.OIDCCallback)

	// --- Guarded dashboards ---
	dashboards := handler.NewDashboardHandler(cfg.AppName)
	guardLog := deps.Log.With().Str("component", "guard").Logger()
	guard := func(group domain.RouteGroup) echo.MiddlewareFunc {
		return middleware.Guard(middleware.GuardConfig{
			Guard:          service.NewAccessGuard(group, deps.Policy),
			Sessions:       deps.Sessions,
			LoadingTimeout: cfg.Session.LoadingTimeout,
			AppName:        cfg.AppName,
			Log:            guardLog,
		})
	}

	admin := e.Group("/admin", session, guard(domain.AdminGroup))
	admin.GET("", redirectTo(service.LandingPath(domain.RoleAdmin)))
	admin.GET("/*", dashboards.Admin)

	student := e.Group("/student", session, guard(domain.StudentGroup))
	student.GET("", redirectTo(service.LandingPath(domain.RoleStudent)))
	student.GET("/*", dashboards.Student)

	// --- Session API ---
	sessionHandler := handler.NewSessionHandler(deps.Sessions, deps.Policy, cfg.Session.LoadingTimeout, deps.Log.With().Str("component", "session").Logger())
	api := e.Group("/api", session)
	api.GET("/session", sessionHandler.Current)
	api.GET("/session/stream", sessionHandler.Stream)

	return e
}

func promConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "portal",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

func redirectTo(target string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, target)
	}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
