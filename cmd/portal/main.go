// @title        Management Hub Portal API
// @version      1.0
// @description  Role-gated admin and student portal with session and guard endpoints.
// @BasePath     /
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/jaibharat/management-hub/internal/api"
	"github.com/jaibharat/management-hub/internal/api/handler"
	"github.com/jaibharat/management-hub/internal/api/metrics"
	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/service"
	"github.com/jaibharat/management-hub/internal/infrastructure/db/mongo"
	"github.com/jaibharat/management-hub/internal/infrastructure/db/redis"
	"github.com/jaibharat/management-hub/internal/infrastructure/http/handlers"
	"github.com/jaibharat/management-hub/internal/infrastructure/identity"
	"github.com/jaibharat/management-hub/internal/infrastructure/queue"
	"github.com/jaibharat/management-hub/internal/pkg/config"
	"github.com/jaibharat/management-hub/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "portal",
	})

	displayAppName(cfg.AppName)

	if cfg.Session.Secret == "" {
		cfg.Session.Secret = ephemeralSecret()
		log.Warn().Msg("SESSION_SECRET not set; using a random secret, sessions end on restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("portal stopped with error")
	}
	log.Info().Msg("portal stopped cleanly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  cfg.AppName,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	accounts := mongo.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return err
	}

	// --- Identity provider ---
	throttle := redis.NewLoginThrottle(rdb, cfg.Login.MaxAttempts, cfg.Login.Window)
	authService := service.NewAuthService(accounts, throttle)
	authenticators := identity.NewAuthenticators().Register(domain.MethodPassword, authService)

	var oidcStarter handler.OIDCStarter
	if cfg.OIDC.Enabled() {
		oidcAuth, err := identity.NewOIDCAuthenticator(ctx, identity.OIDCConfig{
			Issuer:       cfg.OIDC.Issuer,
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
		})
		if err != nil {
			return fmt.Errorf("oidc: %w", err)
		}
		authenticators.Register(domain.MethodOIDC, oidcAuth)
		oidcStarter = oidcAuth
		log.Info().Str("issuer", cfg.OIDC.Issuer).Msg("single sign-on enabled")
	}

	// --- Identity change fan-out ---
	bindings := redis.NewSessionBindings(rdb, logger.ForComponent("bindings"))
	dispatcher := queue.NewDispatcher(0, bindings, logger.ForComponent("dispatcher"))
	dispatcher.Start(ctx)

	ready := make(chan struct{})
	listenErr := make(chan error, 1)
	go func() { listenErr <- bindings.Listen(ctx, dispatcher, ready) }()
	select {
	case <-ready:
	case err := <-listenErr:
		return err
	case <-ctx.Done():
		return nil
	}

	// --- Sessions ---
	registry := service.NewSessionRegistry(ctx,
		identity.NewProviderFactory(bindings, authenticators, cfg.Session.TTL),
		cfg.Session.IdleTTL,
		logger.ForComponent("sessions"),
	)
	registry.OnSizeChange(func(n int) { metrics.SessionsActive.Set(float64(n)) })
	go registry.Run(ctx, sweepInterval(cfg.Session.IdleTTL))

	policy := service.NewRolePolicy(cfg.Session.AdminEmails)
	if policy.AdminCount() == 0 {
		log.Warn().Msg("ADMIN_EMAILS is empty; nobody can open the admin dashboard")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Sessions: registry,
		Policy:   policy,
		Accounts: authService,
		OIDC:     oidcStarter,
		HealthChecks: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
		Log: logger.ForComponent("http"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("portal listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case err := <-listenErr:
		if err != nil {
			log.Error().Err(err).Msg("identity change listener stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func sweepInterval(idle time.Duration) time.Duration {
	if idle <= 0 || idle/2 > time.Minute {
		return time.Minute
	}
	return idle / 2
}

func ephemeralSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func displayAppName(name string) {
	figure.NewFigure(name, "cybermedium", true).Print()
	fmt.Println()
}
