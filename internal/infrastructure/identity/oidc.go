package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/jaibharat/management-hub/internal/core/domain"
)

// OIDCConfig configures the authorization-code flow.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OIDCAuthenticator exchanges authorization codes for verified identities.
type OIDCAuthenticator struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// NewOIDCAuthenticator discovers the issuer and prepares the code flow.
func NewOIDCAuthenticator(ctx context.Context, cfg OIDCConfig) (*OIDCAuthenticator, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, errors.New("oidc config missing required fields")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("init oidc provider: %w", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return newOIDCAuthenticator(oauthCfg, provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})), nil
}

func newOIDCAuthenticator(oauthCfg *oauth2.Config, verifier *oidc.IDTokenVerifier) *OIDCAuthenticator {
	return &OIDCAuthenticator{oauthConfig: oauthCfg, verifier: verifier}
}

// AuthCodeURL is where the browser is sent to start signing in.
func (a *OIDCAuthenticator) AuthCodeURL(state string) string {
	return a.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (a *OIDCAuthenticator) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	if creds.Method != domain.MethodOIDC {
		return nil, domain.ErrUnsupportedMethod
	}
	if creds.Code == "" {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := a.oauthConfig.Exchange(ctx, creds.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %w", domain.ErrInvalidCredentials, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: no id_token in response", domain.ErrInvalidCredentials)
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: id_token verification: %w", domain.ErrInvalidCredentials, err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: id_token missing subject", domain.ErrInvalidCredentials)
	}

	return &domain.Identity{
		UID:           claims.Subject,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		PhotoURL:      claims.Picture,
		EmailVerified: claims.EmailVerified,
	}, nil
}
