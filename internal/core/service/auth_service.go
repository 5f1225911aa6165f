package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jaibharat/management-hub/internal/core/domain"
	"github.com/jaibharat/management-hub/internal/core/ports"
)

// AuthService implements account registration and password sign-in.
type AuthService struct {
	repo     ports.AccountRepository
	throttle ports.LoginThrottle
}

// NewAuthService wires the account store. throttle may be nil.
func NewAuthService(repo ports.AccountRepository, throttle ports.LoginThrottle) *AuthService {
	return &AuthService{repo: repo, throttle: throttle}
}

func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*domain.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Authenticate verifies password credentials. Unknown emails and wrong
// passwords both come back as ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	if creds.Method != "" && creds.Method != domain.MethodPassword {
		return nil, domain.ErrUnsupportedMethod
	}
	if creds.Email == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		ok, err := s.throttle.Allow(ctx, creds.Email)
		if err != nil {
			return nil, fmt.Errorf("login throttle: %w", err)
		}
		if !ok {
			return nil, domain.ErrTooManyAttempts
		}
	}

	account, err := s.repo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, s.fail(ctx, creds.Email)
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)) != nil {
		return nil, s.fail(ctx, creds.Email)
	}

	if s.throttle != nil {
		_ = s.throttle.Reset(ctx, creds.Email)
	}
	id := account.Identity()
	return &id, nil
}

func (s *AuthService) fail(ctx context.Context, email string) error {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, email); err != nil {
			return fmt.Errorf("record failed login: %w", err)
		}
	}
	return domain.ErrInvalidCredentials
}
