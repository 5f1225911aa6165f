package ports

import (
	"context"

	"github.com/jaibharat/management-hub/internal/core/domain"
)

// AccountRepository persists password accounts.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

// AccountService registers accounts and verifies their passwords.
type AccountService interface {
	Authenticator
	Register(ctx context.Context, email, password, displayName string) (*domain.Account, error)
}

// LoginThrottle limits repeated failed sign-ins per email.
type LoginThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}
