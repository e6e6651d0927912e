package iam

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository defines persistence for member accounts.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account Account) (Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	FindAccounts(ctx context.Context) ([]Account, error)
	UpdateAccount(ctx context.Context, account Account) (Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	// MarkEmailVerified flags the account's email as verified and
	// activates the account. Fails with ErrPresidentExists when the
	// account is a president and a verified president already exists.
	MarkEmailVerified(ctx context.Context, id uuid.UUID, now time.Time) error

	// SetPasswordHash replaces the stored credential hash.
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error

	// VerifiedPresidentExists reports whether a verified president account
	// exists.
	VerifiedPresidentExists(ctx context.Context) (bool, error)
}
