package iam

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IamService provides member account operations.
type IamService struct {
	repo AccountRepository
}

// NewIamService creates a new IAM service.
func NewIamService(repo AccountRepository) *IamService {
	return &IamService{repo: repo}
}

// CreateAccount validates and stores a new, unverified, inactive account.
func (s *IamService) CreateAccount(ctx context.Context, account Account) (Account, error) {
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	if account.Email == "" {
		return Account{}, fmt.Errorf("email is required")
	}
	if !account.Role.Valid() {
		return Account{}, ErrInvalidRole
	}
	if account.Username == "" {
		account.Username = account.Email
	}
	account.EmailVerified = false
	account.Active = false

	created, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		slog.Error("Failed to create account", "email", account.Email, "err", err)
		return Account{}, err
	}
	slog.Info("Account created", "account_id", created.ID, "role", created.Role)
	return created, nil
}

// GetAccount returns one account by ID.
func (s *IamService) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.repo.GetAccount(ctx, id)
}

// GetAccountByEmail returns one account by lowercased email.
func (s *IamService) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	return s.repo.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// FindAccounts lists all accounts.
func (s *IamService) FindAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.FindAccounts(ctx)
}

// UpdateAccount persists account changes.
func (s *IamService) UpdateAccount(ctx context.Context, account Account) (Account, error) {
	if !account.Role.Valid() {
		return Account{}, ErrInvalidRole
	}
	return s.repo.UpdateAccount(ctx, account)
}

// DeleteAccount removes an account.
func (s *IamService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAccount(ctx, id)
}

// MarkEmailVerified records a successful email verification and activates
// the account. For presidents this is the point where the single-president
// invariant is enforced.
func (s *IamService) MarkEmailVerified(ctx context.Context, id uuid.UUID, now time.Time) error {
	if err := s.repo.MarkEmailVerified(ctx, id, now); err != nil {
		slog.Error("Failed to mark email verified", "account_id", id, "err", err)
		return err
	}
	slog.Info("Email verified", "account_id", id)
	return nil
}

// SetPasswordHash replaces the stored credential hash.
func (s *IamService) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return s.repo.SetPasswordHash(ctx, id, hash)
}

// VerifiedPresidentExists reports whether a verified president is
// registered.
func (s *IamService) VerifiedPresidentExists(ctx context.Context) (bool, error) {
	return s.repo.VerifiedPresidentExists(ctx)
}
