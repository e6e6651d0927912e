package iam

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemAccountRepository implements AccountRepository in memory for tests.
type InMemAccountRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*Account
}

// NewInMemAccountRepository creates an empty in-memory account repository.
func NewInMemAccountRepository() *InMemAccountRepository {
	return &InMemAccountRepository{accounts: make(map[uuid.UUID]*Account)}
}

func (r *InMemAccountRepository) CreateAccount(ctx context.Context, account Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.Email = strings.ToLower(account.Email)
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return Account{}, ErrEmailTaken
		}
	}
	if account.Role == RolePresident && account.EmailVerified && r.verifiedPresidentLocked() {
		return Account{}, ErrPresidentExists
	}

	account.ID = uuid.New()
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	a := account
	r.accounts[account.ID] = &a
	return account, nil
}

func (r *InMemAccountRepository) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *a, nil
}

func (r *InMemAccountRepository) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(email)
	for _, a := range r.accounts {
		if a.Email == email {
			return *a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (r *InMemAccountRepository) FindAccounts(ctx context.Context) ([]Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, *a)
	}
	return accounts, nil
}

func (r *InMemAccountRepository) UpdateAccount(ctx context.Context, account Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.ID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	account.Email = strings.ToLower(account.Email)
	account.CreatedAt = stored.CreatedAt
	account.UpdatedAt = time.Now().UTC()
	*stored = account
	return *stored, nil
}

func (r *InMemAccountRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.accounts, id)
	return nil
}

func (r *InMemAccountRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if a.Role == RolePresident && !a.EmailVerified && r.verifiedPresidentLocked() {
		return ErrPresidentExists
	}
	a.EmailVerified = true
	at := now
	a.EmailVerifiedAt = &at
	a.Active = true
	a.UpdatedAt = now
	return nil
}

func (r *InMemAccountRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemAccountRepository) VerifiedPresidentExists(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.verifiedPresidentLocked(), nil
}

func (r *InMemAccountRepository) verifiedPresidentLocked() bool {
	for _, a := range r.accounts {
		if a.Role == RolePresident && a.EmailVerified {
			return true
		}
	}
	return false
}
