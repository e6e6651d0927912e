package iam

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIamService_CreateAccount(t *testing.T) {
	svc := NewIamService(NewInMemAccountRepository())
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		account, err := svc.CreateAccount(ctx, Account{
			Email:     "Maria@Coop.Example",
			FirstName: "Maria",
			LastName:  "Torres",
			Role:      RoleAssociate,
		})
		require.NoError(t, err)
		assert.Equal(t, "maria@coop.example", account.Email)
		assert.Equal(t, "maria@coop.example", account.Username)
		assert.False(t, account.Active)
		assert.False(t, account.EmailVerified)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := svc.CreateAccount(ctx, Account{Email: "maria@coop.example", Role: RoleAssociate})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("InvalidRole", func(t *testing.T) {
		_, err := svc.CreateAccount(ctx, Account{Email: "x@coop.example", Role: "treasurer"})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		_, err := svc.CreateAccount(ctx, Account{Role: RoleAssociate})
		assert.Error(t, err)
	})
}

func TestIamService_SinglePresident(t *testing.T) {
	svc := NewIamService(NewInMemAccountRepository())
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	first, err := svc.CreateAccount(ctx, Account{Email: "president@coop.example", Role: RolePresident})
	require.NoError(t, err)

	// Unverified presidents may coexist; the invariant binds at
	// verification time.
	second, err := svc.CreateAccount(ctx, Account{Email: "rival@coop.example", Role: RolePresident})
	require.NoError(t, err)

	require.NoError(t, svc.MarkEmailVerified(ctx, first.ID, now))

	exists, err := svc.VerifiedPresidentExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	err = svc.MarkEmailVerified(ctx, second.ID, now)
	assert.ErrorIs(t, err, ErrPresidentExists)
}

func TestIamService_MarkEmailVerified(t *testing.T) {
	repo := NewInMemAccountRepository()
	svc := NewIamService(repo)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	account, err := svc.CreateAccount(ctx, Account{Email: "member@coop.example", Role: RoleAssociate})
	require.NoError(t, err)

	require.NoError(t, svc.MarkEmailVerified(ctx, account.ID, now))

	verified, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
	assert.True(t, verified.Active)
	require.NotNil(t, verified.EmailVerifiedAt)
	assert.Equal(t, now, *verified.EmailVerifiedAt)
}
