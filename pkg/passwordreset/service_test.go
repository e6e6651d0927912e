package passwordreset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxicoop/coopadmin/pkg/iam"
	"github.com/taxicoop/coopadmin/pkg/login"
	"github.com/taxicoop/coopadmin/pkg/notice"
	"github.com/taxicoop/coopadmin/pkg/notification"
	"github.com/taxicoop/coopadmin/pkg/verification"
)

type resetFixture struct {
	service  *ResetService
	iam      *iam.IamService
	ledger   *verification.InMemSendLedgerRepository
	attempts *verification.InMemAttemptLogRepository
	notifier *notification.MockNotifier
	account  iam.Account
	now      time.Time
}

func setupReset(t *testing.T) *resetFixture {
	t.Helper()
	ctx := context.Background()

	codes := verification.NewInMemCodeRepository()
	ledger := verification.NewInMemSendLedgerRepository()
	attempts := verification.NewInMemAttemptLogRepository()
	verifier := verification.NewVerificationService(codes, ledger, attempts)

	notifier := &notification.MockNotifier{}
	nm := notification.NewNotificationManager()
	nm.RegisterNotifier(notification.EmailSystem, notifier)
	require.NoError(t, nm.RegisterNotification(notice.PasswordResetCodeNotice, notification.EmailSystem,
		notification.NoticeTemplate{Subject: "Password recovery", Text: "Code: {{.Code}}"}))

	iamService := iam.NewIamService(iam.NewInMemAccountRepository())
	account, err := iamService.CreateAccount(ctx, iam.Account{
		Email:     "member@coop.example",
		FirstName: "Ana",
		LastName:  "Mendez",
		Role:      iam.RoleAssociate,
	})
	require.NoError(t, err)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, iamService.MarkEmailVerified(ctx, account.ID, now))

	f := &resetFixture{
		iam:      iamService,
		ledger:   ledger,
		attempts: attempts,
		notifier: notifier,
		account:  account,
		now:      now,
	}
	f.service = NewResetService(iamService, &login.BcryptHasher{}, verifier, nm, []byte("test-secret"),
		WithClock(func() time.Time { return f.now }))
	return f
}

func TestRequest_UnknownEmailRevealsNothing(t *testing.T) {
	f := setupReset(t)

	token, err := f.service.Request(context.Background(), "stranger@coop.example")
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, f.notifier.SentNotifications)
}

func TestRequest_SendsCodeAndMintsSession(t *testing.T) {
	f := setupReset(t)
	ctx := context.Background()

	token, err := f.service.Request(ctx, "Member@Coop.Example")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	require.Len(t, f.notifier.SentNotifications, 1)
	count, err := f.ledger.GetSendCount(ctx, "member@coop.example", f.now, verification.PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRequest_CooldownBetweenRequests(t *testing.T) {
	f := setupReset(t)
	ctx := context.Background()

	_, err := f.service.Request(ctx, "member@coop.example")
	require.NoError(t, err)

	_, err = f.service.Request(ctx, "member@coop.example")
	assert.ErrorIs(t, err, verification.ErrCooldownActive)
}

func TestResendCode_ReusesActiveCode(t *testing.T) {
	f := setupReset(t)
	ctx := context.Background()

	token, err := f.service.Request(ctx, "member@coop.example")
	require.NoError(t, err)

	f.now = f.now.Add(61 * time.Second)
	require.NoError(t, f.service.ResendCode(ctx, token))

	require.Len(t, f.notifier.SentNotifications, 2)
	assert.Equal(t, f.notifier.SentNotifications[0].Data["Code"], f.notifier.SentNotifications[1].Data["Code"],
		"resend must carry the same still-valid code")
}

func TestVerifyCodeAndSetNewPassword(t *testing.T) {
	f := setupReset(t)
	ctx := context.Background()
	origin := verification.Origin{IPAddress: "203.0.113.7"}

	token, err := f.service.Request(ctx, "member@coop.example")
	require.NoError(t, err)
	code := f.notifier.SentNotifications[0].Data["Code"]

	t.Run("WrongCode", func(t *testing.T) {
		_, err := f.service.VerifyCode(ctx, token, "000000", origin)
		assert.ErrorIs(t, err, verification.ErrCodeInvalid)

		records := f.attempts.Records()
		require.Len(t, records, 1)
		assert.Equal(t, verification.ResultInvalidCode, records[0].Result)
		assert.Equal(t, "email_password_reset", records[0].Method)
	})

	t.Run("BogusSessionToken", func(t *testing.T) {
		_, err := f.service.VerifyCode(ctx, "not-a-token", code, origin)
		assert.ErrorIs(t, err, ErrSessionExpired)
	})

	var stage2 string
	t.Run("CorrectCode", func(t *testing.T) {
		stage2, err = f.service.VerifyCode(ctx, token, code, origin)
		require.NoError(t, err)
		assert.NotEmpty(t, stage2)
	})

	t.Run("PendingTokenCannotSetPassword", func(t *testing.T) {
		err := f.service.SetNewPassword(ctx, token, "new-password", "new-password")
		assert.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("PasswordMismatch", func(t *testing.T) {
		err := f.service.SetNewPassword(ctx, stage2, "new-password", "other-password")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("PasswordTooShort", func(t *testing.T) {
		err := f.service.SetNewPassword(ctx, stage2, "abc", "abc")
		assert.ErrorIs(t, err, login.ErrPasswordTooShort)
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, f.service.SetNewPassword(ctx, stage2, "new-password", "new-password"))

		account, err := f.iam.GetAccount(ctx, f.account.ID)
		require.NoError(t, err)
		ok, err := (&login.BcryptHasher{}).Verify("new-password", account.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestSessionTokenExpires(t *testing.T) {
	f := setupReset(t)
	ctx := context.Background()

	token, err := f.service.Request(ctx, "member@coop.example")
	require.NoError(t, err)
	code := f.notifier.SentNotifications[0].Data["Code"]

	f.now = f.now.Add(16 * time.Minute)
	_, err = f.service.VerifyCode(ctx, token, code, verification.Origin{})
	assert.ErrorIs(t, err, ErrSessionExpired)
}
