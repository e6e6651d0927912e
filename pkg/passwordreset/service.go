package passwordreset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taxicoop/coopadmin/pkg/iam"
	"github.com/taxicoop/coopadmin/pkg/login"
	"github.com/taxicoop/coopadmin/pkg/notice"
	"github.com/taxicoop/coopadmin/pkg/notification"
	"github.com/taxicoop/coopadmin/pkg/verification"
)

// attemptMethod labels recovery verification attempts in the audit log.
const attemptMethod = "email_password_reset"

// ResetService drives the three-step password recovery flow: request a
// code by email, verify the code, set a new password. Progress between
// steps is carried by a signed reset-session token instead of server-side
// session state.
type ResetService struct {
	iamService          *iam.IamService
	hasher              login.PasswordHasher
	verifier            *verification.VerificationService
	notificationManager *notification.NotificationManager
	locks               *verification.KeyLock
	secret              []byte
	sessionTTL          time.Duration
	now                 func() time.Time
}

// ResetServiceOption defines configuration options.
type ResetServiceOption func(*ResetService)

// WithSessionTTL sets how long a recovery session stays valid.
func WithSessionTTL(ttl time.Duration) ResetServiceOption {
	return func(s *ResetService) {
		s.sessionTTL = ttl
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) ResetServiceOption {
	return func(s *ResetService) {
		s.now = now
	}
}

// NewResetService creates a password recovery service. The secret signs
// reset-session tokens and must be stable across instances.
func NewResetService(
	iamService *iam.IamService,
	hasher login.PasswordHasher,
	verifier *verification.VerificationService,
	notificationManager *notification.NotificationManager,
	secret []byte,
	opts ...ResetServiceOption,
) *ResetService {
	service := &ResetService{
		iamService:          iamService,
		hasher:              hasher,
		verifier:            verifier,
		notificationManager: notificationManager,
		locks:               verification.NewKeyLock(),
		secret:              secret,
		sessionTTL:          15 * time.Minute,
		now:                 func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Request starts a recovery for the given email. For unknown addresses it
// returns an empty token and no error, so callers can answer with the same
// generic message either way and not reveal which emails are registered.
func (s *ResetService) Request(ctx context.Context, email string) (string, error) {
	account, err := s.iamService.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, iam.ErrAccountNotFound) {
		slog.Info("Recovery requested for unknown email")
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if err := s.sendCode(ctx, account); err != nil {
		return "", err
	}

	return newSessionToken(s.secret, account.ID, stageCodePending, s.sessionTTL, s.now())
}

// ResendCode sends the recovery code again for an in-progress session.
// A still-active code is resent as-is rather than cycled, so a user who
// requests twice does not invalidate the code from the first email.
func (s *ResetService) ResendCode(ctx context.Context, token string) error {
	accountID, err := parseSessionToken(s.secret, token, stageCodePending, s.now())
	if err != nil {
		return err
	}
	account, err := s.iamService.GetAccount(ctx, accountID)
	if err != nil {
		return ErrSessionExpired
	}
	return s.sendCode(ctx, account)
}

func (s *ResetService) sendCode(ctx context.Context, account iam.Account) error {
	unlock := s.locks.Lock(account.ID, verification.PurposePasswordReset)
	defer unlock()

	now := s.now()
	decision, err := s.verifier.CanSend(ctx, account.ID, account.Email, verification.PurposePasswordReset, now)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &verification.DeniedError{Decision: decision}
	}

	var code string
	active, err := s.verifier.ActiveCode(ctx, account.ID, verification.PurposePasswordReset, now)
	if err != nil {
		return err
	}
	if active != nil {
		code = active.Code
	} else {
		code, err = s.verifier.Issue(ctx, account.ID, verification.PurposePasswordReset, 0, now)
		if err != nil {
			return err
		}
	}

	// Transport failure aborts before RecordSend: no quota is charged for
	// mail that never left.
	if err := s.mailCode(account, code); err != nil {
		slog.Error("Failed to send recovery email", "account_id", account.ID, "err", err)
		return fmt.Errorf("failed to send recovery email: %w", err)
	}

	return s.verifier.RecordSend(ctx, account.ID, account.Email, verification.PurposePasswordReset, now)
}

func (s *ResetService) mailCode(account iam.Account, code string) error {
	minutes := int(s.verifier.Validity().Minutes())
	return s.notificationManager.Send(notice.PasswordResetCodeNotice, notification.EmailSystem, notification.NotificationData{
		To: account.Email,
		Data: map[string]string{
			"FirstName":       account.FirstName,
			"LastName":        account.LastName,
			"Code":            code,
			"ValidityMinutes": fmt.Sprintf("%d", minutes),
		},
	})
}

// VerifyCode consumes the submitted recovery code. On success it returns
// a token for the final stage of the flow.
func (s *ResetService) VerifyCode(ctx context.Context, token, code string, origin verification.Origin) (string, error) {
	now := s.now()
	accountID, err := parseSessionToken(s.secret, token, stageCodePending, now)
	if err != nil {
		return "", err
	}

	_, err = s.verifier.Consume(ctx, accountID, code, verification.PurposePasswordReset, now)
	if err != nil {
		if errors.Is(err, verification.ErrCodeInvalid) {
			s.verifier.RecordAttempt(ctx, accountID, attemptMethod, code, verification.ResultInvalidCode,
				"code mismatch, expired, or attempt limit reached", origin)
		}
		return "", err
	}

	s.verifier.RecordAttempt(ctx, accountID, attemptMethod, code, verification.ResultSuccess, "", origin)
	return newSessionToken(s.secret, accountID, stageCodeOK, s.sessionTTL, now)
}

// SetNewPassword completes the flow: with a stage-two token it validates
// and stores the new credential.
func (s *ResetService) SetNewPassword(ctx context.Context, token, password, confirm string) error {
	accountID, err := parseSessionToken(s.secret, token, stageCodeOK, s.now())
	if err != nil {
		return err
	}

	password = strings.TrimSpace(password)
	if err := login.CheckComplexity(password); err != nil {
		return err
	}
	if password != strings.TrimSpace(confirm) {
		return ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.iamService.SetPasswordHash(ctx, accountID, hash); err != nil {
		if errors.Is(err, iam.ErrAccountNotFound) {
			return ErrSessionExpired
		}
		return err
	}

	slog.Info("Password reset completed", "account_id", accountID)
	return nil
}
