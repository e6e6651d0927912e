package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taxicoop/coopadmin/pkg/iam"
	"github.com/taxicoop/coopadmin/pkg/login"
	"github.com/taxicoop/coopadmin/pkg/notice"
	"github.com/taxicoop/coopadmin/pkg/notification"
	"github.com/taxicoop/coopadmin/pkg/verification"
)

// attemptMethod labels signup verification attempts in the audit log.
const attemptMethod = "email_primary"

// SignupService registers cooperative members and drives the email
// verification of new accounts.
type SignupService struct {
	iamService          *iam.IamService
	hasher              login.PasswordHasher
	verifier            *verification.VerificationService
	notificationManager *notification.NotificationManager
	locks               *verification.KeyLock
	now                 func() time.Time
}

// SignupServiceOption defines configuration options.
type SignupServiceOption func(*SignupService)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) SignupServiceOption {
	return func(s *SignupService) {
		s.now = now
	}
}

// NewSignupService creates a signup service.
func NewSignupService(
	iamService *iam.IamService,
	hasher login.PasswordHasher,
	verifier *verification.VerificationService,
	notificationManager *notification.NotificationManager,
	opts ...SignupServiceOption,
) *SignupService {
	service := &SignupService{
		iamService:          iamService,
		hasher:              hasher,
		verifier:            verifier,
		notificationManager: notificationManager,
		locks:               verification.NewKeyLock(),
		now:                 func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// RegisterPresident registers the president account. Only one verified
// president may exist; the check here is advisory, the database index
// enforces it at verification time.
func (s *SignupService) RegisterPresident(ctx context.Context, cmd RegisterPresidentCommand) (iam.Account, error) {
	exists, err := s.iamService.VerifiedPresidentExists(ctx)
	if err != nil {
		return iam.Account{}, fmt.Errorf("failed to check for existing president: %w", err)
	}
	if exists {
		return iam.Account{}, iam.ErrPresidentExists
	}
	return s.register(ctx, cmd.RegisterCommand, iam.RolePresident)
}

// RegisterAssociate registers an associate member account.
func (s *SignupService) RegisterAssociate(ctx context.Context, cmd RegisterAssociateCommand) (iam.Account, error) {
	return s.register(ctx, cmd.RegisterCommand, iam.RoleAssociate)
}

func (s *SignupService) register(ctx context.Context, cmd RegisterCommand, role iam.Role) (iam.Account, error) {
	if err := login.CheckComplexity(cmd.Password); err != nil {
		return iam.Account{}, err
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return iam.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := s.iamService.GetAccountByEmail(ctx, cmd.Email)
	switch {
	case err == nil:
		if account.EmailVerified {
			return iam.Account{}, iam.ErrEmailTaken
		}
		// An unverified account with this address is taken over by the new
		// registration: fields and password are replaced and the account
		// stays inactive until the email is verified.
		updated := cmd.account(role)
		updated.ID = account.ID
		updated.Username = account.Username
		updated.PasswordHash = hash
		account, err = s.iamService.UpdateAccount(ctx, updated)
		if err != nil {
			return iam.Account{}, err
		}
		slog.Info("Unverified account re-registered", "account_id", account.ID, "role", role)
	case errors.Is(err, iam.ErrAccountNotFound):
		fresh := cmd.account(role)
		fresh.PasswordHash = hash
		account, err = s.iamService.CreateAccount(ctx, fresh)
		if err != nil {
			return iam.Account{}, err
		}
	default:
		return iam.Account{}, err
	}

	if err := s.sendCode(ctx, account); err != nil {
		return account, err
	}
	return account, nil
}

// ResendCode issues a fresh verification code for an unverified account
// and mails it, subject to the send policy.
func (s *SignupService) ResendCode(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.iamService.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.EmailVerified {
		return ErrAlreadyVerified
	}
	return s.sendCode(ctx, account)
}

// sendCode runs the check, issue, mail, record sequence under the
// per-account lock. Signup always cycles a fresh code; the previous one is
// retired by Issue.
func (s *SignupService) sendCode(ctx context.Context, account iam.Account) error {
	unlock := s.locks.Lock(account.ID, verification.PurposePrimary)
	defer unlock()

	now := s.now()
	decision, err := s.verifier.CanSend(ctx, account.ID, account.Email, verification.PurposePrimary, now)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &verification.DeniedError{Decision: decision}
	}

	code, err := s.verifier.Issue(ctx, account.ID, verification.PurposePrimary, 0, now)
	if err != nil {
		return err
	}

	// A failed send aborts before RecordSend so neither the resend counter
	// nor the daily ledger is charged for mail that never left.
	if err := s.mailCode(account, code); err != nil {
		slog.Error("Failed to send verification email", "account_id", account.ID, "err", err)
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return s.verifier.RecordSend(ctx, account.ID, account.Email, verification.PurposePrimary, now)
}

func (s *SignupService) mailCode(account iam.Account, code string) error {
	minutes := int(s.verifier.Validity().Minutes())
	return s.notificationManager.Send(notice.VerificationCodeNotice, notification.EmailSystem, notification.NotificationData{
		To: account.Email,
		Data: map[string]string{
			"FirstName":       account.FirstName,
			"LastName":        account.LastName,
			"Code":            code,
			"ValidityMinutes": fmt.Sprintf("%d", minutes),
		},
	})
}

// VerifyEmail consumes a submitted code. On success the account is marked
// verified and activated. Every outcome is recorded in the attempt audit
// log.
func (s *SignupService) VerifyEmail(ctx context.Context, accountID uuid.UUID, code string, origin verification.Origin) error {
	account, err := s.iamService.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.EmailVerified {
		return ErrAlreadyVerified
	}

	now := s.now()
	_, err = s.verifier.Consume(ctx, account.ID, code, verification.PurposePrimary, now)
	if err != nil {
		if errors.Is(err, verification.ErrCodeInvalid) {
			s.verifier.RecordAttempt(ctx, account.ID, attemptMethod, code, verification.ResultInvalidCode,
				"code mismatch, expired, or attempt limit reached", origin)
		}
		return err
	}

	if err := s.iamService.MarkEmailVerified(ctx, account.ID, now); err != nil {
		return err
	}

	s.verifier.RecordAttempt(ctx, account.ID, attemptMethod, code, verification.ResultSuccess, "", origin)
	return nil
}
