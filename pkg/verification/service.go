package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VerificationService issues, rate-limits and checks one-time email codes.
// It is shared by the signup verification flow and the password reset flow.
type VerificationService struct {
	codes          CodeRepository
	ledger         SendLedgerRepository
	attempts       AttemptLogRepository
	generator      Generator
	policy         Policy
	attemptCeiling int
	validity       time.Duration
}

// VerificationServiceOption defines configuration options.
type VerificationServiceOption func(*VerificationService)

// WithGenerator overrides the code generator.
func WithGenerator(g Generator) VerificationServiceOption {
	return func(s *VerificationService) {
		s.generator = g
	}
}

// WithPolicy overrides the send rate-limit policy.
func WithPolicy(p Policy) VerificationServiceOption {
	return func(s *VerificationService) {
		s.policy = p
	}
}

// WithAttemptCeiling sets how many wrong attempts retire a code.
func WithAttemptCeiling(n int) VerificationServiceOption {
	return func(s *VerificationService) {
		s.attemptCeiling = n
	}
}

// WithValidity sets the default code validity window.
func WithValidity(d time.Duration) VerificationServiceOption {
	return func(s *VerificationService) {
		s.validity = d
	}
}

// NewVerificationService creates a verification service with production
// defaults: 5 attempts per code, 15 minute validity, DefaultPolicy limits.
func NewVerificationService(
	codes CodeRepository,
	ledger SendLedgerRepository,
	attempts AttemptLogRepository,
	opts ...VerificationServiceOption,
) *VerificationService {
	service := &VerificationService{
		codes:          codes,
		ledger:         ledger,
		attempts:       attempts,
		generator:      RandomGenerator{},
		policy:         DefaultPolicy(),
		attemptCeiling: 5,
		validity:       15 * time.Minute,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Policy returns the active send policy.
func (s *VerificationService) Policy() Policy {
	return s.policy
}

// Validity returns the default code validity window.
func (s *VerificationService) Validity() time.Duration {
	return s.validity
}

// CanSend decides whether a code may be sent to the subject's address for
// the given purpose right now. The daily cap is keyed by destination
// address, so accounts sharing an address share the bucket. No state is
// mutated.
func (s *VerificationService) CanSend(ctx context.Context, subjectID uuid.UUID, email string, purpose Purpose, now time.Time) (Decision, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Decision{DailyCap: s.policy.DailyCap, Err: ErrNoDestination}, ErrNoDestination
	}

	usedToday, err := s.ledger.GetSendCount(ctx, email, now, purpose)
	if err != nil {
		slog.Error("Failed to read send ledger", "email", email, "purpose", purpose, "err", err)
		return Decision{}, fmt.Errorf("failed to read send ledger: %w", err)
	}

	active, err := s.codes.GetLatestActiveCode(ctx, subjectID, purpose, now)
	if err != nil && !errors.Is(err, ErrCodeNotFound) {
		slog.Error("Failed to look up active code", "subject_id", subjectID, "purpose", purpose, "err", err)
		return Decision{}, fmt.Errorf("failed to look up active code: %w", err)
	}

	decision := s.policy.Evaluate(usedToday, active, now)
	if !decision.Allowed {
		slog.Warn("Code send denied", "subject_id", subjectID, "purpose", purpose, "reason", decision.Reason)
	}
	return decision, nil
}

// Issue retires every active code for (subject, purpose) and creates a
// fresh one valid for the given duration (the service default when zero).
// It returns the plaintext code for transmission. Issue does not check
// CanSend; callers must do that first.
func (s *VerificationService) Issue(ctx context.Context, subjectID uuid.UUID, purpose Purpose, validity time.Duration, now time.Time) (string, error) {
	if validity <= 0 {
		validity = s.validity
	}

	// At most one active code should exist, but deactivating all matches
	// keeps the single-active-code invariant even if earlier writes raced.
	if err := s.codes.DeactivateActiveCodes(ctx, subjectID, purpose, now); err != nil {
		slog.Error("Failed to deactivate previous codes", "subject_id", subjectID, "purpose", purpose, "err", err)
		return "", fmt.Errorf("failed to deactivate previous codes: %w", err)
	}

	code, err := s.generator.Generate()
	if err != nil {
		return "", err
	}

	record := VerificationCode{
		SubjectID: subjectID,
		Code:      code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(validity),
	}
	created, err := s.codes.CreateCode(ctx, record)
	if err != nil {
		slog.Error("Failed to store verification code", "subject_id", subjectID, "purpose", purpose, "err", err)
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	slog.Info("Verification code issued", "subject_id", subjectID, "purpose", purpose, "code_id", created.ID, "expires_at", created.ExpiresAt)
	return code, nil
}

// ActiveCode returns the current active code for (subject, purpose), or nil
// when none exists. The password reset flow uses it to resend the same
// still-valid code instead of cycling a new one.
func (s *VerificationService) ActiveCode(ctx context.Context, subjectID uuid.UUID, purpose Purpose, now time.Time) (*VerificationCode, error) {
	active, err := s.codes.GetLatestActiveCode(ctx, subjectID, purpose, now)
	if errors.Is(err, ErrCodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up active code: %w", err)
	}
	return active, nil
}

// RecordSend registers that one email carrying a code actually went out:
// it bumps the resend counter and last-resend timestamp on the most recent
// active code (no-op when none is active) and increments the daily ledger
// for the destination. Call exactly once per transmission, first send or
// resend alike.
func (s *VerificationService) RecordSend(ctx context.Context, subjectID uuid.UUID, email string, purpose Purpose, now time.Time) error {
	active, err := s.codes.GetLatestActiveCode(ctx, subjectID, purpose, now)
	if err != nil && !errors.Is(err, ErrCodeNotFound) {
		return fmt.Errorf("failed to look up active code: %w", err)
	}
	if active != nil {
		active.ResendCount++
		at := now
		active.LastResendAt = &at
		if err := s.codes.UpdateCode(ctx, active); err != nil {
			slog.Error("Failed to update resend counters", "code_id", active.ID, "err", err)
			return fmt.Errorf("failed to update resend counters: %w", err)
		}
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if err := s.ledger.IncrementSendCount(ctx, email, now, purpose); err != nil {
		slog.Error("Failed to increment send ledger", "email", email, "purpose", purpose, "err", err)
		return fmt.Errorf("failed to increment send ledger: %w", err)
	}
	return nil
}

// Verify looks for an active code matching the submitted text. On a match
// under the attempt ceiling the record is returned without mutation; the
// caller decides when to consume it. A match at or over the ceiling is
// treated as no match. When nothing matches, the attempt budget of the
// most recent active code is charged, retiring it at the ceiling, so wrong
// guesses always count against the current code.
func (s *VerificationService) Verify(ctx context.Context, subjectID uuid.UUID, code string, purpose Purpose, now time.Time) (*VerificationCode, error) {
	match, err := s.codes.GetActiveCodeByValue(ctx, subjectID, purpose, code, now)
	if err != nil && !errors.Is(err, ErrCodeNotFound) {
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}

	if match != nil {
		if match.AttemptCount >= s.attemptCeiling {
			return nil, nil
		}
		return match, nil
	}

	latest, err := s.codes.GetLatestActiveCode(ctx, subjectID, purpose, now)
	if errors.Is(err, ErrCodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up active code: %w", err)
	}

	latest.AttemptCount++
	if latest.AttemptCount >= s.attemptCeiling {
		latest.Used = true
		at := now
		latest.UsedAt = &at
		slog.Warn("Code retired after too many attempts", "subject_id", subjectID, "purpose", purpose, "code_id", latest.ID)
	}
	if err := s.codes.UpdateCode(ctx, latest); err != nil {
		return nil, fmt.Errorf("failed to record failed attempt: %w", err)
	}
	return nil, nil
}

// MarkUsed consumes a code returned by Verify. Callers that have no side
// effects to run between match and consumption should prefer Consume.
func (s *VerificationService) MarkUsed(ctx context.Context, code *VerificationCode, now time.Time) error {
	code.Used = true
	at := now
	code.UsedAt = &at
	if err := s.codes.UpdateCode(ctx, code); err != nil {
		return fmt.Errorf("failed to mark code as used: %w", err)
	}
	slog.Info("Verification code consumed", "code_id", code.ID, "subject_id", code.SubjectID, "purpose", code.Purpose)
	return nil
}

// Consume verifies and immediately marks the code used, enforcing
// single-use in one transition. It returns ErrCodeInvalid when no active
// code matches.
func (s *VerificationService) Consume(ctx context.Context, subjectID uuid.UUID, code string, purpose Purpose, now time.Time) (*VerificationCode, error) {
	match, err := s.Verify(ctx, subjectID, code, purpose, now)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrCodeInvalid
	}
	if err := s.MarkUsed(ctx, match, now); err != nil {
		return nil, err
	}
	return match, nil
}

// RecordAttempt appends an audit entry for a verification attempt. Audit
// failures are logged but never fail the caller.
func (s *VerificationService) RecordAttempt(ctx context.Context, subjectID uuid.UUID, method, code string, result AttemptResult, reason string, origin Origin) {
	record := AttemptRecord{
		SubjectID: subjectID,
		Method:    method,
		Code:      code,
		Result:    result,
		Reason:    reason,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.attempts.CreateAttempt(ctx, record); err != nil {
		slog.Error("Failed to record verification attempt", "subject_id", subjectID, "result", result, "err", err)
	}
}
