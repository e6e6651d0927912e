package verification

import (
	"time"

	"github.com/google/uuid"
)

// Purpose identifies which flow a verification code belongs to.
type Purpose string

const (
	// PurposePrimary is used when verifying the email of a new account.
	PurposePrimary Purpose = "primary"
	// PurposePasswordReset is used by the password recovery flow.
	PurposePasswordReset Purpose = "password_reset"
)

// AttemptResult classifies the outcome of a verification attempt.
type AttemptResult string

const (
	ResultSuccess         AttemptResult = "success"
	ResultInvalidCode     AttemptResult = "invalid_code"
	ResultExpired         AttemptResult = "expired"
	ResultTooManyAttempts AttemptResult = "too_many_attempts"
	ResultResendBlocked   AttemptResult = "resend_blocked"
)

// VerificationCode is one issued one-time code. Records are retired via the
// Used flag and kept for audit, never deleted.
type VerificationCode struct {
	ID           uuid.UUID
	SubjectID    uuid.UUID
	Code         string
	Purpose      Purpose
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Used         bool
	UsedAt       *time.Time
	AttemptCount int
	ResendCount  int
	LastResendAt *time.Time
}

// Active reports whether the code can still be matched at the given time.
// A code that hit the attempt ceiling is marked used when it is retired,
// so Used covers that case too.
func (c *VerificationCode) Active(now time.Time) bool {
	return !c.Used && !c.ExpiresAt.Before(now)
}

// SendLedgerEntry counts codes sent to one address on one calendar day for
// one purpose. Two accounts sharing an address share the same bucket.
type SendLedgerEntry struct {
	Email   string
	Day     time.Time
	Purpose Purpose
	Count   int
}

// AttemptRecord is an append-only audit entry for a verification attempt.
// It is never read by policy logic.
type AttemptRecord struct {
	ID        uuid.UUID
	SubjectID uuid.UUID
	Method    string
	Code      string
	Result    AttemptResult
	Reason    string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// Origin carries request metadata for audit records.
type Origin struct {
	IPAddress string
	UserAgent string
}

// Decision is the verdict of a CanSend check. Err carries the sentinel for
// denying decisions (ErrDailyLimitReached, ErrResendLimitReached or
// ErrCooldownActive) and is nil when Allowed.
type Decision struct {
	Allowed   bool
	Reason    string
	UsedToday int
	DailyCap  int
	Err       error
}
