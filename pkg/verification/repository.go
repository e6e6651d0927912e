package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CodeRepository defines persistence for verification codes.
type CodeRepository interface {
	// CreateCode stores a new verification code record.
	CreateCode(ctx context.Context, code VerificationCode) (VerificationCode, error)

	// DeactivateActiveCodes marks every active code for the subject and
	// purpose as used at the given time.
	DeactivateActiveCodes(ctx context.Context, subjectID uuid.UUID, purpose Purpose, now time.Time) error

	// GetActiveCodeByValue returns the most recent active code matching the
	// submitted value, or ErrCodeNotFound.
	GetActiveCodeByValue(ctx context.Context, subjectID uuid.UUID, purpose Purpose, value string, now time.Time) (*VerificationCode, error)

	// GetLatestActiveCode returns the most recent active code regardless of
	// value, or ErrCodeNotFound.
	GetLatestActiveCode(ctx context.Context, subjectID uuid.UUID, purpose Purpose, now time.Time) (*VerificationCode, error)

	// UpdateCode persists mutated counters and usage flags.
	UpdateCode(ctx context.Context, code *VerificationCode) error
}

// SendLedgerRepository defines persistence for daily send counters.
type SendLedgerRepository interface {
	// GetSendCount returns the count for (email, day, purpose), creating
	// the entry at zero if it does not exist yet.
	GetSendCount(ctx context.Context, email string, day time.Time, purpose Purpose) (int, error)

	// IncrementSendCount adds one to the counter, creating it if absent.
	IncrementSendCount(ctx context.Context, email string, day time.Time, purpose Purpose) error
}

// AttemptLogRepository defines the append-only attempt audit log.
type AttemptLogRepository interface {
	CreateAttempt(ctx context.Context, record AttemptRecord) error
}
