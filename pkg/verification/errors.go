package verification

import "errors"

// DeniedError carries a denying Decision so flows can surface the
// human-readable reason while callers still match the sentinel with
// errors.Is.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	return e.Decision.Reason
}

func (e *DeniedError) Unwrap() error {
	return e.Decision.Err
}

var (
	// ErrNoDestination is returned when the subject has no email address to
	// deliver a code to.
	ErrNoDestination = errors.New("no destination email address")

	// ErrDailyLimitReached is returned when the daily send cap for a
	// destination address and purpose has been reached.
	ErrDailyLimitReached = errors.New("daily send limit reached for this email")

	// ErrResendLimitReached is returned when the active code has already
	// been resent the maximum number of times.
	ErrResendLimitReached = errors.New("maximum resends reached for this code")

	// ErrCooldownActive is returned when a resend is requested before the
	// cooldown since the last send has elapsed.
	ErrCooldownActive = errors.New("resend cooldown has not elapsed")

	// ErrCodeInvalid is returned when a submitted code does not match an
	// active code, has expired, or has exhausted its attempt budget.
	ErrCodeInvalid = errors.New("verification code is invalid, expired, or has too many attempts")

	// ErrCodeNotFound is returned by repositories when no matching code
	// record exists.
	ErrCodeNotFound = errors.New("verification code not found")
)
