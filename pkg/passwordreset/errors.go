package passwordreset

import "errors"

var (
	// ErrSessionExpired is returned when a reset-session token is missing,
	// malformed, expired, or presented at the wrong stage. The flow must
	// be restarted from the first step.
	ErrSessionExpired = errors.New("recovery session has expired, start over")

	// ErrPasswordMismatch is returned when the confirmation password does
	// not match.
	ErrPasswordMismatch = errors.New("passwords do not match")
)
