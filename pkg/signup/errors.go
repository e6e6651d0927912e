package signup

import "errors"

var (
	// ErrAlreadyVerified is returned when the account's email is already
	// verified and the flow has nothing left to do.
	ErrAlreadyVerified = errors.New("email already verified")
)
