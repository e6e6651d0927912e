package iam

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmailTaken is returned when a verified account already owns the
	// email address.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrPresidentExists is returned when a second verified president
	// would be created. The invariant is backed by a partial unique index,
	// so it holds across concurrent registrations too.
	ErrPresidentExists = errors.New("a president is already registered")

	// ErrInvalidRole is returned for roles outside president/associate.
	ErrInvalidRole = errors.New("invalid role")
)
