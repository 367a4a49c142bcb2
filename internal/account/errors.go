package account

import "errors"

// Domain errors for the account package, checked with errors.Is().
var (
	// ErrUserNotFound is returned when no account matches the lookup key.
	ErrUserNotFound = errors.New("account: user not found")

	// ErrEmailExists is returned when registering an email that is already taken.
	ErrEmailExists = errors.New("account: email already registered")

	// ErrInvalidCredentials is returned when no account matches an
	// email/password pair exactly.
	ErrInvalidCredentials = errors.New("account: invalid credentials")
)
