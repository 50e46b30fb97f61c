// Package apperr defines the error kinds surfaced by the auth and blog
// services. Anything that is not one of these is an internal failure.
package apperr

import "errors"

var (
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
)

// IsExpected reports whether err is one of the kinds above, i.e. normal
// control flow rather than a failure worth logging in full.
func IsExpected(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound)
}
