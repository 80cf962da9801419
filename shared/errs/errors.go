// Package errs holds the sentinel errors returned by the account services.
// Callers add detail by wrapping with %w and match with errors.Is.
package errs

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("account not found")
	ErrConflict          = errors.New("login already exists")
	ErrRevoked           = errors.New("account is revoked")
	ErrInvalidCredential = errors.New("invalid old password")
)
