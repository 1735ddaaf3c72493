package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation on create.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates a rejected request payload.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates a missing or malformed credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a valid credential with insufficient privilege.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStorage indicates a backing-store failure. Not retried here;
	// surfaced to the caller as a 5xx.
	ErrStorage = errors.New("storage unavailable")
)
