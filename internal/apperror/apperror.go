// Package apperror holds the error kinds shared by the services and the route layer.
// Services wrap one of these with fmt.Errorf("%w: ...") and the routes map them to
// HTTP status codes with errors.Is.
package apperror

import "errors"

var (
	// ErrValidation marks a missing or malformed field, or a violated length constraint.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a uniqueness violation reported by storage.
	ErrConflict = errors.New("conflict")
	// ErrAuthentication marks bad credentials or an anonymous caller on a protected action.
	ErrAuthentication = errors.New("authentication failed")
	// ErrNotFound marks a lookup that matched nothing.
	ErrNotFound = errors.New("not found")
)
