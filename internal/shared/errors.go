package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates a login failure. Handlers must surface it
	// without distinguishing an unknown username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates the request carries no valid session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden indicates a valid session that lacks the required permission.
	ErrForbidden = errors.New("permission denied")
	// ErrConflict indicates a unique-key violation.
	ErrConflict = errors.New("duplicate entry")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
)

// PermissionError carries the (resource, action) pair that was required when a
// request was rejected. It never carries data belonging to other users.
type PermissionError struct {
	Resource string
	Action   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("missing permission %s:%s", e.Resource, e.Action)
}

// Is makes PermissionError match ErrForbidden in errors.Is chains.
func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}
