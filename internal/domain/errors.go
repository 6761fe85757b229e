package domain

import "errors"

// Shared error taxonomy. Services wrap these with fmt.Errorf("%w: ...") so
// callers can classify with errors.Is while logs keep the detail.
var (
	// ErrUnauthenticated means no valid principal could be established.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrDenied means the principal is authenticated but holds no active
	// membership for the target tenant. Deliberately generic: callers must
	// not learn whether the tenant exists.
	ErrDenied = errors.New("access denied")

	// ErrNotFound covers both "absent" and "belongs to another tenant".
	ErrNotFound = errors.New("not found")

	// ErrValidation means malformed input (bad tenant name, unknown stage).
	ErrValidation = errors.New("validation failed")

	// ErrQuotaExceeded means the owner tenant quota is exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrConflict means a uniqueness constraint fired (invite code, membership).
	ErrConflict = errors.New("conflict")

	// ErrInternal means a datastore or downstream failure.
	ErrInternal = errors.New("internal error")
)
