package repository

import "errors"

// Storage error kinds. Implementations wrap driver errors with these so
// callers can branch on errors.Is instead of matching vendor messages.
var (
	// ErrResourceExhausted signals the store refused work for lack of
	// connections or memory. It is transient.
	ErrResourceExhausted = errors.New("storage resources exhausted")
	// ErrDuplicate signals a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrSerialization signals a deadlock or serialization failure.
	ErrSerialization = errors.New("transaction conflict")
)

// IsTransient reports whether an operation that failed with err may be retried as is.
func IsTransient(err error) bool {
	return errors.Is(err, ErrResourceExhausted)
}
