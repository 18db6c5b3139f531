package services

import (
	"errors"
	"fmt"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/store"
)

var (
	// ErrValidation indicates malformed input, e.g. an empty post text.
	ErrValidation = errors.New("validation failed")

	// ErrNotAuthor indicates the caller is authenticated but does not own the post.
	ErrNotAuthor = errors.New("user not authorized")

	// ErrNotFound indicates the target record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated indicates a protected operation was called without an identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrEmailTaken indicates a signup with an email that is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// mapStoreError translates repository sentinels into service errors.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrNotOwner):
		return ErrNotAuthor
	case errors.Is(err, store.ErrConflict):
		return ErrEmailTaken
	default:
		return err
	}
}
