package domain

import (
	"errors"
	"fmt"
)

// Error categories. Transport layers map these to outer status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrPrecondition    = errors.New("precondition failed")
	ErrUnauthenticated = errors.New("unauthenticated")
)

var (
	// ErrUserNotFound is returned when an account id does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrContentNotFound is returned when a content id does not exist.
	ErrContentNotFound = fmt.Errorf("content %w", ErrNotFound)
	// ErrQuizNotFound indicates the content exists but has no quiz attached.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrAttemptNotFound is returned for unknown attempt ids.
	ErrAttemptNotFound = fmt.Errorf("attempt %w", ErrNotFound)
	// ErrProfileNotFound is returned before a learner has onboarded.
	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)

	// ErrContentNotPublished rejects learner access to draft content.
	ErrContentNotPublished = fmt.Errorf("%w: content not published", ErrConflict)
	// ErrEmailTaken rejects a duplicate account email.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)
	// ErrProfileRequired is returned by the feed when the learner has no profile.
	ErrProfileRequired = fmt.Errorf("%w: learner profile required", ErrPrecondition)
	// ErrNotOwner rejects creator operations on someone else's content.
	ErrNotOwner = fmt.Errorf("%w: not your content", ErrForbidden)
	// ErrNotAttemptOwner rejects reading another learner's attempt.
	ErrNotAttemptOwner = fmt.Errorf("%w: not your attempt", ErrForbidden)
)

// ValidationError describes a rejected field of caller-supplied data.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Conflict wraps ErrConflict with a caller-facing reason.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
