package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for handler status mapping
var (
	ErrPoolNotFound     = errors.New("pool not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrTestNotFound     = errors.New("test not found")
	ErrAttemptNotFound  = errors.New("attempt not found")

	// ErrTestNotActive covers scheduled and inactive tests alike: a student
	// can only start a test while it is active.
	ErrTestNotActive = errors.New("test is not active")
	// ErrTestExpired marks a start after the scheduled end. The read path
	// persists the inactive flip before returning this.
	ErrTestExpired = errors.New("test has expired")
	// ErrAlreadyTaken marks a start against a test the student already
	// completed.
	ErrAlreadyTaken = errors.New("test already taken")
	// ErrAttemptAlreadySubmitted makes submission one-shot.
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	// ErrAttemptNotCompleted guards result reads of in-progress attempts.
	ErrAttemptNotCompleted = errors.New("attempt not completed")
	// ErrMissedDetailsUnavailable marks review requests against tests that
	// never materialized a shared question set.
	ErrMissedDetailsUnavailable = errors.New("missed test details are not available for per-student tests")
)

// PermissionError carries the denied action for a 403 response
type PermissionError struct {
	UserID string
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s", e.UserID, e.Action)
}

func NewPermissionError(userID, action string) *PermissionError {
	return &PermissionError{UserID: userID, Action: action}
}

// IsPermissionError reports whether err is a PermissionError
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
