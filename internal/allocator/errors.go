package allocator

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// KindInvalidPolicy marks a malformed or inconsistent selection policy:
	// percentages not summing to 100, a non-positive total, a zero-length
	// pool selection, or a declared total that disagrees with the custom map.
	KindInvalidPolicy ErrorKind = "invalid_policy"
	// KindInsufficientInventory marks a pooled inventory smaller than the
	// requested total in percentage mode.
	KindInsufficientInventory ErrorKind = "insufficient_inventory"
	// KindInsufficientQuestions marks a single bucket whose requested count
	// exceeds its available count.
	KindInsufficientQuestions ErrorKind = "insufficient_questions"
	// KindTooManyPools marks a selection of more than MaxPoolSelection
	// pools, a hard limit inherited from the storage layer's batch queries.
	KindTooManyPools ErrorKind = "too_many_pools"
	// KindEmptySelection marks a whole-pool release that found no questions.
	KindEmptySelection ErrorKind = "empty_selection"
)

// Error is the allocator's failure type. Bucket failures carry the bucket
// identity and both counts so callers can render a user-actionable message.
type Error struct {
	Kind       ErrorKind
	Message    string
	PoolID     string
	Difficulty string
	Required   int
	Available  int
}

func (e *Error) Error() string {
	return e.Message
}

// IsKind reports whether err is an allocator Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

func invalidPolicy(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidPolicy, Message: fmt.Sprintf(format, args...)}
}

func insufficientInventory(available, required int) *Error {
	return &Error{
		Kind:      KindInsufficientInventory,
		Message:   fmt.Sprintf("insufficient questions (%d available in selected pools) to generate a test of %d questions", available, required),
		Required:  required,
		Available: available,
	}
}

func insufficientQuestions(poolID, difficulty string, required, available int) *Error {
	msg := fmt.Sprintf("not enough %s questions. Required: %d, Available: %d in selected pools", difficulty, required, available)
	if poolID != "" {
		msg = fmt.Sprintf("not enough %s questions in pool %s. Required: %d, Available: %d", difficulty, poolID, required, available)
	}
	return &Error{
		Kind:       KindInsufficientQuestions,
		Message:    msg,
		PoolID:     poolID,
		Difficulty: difficulty,
		Required:   required,
		Available:  available,
	}
}
