package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateTestCache invalidates all caches touched by a test write
func InvalidateTestCache(ctx context.Context, cm *CacheManager, testID string, courseID string) {
	SafeDelete(ctx, cm.Test,
		fmt.Sprintf("id:%s", testID),
		fmt.Sprintf("details:%s", testID))

	SafeInvalidatePattern(ctx, cm.Test, fmt.Sprintf("course:%s:*", courseID))
	SafeInvalidatePattern(ctx, cm.Test, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("test:%s:*", testID))
}

// InvalidateQuestionCache invalidates all question-related caches
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, poolID string, courseID string) {
	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("pool:%s:*", poolID))
	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("course:%s:*", courseID))
	SafeInvalidatePattern(ctx, cm.Pool, fmt.Sprintf("course:%s:*", courseID))
	SafeInvalidatePattern(ctx, cm.Exists, fmt.Sprintf("pool:%s:*", poolID))
}

// InvalidateAttemptCache invalidates attempt and analytics caches after a submit
func InvalidateAttemptCache(ctx context.Context, cm *CacheManager, studentID string, testID string, courseID string) {
	SafeDelete(ctx, cm.Attempt, fmt.Sprintf("student:%s:test:%s", studentID, testID))
	SafeInvalidatePattern(ctx, cm.Attempt, fmt.Sprintf("student:%s:*", studentID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("test:%s:*", testID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("course:%s:*", courseID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("student:%s:*", studentID))
}
