package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/examforge/exam-service/internal/events"
	"github.com/examforge/exam-service/internal/models"
)

type notificationEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewNotificationEventService(eventPublisher events.EventPublisher, logger *slog.Logger) NotificationEventService {
	return &notificationEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *notificationEventService) PublishTestReleased(ctx context.Context, test *models.Test, releasedBy string) error {
	event := events.NewEvent(events.EventTestReleased, events.TestReleasedEvent{
		TestID:          test.ID,
		TestName:        test.Name,
		CourseID:        test.CourseID,
		ReleasedBy:      releasedBy,
		TotalQuestions:  test.TotalQuestions,
		DurationMinutes: test.DurationMinutes,
		ScheduledFor:    test.ScheduledFor,
		ScheduledEnd:    test.ScheduledEnd,
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish test released event: %w", err)
	}

	return nil
}

func (s *notificationEventService) PublishAttemptSubmitted(ctx context.Context, attempt *models.StudentTest) error {
	event := events.NewEvent(events.EventAttemptSubmitted, events.AttemptSubmittedEvent{
		AttemptID: attempt.ID,
		TestID:    attempt.OriginalTestID,
		TestName:  attempt.TestName,
		StudentID: attempt.StudentID,
		CourseID:  attempt.CourseID,
		Score:     attempt.Score,
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish attempt submitted event: %w", err)
	}

	return nil
}
