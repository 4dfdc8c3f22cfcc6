package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/examforge/exam-service/internal/events"
	"github.com/examforge/exam-service/internal/models"
)

func TestNotificationEventService_PublishEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockPublisher := events.NewMockEventPublisher(logger)
	service := NewNotificationEventService(mockPublisher, logger)

	ctx := context.Background()

	t.Run("PublishTestReleased", func(t *testing.T) {
		mockPublisher.ClearEvents()

		scheduledFor := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		test := &models.Test{
			ID:              "test-1",
			Name:            "Midterm",
			CourseID:        "course-1",
			DurationMinutes: 60,
			TotalQuestions:  20,
			ScheduledFor:    &scheduledFor,
		}

		if err := service.PublishTestReleased(ctx, test, "faculty-1"); err != nil {
			t.Fatalf("Failed to publish test released event: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}

		event := published[0]
		if event.Type != events.EventTestReleased {
			t.Errorf("Expected event type %q, got %q", events.EventTestReleased, event.Type)
		}

		data, ok := event.Data.(events.TestReleasedEvent)
		if !ok {
			t.Fatalf("Expected TestReleasedEvent data, got %T", event.Data)
		}
		if data.TestID != "test-1" || data.ReleasedBy != "faculty-1" {
			t.Errorf("Unexpected event data: %+v", data)
		}
		if data.TotalQuestions != 20 {
			t.Errorf("Expected 20 total questions, got %d", data.TotalQuestions)
		}
	})

	t.Run("PublishAttemptSubmitted", func(t *testing.T) {
		mockPublisher.ClearEvents()

		attempt := &models.StudentTest{
			ID:             "attempt-1",
			StudentID:      "student-1",
			OriginalTestID: "test-1",
			TestName:       "Midterm",
			CourseID:       "course-1",
			Score:          85.5,
		}

		if err := service.PublishAttemptSubmitted(ctx, attempt); err != nil {
			t.Fatalf("Failed to publish attempt submitted event: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}

		data, ok := published[0].Data.(events.AttemptSubmittedEvent)
		if !ok {
			t.Fatalf("Expected AttemptSubmittedEvent data, got %T", published[0].Data)
		}
		if data.AttemptID != "attempt-1" || data.StudentID != "student-1" {
			t.Errorf("Unexpected event data: %+v", data)
		}
		if data.Score != 85.5 {
			t.Errorf("Expected score 85.5, got %v", data.Score)
		}
	})

	t.Run("Event_Structure_Validation", func(t *testing.T) {
		mockPublisher.ClearEvents()

		test := &models.Test{ID: "test-2", Name: "Quiz", CourseID: "course-1"}
		if err := service.PublishTestReleased(ctx, test, "faculty-1"); err != nil {
			t.Fatalf("Failed to publish event: %v", err)
		}

		published := mockPublisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(published))
		}

		event := published[0]
		if event.ID == "" {
			t.Error("Event ID should not be empty")
		}
		if event.Source != "exam-service" {
			t.Errorf("Expected source 'exam-service', got '%s'", event.Source)
		}
		if event.Version != "1.0" {
			t.Errorf("Expected version '1.0', got '%s'", event.Version)
		}
		if event.Timestamp.IsZero() {
			t.Error("Event timestamp should be set")
		}
	})
}
