package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the service
const (
	EventTestReleased     = "exam.test.released"
	EventAttemptSubmitted = "exam.attempt.submitted"
)

const eventSource = "exam-service"

// Event is the envelope for all published messages
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent creates an event envelope with generated id and current timestamp
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// TestReleasedEvent is published when faculty releases a test to a course
type TestReleasedEvent struct {
	TestID          string     `json:"testId"`
	TestName        string     `json:"testName"`
	CourseID        string     `json:"courseId"`
	ReleasedBy      string     `json:"releasedBy"`
	TotalQuestions  int        `json:"totalQuestions"`
	DurationMinutes int        `json:"durationMinutes"`
	ScheduledFor    *time.Time `json:"scheduledFor,omitempty"`
	ScheduledEnd    *time.Time `json:"scheduledEnd,omitempty"`
}

// AttemptSubmittedEvent is published when a student's attempt is graded
type AttemptSubmittedEvent struct {
	AttemptID string  `json:"attemptId"`
	TestID    string  `json:"testId"`
	TestName  string  `json:"testName"`
	StudentID string  `json:"studentId"`
	CourseID  string  `json:"courseId"`
	Score     float64 `json:"score"`
}
