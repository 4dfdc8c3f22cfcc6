package validator

import (
	"time"

	"github.com/examforge/exam-service/internal/models"
)

// PoolCreateRequest creates a question pool within a course
type PoolCreateRequest struct {
	CourseID string `json:"courseId" validate:"required,max=100"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
}

// QuestionCreateRequest creates a single question inside a pool
type QuestionCreateRequest struct {
	CourseID           string   `json:"courseId" validate:"required,max=100"`
	PoolID             string   `json:"poolId" validate:"required,uuid4"`
	Topic              string   `json:"topic" validate:"required,max=200"`
	Text               string   `json:"text" validate:"required"`
	Options            []string `json:"options" validate:"required,min=2,max=4,dive,required"`
	CorrectOptionIndex int      `json:"correctOptionIndex" validate:"gte=0"`
	Difficulty         string   `json:"difficulty" validate:"required,difficulty_level"`
}

// QuestionBulkImportRequest imports questions parsed from an uploaded spreadsheet
type QuestionBulkImportRequest struct {
	CourseID  string                  `json:"courseId" validate:"required,max=100"`
	PoolID    string                  `json:"poolId" validate:"required,uuid4"`
	Questions []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// ReleaseRandomTestRequest releases a test whose questions are drawn randomly
// from the selected pools, either as one shared set or per student at start
type ReleaseRandomTestRequest struct {
	TestName        string     `json:"testName" validate:"required,test_name"`
	CourseID        string     `json:"courseId" validate:"required,max=100"`
	DurationMinutes int        `json:"durationMinutes" validate:"required,test_duration"`
	ScheduledFor    *time.Time `json:"scheduledFor,omitempty"`
	ScheduledEnd    *time.Time `json:"scheduledEnd,omitempty"`

	// PerStudent defers allocation to each student's start instead of
	// materializing one shared question set at release time
	PerStudent bool `json:"perStudent"`

	QuestionConfig models.QuestionConfig `json:"questionConfig" validate:"required"`
}

// ReleaseWholePoolRequest releases a test containing every question of one pool
type ReleaseWholePoolRequest struct {
	TestName        string     `json:"testName" validate:"required,test_name"`
	CourseID        string     `json:"courseId" validate:"required,max=100"`
	PoolID          string     `json:"poolId" validate:"required,uuid4"`
	DurationMinutes int        `json:"durationMinutes" validate:"required,test_duration"`
	ScheduledFor    *time.Time `json:"scheduledFor,omitempty"`
	ScheduledEnd    *time.Time `json:"scheduledEnd,omitempty"`
}

// StartAttemptRequest starts (or resumes) a student's attempt on a test
type StartAttemptRequest struct {
	TestID string `json:"testId" validate:"required,uuid4"`
}

// SubmitAttemptRequest submits a student's answers for grading.
// Answers is sparse: unanswered questions are simply absent.
type SubmitAttemptRequest struct {
	TestID  string         `json:"testId" validate:"required,uuid4"`
	Answers map[string]int `json:"answers" validate:"required"`
}
