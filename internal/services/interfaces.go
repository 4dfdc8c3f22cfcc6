package services

import (
	"context"
	"io"
	"time"

	"github.com/examforge/exam-service/internal/models"
	"github.com/examforge/exam-service/internal/validator"
)

// ===== REQUEST DTOs =====

// Request shapes live with their validation rules
type CreatePoolRequest = validator.PoolCreateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type ReleaseRandomTestRequest = validator.ReleaseRandomTestRequest
type ReleaseWholePoolRequest = validator.ReleaseWholePoolRequest
type StartAttemptRequest = validator.StartAttemptRequest
type SubmitAttemptRequest = validator.SubmitAttemptRequest

// ===== POOL / QUESTION DTOs =====

type PoolResponse struct {
	*models.Pool
	QuestionCount int64 `json:"questionCount"`
}

// ImportRowError reports one rejected spreadsheet row
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportReport summarizes a bulk import. Imported is zero whenever Errors is
// non-empty: the batch is all-or-nothing.
type ImportReport struct {
	Imported int              `json:"imported"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// ===== TEST DTOs =====

// AvailableTest is the student-facing listing entry: enough to start the
// test, nothing about its contents.
type AvailableTest struct {
	ID              string            `json:"id"`
	TestName        string            `json:"testName"`
	CourseID        string            `json:"courseId"`
	DurationMinutes int               `json:"durationMinutes"`
	Status          models.TestStatus `json:"status"`
	TotalQuestions  int               `json:"totalQuestions"`
	ScheduledFor    *time.Time        `json:"scheduledFor,omitempty"`
	ScheduledEnd    *time.Time        `json:"scheduledEnd,omitempty"`
}

// MissedTestDetails is the post-expiry review of a test a student never
// took. Full snapshots are returned: the test is over, answers may be shown.
type MissedTestDetails struct {
	TestID    string                    `json:"testId"`
	TestName  string                    `json:"testName"`
	CourseID  string                    `json:"courseId"`
	Questions []models.QuestionSnapshot `json:"questions"`
}

// ===== ATTEMPT DTOs =====

// AttemptResponse is the student-facing view of a running attempt. The
// question list is always redacted.
type AttemptResponse struct {
	AttemptID       string                    `json:"attemptId"`
	TestID          string                    `json:"testId"`
	TestName        string                    `json:"testName"`
	CourseID        string                    `json:"courseId"`
	DurationMinutes int                       `json:"durationMinutes"`
	StartTime       time.Time                 `json:"startTime"`
	Status          models.AttemptStatus      `json:"status"`
	Questions       []models.RedactedQuestion `json:"questions"`
	Resumed         bool                      `json:"resumed"`
}

// ResultResponse is the post-submission view, correct answers included.
type ResultResponse struct {
	AttemptID string                      `json:"attemptId"`
	TestID    string                      `json:"testId"`
	TestName  string                      `json:"testName"`
	CourseID  string                      `json:"courseId"`
	Score     float64                     `json:"score"`
	Analysis  map[string]models.TopicStat `json:"analysis"`
	Answers   map[string]int              `json:"answers"`
	Questions []models.QuestionSnapshot   `json:"questions"`
	EndTime   *time.Time                  `json:"endTime,omitempty"`
}

// HistoryEntry is one completed attempt in a student's history
type HistoryEntry struct {
	AttemptID string     `json:"attemptId"`
	TestID    string     `json:"testId"`
	TestName  string     `json:"testName"`
	Score     float64    `json:"score"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// ===== ANALYTICS DTOs =====

// TopicPerformance is an aggregated topic row with the percentage recomputed
// from the summed counts, never averaged from per-attempt percentages.
type TopicPerformance struct {
	Topic      string  `json:"topic"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// StudentRollup is one student's aggregate row in a course analysis
type StudentRollup struct {
	StudentID    string  `json:"studentId"`
	Name         string  `json:"name,omitempty"`
	RollNo       string  `json:"rollNo,omitempty"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
	BestScore    float64 `json:"bestScore"`
	LastScore    float64 `json:"lastScore"`
}

type CourseAnalysisResponse struct {
	CourseID      string             `json:"courseId"`
	TotalAttempts int                `json:"totalAttempts"`
	AverageScore  float64            `json:"averageScore"`
	PassRate      float64            `json:"passRate"`
	Topics        []TopicPerformance `json:"topics"`
	Students      []StudentRollup    `json:"students"`
}

// TestScoreRow is one student's line on a test scoreboard
type TestScoreRow struct {
	StudentID string     `json:"studentId"`
	Name      string     `json:"name,omitempty"`
	RollNo    string     `json:"rollNo,omitempty"`
	Score     float64    `json:"score"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

type TestScoresResponse struct {
	TestID   string         `json:"testId"`
	TestName string         `json:"testName"`
	CourseID string         `json:"courseId"`
	Scores   []TestScoreRow `json:"scores"`
}

// TrendPoint is one attempt on a student's improvement trend, chronological
type TrendPoint struct {
	TestName string     `json:"testName"`
	Score    float64    `json:"score"`
	EndTime  *time.Time `json:"endTime,omitempty"`
}

type StudentAnalysisResponse struct {
	StudentID     string             `json:"studentId"`
	CourseID      string             `json:"courseId"`
	TotalAttempts int                `json:"totalAttempts"`
	AverageScore  float64            `json:"averageScore"`
	Trend         []TrendPoint       `json:"trend"`
	Strengths     []TopicPerformance `json:"strengths"`
	Weaknesses    []TopicPerformance `json:"weaknesses"`
}

// ===== SERVICE INTERFACES =====

type PoolService interface {
	Create(ctx context.Context, req *CreatePoolRequest, creatorID string) (*PoolResponse, error)
	ListByCourse(ctx context.Context, courseID string) ([]*PoolResponse, error)
}

type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error)
	Delete(ctx context.Context, id string, userID string) error
	ListByCourse(ctx context.Context, courseID string) ([]models.Question, error)

	// ImportXLSX parses an uploaded workbook and inserts all rows in one
	// batch. A single bad row rejects the whole file; the report names
	// every offending row.
	ImportXLSX(ctx context.Context, courseID, poolID string, file io.Reader, creatorID string) (*ImportReport, error)
}

type TestService interface {
	ReleaseRandom(ctx context.Context, req *ReleaseRandomTestRequest, creatorID string) (*models.Test, error)
	ReleaseWholePool(ctx context.Context, req *ReleaseWholePoolRequest, creatorID string) (*models.Test, error)

	// AvailableTests applies lazy status transitions, persists any flips,
	// and filters out tests the student already completed.
	AvailableTests(ctx context.Context, courseID, studentID string) ([]AvailableTest, error)
	MissedTestDetails(ctx context.Context, testID, studentID string) (*MissedTestDetails, error)
}

type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error)
	Submit(ctx context.Context, req *SubmitAttemptRequest, studentID string) (*ResultResponse, error)
	Result(ctx context.Context, attemptID, userID string) (*ResultResponse, error)

	// History returns the student's completed attempts grouped by course.
	History(ctx context.Context, studentID string) (map[string][]HistoryEntry, error)
}

type AnalyticsService interface {
	CourseAnalysis(ctx context.Context, courseID string) (*CourseAnalysisResponse, error)
	TestScores(ctx context.Context, testID string) (*TestScoresResponse, error)
	StudentAnalysis(ctx context.Context, courseID, studentID string) (*StudentAnalysisResponse, error)
}

type NotificationEventService interface {
	PublishTestReleased(ctx context.Context, test *models.Test, releasedBy string) error
	PublishAttemptSubmitted(ctx context.Context, attempt *models.StudentTest) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Pool() PoolService
	Question() QuestionService
	Test() TestService
	Attempt() AttemptService
	Analytics() AnalyticsService
	Events() NotificationEventService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
