package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// QuestionSnapshot is the self-contained copy of a question embedded in a
// StudentTest. It includes the correct answer and therefore must never be
// sent verbatim on the student-facing read path; use Redacted for that.
type QuestionSnapshot struct {
	ID                 string   `json:"id"`
	PoolID             string   `json:"poolId"`
	Topic              string   `json:"topic"`
	Text               string   `json:"questionText"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Difficulty         string   `json:"difficulty"`
}

// RedactedQuestion is the student-facing view of a snapshot with the
// correct option stripped. The redaction is a boundary contract, not an
// optimization.
type RedactedQuestion struct {
	ID         string   `json:"id"`
	PoolID     string   `json:"poolId"`
	Topic      string   `json:"topic"`
	Text       string   `json:"questionText"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
}

func (s QuestionSnapshot) Redacted() RedactedQuestion {
	return RedactedQuestion{
		ID:         s.ID,
		PoolID:     s.PoolID,
		Topic:      s.Topic,
		Text:       s.Text,
		Options:    s.Options,
		Difficulty: s.Difficulty,
	}
}

// TopicStat is the per-topic correct/total pair of a completed attempt's
// analysis map.
type TopicStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// StudentTest is one student's materialized, time-boxed instance of a test.
// It is created once at start time with a private question snapshot, mutated
// exactly once at submission time (status, answers, score, analysis, end
// time) and never again. At most one StudentTest per (student, test) may be
// in-progress or completed; a partial unique index enforces the guarantee at
// the storage boundary.
type StudentTest struct {
	ID             string `json:"id" gorm:"primaryKey;size:36"`
	StudentID      string `json:"studentId" gorm:"not null;size:255;uniqueIndex:idx_student_original_test"`
	OriginalTestID string `json:"originalTestId" gorm:"not null;size:36;uniqueIndex:idx_student_original_test"`

	// Denormalized from the originating test.
	TestName        string `json:"testName" gorm:"not null;size:200"`
	CourseID        string `json:"courseId" gorm:"not null;index;size:100"`
	DurationMinutes int    `json:"durationMinutes" gorm:"not null"`

	Status    AttemptStatus `json:"status" gorm:"not null;index;size:20"`
	StartTime time.Time     `json:"startTime"`
	EndTime   *time.Time    `json:"endTime,omitempty"`

	// Questions holds the full snapshot list including correct answers.
	Questions datatypes.JSON `json:"questions" gorm:"type:jsonb;not null"`
	// Answers maps question id -> chosen option index; unanswered questions
	// are simply absent keys.
	Answers  datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	Score    float64        `json:"score"`
	Analysis datatypes.JSON `json:"analysis,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (st *StudentTest) BeforeCreate(tx *gorm.DB) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	return nil
}

func (st *StudentTest) QuestionSnapshots() ([]QuestionSnapshot, error) {
	var snaps []QuestionSnapshot
	if err := json.Unmarshal(st.Questions, &snaps); err != nil {
		return nil, fmt.Errorf("failed to decode question snapshots for attempt %s: %w", st.ID, err)
	}
	return snaps, nil
}

func (st *StudentTest) SetQuestionSnapshots(snaps []QuestionSnapshot) error {
	data, err := json.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("failed to encode question snapshots: %w", err)
	}
	st.Questions = data
	return nil
}

func (st *StudentTest) AnswerMap() (map[string]int, error) {
	if len(st.Answers) == 0 || string(st.Answers) == "null" {
		return map[string]int{}, nil
	}
	var answers map[string]int
	if err := json.Unmarshal(st.Answers, &answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers for attempt %s: %w", st.ID, err)
	}
	return answers, nil
}

func (st *StudentTest) SetAnswerMap(answers map[string]int) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	st.Answers = data
	return nil
}

func (st *StudentTest) AnalysisMap() (map[string]TopicStat, error) {
	if len(st.Analysis) == 0 || string(st.Analysis) == "null" {
		return map[string]TopicStat{}, nil
	}
	var analysis map[string]TopicStat
	if err := json.Unmarshal(st.Analysis, &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis for attempt %s: %w", st.ID, err)
	}
	return analysis, nil
}

func (st *StudentTest) SetAnalysisMap(analysis map[string]TopicStat) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	st.Analysis = data
	return nil
}
