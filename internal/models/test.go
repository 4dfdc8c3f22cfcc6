package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TestStatus string

const (
	TestScheduled TestStatus = "scheduled"
	TestActive    TestStatus = "active"
	TestInactive  TestStatus = "inactive"
	// TestCompleted exists for API compatibility; availability is tracked
	// through active/inactive, completion lives on the attempt record.
	TestCompleted TestStatus = "completed"
)

// DifficultyCounts holds exact per-difficulty question counts for one pool
// in a custom selection policy.
type DifficultyCounts struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

func (c DifficultyCounts) Total() int {
	return c.Easy + c.Medium + c.Hard
}

// DifficultyDistribution holds the global percentage split of a
// percentage-mode selection policy. The three values must sum to 100.
type DifficultyDistribution struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// QuestionConfig is the persisted selection policy of a test that defers
// allocation to student start time. The wire shape is loose on purpose:
// either the CustomPoolDistribution flag or a non-empty PoolQuestionMap
// activates custom mode (the map's presence wins); the allocator resolves
// this exactly once at the deserialization boundary.
type QuestionConfig struct {
	SelectedPoolIDs        []string                    `json:"selectedPoolIds"`
	TotalQuestions         int                         `json:"totalQuestions"`
	DifficultyDistribution DifficultyDistribution      `json:"difficultyDistribution"`
	CustomPoolDistribution bool                        `json:"customPoolDistribution"`
	PoolQuestionMap        map[string]DifficultyCounts `json:"poolQuestionMap"`
}

// Test is a faculty release record. Exactly one of QuestionIDs (whole-pool
// and shared-random modes) or QuestionConfig (per-student-random mode)
// determines how a student's question set is obtained at start time.
type Test struct {
	ID              string     `json:"id" gorm:"primaryKey;size:36"`
	Name            string     `json:"testName" gorm:"not null;size:200"`
	CourseID        string     `json:"courseId" gorm:"not null;index;size:100"`
	DurationMinutes int        `json:"durationMinutes" gorm:"not null"`
	Status          TestStatus `json:"status" gorm:"not null;index;size:20"`

	CreatedBy string    `json:"createdBy" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"createdAt"`

	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	ScheduledEnd *time.Time `json:"scheduledEnd,omitempty"`

	SourcePoolIDs  datatypes.JSON `json:"sourcePoolIds" gorm:"type:jsonb"`
	QuestionIDs    datatypes.JSON `json:"questionIds,omitempty" gorm:"type:jsonb"`
	QuestionConfig datatypes.JSON `json:"questionConfig,omitempty" gorm:"type:jsonb"`

	TotalQuestions int `json:"totalQuestions"`
}

func (t *Test) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// HasMaterializedQuestions reports whether the test carries a shared,
// release-time question-id list (as opposed to a deferred per-student
// selection policy).
func (t *Test) HasMaterializedQuestions() bool {
	return len(t.QuestionIDs) > 0 && string(t.QuestionIDs) != "null"
}

func (t *Test) QuestionIDList() ([]string, error) {
	if !t.HasMaterializedQuestions() {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(t.QuestionIDs, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode question ids for test %s: %w", t.ID, err)
	}
	return ids, nil
}

func (t *Test) SetQuestionIDs(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode question ids: %w", err)
	}
	t.QuestionIDs = data
	return nil
}

func (t *Test) Config() (*QuestionConfig, error) {
	if len(t.QuestionConfig) == 0 || string(t.QuestionConfig) == "null" {
		return nil, nil
	}
	var cfg QuestionConfig
	if err := json.Unmarshal(t.QuestionConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode question config for test %s: %w", t.ID, err)
	}
	return &cfg, nil
}

func (t *Test) SetConfig(cfg *QuestionConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode question config: %w", err)
	}
	t.QuestionConfig = data
	return nil
}

func (t *Test) SetSourcePoolIDs(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode source pool ids: %w", err)
	}
	t.SourcePoolIDs = data
	return nil
}

func (t *Test) SourcePoolIDList() ([]string, error) {
	if len(t.SourcePoolIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(t.SourcePoolIDs, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode source pool ids for test %s: %w", t.ID, err)
	}
	return ids, nil
}

// NextStatus is the pure scheduling transition: scheduled tests become
// active once the scheduled start passes, active tests become inactive once
// the scheduled end passes. The caller persists the flip as a separate,
// explicit step; this function has no side effects.
func NextStatus(current TestStatus, now time.Time, scheduledFor, scheduledEnd *time.Time) TestStatus {
	status := current
	if status == TestScheduled && scheduledFor != nil && !scheduledFor.After(now) {
		status = TestActive
	}
	if status == TestActive && scheduledEnd != nil && !scheduledEnd.After(now) {
		status = TestInactive
	}
	return status
}

// Expired reports whether the test's scheduled end has passed.
func (t *Test) Expired(now time.Time) bool {
	return t.ScheduledEnd != nil && !t.ScheduledEnd.After(now)
}
