package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// Difficulties enumerates the levels in canonical order. Allocation and
// reporting code iterates this slice instead of map keys so output is
// deterministic.
var Difficulties = []DifficultyLevel{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Matches reports whether the stored difficulty tag equals d. Tags are
// compared case-insensitively on read but preserved as written.
func (d DifficultyLevel) Matches(tag string) bool {
	return strings.EqualFold(string(d), tag)
}

// Question is a single multiple-choice question. Questions are immutable
// after creation: they are only ever created (singly or via bulk import)
// and deleted, never updated in place.
type Question struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	CourseID string `json:"courseId" gorm:"not null;index;size:100"`
	PoolID   string `json:"poolId" gorm:"not null;index;size:36"`

	Topic string `json:"topic" gorm:"not null;size:200"`
	Text  string `json:"questionText" gorm:"type:text;not null"`

	// Options stored as JSONB []string, 2-4 entries.
	Options            datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	CorrectOptionIndex int            `json:"correctOptionIndex" gorm:"not null"`

	Difficulty string `json:"difficulty" gorm:"not null;index;size:20"`

	CreatedBy string    `json:"createdBy" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"createdAt"`

	// Relations
	Pool *Pool `json:"-" gorm:"foreignKey:PoolID"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// OptionList decodes the JSONB options column.
func (q *Question) OptionList() ([]string, error) {
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode options for question %s: %w", q.ID, err)
	}
	return opts, nil
}

// SetOptions encodes the option strings into the JSONB column.
func (q *Question) SetOptions(opts []string) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	q.Options = data
	return nil
}

// Snapshot copies the question into the self-contained form embedded in a
// student's attempt record. Mutations to the source question after the
// snapshot is taken must not affect it.
func (q *Question) Snapshot() (QuestionSnapshot, error) {
	opts, err := q.OptionList()
	if err != nil {
		return QuestionSnapshot{}, err
	}
	return QuestionSnapshot{
		ID:                 q.ID,
		PoolID:             q.PoolID,
		Topic:              q.Topic,
		Text:               q.Text,
		Options:            opts,
		CorrectOptionIndex: q.CorrectOptionIndex,
		Difficulty:         q.Difficulty,
	}, nil
}

// Pool is a named, faculty-curated group of questions within a course, the
// unit of reuse for test assembly. Pools are created once and never updated.
type Pool struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CourseID  string    `json:"courseId" gorm:"not null;index;size:100"`
	Name      string    `json:"poolName" gorm:"not null;size:200"`
	CreatedBy string    `json:"createdBy" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Pool) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
