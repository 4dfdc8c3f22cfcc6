package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/examforge/exam-service/internal/models"
	"gorm.io/gorm"
)

// BatchQueryLimit caps the number of ids one IN-style batch query may carry.
// Callers chunk larger id sets; the allocator surfaces the same limit as its
// pool-selection cap.
const BatchQueryLimit = 10

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	CourseID  *string            `json:"course_id"`
	Status    *models.TestStatus `json:"status"`
	CreatedBy *string            `json:"created_by"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type AttemptFilters struct {
	StudentID *string               `json:"student_id"`
	CourseID  *string               `json:"course_id"`
	Status    *models.AttemptStatus `json:"status"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

// ===== ENTITY REPOSITORIES =====

// QuestionRepository covers question-specific persistence. Questions are
// write-once: there is deliberately no Update.
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]models.Question, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	ListByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]models.Question, error)
	// ListByPools materializes the inventory one allocation call works on:
	// every question of the course restricted to the given pools. The caller
	// enforces len(poolIDs) <= BatchQueryLimit.
	ListByPools(ctx context.Context, tx *gorm.DB, courseID string, poolIDs []string) ([]models.Question, error)
	CountByPool(ctx context.Context, tx *gorm.DB, poolID string) (int64, error)
}

type PoolRepository interface {
	Create(ctx context.Context, tx *gorm.DB, pool *models.Pool) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Pool, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]models.Pool, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]models.Pool, error)
}

type TestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Test, error)
	List(ctx context.Context, tx *gorm.DB, filters TestFilters) ([]models.Test, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]models.Test, error)
	// UpdateStatus persists a lazily detected scheduling transition. It is
	// the only mutation a released test ever sees.
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.TestStatus) error
}

type StudentTestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.StudentTest) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.StudentTest, error)
	// GetByStudentAndTest returns the single in-progress or completed
	// attempt for the (student, test) pair, or a not-found error.
	GetByStudentAndTest(ctx context.Context, tx *gorm.DB, studentID, testID string) (*models.StudentTest, error)
	Update(ctx context.Context, tx *gorm.DB, attempt *models.StudentTest) error

	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]models.StudentTest, error)
	ListCompletedByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]models.StudentTest, error)
	ListCompletedByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID string) ([]models.StudentTest, error)
	ListCompletedByTest(ctx context.Context, tx *gorm.DB, testID string) ([]models.StudentTest, error)
	ListCompletedByTests(ctx context.Context, tx *gorm.DB, testIDs []string) ([]models.StudentTest, error)
}

// UserRepository reads user profiles from the identity provider.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIDs resolves profiles in batches of BatchQueryLimit; unknown ids
	// are simply absent from the result map.
	GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	GetRole(ctx context.Context, id string) (models.UserRole, error)
}

// ===== SHARED ERROR HELPERS =====

// IsNotFoundError reports whether err represents a missing record, either
// gorm's sentinel or a repository-wrapped message.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	return strings.Contains(err.Error(), "not found")
}

// ChunkIDs splits ids into BatchQueryLimit-sized chunks for IN queries.
func ChunkIDs(ids []string) [][]string {
	var chunks [][]string
	for len(ids) > 0 {
		n := BatchQueryLimit
		if len(ids) < n {
			n = len(ids)
		}
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}
