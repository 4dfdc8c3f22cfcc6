package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/examforge/exam-service/internal/cache"
	"github.com/examforge/exam-service/internal/models"
	"github.com/examforge/exam-service/internal/repositories"
)

type StudentTestPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewStudentTestPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.StudentTestRepository {
	return &StudentTestPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *StudentTestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create persists a new attempt. The unique index on (student_id,
// original_test_id) is the one-attempt-per-test guard of last resort.
func (s *StudentTestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.StudentTest) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, s.cacheManager.Attempt, fmt.Sprintf("student:%s:*", attempt.StudentID))

	return nil
}

// GetByID retrieves an attempt by ID
func (s *StudentTestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.StudentTest, error) {
	db := s.getDB(tx)

	var attempt models.StudentTest
	if err := db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("attempt not found with ID %s", id)
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	return &attempt, nil
}

// GetByStudentAndTest retrieves the single attempt for a (student, test) pair
func (s *StudentTestPostgreSQL) GetByStudentAndTest(ctx context.Context, tx *gorm.DB, studentID, testID string) (*models.StudentTest, error) {
	db := s.getDB(tx)

	var attempt models.StudentTest
	if err := db.WithContext(ctx).
		Where("student_id = ? AND original_test_id = ?", studentID, testID).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("attempt not found for student %s on test %s", studentID, testID)
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	return &attempt, nil
}

// Update saves attempt changes, used by submission
func (s *StudentTestPostgreSQL) Update(ctx context.Context, tx *gorm.DB, attempt *models.StudentTest) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Save(attempt).Error; err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}

	cache.InvalidateAttemptCache(ctx, s.cacheManager, attempt.StudentID, attempt.OriginalTestID, attempt.CourseID)

	return nil
}

// List retrieves attempts matching the given filters
func (s *StudentTestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]models.StudentTest, error) {
	db := s.getDB(tx)

	query := db.WithContext(ctx).Model(&models.StudentTest{})
	query = s.helpers.ApplyAttemptFilters(query, filters)
	query = s.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	var attempts []models.StudentTest
	if err := query.Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, nil
}

// ListCompletedByStudent retrieves a student's completed attempts, oldest
// first so trend analysis reads chronologically.
func (s *StudentTestPostgreSQL) ListCompletedByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]models.StudentTest, error) {
	db := s.getDB(tx)

	var attempts []models.StudentTest
	if err := db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, models.AttemptCompleted).
		Order("end_time ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list completed attempts by student: %w", err)
	}

	return attempts, nil
}

// ListCompletedByStudentAndCourse restricts completed attempts to one course
func (s *StudentTestPostgreSQL) ListCompletedByStudentAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID string) ([]models.StudentTest, error) {
	db := s.getDB(tx)

	var attempts []models.StudentTest
	if err := db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND status = ?", studentID, courseID, models.AttemptCompleted).
		Order("end_time ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list completed attempts by student and course: %w", err)
	}

	return attempts, nil
}

// ListCompletedByTest retrieves all completed attempts for one test
func (s *StudentTestPostgreSQL) ListCompletedByTest(ctx context.Context, tx *gorm.DB, testID string) ([]models.StudentTest, error) {
	db := s.getDB(tx)

	var attempts []models.StudentTest
	if err := db.WithContext(ctx).
		Where("original_test_id = ? AND status = ?", testID, models.AttemptCompleted).
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list completed attempts by test: %w", err)
	}

	return attempts, nil
}

// ListCompletedByTests retrieves completed attempts across a set of tests,
// chunked to the batch limit.
func (s *StudentTestPostgreSQL) ListCompletedByTests(ctx context.Context, tx *gorm.DB, testIDs []string) ([]models.StudentTest, error) {
	if len(testIDs) == 0 {
		return nil, nil
	}

	db := s.getDB(tx)
	var attempts []models.StudentTest

	for _, chunk := range repositories.ChunkIDs(testIDs) {
		var batch []models.StudentTest
		if err := db.WithContext(ctx).
			Where("original_test_id IN ? AND status = ?", chunk, models.AttemptCompleted).
			Find(&batch).Error; err != nil {
			return nil, fmt.Errorf("failed to list completed attempts by tests: %w", err)
		}
		attempts = append(attempts, batch...)
	}

	return attempts, nil
}
