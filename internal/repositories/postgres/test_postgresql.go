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

type TestPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewTestPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TestRepository {
	return &TestPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (t *TestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

// Create persists a released test and invalidates course listings
func (t *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Create(test).Error; err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}

	cache.InvalidateTestCache(ctx, t.cacheManager, test.ID, test.CourseID)

	return nil
}

// GetByID retrieves a test by ID. Not cached: status flips lazily on read
// and a stale status would leak an expired test to students.
func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Test, error) {
	db := t.getDB(tx)

	var test models.Test
	if err := db.WithContext(ctx).First(&test, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("test not found with ID %s", id)
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	return &test, nil
}

// List retrieves tests matching the given filters
func (t *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]models.Test, error) {
	db := t.getDB(tx)

	query := db.WithContext(ctx).Model(&models.Test{})
	query = t.helpers.ApplyTestFilters(query, filters)
	query = t.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	var tests []models.Test
	if err := query.Find(&tests).Error; err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	return tests, nil
}

// ListByCourse retrieves all tests of a course, newest first
func (t *TestPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]models.Test, error) {
	db := t.getDB(tx)

	var tests []models.Test
	if err := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&tests).Error; err != nil {
		return nil, fmt.Errorf("failed to list tests by course: %w", err)
	}

	return tests, nil
}

// UpdateStatus persists a lazily detected scheduling transition
func (t *TestPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.TestStatus) error {
	db := t.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.Test{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update test status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("test not found with ID %s", id)
	}

	var test models.Test
	if err := db.WithContext(ctx).Select("id, course_id").First(&test, "id = ?", id).Error; err == nil {
		cache.InvalidateTestCache(ctx, t.cacheManager, test.ID, test.CourseID)
	}

	return nil
}
