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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// Create creates a new question and invalidates pool-level caches
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.PoolID, question.CourseID)

	return nil
}

// CreateBatch creates multiple questions in one insert, used by bulk import
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}

	seen := make(map[string]bool)
	for _, question := range questions {
		if seen[question.PoolID] {
			continue
		}
		seen[question.PoolID] = true
		cache.InvalidateQuestionCache(ctx, q.cacheManager, question.PoolID, question.CourseID)
	}

	return nil
}

// GetByID retrieves a question by ID with caching
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%s", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("question not found with ID %s", id)
			}
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
		return &dbQuestion, nil
	})

	if err != nil {
		return nil, err
	}

	return &question, nil
}

// GetByIDs retrieves questions for a set of ids, chunked to the batch limit
func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := q.getDB(tx)
	questions := make([]models.Question, 0, len(ids))

	for _, chunk := range repositories.ChunkIDs(ids) {
		var batch []models.Question
		if err := db.WithContext(ctx).Where("id IN ?", chunk).Find(&batch).Error; err != nil {
			return nil, fmt.Errorf("failed to get questions by ids: %w", err)
		}
		questions = append(questions, batch...)
	}

	return questions, nil
}

// Delete removes a question. Released tests keep working because attempts
// carry full question snapshots.
func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := q.getDB(tx)

	var question models.Question
	if err := db.WithContext(ctx).Select("id, pool_id, course_id").First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("question not found with ID %s", id)
		}
		return fmt.Errorf("failed to get question before delete: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&models.Question{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	cache.SafeDelete(ctx, q.cacheManager.Question, fmt.Sprintf("id:%s", id))
	cache.InvalidateQuestionCache(ctx, q.cacheManager, question.PoolID, question.CourseID)

	return nil
}

// ListByCourse retrieves all questions of a course
func (q *QuestionPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]models.Question, error) {
	db := q.getDB(tx)

	var questions []models.Question
	if err := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to list questions by course: %w", err)
	}

	return questions, nil
}

// ListByPools retrieves the question inventory for one allocation call:
// every question of the course restricted to the selected pools.
func (q *QuestionPostgreSQL) ListByPools(ctx context.Context, tx *gorm.DB, courseID string, poolIDs []string) ([]models.Question, error) {
	if len(poolIDs) == 0 {
		return nil, nil
	}
	if len(poolIDs) > repositories.BatchQueryLimit {
		return nil, fmt.Errorf("pool selection exceeds batch limit of %d", repositories.BatchQueryLimit)
	}

	db := q.getDB(tx)

	var questions []models.Question
	if err := db.WithContext(ctx).
		Where("course_id = ? AND pool_id IN ?", courseID, poolIDs).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to list questions by pools: %w", err)
	}

	return questions, nil
}

// CountByPool counts the questions in a pool
func (q *QuestionPostgreSQL) CountByPool(ctx context.Context, tx *gorm.DB, poolID string) (int64, error) {
	db := q.getDB(tx)

	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("pool_id = ?", poolID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions by pool: %w", err)
	}

	return count, nil
}
