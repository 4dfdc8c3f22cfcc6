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

type PoolPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewPoolPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.PoolRepository {
	return &PoolPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (p *PoolPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

// Create creates a new pool and invalidates course listings
func (p *PoolPostgreSQL) Create(ctx context.Context, tx *gorm.DB, pool *models.Pool) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Create(pool).Error; err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, p.cacheManager.Pool, fmt.Sprintf("course:%s:*", pool.CourseID))

	return nil
}

// GetByID retrieves a pool by ID with caching
func (p *PoolPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Pool, error) {
	db := p.getDB(tx)
	cacheKey := fmt.Sprintf("id:%s", id)
	var pool models.Pool

	err := p.cacheManager.Pool.CacheOrExecute(ctx, cacheKey, &pool, cache.PoolCacheConfig.TTL, func() (interface{}, error) {
		var dbPool models.Pool
		if err := db.WithContext(ctx).First(&dbPool, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("pool not found with ID %s", id)
			}
			return nil, fmt.Errorf("failed to get pool: %w", err)
		}
		return &dbPool, nil
	})

	if err != nil {
		return nil, err
	}

	return &pool, nil
}

// GetByIDs retrieves pools for a set of ids, chunked to the batch limit
func (p *PoolPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]models.Pool, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := p.getDB(tx)
	pools := make([]models.Pool, 0, len(ids))

	for _, chunk := range repositories.ChunkIDs(ids) {
		var batch []models.Pool
		if err := db.WithContext(ctx).Where("id IN ?", chunk).Find(&batch).Error; err != nil {
			return nil, fmt.Errorf("failed to get pools by ids: %w", err)
		}
		pools = append(pools, batch...)
	}

	return pools, nil
}

// ListByCourse retrieves all pools of a course
func (p *PoolPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]models.Pool, error) {
	db := p.getDB(tx)
	cacheKey := fmt.Sprintf("course:%s:list", courseID)
	var pools []models.Pool

	err := p.cacheManager.Pool.CacheOrExecute(ctx, cacheKey, &pools, cache.PoolCacheConfig.TTL, func() (interface{}, error) {
		var dbPools []models.Pool
		if err := db.WithContext(ctx).
			Where("course_id = ?", courseID).
			Order("created_at ASC").
			Find(&dbPools).Error; err != nil {
			return nil, fmt.Errorf("failed to list pools by course: %w", err)
		}
		return dbPools, nil
	})

	if err != nil {
		return nil, err
	}

	return pools, nil
}
