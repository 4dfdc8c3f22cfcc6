package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/examforge/exam-service/internal/models"
	"github.com/examforge/exam-service/internal/repositories"
	"github.com/examforge/exam-service/internal/validator"
)

type poolService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewPoolService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) PoolService {
	return &poolService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *poolService) Create(ctx context.Context, req *CreatePoolRequest, creatorID string) (*PoolResponse, error) {
	s.logger.Info("Creating pool", "course_id", req.CourseID, "name", req.Name, "creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	pool := &models.Pool{
		CourseID:  req.CourseID,
		Name:      req.Name,
		CreatedBy: creatorID,
	}

	if err := s.repo.Pool().Create(ctx, nil, pool); err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	return &PoolResponse{Pool: pool}, nil
}

func (s *poolService) ListByCourse(ctx context.Context, courseID string) ([]*PoolResponse, error) {
	pools, err := s.repo.Pool().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	responses := make([]*PoolResponse, 0, len(pools))
	for i := range pools {
		count, err := s.repo.Question().CountByPool(ctx, nil, pools[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count questions for pool %s: %w", pools[i].ID, err)
		}
		responses = append(responses, &PoolResponse{
			Pool:          &pools[i],
			QuestionCount: count,
		})
	}

	return responses, nil
}
