package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/examforge/exam-service/internal/models"
	"github.com/examforge/exam-service/internal/repositories"
	"github.com/examforge/exam-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	question, err := s.buildQuestion(ctx, req, creatorID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created",
		"question_id", question.ID,
		"pool_id", question.PoolID,
		"creator_id", creatorID)

	return question, nil
}

// buildQuestion validates cross-field constraints and resolves the target
// pool. CorrectOptionIndex must address an existing option.
func (s *questionService) buildQuestion(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error) {
	if req.CorrectOptionIndex >= len(req.Options) {
		return nil, fmt.Errorf("correct option index %d is out of range for %d options", req.CorrectOptionIndex, len(req.Options))
	}

	pool, err := s.repo.Pool().GetByID(ctx, nil, req.PoolID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	if pool.CourseID != req.CourseID {
		return nil, fmt.Errorf("pool %s does not belong to course %s", req.PoolID, req.CourseID)
	}

	question := &models.Question{
		CourseID:           req.CourseID,
		PoolID:             req.PoolID,
		Topic:              req.Topic,
		Text:               req.Text,
		CorrectOptionIndex: req.CorrectOptionIndex,
		Difficulty:         strings.ToLower(req.Difficulty),
		CreatedBy:          creatorID,
	}
	if err := question.SetOptions(req.Options); err != nil {
		return nil, err
	}

	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id string, userID string) error {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	role, err := s.repo.User().GetRole(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve user role: %w", err)
	}
	if role != models.RoleAdmin && question.CreatedBy != userID {
		return NewPermissionError(userID, "delete this question")
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted", "question_id", id, "user_id", userID)

	return nil
}

func (s *questionService) ListByCourse(ctx context.Context, courseID string) ([]models.Question, error) {
	questions, err := s.repo.Question().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// Expected column order of the import workbook's first sheet. Row 1 is the
// header and is skipped.
var importColumns = []string{"topic", "questionText", "option1", "option2", "option3", "option4", "correctOptionIndex", "difficulty"}

func (s *questionService) ImportXLSX(ctx context.Context, courseID, poolID string, file io.Reader, creatorID string) (*ImportReport, error) {
	pool, err := s.repo.Pool().GetByID(ctx, nil, poolID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	if pool.CourseID != courseID {
		return nil, fmt.Errorf("pool %s does not belong to course %s", poolID, courseID)
	}

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook has no data rows")
	}

	report := &ImportReport{}
	questions := make([]*models.Question, 0, len(rows)-1)

	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header
		question, rowErr := s.parseImportRow(row, courseID, poolID, creatorID)
		if rowErr != nil {
			report.Errors = append(report.Errors, ImportRowError{Row: rowNum, Message: rowErr.Error()})
			continue
		}
		questions = append(questions, question)
	}

	// All-or-nothing: one bad row rejects the whole file
	if len(report.Errors) > 0 {
		s.logger.Warn("Rejected question import",
			"pool_id", poolID,
			"bad_rows", len(report.Errors),
			"total_rows", len(rows)-1)
		return report, nil
	}

	if err := s.repo.Question().CreateBatch(ctx, nil, questions); err != nil {
		return nil, fmt.Errorf("failed to import questions: %w", err)
	}

	report.Imported = len(questions)
	s.logger.Info("Questions imported",
		"pool_id", poolID,
		"count", report.Imported,
		"creator_id", creatorID)

	return report, nil
}

func (s *questionService) parseImportRow(row []string, courseID, poolID, creatorID string) (*models.Question, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	topic := cell(0)
	text := cell(1)
	if topic == "" || text == "" {
		return nil, fmt.Errorf("topic and questionText are required")
	}

	var options []string
	for i := 2; i <= 5; i++ {
		if opt := cell(i); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("at least 2 options are required, got %d", len(options))
	}

	correctIndex, err := strconv.Atoi(cell(6))
	if err != nil {
		return nil, fmt.Errorf("correctOptionIndex must be a number")
	}
	if correctIndex < 0 || correctIndex >= len(options) {
		return nil, fmt.Errorf("correctOptionIndex %d is out of range for %d options", correctIndex, len(options))
	}

	difficulty := strings.ToLower(cell(7))
	valid := false
	for _, level := range models.Difficulties {
		if level.Matches(difficulty) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("difficulty must be easy, medium, or hard, got %q", cell(7))
	}

	question := &models.Question{
		CourseID:           courseID,
		PoolID:             poolID,
		Topic:              topic,
		Text:               text,
		CorrectOptionIndex: correctIndex,
		Difficulty:         difficulty,
		CreatedBy:          creatorID,
	}
	if err := question.SetOptions(options); err != nil {
		return nil, err
	}

	return question, nil
}
