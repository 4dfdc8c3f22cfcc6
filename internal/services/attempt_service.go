package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/examforge/exam-service/internal/allocator"
	"github.com/examforge/exam-service/internal/models"
	"github.com/examforge/exam-service/internal/repositories"
	"github.com/examforge/exam-service/internal/scoring"
	"github.com/examforge/exam-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	events    NotificationEventService

	rng *rand.Rand
	mu  sync.Mutex
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, events NotificationEventService, rng *rand.Rand) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		events:    events,
		rng:       rng,
	}
}

// ===== START =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting attempt", "test_id", req.TestID, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test, err := s.repo.Test().GetByID(ctx, nil, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	now := time.Now()
	if err := s.checkStartable(ctx, test, now); err != nil {
		return nil, err
	}

	// Resume path: an in-progress attempt is returned as-is, a completed
	// one blocks the start.
	if existing, err := s.repo.StudentTest().GetByStudentAndTest(ctx, nil, studentID, test.ID); err == nil {
		if existing.Status == models.AttemptCompleted {
			return nil, ErrAlreadyTaken
		}
		s.logger.Info("Resuming attempt", "attempt_id", existing.ID, "student_id", studentID)
		return s.attemptResponse(existing, true)
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing attempt: %w", err)
	}

	snapshots, err := s.materializeQuestions(ctx, test)
	if err != nil {
		return nil, err
	}

	// Existence check and create run in one transaction so two racing
	// starts cannot both insert; the unique index backs this up.
	var attempt *models.StudentTest
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if existing, err := txRepo.StudentTest().GetByStudentAndTest(ctx, nil, studentID, test.ID); err == nil {
			attempt = existing
			return nil
		} else if !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to check existing attempt: %w", err)
		}

		attempt = &models.StudentTest{
			StudentID:       studentID,
			OriginalTestID:  test.ID,
			TestName:        test.Name,
			CourseID:        test.CourseID,
			DurationMinutes: test.DurationMinutes,
			Status:          models.AttemptInProgress,
			StartTime:       now,
		}
		if err := attempt.SetQuestionSnapshots(snapshots); err != nil {
			return err
		}

		return txRepo.StudentTest().Create(ctx, nil, attempt)
	})
	if err != nil {
		return nil, err
	}

	if attempt.Status == models.AttemptCompleted {
		return nil, ErrAlreadyTaken
	}

	resumed := !attempt.StartTime.Equal(now)
	return s.attemptResponse(attempt, resumed)
}

// checkStartable reconciles the test's scheduling status and rejects starts
// outside the active window. An expiry flip is persisted before the error
// is returned.
func (s *attemptService) checkStartable(ctx context.Context, test *models.Test, now time.Time) error {
	next := models.NextStatus(test.Status, now, test.ScheduledFor, test.ScheduledEnd)
	if next != test.Status {
		if err := s.repo.Test().UpdateStatus(ctx, nil, test.ID, next); err != nil {
			s.logger.Error("Failed to persist test status transition",
				"test_id", test.ID,
				"from", test.Status,
				"to", next,
				"error", err)
		}
		test.Status = next
	}

	switch test.Status {
	case models.TestActive:
		return nil
	case models.TestScheduled:
		return ErrTestNotActive
	default:
		if test.Expired(now) {
			return ErrTestExpired
		}
		return ErrTestNotActive
	}
}

// materializeQuestions produces this student's snapshot list: the shared
// release-time set when one exists, otherwise a fresh allocator run against
// the pools as they exist right now.
func (s *attemptService) materializeQuestions(ctx context.Context, test *models.Test) ([]models.QuestionSnapshot, error) {
	var questions []models.Question

	if test.HasMaterializedQuestions() {
		ids, err := test.QuestionIDList()
		if err != nil {
			return nil, err
		}
		questions, err = s.repo.Question().GetByIDs(ctx, nil, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load test questions: %w", err)
		}
	} else {
		cfg, err := test.Config()
		if err != nil {
			return nil, err
		}
		policy, err := allocator.ResolvePolicy(cfg)
		if err != nil {
			return nil, err
		}

		inventory, err := s.repo.Question().ListByPools(ctx, nil, test.CourseID, cfg.SelectedPoolIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load question inventory: %w", err)
		}

		s.mu.Lock()
		questions, err = allocator.Allocate(inventory, policy, s.rng)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	snapshots := make([]models.QuestionSnapshot, 0, len(questions))
	for i := range questions {
		snap, err := questions[i].Snapshot()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

// ===== SUBMIT =====

func (s *attemptService) Submit(ctx context.Context, req *SubmitAttemptRequest, studentID string) (*ResultResponse, error) {
	s.logger.Info("Submitting attempt", "test_id", req.TestID, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	attempt, err := s.repo.StudentTest().GetByStudentAndTest(ctx, nil, studentID, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.Status == models.AttemptCompleted {
		return nil, ErrAttemptAlreadySubmitted
	}

	snapshots, err := attempt.QuestionSnapshots()
	if err != nil {
		return nil, err
	}

	result := scoring.Score(snapshots, req.Answers)

	endTime := time.Now()
	attempt.Status = models.AttemptCompleted
	attempt.Score = result.Score
	attempt.EndTime = &endTime
	if err := attempt.SetAnswerMap(req.Answers); err != nil {
		return nil, err
	}
	if err := attempt.SetAnalysisMap(result.Analysis); err != nil {
		return nil, err
	}

	if err := s.repo.StudentTest().Update(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	s.logger.Info("Attempt submitted",
		"attempt_id", attempt.ID,
		"student_id", studentID,
		"score", result.Score)

	if s.events != nil {
		if err := s.events.PublishAttemptSubmitted(ctx, attempt); err != nil {
			s.logger.Error("Failed to publish attempt submitted event",
				"attempt_id", attempt.ID,
				"error", err)
		}
	}

	return s.resultResponse(attempt)
}

// ===== RESULT AND HISTORY =====

func (s *attemptService) Result(ctx context.Context, attemptID, userID string) (*ResultResponse, error) {
	attempt, err := s.repo.StudentTest().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.StudentID != userID {
		role, err := s.repo.User().GetRole(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user role: %w", err)
		}
		if role == models.RoleStudent {
			return nil, NewPermissionError(userID, "view this result")
		}
	}

	if attempt.Status != models.AttemptCompleted {
		return nil, ErrAttemptNotCompleted
	}

	return s.resultResponse(attempt)
}

func (s *attemptService) History(ctx context.Context, studentID string) (map[string][]HistoryEntry, error) {
	attempts, err := s.repo.StudentTest().ListCompletedByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed attempts: %w", err)
	}

	history := make(map[string][]HistoryEntry)
	for _, attempt := range attempts {
		history[attempt.CourseID] = append(history[attempt.CourseID], HistoryEntry{
			AttemptID: attempt.ID,
			TestID:    attempt.OriginalTestID,
			TestName:  attempt.TestName,
			Score:     attempt.Score,
			EndTime:   attempt.EndTime,
		})
	}

	return history, nil
}

// ===== RESPONSE BUILDERS =====

func (s *attemptService) attemptResponse(attempt *models.StudentTest, resumed bool) (*AttemptResponse, error) {
	snapshots, err := attempt.QuestionSnapshots()
	if err != nil {
		return nil, err
	}

	redacted := make([]models.RedactedQuestion, 0, len(snapshots))
	for _, snap := range snapshots {
		redacted = append(redacted, snap.Redacted())
	}

	return &AttemptResponse{
		AttemptID:       attempt.ID,
		TestID:          attempt.OriginalTestID,
		TestName:        attempt.TestName,
		CourseID:        attempt.CourseID,
		DurationMinutes: attempt.DurationMinutes,
		StartTime:       attempt.StartTime,
		Status:          attempt.Status,
		Questions:       redacted,
		Resumed:         resumed,
	}, nil
}

func (s *attemptService) resultResponse(attempt *models.StudentTest) (*ResultResponse, error) {
	snapshots, err := attempt.QuestionSnapshots()
	if err != nil {
		return nil, err
	}
	answers, err := attempt.AnswerMap()
	if err != nil {
		return nil, err
	}
	analysis, err := attempt.AnalysisMap()
	if err != nil {
		return nil, err
	}

	return &ResultResponse{
		AttemptID: attempt.ID,
		TestID:    attempt.OriginalTestID,
		TestName:  attempt.TestName,
		CourseID:  attempt.CourseID,
		Score:     attempt.Score,
		Analysis:  analysis,
		Answers:   answers,
		Questions: snapshots,
		EndTime:   attempt.EndTime,
	}, nil
}
