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
	"github.com/examforge/exam-service/internal/validator"
)

type testService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	events    NotificationEventService

	// rng is injected so release outcomes are reproducible under test.
	// rand.Rand is not safe for concurrent use; mu serializes draws.
	rng *rand.Rand
	mu  sync.Mutex
}

func NewTestService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, events NotificationEventService, rng *rand.Rand) TestService {
	return &testService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		events:    events,
		rng:       rng,
	}
}

// ===== RELEASE OPERATIONS =====

func (s *testService) ReleaseRandom(ctx context.Context, req *ReleaseRandomTestRequest, creatorID string) (*models.Test, error) {
	s.logger.Info("Releasing random test",
		"test_name", req.TestName,
		"course_id", req.CourseID,
		"per_student", req.PerStudent,
		"creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if errs := s.validator.GetBusinessValidator().ValidateTestRelease(req); len(errs) > 0 {
		return nil, errs
	}

	cfg := req.QuestionConfig
	if err := allocator.ValidatePoolSelection(cfg.SelectedPoolIDs); err != nil {
		return nil, err
	}
	if err := s.verifyPoolsInCourse(ctx, cfg.SelectedPoolIDs, req.CourseID); err != nil {
		return nil, err
	}

	// Resolve the policy up front so a malformed config fails the release,
	// not some student's start.
	policy, err := allocator.ResolvePolicy(&cfg)
	if err != nil {
		return nil, err
	}

	test := &models.Test{
		Name:            req.TestName,
		CourseID:        req.CourseID,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       creatorID,
		ScheduledFor:    req.ScheduledFor,
		ScheduledEnd:    req.ScheduledEnd,
		Status:          initialStatus(req.ScheduledFor, time.Now()),
	}
	if err := test.SetSourcePoolIDs(cfg.SelectedPoolIDs); err != nil {
		return nil, err
	}

	if req.PerStudent {
		// Defer allocation: each student draws a fresh set at start time.
		// Inventory sufficiency is deliberately checked then, against the
		// pools as they exist at that moment.
		if err := test.SetConfig(&cfg); err != nil {
			return nil, err
		}
		test.TotalQuestions = requestedTotal(policy)
	} else {
		inventory, err := s.repo.Question().ListByPools(ctx, nil, req.CourseID, cfg.SelectedPoolIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load question inventory: %w", err)
		}

		selected, err := s.allocate(inventory, policy)
		if err != nil {
			return nil, err
		}

		if err := test.SetQuestionIDs(allocator.QuestionIDs(selected)); err != nil {
			return nil, err
		}
		test.TotalQuestions = len(selected)
	}

	if err := s.repo.Test().Create(ctx, nil, test); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}

	s.publishReleased(ctx, test, creatorID)

	return test, nil
}

func (s *testService) ReleaseWholePool(ctx context.Context, req *ReleaseWholePoolRequest, creatorID string) (*models.Test, error) {
	s.logger.Info("Releasing whole pool test",
		"test_name", req.TestName,
		"pool_id", req.PoolID,
		"creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if errs := s.validator.GetBusinessValidator().ValidateWholePoolRelease(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.verifyPoolsInCourse(ctx, []string{req.PoolID}, req.CourseID); err != nil {
		return nil, err
	}

	inventory, err := s.repo.Question().ListByPools(ctx, nil, req.CourseID, []string{req.PoolID})
	if err != nil {
		return nil, fmt.Errorf("failed to load pool questions: %w", err)
	}

	s.mu.Lock()
	selected, err := allocator.WholePool(inventory, s.rng)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	test := &models.Test{
		Name:            req.TestName,
		CourseID:        req.CourseID,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       creatorID,
		ScheduledFor:    req.ScheduledFor,
		ScheduledEnd:    req.ScheduledEnd,
		Status:          initialStatus(req.ScheduledFor, time.Now()),
		TotalQuestions:  len(selected),
	}
	if err := test.SetSourcePoolIDs([]string{req.PoolID}); err != nil {
		return nil, err
	}
	if err := test.SetQuestionIDs(allocator.QuestionIDs(selected)); err != nil {
		return nil, err
	}

	if err := s.repo.Test().Create(ctx, nil, test); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}

	s.publishReleased(ctx, test, creatorID)

	return test, nil
}

// ===== STUDENT-FACING READS =====

func (s *testService) AvailableTests(ctx context.Context, courseID, studentID string) ([]AvailableTest, error) {
	tests, err := s.repo.Test().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	completed, err := s.completedTestIDs(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	available := make([]AvailableTest, 0, len(tests))

	for i := range tests {
		test := &tests[i]
		status := s.reconcileStatus(ctx, test, now)

		if status != models.TestActive {
			continue
		}
		if completed[test.ID] {
			continue
		}

		available = append(available, AvailableTest{
			ID:              test.ID,
			TestName:        test.Name,
			CourseID:        test.CourseID,
			DurationMinutes: test.DurationMinutes,
			Status:          status,
			TotalQuestions:  test.TotalQuestions,
			ScheduledFor:    test.ScheduledFor,
			ScheduledEnd:    test.ScheduledEnd,
		})
	}

	return available, nil
}

func (s *testService) MissedTestDetails(ctx context.Context, testID, studentID string) (*MissedTestDetails, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	status := s.reconcileStatus(ctx, test, time.Now())
	if status == models.TestActive || status == models.TestScheduled {
		return nil, ErrTestNotActive
	}

	if _, err := s.repo.StudentTest().GetByStudentAndTest(ctx, nil, studentID, testID); err == nil {
		// Taken tests are reviewed through the result endpoint
		return nil, ErrAlreadyTaken
	}

	if !test.HasMaterializedQuestions() {
		return nil, ErrMissedDetailsUnavailable
	}

	ids, err := test.QuestionIDList()
	if err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load test questions: %w", err)
	}

	snapshots := make([]models.QuestionSnapshot, 0, len(questions))
	for i := range questions {
		snap, err := questions[i].Snapshot()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	return &MissedTestDetails{
		TestID:    test.ID,
		TestName:  test.Name,
		CourseID:  test.CourseID,
		Questions: snapshots,
	}, nil
}

// ===== HELPERS =====

func (s *testService) allocate(inventory []models.Question, policy allocator.Policy) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return allocator.Allocate(inventory, policy, s.rng)
}

// reconcileStatus applies the pure scheduling transition and persists any
// flip. Persistence failure downgrades to a log line: the caller still
// works with the correct in-memory status.
func (s *testService) reconcileStatus(ctx context.Context, test *models.Test, now time.Time) models.TestStatus {
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
	return next
}

func (s *testService) verifyPoolsInCourse(ctx context.Context, poolIDs []string, courseID string) error {
	pools, err := s.repo.Pool().GetByIDs(ctx, nil, poolIDs)
	if err != nil {
		return fmt.Errorf("failed to get pools: %w", err)
	}

	found := make(map[string]string, len(pools))
	for _, pool := range pools {
		found[pool.ID] = pool.CourseID
	}

	for _, id := range poolIDs {
		course, ok := found[id]
		if !ok {
			return ErrPoolNotFound
		}
		if course != courseID {
			return fmt.Errorf("pool %s does not belong to course %s", id, courseID)
		}
	}

	return nil
}

func (s *testService) completedTestIDs(ctx context.Context, studentID, courseID string) (map[string]bool, error) {
	attempts, err := s.repo.StudentTest().ListCompletedByStudentAndCourse(ctx, nil, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed attempts: %w", err)
	}

	completed := make(map[string]bool, len(attempts))
	for _, attempt := range attempts {
		completed[attempt.OriginalTestID] = true
	}
	return completed, nil
}

func (s *testService) publishReleased(ctx context.Context, test *models.Test, releasedBy string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTestReleased(ctx, test, releasedBy); err != nil {
		s.logger.Error("Failed to publish test released event",
			"test_id", test.ID,
			"error", err)
	}
}

func initialStatus(scheduledFor *time.Time, now time.Time) models.TestStatus {
	if scheduledFor != nil && scheduledFor.After(now) {
		return models.TestScheduled
	}
	return models.TestActive
}

func requestedTotal(policy allocator.Policy) int {
	switch p := policy.(type) {
	case allocator.PercentagePolicy:
		return p.TotalQuestions
	case allocator.CustomPolicy:
		return p.RequestedTotal()
	default:
		return 0
	}
}
