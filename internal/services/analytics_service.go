package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/examforge/exam-service/internal/models"
	"github.com/examforge/exam-service/internal/repositories"
)

type analyticsService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewAnalyticsService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *analyticsService) CourseAnalysis(ctx context.Context, courseID string) (*CourseAnalysisResponse, error) {
	tests, err := s.repo.Test().ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course tests: %w", err)
	}

	testIDs := make([]string, 0, len(tests))
	for _, test := range tests {
		testIDs = append(testIDs, test.ID)
	}

	attempts, err := s.repo.StudentTest().ListCompletedByTests(ctx, nil, testIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list course attempts: %w", err)
	}

	// Rollups need attempts in submission order so LastScore is the most
	// recent one.
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].EndTime == nil || attempts[j].EndTime == nil {
			return attempts[j].EndTime != nil
		}
		return attempts[i].EndTime.Before(*attempts[j].EndTime)
	})

	students := rollupStudents(attempts)
	s.attachProfiles(ctx, students)

	return &CourseAnalysisResponse{
		CourseID:      courseID,
		TotalAttempts: len(attempts),
		AverageScore:  meanScore(attempts),
		PassRate:      passRate(attempts),
		Topics:        mergeTopics(attempts),
		Students:      students,
	}, nil
}

func (s *analyticsService) TestScores(ctx context.Context, testID string) (*TestScoresResponse, error) {
	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	attempts, err := s.repo.StudentTest().ListCompletedByTest(ctx, nil, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to list test attempts: %w", err)
	}

	scores := make([]TestScoreRow, 0, len(attempts))
	studentIDs := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		scores = append(scores, TestScoreRow{
			StudentID: attempt.StudentID,
			Score:     attempt.Score,
			EndTime:   attempt.EndTime,
		})
		studentIDs = append(studentIDs, attempt.StudentID)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].StudentID < scores[j].StudentID
	})

	profiles, err := s.repo.User().GetByIDs(ctx, studentIDs)
	if err != nil {
		s.logger.Warn("Failed to resolve student profiles", "error", err)
		profiles = map[string]models.User{}
	}
	for i := range scores {
		if user, ok := profiles[scores[i].StudentID]; ok {
			scores[i].Name = user.Name
			scores[i].RollNo = user.RollNo
		}
	}

	return &TestScoresResponse{
		TestID:   test.ID,
		TestName: test.Name,
		CourseID: test.CourseID,
		Scores:   scores,
	}, nil
}

func (s *analyticsService) StudentAnalysis(ctx context.Context, courseID, studentID string) (*StudentAnalysisResponse, error) {
	attempts, err := s.repo.StudentTest().ListCompletedByStudentAndCourse(ctx, nil, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list student attempts: %w", err)
	}

	topics := mergeTopics(attempts)
	strengths, weaknesses := strengthsAndWeaknesses(topics)

	return &StudentAnalysisResponse{
		StudentID:     studentID,
		CourseID:      courseID,
		TotalAttempts: len(attempts),
		AverageScore:  meanScore(attempts),
		Trend:         trendPoints(attempts),
		Strengths:     strengths,
		Weaknesses:    weaknesses,
	}, nil
}

// attachProfiles decorates rollup rows with display names and roll numbers
// from the identity provider. Resolution failures leave the rows usable.
func (s *analyticsService) attachProfiles(ctx context.Context, rollups []StudentRollup) {
	if len(rollups) == 0 {
		return
	}

	ids := make([]string, 0, len(rollups))
	for _, rollup := range rollups {
		ids = append(ids, rollup.StudentID)
	}

	profiles, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve student profiles", "error", err)
		return
	}

	for i := range rollups {
		if user, ok := profiles[rollups[i].StudentID]; ok {
			rollups[i].Name = user.Name
			rollups[i].RollNo = user.RollNo
		}
	}
}
