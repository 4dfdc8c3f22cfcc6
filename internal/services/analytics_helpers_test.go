package services

import (
	"testing"
	"time"

	"github.com/examforge/exam-service/internal/models"
)

func completedAttempt(t *testing.T, studentID string, score float64, analysis map[string]models.TopicStat) models.StudentTest {
	t.Helper()
	attempt := models.StudentTest{
		StudentID: studentID,
		Status:    models.AttemptCompleted,
		Score:     score,
	}
	if analysis != nil {
		if err := attempt.SetAnalysisMap(analysis); err != nil {
			t.Fatalf("SetAnalysisMap: %v", err)
		}
	}
	return attempt
}

func TestMeanScore(t *testing.T) {
	if got := meanScore(nil); got != 0 {
		t.Errorf("meanScore(nil) = %v, want 0", got)
	}

	attempts := []models.StudentTest{
		{Score: 80},
		{Score: 60},
		{Score: 70.5},
	}
	if got := meanScore(attempts); got != 70.17 {
		t.Errorf("meanScore() = %v, want 70.17", got)
	}
}

func TestPassRate(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"all pass", []float64{50, 75, 100}, 100},
		{"none pass", []float64{0, 49.99}, 0},
		{"threshold is inclusive", []float64{50, 49}, 50},
		{"two thirds", []float64{60, 70, 40}, 66.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := make([]models.StudentTest, 0, len(tt.scores))
			for _, score := range tt.scores {
				attempts = append(attempts, models.StudentTest{Score: score})
			}
			if got := passRate(attempts); got != tt.expected {
				t.Errorf("passRate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMergeTopics(t *testing.T) {
	attempts := []models.StudentTest{
		completedAttempt(t, "s1", 50, map[string]models.TopicStat{
			"algebra":  {Correct: 2, Total: 4},
			"geometry": {Correct: 1, Total: 2},
		}),
		completedAttempt(t, "s2", 75, map[string]models.TopicStat{
			"algebra": {Correct: 4, Total: 4},
		}),
	}

	merged := mergeTopics(attempts)
	if len(merged) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(merged))
	}

	byTopic := make(map[string]TopicPerformance)
	for _, tp := range merged {
		byTopic[tp.Topic] = tp
	}

	algebra := byTopic["algebra"]
	if algebra.Correct != 6 || algebra.Total != 8 {
		t.Errorf("algebra sums = %d/%d, want 6/8", algebra.Correct, algebra.Total)
	}
	// Percentage is recomputed from the sums, not averaged per attempt:
	// averaging 50 and 100 would give 75, the correct answer is 6/8.
	if algebra.Percentage != 75 {
		t.Errorf("algebra percentage = %v, want 75", algebra.Percentage)
	}

	geometry := byTopic["geometry"]
	if geometry.Correct != 1 || geometry.Total != 2 || geometry.Percentage != 50 {
		t.Errorf("geometry = %+v, want 1/2 at 50%%", geometry)
	}
}

func TestMergeTopicsWeightsBySums(t *testing.T) {
	// One attempt dominated by a large topic, one with a tiny sample. The
	// merged percentage must reflect the combined 5/14 and not the average
	// of the per-attempt percentages.
	attempts := []models.StudentTest{
		completedAttempt(t, "s1", 40, map[string]models.TopicStat{
			"history": {Correct: 4, Total: 10},
		}),
		completedAttempt(t, "s1", 25, map[string]models.TopicStat{
			"history": {Correct: 1, Total: 4},
		}),
	}

	merged := mergeTopics(attempts)
	if len(merged) != 1 {
		t.Fatalf("expected 1 topic, got %d", len(merged))
	}
	if merged[0].Percentage != 35.71 {
		t.Errorf("percentage = %v, want 35.71", merged[0].Percentage)
	}
}

func TestRollupStudents(t *testing.T) {
	attempts := []models.StudentTest{
		{StudentID: "s1", Score: 40},
		{StudentID: "s2", Score: 90},
		{StudentID: "s1", Score: 80},
		{StudentID: "s3", Score: 60},
	}

	rollups := rollupStudents(attempts)
	if len(rollups) != 3 {
		t.Fatalf("expected 3 students, got %d", len(rollups))
	}

	// Ordered by average score descending.
	if rollups[0].StudentID != "s2" || rollups[1].StudentID != "s1" || rollups[2].StudentID != "s3" {
		t.Errorf("unexpected order: %s, %s, %s", rollups[0].StudentID, rollups[1].StudentID, rollups[2].StudentID)
	}

	s1 := rollups[1]
	if s1.Attempts != 2 || s1.AverageScore != 60 || s1.BestScore != 80 || s1.LastScore != 80 {
		t.Errorf("s1 rollup = %+v", s1)
	}
}

func TestRollupStudentsTiebreak(t *testing.T) {
	attempts := []models.StudentTest{
		{StudentID: "zeta", Score: 70},
		{StudentID: "alpha", Score: 70},
	}

	rollups := rollupStudents(attempts)
	if rollups[0].StudentID != "alpha" || rollups[1].StudentID != "zeta" {
		t.Errorf("equal averages must order by student id, got %s then %s", rollups[0].StudentID, rollups[1].StudentID)
	}
}

func TestTrendPoints(t *testing.T) {
	end := func(d int) *time.Time {
		ts := time.Date(2025, 3, d, 10, 0, 0, 0, time.UTC)
		return &ts
	}

	var attempts []models.StudentTest
	for day := 1; day <= 7; day++ {
		attempts = append(attempts, models.StudentTest{
			TestName: "t",
			Score:    float64(day * 10),
			EndTime:  end(day),
		})
	}

	points := trendPoints(attempts)
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	// Oldest of the kept five first, newest last.
	if points[0].Score != 30 || points[4].Score != 70 {
		t.Errorf("trend window = [%v .. %v], want [30 .. 70]", points[0].Score, points[4].Score)
	}

	short := trendPoints(attempts[:2])
	if len(short) != 2 {
		t.Errorf("expected 2 points for short history, got %d", len(short))
	}
}

func TestStrengthsAndWeaknesses(t *testing.T) {
	topics := []TopicPerformance{
		{Topic: "a", Correct: 9, Total: 10, Percentage: 90},
		{Topic: "b", Correct: 1, Total: 10, Percentage: 10},
		{Topic: "c", Correct: 5, Total: 10, Percentage: 50},
		{Topic: "d", Correct: 7, Total: 10, Percentage: 70},
		{Topic: "e", Correct: 0, Total: 0, Percentage: 0},
	}

	strengths, weaknesses := strengthsAndWeaknesses(topics)

	if len(strengths) != 3 || strengths[0].Topic != "a" || strengths[1].Topic != "d" || strengths[2].Topic != "c" {
		t.Errorf("strengths = %+v", strengths)
	}
	if len(weaknesses) != 3 || weaknesses[0].Topic != "b" || weaknesses[1].Topic != "c" || weaknesses[2].Topic != "d" {
		t.Errorf("weaknesses = %+v", weaknesses)
	}

	for _, tp := range append(strengths, weaknesses...) {
		if tp.Topic == "e" {
			t.Error("topics with zero total must be excluded from ratings")
		}
	}
}

func TestStrengthsAndWeaknessesFewTopics(t *testing.T) {
	topics := []TopicPerformance{
		{Topic: "only", Correct: 1, Total: 2, Percentage: 50},
	}

	strengths, weaknesses := strengthsAndWeaknesses(topics)
	if len(strengths) != 1 || len(weaknesses) != 1 {
		t.Errorf("expected single topic on both sides, got %d and %d", len(strengths), len(weaknesses))
	}
}
