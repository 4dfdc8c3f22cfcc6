package services

import (
	"math"
	"sort"

	"github.com/examforge/exam-service/internal/models"
)

// PassThreshold is the minimum score counted as a pass.
const PassThreshold = 50.0

// Pure aggregation helpers over completed attempts. Repository reads stay in
// the service methods so these stay unit-testable.

func meanScore(attempts []models.StudentTest) float64 {
	if len(attempts) == 0 {
		return 0
	}
	sum := 0.0
	for _, attempt := range attempts {
		sum += attempt.Score
	}
	return roundFloat(sum/float64(len(attempts)), 2)
}

// passRate reports the passing fraction as a percentage
func passRate(attempts []models.StudentTest) float64 {
	if len(attempts) == 0 {
		return 0
	}
	passed := 0
	for _, attempt := range attempts {
		if attempt.Score >= PassThreshold {
			passed++
		}
	}
	return roundFloat(100*float64(passed)/float64(len(attempts)), 2)
}

// mergeTopics sums per-topic correct/total across attempts and recomputes
// each percentage from the sums. Averaging per-attempt percentages would
// weight small topics the same as large ones.
func mergeTopics(attempts []models.StudentTest) []TopicPerformance {
	sums := make(map[string]models.TopicStat)
	var order []string

	for _, attempt := range attempts {
		analysis, err := attempt.AnalysisMap()
		if err != nil {
			continue
		}

		topics := make([]string, 0, len(analysis))
		for topic := range analysis {
			topics = append(topics, topic)
		}
		sort.Strings(topics)

		for _, topic := range topics {
			stat := analysis[topic]
			if _, seen := sums[topic]; !seen {
				order = append(order, topic)
			}
			merged := sums[topic]
			merged.Correct += stat.Correct
			merged.Total += stat.Total
			sums[topic] = merged
		}
	}

	result := make([]TopicPerformance, 0, len(order))
	for _, topic := range order {
		stat := sums[topic]
		pct := 0.0
		if stat.Total > 0 {
			pct = roundFloat(100*float64(stat.Correct)/float64(stat.Total), 2)
		}
		result = append(result, TopicPerformance{
			Topic:      topic,
			Correct:    stat.Correct,
			Total:      stat.Total,
			Percentage: pct,
		})
	}

	return result
}

// rollupStudents aggregates attempts per student, ordered by average score
// descending with student id as the tiebreak.
func rollupStudents(attempts []models.StudentTest) []StudentRollup {
	type accumulator struct {
		sum      float64
		count    int
		best     float64
		last     float64
		lastSeen int
	}

	accs := make(map[string]*accumulator)
	var order []string

	for i, attempt := range attempts {
		acc, seen := accs[attempt.StudentID]
		if !seen {
			acc = &accumulator{}
			accs[attempt.StudentID] = acc
			order = append(order, attempt.StudentID)
		}
		acc.sum += attempt.Score
		acc.count++
		if attempt.Score > acc.best {
			acc.best = attempt.Score
		}
		if i >= acc.lastSeen {
			acc.lastSeen = i
			acc.last = attempt.Score
		}
	}

	rollups := make([]StudentRollup, 0, len(order))
	for _, studentID := range order {
		acc := accs[studentID]
		rollups = append(rollups, StudentRollup{
			StudentID:    studentID,
			Attempts:     acc.count,
			AverageScore: roundFloat(acc.sum/float64(acc.count), 2),
			BestScore:    acc.best,
			LastScore:    acc.last,
		})
	}

	sort.SliceStable(rollups, func(i, j int) bool {
		if rollups[i].AverageScore != rollups[j].AverageScore {
			return rollups[i].AverageScore > rollups[j].AverageScore
		}
		return rollups[i].StudentID < rollups[j].StudentID
	})

	return rollups
}

// trendPoints returns the five most recent attempts in chronological order.
// The input is assumed already ordered oldest to newest.
func trendPoints(attempts []models.StudentTest) []TrendPoint {
	start := 0
	if len(attempts) > 5 {
		start = len(attempts) - 5
	}

	points := make([]TrendPoint, 0, len(attempts)-start)
	for _, attempt := range attempts[start:] {
		points = append(points, TrendPoint{
			TestName: attempt.TestName,
			Score:    attempt.Score,
			EndTime:  attempt.EndTime,
		})
	}
	return points
}

// strengthsAndWeaknesses picks the top-3 and bottom-3 topics by aggregated
// percentage. Ties keep input order, so the result is deterministic.
func strengthsAndWeaknesses(topics []TopicPerformance) (strengths, weaknesses []TopicPerformance) {
	rated := make([]TopicPerformance, 0, len(topics))
	for _, topic := range topics {
		if topic.Total > 0 {
			rated = append(rated, topic)
		}
	}

	byPctDesc := make([]TopicPerformance, len(rated))
	copy(byPctDesc, rated)
	sort.SliceStable(byPctDesc, func(i, j int) bool {
		return byPctDesc[i].Percentage > byPctDesc[j].Percentage
	})

	byPctAsc := make([]TopicPerformance, len(rated))
	copy(byPctAsc, rated)
	sort.SliceStable(byPctAsc, func(i, j int) bool {
		return byPctAsc[i].Percentage < byPctAsc[j].Percentage
	})

	return topN(byPctDesc, 3), topN(byPctAsc, 3)
}

func topN(topics []TopicPerformance, n int) []TopicPerformance {
	if len(topics) < n {
		n = len(topics)
	}
	out := make([]TopicPerformance, n)
	copy(out, topics[:n])
	return out
}

func roundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
