// Package scoring computes the result of one completed attempt: a 0-100
// percentage score and a per-topic correct/total breakdown. The computation
// is pure; the one-shot in-progress to completed transition that makes it
// idempotent is enforced by the attempt service.
package scoring

import (
	"github.com/examforge/exam-service/internal/models"
)

// Result is the outcome of scoring one attempt.
type Result struct {
	Score    float64                     `json:"score"`
	Analysis map[string]models.TopicStat `json:"analysis"`
}

// Score grades the materialized question snapshots of one attempt against
// the student's sparse answer map. Every question counts toward its topic's
// total; only an answer matching the correct option index counts toward
// correct. Unanswered questions (absent keys) contribute to totals only.
func Score(questions []models.QuestionSnapshot, answers map[string]int) Result {
	analysis := make(map[string]models.TopicStat, len(questions))
	correct := 0

	for _, q := range questions {
		stat := analysis[q.Topic]
		stat.Total++

		if chosen, answered := answers[q.ID]; answered && chosen == q.CorrectOptionIndex {
			stat.Correct++
			correct++
		}

		analysis[q.Topic] = stat
	}

	score := 0.0
	if len(questions) > 0 {
		score = float64(correct) / float64(len(questions)) * 100
	}

	return Result{Score: score, Analysis: analysis}
}
