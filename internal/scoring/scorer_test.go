package scoring

import (
	"testing"

	"github.com/examforge/exam-service/internal/models"
)

func question(id, topic string, correct int) models.QuestionSnapshot {
	return models.QuestionSnapshot{
		ID:                 id,
		Topic:              topic,
		Options:            []string{"a", "b", "c", "d"},
		CorrectOptionIndex: correct,
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name         string
		questions    []models.QuestionSnapshot
		answers      map[string]int
		wantScore    float64
		wantAnalysis map[string]models.TopicStat
	}{
		{
			name: "three of four across two topics",
			questions: []models.QuestionSnapshot{
				question("q1", "A", 0),
				question("q2", "A", 1),
				question("q3", "B", 2),
				question("q4", "B", 3),
			},
			answers:   map[string]int{"q1": 0, "q2": 3, "q3": 2, "q4": 3},
			wantScore: 75.0,
			wantAnalysis: map[string]models.TopicStat{
				"A": {Correct: 1, Total: 2},
				"B": {Correct: 2, Total: 2},
			},
		},
		{
			name: "unanswered questions count toward totals only",
			questions: []models.QuestionSnapshot{
				question("q1", "A", 0),
				question("q2", "A", 1),
			},
			answers:   map[string]int{"q1": 0},
			wantScore: 50.0,
			wantAnalysis: map[string]models.TopicStat{
				"A": {Correct: 1, Total: 2},
			},
		},
		{
			name:         "empty attempt scores zero without dividing by zero",
			questions:    nil,
			answers:      map[string]int{},
			wantScore:    0,
			wantAnalysis: map[string]models.TopicStat{},
		},
		{
			name: "all correct",
			questions: []models.QuestionSnapshot{
				question("q1", "A", 2),
				question("q2", "B", 0),
			},
			answers:   map[string]int{"q1": 2, "q2": 0},
			wantScore: 100.0,
			wantAnalysis: map[string]models.TopicStat{
				"A": {Correct: 1, Total: 1},
				"B": {Correct: 1, Total: 1},
			},
		},
		{
			name: "wrong answers score zero",
			questions: []models.QuestionSnapshot{
				question("q1", "A", 2),
			},
			answers:   map[string]int{"q1": 1},
			wantScore: 0,
			wantAnalysis: map[string]models.TopicStat{
				"A": {Correct: 0, Total: 1},
			},
		},
		{
			name: "answers for unknown question ids are ignored",
			questions: []models.QuestionSnapshot{
				question("q1", "A", 0),
			},
			answers:   map[string]int{"q1": 0, "ghost": 0},
			wantScore: 100.0,
			wantAnalysis: map[string]models.TopicStat{
				"A": {Correct: 1, Total: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.questions, tt.answers)

			if got.Score != tt.wantScore {
				t.Errorf("score: expected %.2f, got %.2f", tt.wantScore, got.Score)
			}
			if len(got.Analysis) != len(tt.wantAnalysis) {
				t.Fatalf("analysis: expected %d topics, got %d", len(tt.wantAnalysis), len(got.Analysis))
			}
			for topic, want := range tt.wantAnalysis {
				if got.Analysis[topic] != want {
					t.Errorf("topic %s: expected %+v, got %+v", topic, want, got.Analysis[topic])
				}
			}
		})
	}
}

func TestScore_ScoreIsExactFraction(t *testing.T) {
	// score == 100 * correct / total for every answered prefix.
	questions := make([]models.QuestionSnapshot, 8)
	for i := range questions {
		questions[i] = question(string(rune('a'+i)), "T", 0)
	}
	for correct := 0; correct <= len(questions); correct++ {
		answers := map[string]int{}
		for i := 0; i < correct; i++ {
			answers[questions[i].ID] = 0
		}
		got := Score(questions, answers)
		want := float64(correct) / float64(len(questions)) * 100
		if got.Score != want {
			t.Fatalf("%d correct of %d: expected %.4f, got %.4f", correct, len(questions), want, got.Score)
		}
	}
}
