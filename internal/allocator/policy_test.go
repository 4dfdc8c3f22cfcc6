package allocator

import (
	"testing"

	"github.com/examforge/exam-service/internal/models"
)

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *models.QuestionConfig
		want     string // "percentage", "custom", "error"
		declared *int
	}{
		{
			name: "percentage mode when flag off and map empty",
			cfg: &models.QuestionConfig{
				TotalQuestions:         10,
				DifficultyDistribution: models.DifficultyDistribution{Easy: 50, Medium: 30, Hard: 20},
			},
			want: "percentage",
		},
		{
			name: "flag activates custom mode",
			cfg: &models.QuestionConfig{
				CustomPoolDistribution: true,
				PoolQuestionMap:        map[string]models.DifficultyCounts{"p1": {Easy: 2}},
			},
			want: "custom",
		},
		{
			name: "non-empty map wins over cleared flag",
			cfg: &models.QuestionConfig{
				CustomPoolDistribution: false,
				PoolQuestionMap:        map[string]models.DifficultyCounts{"p1": {Easy: 2}},
			},
			want: "custom",
		},
		{
			name: "flag set with empty map rejected",
			cfg: &models.QuestionConfig{
				CustomPoolDistribution: true,
			},
			want: "error",
		},
		{
			name: "percentage mode with zero total rejected",
			cfg: &models.QuestionConfig{
				TotalQuestions: 0,
			},
			want: "error",
		},
		{
			name: "nil config rejected",
			cfg:  nil,
			want: "error",
		},
		{
			name: "declared total carried into custom policy",
			cfg: &models.QuestionConfig{
				TotalQuestions:  5,
				PoolQuestionMap: map[string]models.DifficultyCounts{"p1": {Easy: 5}},
			},
			want:     "custom",
			declared: intPtr(5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := ResolvePolicy(tt.cfg)

			switch tt.want {
			case "error":
				if !IsKind(err, KindInvalidPolicy) {
					t.Fatalf("expected invalid policy, got policy=%v err=%v", policy, err)
				}
			case "percentage":
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if _, ok := policy.(PercentagePolicy); !ok {
					t.Fatalf("expected PercentagePolicy, got %T", policy)
				}
			case "custom":
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				custom, ok := policy.(CustomPolicy)
				if !ok {
					t.Fatalf("expected CustomPolicy, got %T", policy)
				}
				if tt.declared != nil {
					if custom.DeclaredTotal == nil || *custom.DeclaredTotal != *tt.declared {
						t.Fatalf("expected declared total %d, got %v", *tt.declared, custom.DeclaredTotal)
					}
				}
			}
		})
	}
}

func TestValidatePoolSelection(t *testing.T) {
	t.Run("empty selection rejected", func(t *testing.T) {
		if err := ValidatePoolSelection(nil); !IsKind(err, KindInvalidPolicy) {
			t.Fatalf("expected invalid policy, got %v", err)
		}
	})

	t.Run("up to the limit accepted", func(t *testing.T) {
		pools := make([]string, MaxPoolSelection)
		for i := range pools {
			pools[i] = "p"
		}
		if err := ValidatePoolSelection(pools); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("over the limit rejected", func(t *testing.T) {
		pools := make([]string, MaxPoolSelection+1)
		if err := ValidatePoolSelection(pools); !IsKind(err, KindTooManyPools) {
			t.Fatalf("expected too many pools, got %v", err)
		}
	})
}

func intPtr(v int) *int { return &v }
