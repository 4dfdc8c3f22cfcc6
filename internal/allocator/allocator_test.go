package allocator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/examforge/exam-service/internal/models"
)

func makeInventory(t *testing.T, poolID string, easy, medium, hard int) []models.Question {
	t.Helper()
	var questions []models.Question
	add := func(difficulty string, count int) {
		for i := 0; i < count; i++ {
			questions = append(questions, models.Question{
				ID:         fmt.Sprintf("%s-%s-%d", poolID, difficulty, i),
				PoolID:     poolID,
				Topic:      "topic-" + difficulty,
				Difficulty: difficulty,
			})
		}
	}
	add("easy", easy)
	add("medium", medium)
	add("hard", hard)
	return questions
}

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func assertNoDuplicates(t *testing.T, selected []models.Question) {
	t.Helper()
	seen := make(map[string]bool, len(selected))
	for _, q := range selected {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s in selection", q.ID)
		}
		seen[q.ID] = true
	}
}

func inventoryIndex(inventory []models.Question) map[string]models.Question {
	idx := make(map[string]models.Question, len(inventory))
	for _, q := range inventory {
		idx[q.ID] = q
	}
	return idx
}

func TestAllocatePercentage(t *testing.T) {
	tests := []struct {
		name       string
		easy       int
		medium     int
		hard       int
		total      int
		dist       models.DifficultyDistribution
		wantCounts map[string]int
		wantKind   ErrorKind
		wantDiff   string
		wantReq    int
		wantAvail  int
	}{
		{
			name: "even split draws exact counts",
			easy: 10, medium: 10, hard: 10,
			total:      10,
			dist:       models.DifficultyDistribution{Easy: 50, Medium: 30, Hard: 20},
			wantCounts: map[string]int{"easy": 5, "medium": 3, "hard": 2},
		},
		{
			name: "missing hard bucket fails naming the bucket",
			easy: 10, medium: 5, hard: 0,
			total:    10,
			dist:     models.DifficultyDistribution{Easy: 50, Medium: 30, Hard: 20},
			wantKind: KindInsufficientQuestions,
			wantDiff: "hard", wantReq: 2, wantAvail: 0,
		},
		{
			name: "rounded counts still hit empty hard bucket",
			easy: 10, medium: 5, hard: 0,
			total:    8,
			dist:     models.DifficultyDistribution{Easy: 50, Medium: 25, Hard: 25},
			wantKind: KindInsufficientQuestions,
			wantDiff: "hard", wantReq: 2, wantAvail: 0,
		},
		{
			name: "percentages not summing to 100 rejected",
			easy: 10, medium: 10, hard: 10,
			total:    10,
			dist:     models.DifficultyDistribution{Easy: 50, Medium: 30, Hard: 10},
			wantKind: KindInvalidPolicy,
		},
		{
			name: "inventory smaller than total rejected",
			easy: 2, medium: 2, hard: 2,
			total:    10,
			dist:     models.DifficultyDistribution{Easy: 34, Medium: 33, Hard: 33},
			wantKind: KindInsufficientInventory,
		},
		{
			name: "non-positive total rejected",
			easy: 5, medium: 5, hard: 5,
			total:    0,
			dist:     models.DifficultyDistribution{Easy: 50, Medium: 30, Hard: 20},
			wantKind: KindInvalidPolicy,
		},
		{
			name: "zero percentage bucket contributes nothing",
			easy: 10, medium: 10, hard: 0,
			total:      6,
			dist:       models.DifficultyDistribution{Easy: 50, Medium: 50, Hard: 0},
			wantCounts: map[string]int{"easy": 3, "medium": 3, "hard": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inventory := makeInventory(t, "p1", tt.easy, tt.medium, tt.hard)
			policy := PercentagePolicy{TotalQuestions: tt.total, Distribution: tt.dist}

			selected, err := Allocate(inventory, policy, newRNG())

			if tt.wantKind != "" {
				if err == nil {
					t.Fatalf("expected %s error, got %d questions", tt.wantKind, len(selected))
				}
				if !IsKind(err, tt.wantKind) {
					t.Fatalf("expected kind %s, got %v", tt.wantKind, err)
				}
				if tt.wantDiff != "" {
					ae := err.(*Error)
					if ae.Difficulty != tt.wantDiff || ae.Required != tt.wantReq || ae.Available != tt.wantAvail {
						t.Fatalf("expected bucket %s required=%d available=%d, got %s required=%d available=%d",
							tt.wantDiff, tt.wantReq, tt.wantAvail, ae.Difficulty, ae.Required, ae.Available)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(selected) != tt.total {
				t.Fatalf("expected %d questions, got %d", tt.total, len(selected))
			}
			assertNoDuplicates(t, selected)

			idx := inventoryIndex(inventory)
			got := map[string]int{"easy": 0, "medium": 0, "hard": 0}
			for _, q := range selected {
				src, ok := idx[q.ID]
				if !ok {
					t.Fatalf("question %s not in inventory", q.ID)
				}
				got[src.Difficulty]++
			}
			for difficulty, want := range tt.wantCounts {
				if got[difficulty] != want {
					t.Errorf("difficulty %s: expected %d drawn, got %d", difficulty, want, got[difficulty])
				}
			}
		})
	}
}

func TestAllocatePercentage_RoundingDriftGoesToEasy(t *testing.T) {
	// 33/33/34 over 10 rounds to 3+3+3=9; the missing question lands in easy.
	inventory := makeInventory(t, "p1", 10, 10, 10)
	policy := PercentagePolicy{
		TotalQuestions: 10,
		Distribution:   models.DifficultyDistribution{Easy: 33, Medium: 33, Hard: 34},
	}

	selected, err := Allocate(inventory, policy, newRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 10 {
		t.Fatalf("rounding reconciliation broke the total: got %d", len(selected))
	}

	counts := map[string]int{}
	for _, q := range selected {
		counts[q.Difficulty]++
	}
	if counts["easy"] != 4 || counts["medium"] != 3 || counts["hard"] != 3 {
		t.Fatalf("expected drift absorbed into easy (4/3/3), got %v", counts)
	}
}

func TestAllocatePercentage_OvershootSubtractsFromEasy(t *testing.T) {
	// 25/25/50 over 6 rounds to 2+2+3=7; easy gives the extra one back.
	inventory := makeInventory(t, "p1", 10, 10, 10)
	policy := PercentagePolicy{
		TotalQuestions: 6,
		Distribution:   models.DifficultyDistribution{Easy: 25, Medium: 25, Hard: 50},
	}

	selected, err := Allocate(inventory, policy, newRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := map[string]int{}
	for _, q := range selected {
		counts[q.Difficulty]++
	}
	if counts["easy"] != 1 || counts["medium"] != 2 || counts["hard"] != 3 {
		t.Fatalf("expected overshoot subtracted from easy (1/2/3), got %v", counts)
	}
}

func TestAllocatePercentage_CaseInsensitiveDifficulty(t *testing.T) {
	inventory := makeInventory(t, "p1", 0, 0, 0)
	for i := 0; i < 4; i++ {
		inventory = append(inventory, models.Question{
			ID: fmt.Sprintf("mixed-%d", i), PoolID: "p1", Topic: "t", Difficulty: "Easy",
		})
	}
	policy := PercentagePolicy{
		TotalQuestions: 4,
		Distribution:   models.DifficultyDistribution{Easy: 100, Medium: 0, Hard: 0},
	}

	selected, err := Allocate(inventory, policy, newRNG())
	if err != nil {
		t.Fatalf("mixed-case difficulty tags should match: %v", err)
	}
	if len(selected) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(selected))
	}
}

func TestAllocateCustom(t *testing.T) {
	poolA := makeInventory(t, "poolA", 10, 0, 0)
	poolB := makeInventory(t, "poolB", 10, 0, 0)
	inventory := append(append([]models.Question{}, poolA...), poolB...)

	policy := CustomPolicy{PoolCounts: map[string]models.DifficultyCounts{
		"poolA": {Easy: 6},
		"poolB": {Easy: 4},
	}}

	selected, err := Allocate(inventory, policy, newRNG())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(selected))
	}
	assertNoDuplicates(t, selected)

	perPool := map[string]int{}
	for _, q := range selected {
		perPool[q.PoolID]++
	}
	if perPool["poolA"] != 6 || perPool["poolB"] != 4 {
		t.Fatalf("expected 6 from poolA and 4 from poolB, got %v", perPool)
	}
	if len(perPool) != 2 {
		t.Fatalf("selection drew from unexpected pools: %v", perPool)
	}
}

func TestAllocateCustom_FailsFastOnFirstViolation(t *testing.T) {
	inventory := makeInventory(t, "poolA", 2, 0, 0)
	policy := CustomPolicy{PoolCounts: map[string]models.DifficultyCounts{
		"poolA": {Easy: 5},
		"poolB": {Easy: 1},
	}}

	_, err := Allocate(inventory, policy, newRNG())
	if !IsKind(err, KindInsufficientQuestions) {
		t.Fatalf("expected insufficient questions, got %v", err)
	}
	ae := err.(*Error)
	if ae.PoolID != "poolA" || ae.Difficulty != "easy" || ae.Required != 5 || ae.Available != 2 {
		t.Fatalf("error should name the first violated bucket, got %+v", ae)
	}
}

func TestAllocateCustom_DeclaredTotalMismatch(t *testing.T) {
	inventory := makeInventory(t, "poolA", 10, 10, 10)
	declared := 12
	policy := CustomPolicy{
		PoolCounts:    map[string]models.DifficultyCounts{"poolA": {Easy: 3, Medium: 3, Hard: 3}},
		DeclaredTotal: &declared,
	}

	_, err := Allocate(inventory, policy, newRNG())
	if !IsKind(err, KindInvalidPolicy) {
		t.Fatalf("expected invalid policy on declared total mismatch, got %v", err)
	}
}

func TestAllocateCustom_ZeroCountPoolIsValid(t *testing.T) {
	poolA := makeInventory(t, "poolA", 5, 0, 0)
	poolB := makeInventory(t, "poolB", 5, 0, 0)
	inventory := append(append([]models.Question{}, poolA...), poolB...)

	policy := CustomPolicy{PoolCounts: map[string]models.DifficultyCounts{
		"poolA": {Easy: 3},
		"poolB": {},
	}}

	selected, err := Allocate(inventory, policy, newRNG())
	if err != nil {
		t.Fatalf("all-zero pool counts must be valid: %v", err)
	}
	for _, q := range selected {
		if q.PoolID != "poolA" {
			t.Fatalf("question %s drawn from pool with zero counts", q.ID)
		}
	}
}

func TestWholePool(t *testing.T) {
	t.Run("returns every question shuffled", func(t *testing.T) {
		inventory := makeInventory(t, "p1", 5, 5, 5)
		selected, err := WholePool(inventory, newRNG())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(selected) != len(inventory) {
			t.Fatalf("expected %d questions, got %d", len(inventory), len(selected))
		}
		assertNoDuplicates(t, selected)
	})

	t.Run("empty pool fails with empty selection", func(t *testing.T) {
		_, err := WholePool(nil, newRNG())
		if !IsKind(err, KindEmptySelection) {
			t.Fatalf("expected empty selection error, got %v", err)
		}
	})
}

func TestAllocate_TotalAlwaysMatchesPolicy(t *testing.T) {
	// Rounding reconciliation invariant: for any valid distribution the
	// drawn total equals the requested total exactly.
	inventory := makeInventory(t, "p1", 40, 40, 40)
	distributions := []models.DifficultyDistribution{
		{Easy: 100, Medium: 0, Hard: 0},
		{Easy: 0, Medium: 0, Hard: 100},
		{Easy: 33, Medium: 33, Hard: 34},
		{Easy: 17, Medium: 41, Hard: 42},
		{Easy: 1, Medium: 1, Hard: 98},
	}
	for _, dist := range distributions {
		for total := 1; total <= 30; total++ {
			policy := PercentagePolicy{TotalQuestions: total, Distribution: dist}
			selected, err := Allocate(inventory, policy, newRNG())
			if err != nil {
				t.Fatalf("dist %+v total %d: unexpected error: %v", dist, total, err)
			}
			if len(selected) != total {
				t.Fatalf("dist %+v total %d: drew %d questions", dist, total, len(selected))
			}
		}
	}
}

func TestAllocate_IndependentInvocationsMayOverlap(t *testing.T) {
	// Two students starting the same test sample independently; only a
	// single invocation excludes its own prior draws.
	inventory := makeInventory(t, "p1", 4, 0, 0)
	policy := PercentagePolicy{
		TotalQuestions: 4,
		Distribution:   models.DifficultyDistribution{Easy: 100, Medium: 0, Hard: 0},
	}

	first, err := Allocate(inventory, policy, newRNG())
	if err != nil {
		t.Fatalf("first allocation failed: %v", err)
	}
	second, err := Allocate(inventory, policy, newRNG())
	if err != nil {
		t.Fatalf("second allocation failed: %v", err)
	}

	firstIDs := make(map[string]bool)
	for _, q := range first {
		firstIDs[q.ID] = true
	}
	overlap := 0
	for _, q := range second {
		if firstIDs[q.ID] {
			overlap++
		}
	}
	if overlap != len(second) {
		t.Fatalf("with a 4-question inventory both papers must contain all 4 questions, overlap was %d", overlap)
	}
}
