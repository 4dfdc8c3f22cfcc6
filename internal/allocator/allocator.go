// Package allocator implements the test-assembly engine: given an inventory
// of tagged questions and a resolved selection policy it validates
// feasibility and produces a non-overlapping, shuffled question selection.
// Validation always completes before any draw, so failure never leaves a
// partial allocation behind.
package allocator

import (
	"math"
	"math/rand"

	"github.com/examforge/exam-service/internal/models"
)

// Allocate validates policy against inventory and returns the selected
// questions in final presentation order. The random source is injected so
// callers control seeding; the function itself holds no state between calls.
//
// The per-invocation exclusion set only prevents one selection from picking
// the same question twice across its own bucket draws. Concurrent
// invocations for different students sample independently and may overlap.
func Allocate(inventory []models.Question, policy Policy, rng *rand.Rand) ([]models.Question, error) {
	switch p := policy.(type) {
	case PercentagePolicy:
		return allocatePercentage(inventory, p, rng)
	case CustomPolicy:
		return allocateCustom(inventory, p, rng)
	default:
		return nil, invalidPolicy("unknown selection policy type %T", policy)
	}
}

// WholePool returns every question in the inventory, shuffled once. No
// difficulty logic applies.
func WholePool(inventory []models.Question, rng *rand.Rand) ([]models.Question, error) {
	if len(inventory) == 0 {
		return nil, &Error{Kind: KindEmptySelection, Message: "no questions found in the selected pool(s)"}
	}
	selected := make([]models.Question, len(inventory))
	copy(selected, inventory)
	shuffle(selected, rng)
	return selected, nil
}

// QuestionIDs projects a selection to its identifier sequence, preserving
// order.
func QuestionIDs(questions []models.Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

func allocatePercentage(inventory []models.Question, p PercentagePolicy, rng *rand.Rand) ([]models.Question, error) {
	dist := p.Distribution
	if dist.Easy < 0 || dist.Medium < 0 || dist.Hard < 0 {
		return nil, invalidPolicy("difficulty percentages must be non-negative")
	}
	if dist.Easy+dist.Medium+dist.Hard != 100 {
		return nil, invalidPolicy("difficulty percentages must sum to 100")
	}
	if p.TotalQuestions <= 0 {
		return nil, invalidPolicy("total questions must be positive, got %d", p.TotalQuestions)
	}

	// Every bucket draws from the same pooled inventory in this mode, so the
	// global sufficiency check comes before any per-bucket arithmetic.
	if len(inventory) < p.TotalQuestions {
		return nil, insufficientInventory(len(inventory), p.TotalQuestions)
	}

	required := requiredCounts(p.TotalQuestions, dist)
	reconcileRoundingDrift(&required, p.TotalQuestions)

	buckets := partitionByDifficulty(inventory)

	// Validate every bucket before drawing anything.
	for _, level := range models.Difficulties {
		need := required[level]
		if have := len(buckets[level]); have < need {
			return nil, insufficientQuestions("", string(level), need, have)
		}
	}

	used := make(map[string]bool)
	var selected []models.Question
	for _, level := range models.Difficulties {
		selected = append(selected, draw(buckets[level], required[level], used, rng)...)
	}

	// One more full shuffle so difficulty buckets interleave in the final
	// presentation order.
	shuffle(selected, rng)
	return selected, nil
}

func allocateCustom(inventory []models.Question, p CustomPolicy, rng *rand.Rand) ([]models.Question, error) {
	if len(p.PoolCounts) == 0 {
		return nil, invalidPolicy("custom distribution selected but no question configuration provided")
	}
	for poolID, counts := range p.PoolCounts {
		if counts.Easy < 0 || counts.Medium < 0 || counts.Hard < 0 {
			return nil, invalidPolicy("question counts for pool %s must be non-negative", poolID)
		}
	}
	if p.DeclaredTotal != nil && *p.DeclaredTotal != p.RequestedTotal() {
		return nil, invalidPolicy("total questions (%d) does not match pool distribution sum (%d)", *p.DeclaredTotal, p.RequestedTotal())
	}

	byPool := make(map[string][]models.Question)
	for _, q := range inventory {
		byPool[q.PoolID] = append(byPool[q.PoolID], q)
	}

	// Fail fast on the first infeasible (pool, difficulty) bucket; nothing
	// is drawn until the whole request is known to be satisfiable.
	type bucket struct {
		poolID    string
		available []models.Question
		count     int
	}
	var plan []bucket
	for _, poolID := range p.sortedPoolIDs() {
		counts := p.PoolCounts[poolID]
		poolQuestions := byPool[poolID]
		byLevel := partitionByDifficulty(poolQuestions)
		for _, level := range models.Difficulties {
			need := countFor(counts, level)
			if need == 0 {
				continue
			}
			if have := len(byLevel[level]); have < need {
				return nil, insufficientQuestions(poolID, string(level), need, have)
			}
			plan = append(plan, bucket{poolID: poolID, available: byLevel[level], count: need})
		}
	}

	used := make(map[string]bool)
	var selected []models.Question
	for _, b := range plan {
		selected = append(selected, draw(b.available, b.count, used, rng)...)
	}

	shuffle(selected, rng)
	return selected, nil
}

// requiredCounts computes the raw per-difficulty draw counts by rounding
// half away from zero, the same rule the percentages were authored against.
func requiredCounts(total int, dist models.DifficultyDistribution) map[models.DifficultyLevel]int {
	return map[models.DifficultyLevel]int{
		models.DifficultyEasy:   int(math.Round(float64(total) * float64(dist.Easy) / 100)),
		models.DifficultyMedium: int(math.Round(float64(total) * float64(dist.Medium) / 100)),
		models.DifficultyHard:   int(math.Round(float64(total) * float64(dist.Hard) / 100)),
	}
}

// reconcileRoundingDrift absorbs the entire rounding discrepancy into the
// easy bucket, adding when the rounded sum undershoots the total and
// subtracting when it overshoots. The tie-break is arbitrary but
// deterministic and is kept behind this function so the policy can be
// swapped without touching the rest of the allocator.
func reconcileRoundingDrift(required *map[models.DifficultyLevel]int, total int) {
	counts := *required
	sum := counts[models.DifficultyEasy] + counts[models.DifficultyMedium] + counts[models.DifficultyHard]
	counts[models.DifficultyEasy] += total - sum
}

func partitionByDifficulty(questions []models.Question) map[models.DifficultyLevel][]models.Question {
	buckets := make(map[models.DifficultyLevel][]models.Question, len(models.Difficulties))
	for _, q := range questions {
		for _, level := range models.Difficulties {
			if level.Matches(q.Difficulty) {
				buckets[level] = append(buckets[level], q)
				break
			}
		}
	}
	return buckets
}

func countFor(counts models.DifficultyCounts, level models.DifficultyLevel) int {
	switch level {
	case models.DifficultyEasy:
		return counts.Easy
	case models.DifficultyMedium:
		return counts.Medium
	case models.DifficultyHard:
		return counts.Hard
	default:
		return 0
	}
}

// draw shuffles the not-yet-used questions of one bucket and takes the first
// n, marking them used for the remainder of the invocation. Callers have
// already verified n <= len(available); the check here guards against a
// bucket shrunk by the exclusion set.
func draw(available []models.Question, n int, used map[string]bool, rng *rand.Rand) []models.Question {
	if n <= 0 {
		return nil
	}
	candidates := make([]models.Question, 0, len(available))
	for _, q := range available {
		if !used[q.ID] {
			candidates = append(candidates, q)
		}
	}
	shuffle(candidates, rng)
	if n > len(candidates) {
		n = len(candidates)
	}
	taken := candidates[:n]
	for _, q := range taken {
		used[q.ID] = true
	}
	return taken
}

// shuffle is an unbiased Fisher-Yates shuffle over the slice.
func shuffle(questions []models.Question, rng *rand.Rand) {
	rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}
