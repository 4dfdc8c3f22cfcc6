package allocator

import (
	"sort"

	"github.com/examforge/exam-service/internal/models"
)

// MaxPoolSelection is the largest number of source pools a single selection
// may draw from. The limit comes from the storage layer's batched IN-query
// cap; the allocator treats it as a hard input constraint.
const MaxPoolSelection = 10

// Policy is the resolved, unambiguous form of a test's selection policy.
// It has exactly two implementations: PercentagePolicy and CustomPolicy.
// The loose wire shape (boolean flag plus optional map) is resolved into one
// of them exactly once, at the boundary where the policy is decoded.
type Policy interface {
	policy()
}

// PercentagePolicy draws TotalQuestions from the combined inventory of all
// selected pools, split by the global percentage distribution.
type PercentagePolicy struct {
	TotalQuestions int
	Distribution   models.DifficultyDistribution
}

func (PercentagePolicy) policy() {}

// CustomPolicy draws exact per-difficulty counts from each named pool. The
// released total is derived from the map; DeclaredTotal, when present, is
// checked against that sum on first use and never re-checked afterwards.
type CustomPolicy struct {
	PoolCounts    map[string]models.DifficultyCounts
	DeclaredTotal *int
}

func (CustomPolicy) policy() {}

// sortedPoolIDs returns the map keys in lexical order so validation and
// drawing visit pools deterministically.
func (p CustomPolicy) sortedPoolIDs() []string {
	ids := make([]string, 0, len(p.PoolCounts))
	for id := range p.PoolCounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RequestedTotal is the derived sum of all per-pool per-difficulty counts.
func (p CustomPolicy) RequestedTotal() int {
	total := 0
	for _, counts := range p.PoolCounts {
		total += counts.Total()
	}
	return total
}

// ResolvePolicy turns the persisted wire-shape config into a tagged Policy.
// Custom mode is active when the flag is set OR the pool map is non-empty;
// the map's presence wins over a cleared flag. A set flag with an empty map
// is rejected rather than silently falling back to percentage mode.
func ResolvePolicy(cfg *models.QuestionConfig) (Policy, error) {
	if cfg == nil {
		return nil, invalidPolicy("test has no question configuration")
	}

	if cfg.CustomPoolDistribution || len(cfg.PoolQuestionMap) > 0 {
		if len(cfg.PoolQuestionMap) == 0 {
			return nil, invalidPolicy("custom distribution selected but no question configuration provided")
		}
		policy := CustomPolicy{PoolCounts: cfg.PoolQuestionMap}
		if cfg.TotalQuestions > 0 {
			declared := cfg.TotalQuestions
			policy.DeclaredTotal = &declared
		}
		return policy, nil
	}

	if cfg.TotalQuestions <= 0 {
		return nil, invalidPolicy("total questions must be positive, got %d", cfg.TotalQuestions)
	}
	return PercentagePolicy{
		TotalQuestions: cfg.TotalQuestions,
		Distribution:   cfg.DifficultyDistribution,
	}, nil
}

// ValidatePoolSelection applies the input constraints every selection shares:
// at least one pool, at most MaxPoolSelection.
func ValidatePoolSelection(poolIDs []string) error {
	if len(poolIDs) == 0 {
		return invalidPolicy("at least one source pool is required")
	}
	if len(poolIDs) > MaxPoolSelection {
		return &Error{
			Kind:      KindTooManyPools,
			Message:   "too many pools selected. Maximum allowed is 10",
			Required:  len(poolIDs),
			Available: MaxPoolSelection,
		}
	}
	return nil
}
