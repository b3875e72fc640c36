package scoring

import (
	"errors"
	"math"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// ErrNoScores indicates selection was attempted with no successful attempts.
var ErrNoScores = errors.New("no scored attempts to select from")

// combinedEpsilon is the tolerance for treating two combined scores as equal.
const combinedEpsilon = 1e-9

// Select picks the winning score vector: maximum combined score, with
// ties broken by lower raw cost, then lower raw latency, then candidate
// declaration order. Selection is deterministic for identical inputs.
func Select(scores []*models.ScoreVector) (*models.ScoreVector, error) {
	if len(scores) == 0 {
		return nil, ErrNoScores
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if beats(s, best) {
			best = s
		}
	}
	return best, nil
}

// beats reports whether a should be selected over b.
func beats(a, b *models.ScoreVector) bool {
	if math.Abs(a.Combined-b.Combined) > combinedEpsilon {
		return a.Combined > b.Combined
	}
	if a.RawCost != b.RawCost {
		return a.RawCost < b.RawCost
	}
	if a.RawLatency != b.RawLatency {
		return a.RawLatency < b.RawLatency
	}
	return a.Order < b.Order
}
