package heuristic

import (
	"sort"
	"time"

	"groundtruth/internal/types"
)

// DefaultLimit caps a recommendation response when the request does
// not say otherwise.
const DefaultLimit = 5

// RecommendListings surfaces the most recently created listings with a
// flat score. Ties keep their input order, so repeated calls on the
// same snapshot return the same list.
func RecommendListings(user types.User, available []types.Listing, limit int) types.RecommendationResult {
	if limit <= 0 {
		limit = DefaultLimit
	}

	recent := make([]types.Listing, len(available))
	copy(recent, available)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})

	recs := make([]types.Recommended, 0, limit)
	for _, l := range recent {
		if len(recs) == limit {
			break
		}
		recs = append(recs, types.RecommendedFrom(l, 0.5))
	}

	return types.RecommendationResult{
		UserID:          user.ID,
		Recommendations: recs,
		Reasoning:       map[string]string{types.ReasoningBasisKey: types.BasisRecentListings},
		TotalAvailable:  len(available),
		Timestamp:       time.Now().UTC(),
	}
}
