package heuristic

import (
	"time"

	"groundtruth/internal/market"
	"groundtruth/internal/types"
)

// ValueListing estimates a price range from size and location keywords
// using the shared market quantities, so its bounds equal the rule
// path's on any snapshot.
func ValueListing(listing types.Listing) types.ValuationResult {
	lo, hi := market.ValuationBounds(listing)
	return types.ValuationResult{
		ListingID: listing.ID,
		Range: types.ValuationRange{
			Min:      float64(lo),
			Max:      float64(hi),
			Currency: market.Currency,
		},
		MarketAnalysis: market.Analysis(listing),
		Confidence:     market.ValuationConfidence(listing),
		Timestamp:      time.Now().UTC(),
	}
}
