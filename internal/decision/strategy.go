// Package decision fronts the three decision operations behind a uniform
// envelope contract: plain requests in, well-formed envelopes out, no
// internal failure ever escaping to the caller. The primary strategy is
// rule-backed; when it errors the heuristic path answers instead, and
// every served decision lands in the journal.
package decision

import (
	"context"

	"groundtruth/internal/heuristic"
	"groundtruth/internal/journal"
	"groundtruth/internal/reason"
	"groundtruth/internal/types"
)

// Strategy is one way of producing decisions from request snapshots.
// Implementations must be safe for concurrent use.
type Strategy interface {
	Name() string
	Validate(ctx context.Context, listing types.Listing, user types.User) (types.ValidationResult, error)
	Value(ctx context.Context, listing types.Listing) (types.ValuationResult, error)
	Recommend(ctx context.Context, user types.User, available []types.Listing, limit int) (types.RecommendationResult, error)
}

var (
	_ Strategy = (*EngineBacked)(nil)
	_ Strategy = Heuristic{}
)

// EngineBacked answers from the rule engine via a reasoner.
type EngineBacked struct {
	reasoner *reason.Reasoner
}

// NewEngineBacked wraps a reasoner as a strategy.
func NewEngineBacked(r *reason.Reasoner) *EngineBacked {
	return &EngineBacked{reasoner: r}
}

func (s *EngineBacked) Name() string { return journal.StrategyEngine }

func (s *EngineBacked) Validate(ctx context.Context, listing types.Listing, user types.User) (types.ValidationResult, error) {
	return s.reasoner.ValidateListing(ctx, listing, user)
}

func (s *EngineBacked) Value(ctx context.Context, listing types.Listing) (types.ValuationResult, error) {
	return s.reasoner.ValueListing(ctx, listing)
}

func (s *EngineBacked) Recommend(ctx context.Context, user types.User, available []types.Listing, limit int) (types.RecommendationResult, error) {
	return s.reasoner.RecommendListings(ctx, user, available, limit)
}

// Heuristic answers from the deterministic fallback path. It never errors.
type Heuristic struct{}

func (Heuristic) Name() string { return journal.StrategyHeuristic }

func (Heuristic) Validate(_ context.Context, listing types.Listing, user types.User) (types.ValidationResult, error) {
	return heuristic.ValidateListing(listing, user), nil
}

func (Heuristic) Value(_ context.Context, listing types.Listing) (types.ValuationResult, error) {
	return heuristic.ValueListing(listing), nil
}

func (Heuristic) Recommend(_ context.Context, user types.User, available []types.Listing, limit int) (types.RecommendationResult, error) {
	return heuristic.RecommendListings(user, available, limit), nil
}
