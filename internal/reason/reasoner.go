// Package reason drives rule-backed decisions end to end: extract
// facts from the request snapshot, evaluate a knowledge-base session,
// and read the derived relations back into typed results. Engine
// failures surface as EngineError so callers can fall back to the
// heuristic path; they are never folded into a decision.
package reason

import (
	"context"
	"time"

	"go.uber.org/zap"

	"groundtruth/internal/facts"
	"groundtruth/internal/kb"
	"groundtruth/internal/types"
)

const (
	// DefaultTimeout bounds one engine evaluation.
	DefaultTimeout = 5 * time.Second

	// DefaultLimit caps a recommendation response when the request
	// does not say otherwise.
	DefaultLimit = 5
)

// Reasoner evaluates decision requests against the rule library. It is
// safe for concurrent use; every request gets its own session.
type Reasoner struct {
	library *kb.Library
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a reasoner over a compiled rule library. A zero timeout
// selects DefaultTimeout.
func New(library *kb.Library, timeout time.Duration, logger *zap.Logger) *Reasoner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reasoner{library: library, timeout: timeout, logger: logger}
}

// ValidateListing runs the validation rules over one listing/user
// snapshot.
func (r *Reasoner) ValidateListing(ctx context.Context, listing types.Listing, user types.User) (types.ValidationResult, error) {
	sess, err := r.evalSession(ctx, kb.DomainValidation, facts.ValidationFacts(listing, user))
	if err != nil {
		return types.ValidationResult{}, err
	}
	return parseValidation(sess, listing, user)
}

// ValueListing runs the valuation rules over one listing snapshot.
func (r *Reasoner) ValueListing(ctx context.Context, listing types.Listing) (types.ValuationResult, error) {
	sess, err := r.evalSession(ctx, kb.DomainValuation, facts.ValuationFacts(listing))
	if err != nil {
		return types.ValuationResult{}, err
	}
	return parseValuation(sess, listing)
}

// RecommendListings runs the recommendation rules for one user over
// the currently available listings.
func (r *Reasoner) RecommendListings(ctx context.Context, user types.User, available []types.Listing, limit int) (types.RecommendationResult, error) {
	sess, err := r.evalSession(ctx, kb.DomainRecommendation, facts.RecommendationFacts(user, available))
	if err != nil {
		return types.RecommendationResult{}, err
	}
	return parseRecommendations(sess, user, available, limit)
}

func (r *Reasoner) evalSession(ctx context.Context, domain kb.Domain, fs []types.Fact) (*kb.Session, error) {
	sess := r.library.RuleSet(domain).NewSession()
	sess.AssertAll(fs)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	if err := sess.Eval(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("decision session evaluated",
		zap.String("domain", string(domain)),
		zap.Int("facts", sess.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return sess, nil
}
