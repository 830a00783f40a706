package decision

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"groundtruth/internal/journal"
	"groundtruth/internal/kb"
	"groundtruth/internal/reason"
	"groundtruth/internal/types"
)

// Recorder receives journal entries. *journal.Journal satisfies it; a nil
// recorder disables journaling.
type Recorder interface {
	Record(e journal.Entry) error
}

// Options configure a decision service.
type Options struct {
	// Library backs the engine strategy. Nil runs the service in
	// heuristics-only mode, the degraded state used when rule loading
	// failed at startup.
	Library *kb.Library

	// Timeout bounds one engine evaluation. Zero selects the reasoner
	// default.
	Timeout time.Duration

	Recorder Recorder
	Logger   *zap.Logger
}

// Service is the decision facade. The only success:false envelopes it
// produces are malformed requests (missing required identifiers); every
// internal failure degrades to the heuristic strategy instead.
type Service struct {
	primary  Strategy
	fallback Strategy
	recorder Recorder
	logger   *zap.Logger
}

// NewService builds the facade. With a rule library the primary strategy
// is engine-backed; without one the heuristic path serves directly.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		primary:  Heuristic{},
		fallback: Heuristic{},
		recorder: opts.Recorder,
		logger:   logger,
	}
	if opts.Library != nil {
		s.primary = NewEngineBacked(reason.New(opts.Library, opts.Timeout, logger))
	}
	return s
}

// StrategyName reports which strategy answers first.
func (s *Service) StrategyName() string {
	return s.primary.Name()
}

// ValidateRequest carries one listing-validation call.
type ValidateRequest struct {
	Listing types.Listing `json:"listing_data"`
	User    types.User    `json:"user_data"`
}

// ValueRequest carries one valuation call.
type ValueRequest struct {
	Listing types.Listing `json:"listing_data"`
}

// RecommendRequest carries one recommendation call. A zero limit selects
// the default of five.
type RecommendRequest struct {
	User      types.User      `json:"user_data"`
	Available []types.Listing `json:"available_listings"`
	Limit     int             `json:"limit,omitempty"`
}

// Validate decides whether one listing snapshot passes the validation
// checks for the submitting user.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) types.ValidationEnvelope {
	if req.Listing.ID == "" {
		return types.ValidationEnvelope{Error: missingField("listing_data.id")}
	}
	if req.User.ID == "" {
		return types.ValidationEnvelope{Error: missingField("user_data.id")}
	}

	requestID := uuid.NewString()
	start := time.Now()

	strategy := s.primary
	result, err := strategy.Validate(ctx, req.Listing, req.User)
	if err != nil {
		s.logger.Warn("validation falling back",
			zap.String("request_id", requestID),
			zap.String("listing_id", req.Listing.ID),
			zap.Error(err))
		strategy = s.fallback
		result, _ = strategy.Validate(ctx, req.Listing, req.User)
	}

	s.record(journal.Entry{
		RequestID: requestID,
		Kind:      journal.KindValidation,
		SubjectID: req.Listing.ID,
		UserID:    req.User.ID,
		Strategy:  strategy.Name(),
		Status:    result.Status,
		Elapsed:   time.Since(start),
		Detail:    map[string]interface{}{"reasons": len(result.Reasons)},
	})
	s.logger.Info("listing validated",
		zap.String("request_id", requestID),
		zap.String("listing_id", req.Listing.ID),
		zap.String("status", result.Status),
		zap.String("strategy", strategy.Name()))
	return types.ValidationEnvelope{Success: true, Result: result}
}

// Value estimates the market value range of one listing snapshot.
func (s *Service) Value(ctx context.Context, req ValueRequest) types.ValuationEnvelope {
	if req.Listing.ID == "" {
		return types.ValuationEnvelope{Error: missingField("listing_data.id")}
	}

	requestID := uuid.NewString()
	start := time.Now()

	strategy := s.primary
	result, err := strategy.Value(ctx, req.Listing)
	if err != nil {
		s.logger.Warn("valuation falling back",
			zap.String("request_id", requestID),
			zap.String("listing_id", req.Listing.ID),
			zap.Error(err))
		strategy = s.fallback
		result, _ = strategy.Value(ctx, req.Listing)
	}

	s.record(journal.Entry{
		RequestID: requestID,
		Kind:      journal.KindValuation,
		SubjectID: req.Listing.ID,
		Strategy:  strategy.Name(),
		Status:    "valued",
		Elapsed:   time.Since(start),
		Detail: map[string]interface{}{
			"min":        result.Range.Min,
			"max":        result.Range.Max,
			"confidence": result.Confidence,
		},
	})
	s.logger.Info("listing valued",
		zap.String("request_id", requestID),
		zap.String("listing_id", req.Listing.ID),
		zap.Float64("min", result.Range.Min),
		zap.Float64("max", result.Range.Max),
		zap.String("strategy", strategy.Name()))
	return types.ValuationEnvelope{Success: true, Result: result}
}

// Recommend surfaces listings matching one user's interaction history.
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) types.RecommendationEnvelope {
	if req.User.ID == "" {
		return types.RecommendationEnvelope{Error: missingField("user_data.id")}
	}

	requestID := uuid.NewString()
	start := time.Now()

	strategy := s.primary
	result, err := strategy.Recommend(ctx, req.User, req.Available, req.Limit)
	if err != nil {
		s.logger.Warn("recommendation falling back",
			zap.String("request_id", requestID),
			zap.String("user_id", req.User.ID),
			zap.Error(err))
		strategy = s.fallback
		result, _ = strategy.Recommend(ctx, req.User, req.Available, req.Limit)
	}

	s.record(journal.Entry{
		RequestID: requestID,
		Kind:      journal.KindRecommendation,
		SubjectID: req.User.ID,
		UserID:    req.User.ID,
		Strategy:  strategy.Name(),
		Status:    "recommended",
		Elapsed:   time.Since(start),
		Detail: map[string]interface{}{
			"returned":  len(result.Recommendations),
			"available": result.TotalAvailable,
			"basis":     result.Reasoning[types.ReasoningBasisKey],
		},
	})
	s.logger.Info("listings recommended",
		zap.String("request_id", requestID),
		zap.String("user_id", req.User.ID),
		zap.Int("returned", len(result.Recommendations)),
		zap.String("strategy", strategy.Name()))
	return types.RecommendationEnvelope{Success: true, Result: result}
}

func (s *Service) record(e journal.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(e); err != nil {
		s.logger.Warn("journal record failed",
			zap.String("request_id", e.RequestID),
			zap.String("kind", e.Kind),
			zap.Error(err))
	}
}

func missingField(field string) string {
	return (&types.RequestError{Missing: field}).Error()
}
