package types

import "time"

// Validation statuses. ERROR is a business outcome (malformed input mid-pipeline),
// distinct from REJECTED which is a deliberate rule decision.
const (
	StatusApproved      = "APPROVED"
	StatusRejected      = "REJECTED"
	StatusError         = "ERROR"
	StatusNeedsMoreInfo = "NEEDS_MORE_INFO"
)

// ValidationResult is the typed outcome of one listing-validation request.
// Constructed fresh per request and never mutated afterwards.
type ValidationResult struct {
	Status    string    `json:"status"`
	Reasons   []string  `json:"reasons"`
	ListingID string    `json:"listing_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ValuationRange bounds the estimated market value of a listing.
type ValuationRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// ValuationResult is the typed outcome of one valuation request.
type ValuationResult struct {
	ListingID      string                 `json:"listing_id"`
	Range          ValuationRange         `json:"valuation_range"`
	MarketAnalysis map[string]interface{} `json:"market_analysis"`
	Confidence     float64                `json:"confidence_score"`
	Timestamp      time.Time              `json:"timestamp"`
}

// Recommended is one surfaced listing inside a RecommendationResult.
type Recommended struct {
	ListingID    string  `json:"listing_id"`
	Title        string  `json:"title"`
	Location     string  `json:"location"`
	Price        float64 `json:"price"`
	PropertyType string  `json:"property_type"`
	Size         float64 `json:"size"`
	Bedrooms     int     `json:"bedrooms"`
	Score        float64 `json:"recommendation_score"`
}

// RecommendedFrom summarizes a listing for a recommendation response,
// applying the documented placeholders for absent fields.
func RecommendedFrom(l Listing, score float64) Recommended {
	return Recommended{
		ListingID:    l.ID,
		Title:        l.TitleOrDefault(),
		Location:     l.LocationOrUnknown(),
		Price:        l.Price,
		PropertyType: l.PropertyTypeOrUnknown(),
		Size:         l.Size,
		Bedrooms:     l.Bedrooms,
		Score:        score,
	}
}

// RecommendationResult is the typed outcome of one recommendation request.
type RecommendationResult struct {
	UserID          string            `json:"user_id"`
	Recommendations []Recommended     `json:"recommendations"`
	Reasoning       map[string]string `json:"reasoning"`
	TotalAvailable  int               `json:"total_available"`
	Timestamp       time.Time         `json:"timestamp"`
}

// Reasoning keys and basis labels shared by both decision paths.
const (
	ReasoningBasisKey     = "basis"
	ReasoningLocationsKey = "preferred_locations"
	ReasoningTypesKey     = "preferred_property_types"

	BasisInteractionHistory = "interaction history"
	BasisRecentListings     = "recent listings"
)

// Envelopes wrap every facade response. Success is false only for malformed
// requests; internal engine or parse failures still deliver success:true with
// a best-effort result.

type ValidationEnvelope struct {
	Success bool             `json:"success"`
	Result  ValidationResult `json:"result"`
	Error   string           `json:"error,omitempty"`
}

type ValuationEnvelope struct {
	Success bool            `json:"success"`
	Result  ValuationResult `json:"result"`
	Error   string          `json:"error,omitempty"`
}

type RecommendationEnvelope struct {
	Success bool                 `json:"success"`
	Result  RecommendationResult `json:"result"`
	Error   string               `json:"error,omitempty"`
}

// SubmissionEnvelope is the synchronous reply to a listing submission. The
// background pipeline later transitions the listing record; see internal/pipeline.
type SubmissionEnvelope struct {
	Success          bool              `json:"success"`
	Status           string            `json:"status,omitempty"`
	MetadataCID      string            `json:"metadata_cid,omitempty"`
	Message          string            `json:"message,omitempty"`
	Error            string            `json:"error,omitempty"`
	ValidationErrors []string          `json:"validation_errors,omitempty"`
	Validation       *ValidationResult `json:"validation_result,omitempty"`
}
