// Package decide re-exports the decision facade so tools built outside
// this module can consume it without violating internal package
// encapsulation. It adds no behavior of its own.
package decide

import (
	"groundtruth/internal/decision"
	"groundtruth/internal/kb"
	"groundtruth/internal/types"
)

// Facade service and its configuration.
type (
	Service = decision.Service
	Options = decision.Options
)

var NewService = decision.NewService

// Request shapes accepted by the facade.
type (
	ValidateRequest  = decision.ValidateRequest
	ValueRequest     = decision.ValueRequest
	RecommendRequest = decision.RecommendRequest
)

// Response envelopes and their payloads.
type (
	ValidationEnvelope     = types.ValidationEnvelope
	ValuationEnvelope      = types.ValuationEnvelope
	RecommendationEnvelope = types.RecommendationEnvelope
	ValidationResult       = types.ValidationResult
	ValuationResult        = types.ValuationResult
	RecommendationResult   = types.RecommendationResult
	ValuationRange         = types.ValuationRange
	Recommended            = types.Recommended
)

// Input snapshots.
type (
	Listing  = types.Listing
	User     = types.User
	Document = types.Document
)

// Validation statuses.
const (
	StatusApproved      = types.StatusApproved
	StatusRejected      = types.StatusRejected
	StatusError         = types.StatusError
	StatusNeedsMoreInfo = types.StatusNeedsMoreInfo
)

// Rule library construction for engine-backed services.
type (
	Library        = kb.Library
	LibraryOptions = kb.Options
)

var NewLibrary = kb.NewLibrary
