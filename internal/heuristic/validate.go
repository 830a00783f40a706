// Package heuristic implements the fallback decision path. It shares
// the typed vocabulary and the market quantities with the rule-backed
// path but never touches the knowledge base, so an engine outage
// cannot take validation, valuation or recommendation down with it.
// Statuses, reasons and numeric bounds match the rule path on
// identical snapshots.
package heuristic

import (
	"strings"
	"time"
	"unicode/utf8"

	"groundtruth/internal/types"
)

// ValidateListing applies the KYC, document, field, numeric and
// content checks directly against the snapshot.
func ValidateListing(listing types.Listing, user types.User) types.ValidationResult {
	res := types.ValidationResult{
		ListingID: listing.ID,
		UserID:    user.ID,
		Timestamp: time.Now().UTC(),
	}

	var reasons []string

	if !user.KYCVerified {
		reasons = append(reasons, types.ReasonKYCRequired)
	}

	var missingDocs []string
	for _, d := range types.RequiredDocuments {
		if !listing.Doc(d).Present {
			missingDocs = append(missingDocs, d)
		}
	}
	if len(missingDocs) > 0 {
		reasons = append(reasons, types.MissingDocumentsReason(missingDocs))
	}

	var missingFields []string
	for _, f := range types.BasicFields {
		if strings.TrimSpace(fieldValue(listing, f)) == "" {
			missingFields = append(missingFields, f)
		}
	}
	if len(missingFields) > 0 {
		reasons = append(reasons, types.MissingFieldsReason(missingFields))
	}

	numerics := 0
	if listing.Size > 0 {
		numerics++
	}
	if listing.Bedrooms > 0 {
		numerics++
	}
	if listing.Price > 0 {
		numerics++
	}
	if numerics < 2 {
		reasons = append(reasons, types.ReasonDetailsIncomplete)
	}

	for _, d := range types.RequiredDocuments {
		if doc := listing.Doc(d); doc.Present && types.FilenameSuspicious(doc.Filename) {
			reasons = append(reasons, types.SuspiciousDocumentReason(d))
		}
	}
	for _, d := range types.RequiredDocuments {
		if doc := listing.Doc(d); doc.Present && doc.SizeBytes < types.MinDocumentBytes {
			reasons = append(reasons, types.TooSmallDocumentReason(d))
		}
	}

	if tooShort(listing.Title, types.MinTitleLen) {
		reasons = append(reasons, types.ReasonTitleTooShort)
	}
	if tooShort(listing.Description, types.MinDescriptionLen) {
		reasons = append(reasons, types.ReasonDescriptionTooShort)
	}
	if tooShort(listing.Location, types.MinLocationLen) {
		reasons = append(reasons, types.ReasonLocationTooVague)
	}

	if len(reasons) == 0 {
		res.Status = types.StatusApproved
		res.Reasons = []string{types.ReasonAllChecksPassed}
		return res
	}
	res.Status = types.StatusRejected
	res.Reasons = reasons
	return res
}

// tooShort reports a supplied value whose trimmed length falls under
// the minimum. Absent values are handled by the missing-field check,
// not here.
func tooShort(raw string, min int) bool {
	return raw != "" && utf8.RuneCountInString(strings.TrimSpace(raw)) < min
}

func fieldValue(l types.Listing, field string) string {
	switch field {
	case "title":
		return l.Title
	case "description":
		return l.Description
	case "location":
		return l.Location
	case "property_type":
		return l.PropertyType
	}
	return ""
}
