package types

import (
	"fmt"
	"strings"
)

// Validation thresholds. Both the rule set and the heuristic engine apply
// these; keeping one copy is what lets the two paths reach the same verdict.
const (
	MinTitleLen       = 3
	MinDescriptionLen = 10
	MinLocationLen    = 3
	MinDocumentBytes  = 50000
)

// BasicFields are the four listing attributes that must be non-empty after
// trimming, in reporting order.
var BasicFields = []string{"title", "description", "location", "property_type"}

// SuspiciousFilenameTerms flag an uploaded document as a likely placeholder.
// Matching is case-insensitive substring containment.
var SuspiciousFilenameTerms = []string{
	"screenshot", "image", "photo", "random", "test", "sample", "dummy", "fake",
}

// FilenameSuspicious reports whether a document filename contains any
// placeholder term.
func FilenameSuspicious(filename string) bool {
	lower := strings.ToLower(filename)
	for _, term := range SuspiciousFilenameTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Reason strings reported by validation. The engine-path parser and the
// heuristic engine both build reasons through these helpers, in the same
// canonical order, so the two paths stay word-for-word identical.

const (
	ReasonKYCRequired         = "KYC verification required"
	ReasonDetailsIncomplete   = "Property details incomplete (size, bedrooms, price required)"
	ReasonAllChecksPassed     = "All validation checks passed - documents and content verified"
	ReasonTitleTooShort       = "Property title too short"
	ReasonDescriptionTooShort = "Property description too short"
	ReasonLocationTooVague    = "Property location too vague"
	ReasonLienRecorded        = "Active lien recorded against property"
	ReasonZoningMismatch      = "Property type not permitted by location zoning"
	ReasonUnspecified         = "No specific reasons provided"
)

// MissingDocumentsReason names every absent required document by key.
func MissingDocumentsReason(missing []string) string {
	return fmt.Sprintf("All 4 documents required. Missing: %s", strings.Join(missing, ", "))
}

// MissingFieldsReason names every empty basic-info field by key.
func MissingFieldsReason(missing []string) string {
	return fmt.Sprintf("All property information required. Missing: %s", strings.Join(missing, ", "))
}

// documentLabels render document keys for user-facing reasons.
var documentLabels = map[string]string{
	DocTitleDeed:      "Title deed",
	DocTaxCertificate: "Tax certificate",
	DocUtilityBills:   "Utility bills",
	DocKYC:            "KYC document",
}

// DocumentLabel renders a document key for user-facing reasons.
func DocumentLabel(doc string) string {
	if label, ok := documentLabels[doc]; ok {
		return label
	}
	return doc
}

// SuspiciousDocumentReason flags a placeholder-looking upload. Utility bills
// are plural, the rest singular.
func SuspiciousDocumentReason(doc string) string {
	if doc == DocUtilityBills {
		return "Utility bills appear to be random documents"
	}
	return fmt.Sprintf("%s appears to be a random document", DocumentLabel(doc))
}

// TooSmallDocumentReason flags an implausibly small upload.
func TooSmallDocumentReason(doc string) string {
	return fmt.Sprintf("%s file too small (likely not a real document)", DocumentLabel(doc))
}
