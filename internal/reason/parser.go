package reason

import (
	"sort"
	"strings"
	"time"

	"groundtruth/internal/heuristic"
	"groundtruth/internal/kb"
	"groundtruth/internal/market"
	"groundtruth/internal/types"
)

// The parsers below are the only code that reads derived relations.
// They tolerate absent derivations by substituting the documented
// defaults; only a failed read of the session itself is an error.

func parseValidation(sess *kb.Session, listing types.Listing, user types.User) (types.ValidationResult, error) {
	res := types.ValidationResult{
		ListingID: listing.ID,
		UserID:    user.ID,
		Timestamp: time.Now().UTC(),
	}

	statuses, err := derivedNames(sess, "validation_status", listing.ID, 1)
	if err != nil {
		return types.ValidationResult{}, err
	}
	switch {
	case statuses["/rejected"]:
		res.Status = types.StatusRejected
	case statuses["/approved"]:
		res.Status = types.StatusApproved
	default:
		res.Status = types.StatusNeedsMoreInfo
	}

	issues, err := derivedNames(sess, "validation_issue", listing.ID, 1)
	if err != nil {
		return types.ValidationResult{}, err
	}
	missingDocs, err := derivedNames(sess, "missing_document", listing.ID, 1)
	if err != nil {
		return types.ValidationResult{}, err
	}
	missingFields, err := derivedNames(sess, "missing_field", listing.ID, 1)
	if err != nil {
		return types.ValidationResult{}, err
	}
	contentIssues, err := derivedNames(sess, "content_issue", listing.ID, 1)
	if err != nil {
		return types.ValidationResult{}, err
	}
	flagged, tooSmall, err := documentIssues(sess, listing.ID)
	if err != nil {
		return types.ValidationResult{}, err
	}

	var reasons []string
	if issues["/kyc_required"] {
		reasons = append(reasons, types.ReasonKYCRequired)
	}
	if issues["/documents_missing"] {
		var docs []string
		for _, d := range types.RequiredDocuments {
			if missingDocs["/"+d] {
				docs = append(docs, d)
			}
		}
		reasons = append(reasons, types.MissingDocumentsReason(docs))
	}
	if issues["/fields_missing"] {
		var fields []string
		for _, f := range types.BasicFields {
			if missingFields["/"+f] {
				fields = append(fields, f)
			}
		}
		reasons = append(reasons, types.MissingFieldsReason(fields))
	}
	if issues["/details_incomplete"] {
		reasons = append(reasons, types.ReasonDetailsIncomplete)
	}
	for _, d := range types.RequiredDocuments {
		if flagged["/"+d] {
			reasons = append(reasons, types.SuspiciousDocumentReason(d))
		}
	}
	for _, d := range types.RequiredDocuments {
		if tooSmall["/"+d] {
			reasons = append(reasons, types.TooSmallDocumentReason(d))
		}
	}
	if contentIssues["/title"] {
		reasons = append(reasons, types.ReasonTitleTooShort)
	}
	if contentIssues["/description"] {
		reasons = append(reasons, types.ReasonDescriptionTooShort)
	}
	if contentIssues["/location"] {
		reasons = append(reasons, types.ReasonLocationTooVague)
	}
	if issues["/lien_present"] {
		reasons = append(reasons, types.ReasonLienRecorded)
	}
	if issues["/zoning"] {
		reasons = append(reasons, types.ReasonZoningMismatch)
	}

	if len(reasons) == 0 {
		// Loaded rule sets may derive statuses or issue kinds this
		// parser does not recognize; the report still names a reason.
		if res.Status == types.StatusApproved {
			reasons = []string{types.ReasonAllChecksPassed}
		} else {
			reasons = []string{types.ReasonUnspecified}
		}
	}
	res.Reasons = reasons
	return res, nil
}

func parseValuation(sess *kb.Session, listing types.Listing) (types.ValuationResult, error) {
	res := types.ValuationResult{
		ListingID:      listing.ID,
		Range:          types.ValuationRange{Currency: market.Currency},
		MarketAnalysis: market.Analysis(listing),
		Confidence:     market.ValuationConfidence(listing),
		Timestamp:      time.Now().UTC(),
	}

	rows, err := sess.Facts("final_valuation")
	if err != nil {
		return types.ValuationResult{}, err
	}
	for _, row := range rows {
		if !subjectIs(row, listing.ID) || len(row.Args) != 3 {
			continue
		}
		lo, okLo := row.Args[1].(int64)
		hi, okHi := row.Args[2].(int64)
		if okLo && okHi {
			res.Range.Min = float64(lo)
			res.Range.Max = float64(hi)
			break
		}
	}
	return res, nil
}

func parseRecommendations(sess *kb.Session, user types.User, available []types.Listing, limit int) (types.RecommendationResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	res := types.RecommendationResult{
		UserID:          user.ID,
		Recommendations: make([]types.Recommended, 0, limit),
		TotalAvailable:  len(available),
		Timestamp:       time.Now().UTC(),
	}

	matched, err := derivedStrings(sess, "recommended", user.ID, 1)
	if err != nil {
		return types.RecommendationResult{}, err
	}

	for _, l := range available {
		if len(res.Recommendations) == limit {
			break
		}
		if matched[l.ID] {
			res.Recommendations = append(res.Recommendations, types.RecommendedFrom(l, market.ListingCompleteness(l)))
		}
	}

	if len(res.Recommendations) == 0 {
		// Nothing matched the interaction history; both paths answer
		// the same way, with the most recent listings.
		return heuristic.RecommendListings(user, available, limit), nil
	}

	reasoning := map[string]string{types.ReasoningBasisKey: types.BasisInteractionHistory}
	locs, err := derivedValues(sess, "interest_location", user.ID, 1)
	if err != nil {
		return types.RecommendationResult{}, err
	}
	if len(locs) > 0 {
		reasoning[types.ReasoningLocationsKey] = strings.Join(locs, ", ")
	}
	typs, err := derivedValues(sess, "interest_type", user.ID, 1)
	if err != nil {
		return types.RecommendationResult{}, err
	}
	if len(typs) > 0 {
		reasoning[types.ReasoningTypesKey] = strings.Join(typs, ", ")
	}
	res.Reasoning = reasoning
	return res, nil
}

// derivedNames collects the name constants at one argument position,
// restricted to rows about the given subject.
func derivedNames(sess *kb.Session, pred, subject string, arg int) (map[string]bool, error) {
	rows, err := sess.Facts(pred)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	for _, row := range rows {
		if !subjectIs(row, subject) || len(row.Args) <= arg {
			continue
		}
		if n, ok := row.Args[arg].(types.Name); ok {
			set[string(n)] = true
		}
	}
	return set, nil
}

// derivedStrings collects plain string arguments at one position.
func derivedStrings(sess *kb.Session, pred, subject string, arg int) (map[string]bool, error) {
	rows, err := sess.Facts(pred)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	for _, row := range rows {
		if !subjectIs(row, subject) || len(row.Args) <= arg {
			continue
		}
		if s, ok := row.Args[arg].(string); ok {
			set[s] = true
		}
	}
	return set, nil
}

// derivedValues is derivedStrings with a sorted slice result.
func derivedValues(sess *kb.Session, pred, subject string, arg int) ([]string, error) {
	set, err := derivedStrings(sess, pred, subject, arg)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func documentIssues(sess *kb.Session, subject string) (flagged, tooSmall map[string]bool, err error) {
	rows, err := sess.Facts("document_issue")
	if err != nil {
		return nil, nil, err
	}
	flagged = make(map[string]bool)
	tooSmall = make(map[string]bool)
	for _, row := range rows {
		if !subjectIs(row, subject) || len(row.Args) != 3 {
			continue
		}
		doc, okDoc := row.Args[1].(types.Name)
		kind, okKind := row.Args[2].(types.Name)
		if !okDoc || !okKind {
			continue
		}
		switch string(kind) {
		case "/flagged":
			flagged[string(doc)] = true
		case "/too_small":
			tooSmall[string(doc)] = true
		}
	}
	return flagged, tooSmall, nil
}

func subjectIs(f types.Fact, subject string) bool {
	if len(f.Args) == 0 {
		return false
	}
	s, ok := f.Args[0].(string)
	return ok && s == subject
}
