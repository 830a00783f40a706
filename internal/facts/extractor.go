// Package facts converts listing and user snapshots into the normalized fact
// vocabulary the knowledge base evaluates. Extraction is a pure, total
// transform: missing fields degrade to the documented defaults (Unknown, 0,
// false) and never produce an error.
package facts

import (
	"strings"
	"unicode/utf8"

	"groundtruth/internal/market"
	"groundtruth/internal/types"
)

// Enumerated name constants shared with the rule set.
const (
	KYCVerified = types.Name("/verified")
	KYCPending  = types.Name("/pending")
	TrendStable = types.Name("/stable")
)

// areaNames maps market area classifications onto rule-set constants.
var areaNames = map[string]types.Name{
	market.AreaCentral:  "/central",
	market.AreaOuter:    "/outer",
	market.AreaSuburban: "/suburban",
}

// docName renders a document key as a rule-set name constant.
func docName(doc string) types.Name {
	return types.Name("/" + doc)
}

// fieldName renders a basic-info field as a rule-set name constant.
func fieldName(field string) types.Name {
	return types.Name("/" + field)
}

// profileID derives the profile subject linked to a user.
func profileID(userID string) string {
	return "profile_" + userID
}

// ValidationFacts builds the fact base for one validation request. Facts are
// emitted in a fixed order so repeated extraction of the same snapshot is
// byte-for-byte identical.
func ValidationFacts(listing types.Listing, user types.User) []types.Fact {
	l := listing.ID
	u := user.ID

	fs := make([]types.Fact, 0, 32)
	fs = append(fs,
		types.NewFact("listing", l),
		types.NewFact("submitted_by", l, u),
		types.NewFact("has_profile", u, profileID(u)),
	)
	if user.KYCVerified {
		fs = append(fs, types.NewFact("kyc_status", profileID(u), KYCVerified))
	} else {
		fs = append(fs, types.NewFact("kyc_status", profileID(u), KYCPending))
	}

	fs = append(fs,
		types.NewFact("listing_size", l, int64(listing.Size)),
		types.NewFact("listing_bedrooms", l, int64(listing.Bedrooms)),
		types.NewFact("listing_price", l, int64(listing.Price)),
		types.NewFact("property_type", l, listing.PropertyTypeOrUnknown()),
		types.NewFact("location", l, listing.LocationOrUnknown()),
	)

	for _, field := range types.BasicFields {
		raw := rawField(listing, field)
		if raw != "" {
			fs = append(fs, types.NewFact("field_present", l, fieldName(field)))
		}
		fs = append(fs, types.NewFact("field_len", l, fieldName(field), int64(utf8.RuneCountInString(strings.TrimSpace(raw)))))
	}

	for _, doc := range types.RequiredDocuments {
		d := listing.Doc(doc)
		if !d.Present {
			continue
		}
		fs = append(fs, types.NewFact("has_document", l, docName(doc)))
		fs = append(fs, types.NewFact("document_bytes", l, docName(doc), d.SizeBytes))
		if types.FilenameSuspicious(d.Filename) {
			fs = append(fs, types.NewFact("document_flagged", l, docName(doc)))
		}
	}

	// Compliance placeholders: no lien source exists and every
	// (location, property type) pair is treated as allowed.
	fs = append(fs,
		types.NewFact("has_lien", l, false),
		types.NewFact("allowed_zoning", listing.LocationOrUnknown(), listing.PropertyTypeOrUnknown()),
	)
	return fs
}

// ValuationFacts builds the fact base for one valuation request. The location
// multiplier is resolved here from the shared market table so the rule set
// stays free of market data.
func ValuationFacts(listing types.Listing) []types.Fact {
	l := listing.ID
	location := listing.LocationOrUnknown()

	yearBuilt := int64(listing.YearBuilt)
	if yearBuilt <= 0 {
		yearBuilt = 2020
	}

	return []types.Fact{
		types.NewFact("listing", l),
		types.NewFact("location", l, location),
		types.NewFact("property_type", l, listing.PropertyTypeOrUnknown()),
		types.NewFact("listing_size", l, int64(listing.Size)),
		types.NewFact("listing_bedrooms", l, int64(listing.Bedrooms)),
		types.NewFact("year_built", l, yearBuilt),
		types.NewFact("area_type", l, areaNames[market.AreaType(location)]),
		types.NewFact("market_trend", location, TrendStable),
		types.NewFact("location_multiplier_pct", l, market.MultiplierPct(location)),
	}
}

// RecommendationFacts builds the fact base for one recommendation request:
// the user's interaction history plus a profile of every available listing.
func RecommendationFacts(user types.User, available []types.Listing) []types.Fact {
	u := user.ID

	fs := make([]types.Fact, 0, 4+6*len(available))
	fs = append(fs, types.NewFact("recommendation_user", u))

	for _, id := range user.ViewedListings {
		fs = append(fs, types.NewFact("viewed_property", u, id))
	}
	for _, id := range user.PurchasedListings {
		fs = append(fs, types.NewFact("purchased_property", u, id))
	}
	for _, id := range user.FavoritedListings {
		fs = append(fs, types.NewFact("favorited_property", u, id))
	}

	for _, listing := range available {
		l := listing.ID
		fs = append(fs,
			types.NewFact("available_listing", l),
			types.NewFact("location", l, listing.LocationOrUnknown()),
			types.NewFact("property_type", l, listing.PropertyTypeOrUnknown()),
			types.NewFact("listing_price", l, int64(listing.Price)),
			types.NewFact("listing_size", l, int64(listing.Size)),
			types.NewFact("listing_bedrooms", l, int64(listing.Bedrooms)),
		)
	}
	return fs
}

// rawField returns the untrimmed value of a basic-info field.
func rawField(l types.Listing, field string) string {
	switch field {
	case "title":
		return l.Title
	case "description":
		return l.Description
	case "location":
		return l.Location
	case "property_type":
		return l.PropertyType
	default:
		return ""
	}
}
