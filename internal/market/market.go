// Package market holds the fixed market constants shared by the rule engine
// path and the heuristic path: the base rate, the location multiplier table,
// area classification, and the completeness scoring both paths report.
// Keeping one copy here is what makes the two paths reach equivalent numbers.
package market

import (
	"strings"

	"groundtruth/internal/types"
)

// BaseRate is the fixed price per unit area used for baseline valuation.
const BaseRate = 500.0

// DefaultSize substitutes for an unset or non-positive listing size.
const DefaultSize = 1000.0

// Valuation ranges spread the base value by a fixed band.
const (
	RangeLowFactor  = 0.85
	RangeHighFactor = 1.15
)

// Currency reported on every valuation.
const Currency = "INR"

// LocationRate maps a location keyword to its market multiplier.
type LocationRate struct {
	Keyword    string
	Multiplier float64
}

// LocationRates is the fixed multiplier table. Matching is case-insensitive
// substring containment with longest-keyword-wins: "united states of america"
// resolves through "united states" (1.8), never through the shorter "us".
// Ties on length keep the earlier entry.
var LocationRates = []LocationRate{
	{"delhi", 1.5},
	{"mumbai", 2.0},
	{"bangalore", 1.2},
	{"chennai", 1.0},
	{"hyderabad", 1.1},
	{"pune", 1.3},
	{"kolkata", 0.9},
	{"ahmedabad", 0.8},
	{"us", 1.8},
	{"usa", 1.8},
	{"united states", 1.8},
	{"florida", 2.2},
	{"california", 2.5},
	{"texas", 1.6},
	{"new york", 3.0},
}

// Multiplier returns the location multiplier for a free-form location string,
// or 1.0 when no keyword matches.
func Multiplier(location string) float64 {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return 1.0
	}
	best := 1.0
	bestLen := 0
	for _, r := range LocationRates {
		if len(r.Keyword) > bestLen && strings.Contains(loc, r.Keyword) {
			best = r.Multiplier
			bestLen = len(r.Keyword)
		}
	}
	return best
}

// MultiplierPct returns the multiplier scaled to integer percent for rule
// arithmetic (2.0 -> 200).
func MultiplierPct(location string) int64 {
	return int64(Multiplier(location)*100 + 0.5)
}

// EffectiveSize applies the documented default for unset sizes.
func EffectiveSize(size float64) float64 {
	if size <= 0 {
		return DefaultSize
	}
	return size
}

// ValuationBounds derives the integral price range for a listing:
// size times base rate times the percent multiplier, spread to 85% and
// 115%. The arithmetic truncates at the same points as the valuation
// rules, so both decision paths report identical whole-unit bounds.
func ValuationBounds(l types.Listing) (lo, hi int64) {
	size := int64(EffectiveSize(l.Size))
	base := size * int64(BaseRate) * MultiplierPct(l.Location) / 100
	return base * 85 / 100, base * 115 / 100
}

// ValuationConfidence scores how much listing data backed a valuation:
// 0.5 base plus 0.1 for each present attribute of size, bedrooms, year built,
// location, and property type, capped at 1.0. Scores are computed in
// tenths so repeated calls yield bit-identical floats.
func ValuationConfidence(l types.Listing) float64 {
	n := 0
	if l.Size > 0 {
		n++
	}
	if l.Bedrooms > 0 {
		n++
	}
	if l.YearBuilt > 0 {
		n++
	}
	if strings.TrimSpace(l.Location) != "" {
		n++
	}
	if strings.TrimSpace(l.PropertyType) != "" {
		n++
	}
	return tenths(5 + n)
}

// ListingCompleteness scores a recommended listing by data completeness:
// 0.5 base plus 0.1 for each of title, description, images, price, and size.
func ListingCompleteness(l types.Listing) float64 {
	n := 0
	if strings.TrimSpace(l.Title) != "" {
		n++
	}
	if strings.TrimSpace(l.Description) != "" {
		n++
	}
	if len(l.Images) > 0 {
		n++
	}
	if l.Price > 0 {
		n++
	}
	if l.Size > 0 {
		n++
	}
	return tenths(5 + n)
}

func tenths(n int) float64 {
	if n > 10 {
		n = 10
	}
	return float64(n) / 10
}

// Area classifications derived from location keywords.
const (
	AreaCentral  = "Central"
	AreaOuter    = "Outer"
	AreaSuburban = "Suburban"
)

var (
	centralKeywords = []string{"central", "downtown", "city center"}
	outerKeywords   = []string{"suburb", "outskirts", "peripheral"}
)

// AreaType classifies a location as Central, Outer, or Suburban by keyword.
// A stand-in for real geographic classification.
func AreaType(location string) string {
	loc := strings.ToLower(location)
	for _, kw := range centralKeywords {
		if strings.Contains(loc, kw) {
			return AreaCentral
		}
	}
	for _, kw := range outerKeywords {
		if strings.Contains(loc, kw) {
			return AreaOuter
		}
	}
	return AreaSuburban
}

type cityType struct {
	city, propertyType string
}

// pricePerSqft holds reference rates for known (city, property type) pairs.
var pricePerSqft = map[cityType]float64{
	{"Delhi", "Apartment"}:     8000,
	{"Delhi", "Villa"}:         12000,
	{"Mumbai", "Apartment"}:    15000,
	{"Mumbai", "Villa"}:        25000,
	{"Bangalore", "Apartment"}: 6000,
	{"Bangalore", "Villa"}:     10000,
}

// PricePerSqft returns the reference rate for a location and property type,
// falling back to a flat default for unknown pairs.
func PricePerSqft(location, propertyType string) float64 {
	if rate, ok := pricePerSqft[cityType{location, propertyType}]; ok {
		return rate
	}
	return 5000
}

// Analysis assembles the market-analysis block attached to every valuation.
// Trend and demand figures are fixed until a real market data source exists.
func Analysis(l types.Listing) map[string]interface{} {
	location := l.LocationOrUnknown()
	propertyType := l.PropertyTypeOrUnknown()
	return map[string]interface{}{
		"location_trend":       "stable",
		"property_type_demand": "moderate",
		"market_conditions":    "favorable",
		"price_per_sqft":       PricePerSqft(location, propertyType),
		"comparable_properties": []map[string]interface{}{
			{
				"location":       location,
				"type":           propertyType,
				"price_per_sqft": 8000,
				"sale_date":      "2024-01-15",
			},
			{
				"location":       location,
				"type":           propertyType,
				"price_per_sqft": 8500,
				"sale_date":      "2024-02-20",
			},
		},
	}
}
