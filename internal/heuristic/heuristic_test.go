package heuristic

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"groundtruth/internal/types"
)

func completeListing() types.Listing {
	return types.Listing{
		ID:           "42",
		Title:        "Sea View Apartment",
		Description:  "Spacious 3BHK overlooking the bay with deeded parking",
		Location:     "Bandra West, Mumbai",
		PropertyType: "Apartment",
		Size:         1000,
		Bedrooms:     3,
		YearBuilt:    2015,
		Price:        25000000,
		Images:       []string{"front.jpg"},
		Documents: map[string]types.Document{
			types.DocTitleDeed:      {Present: true, Filename: "deed.pdf", SizeBytes: 120000},
			types.DocTaxCertificate: {Present: true, Filename: "tax2024.pdf", SizeBytes: 90000},
			types.DocUtilityBills:   {Present: true, Filename: "bills.pdf", SizeBytes: 76000},
			types.DocKYC:            {Present: true, Filename: "passport.pdf", SizeBytes: 64000},
		},
	}
}

func TestValidateListingApproved(t *testing.T) {
	res := ValidateListing(completeListing(), types.User{ID: "7", KYCVerified: true})

	if res.Status != types.StatusApproved {
		t.Fatalf("status = %s, want %s (reasons %v)", res.Status, types.StatusApproved, res.Reasons)
	}
	if diff := cmp.Diff([]string{types.ReasonAllChecksPassed}, res.Reasons); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateListingReasonsInOrder(t *testing.T) {
	listing := completeListing()
	listing.Title = "ok"
	delete(listing.Documents, types.DocTaxCertificate)
	listing.Documents[types.DocTitleDeed] = types.Document{Present: true, Filename: "screenshot.png", SizeBytes: 3000}

	res := ValidateListing(listing, types.User{ID: "7"})

	if res.Status != types.StatusRejected {
		t.Fatalf("status = %s, want %s", res.Status, types.StatusRejected)
	}
	want := []string{
		types.ReasonKYCRequired,
		"All 4 documents required. Missing: tax_certificate",
		"Title deed appears to be a random document",
		"Title deed file too small (likely not a real document)",
		types.ReasonTitleTooShort,
	}
	if diff := cmp.Diff(want, res.Reasons); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateListingEmptySnapshot(t *testing.T) {
	res := ValidateListing(types.Listing{ID: "9"}, types.User{ID: "3"})

	if res.Status != types.StatusRejected {
		t.Fatalf("status = %s, want %s", res.Status, types.StatusRejected)
	}
	want := []string{
		types.ReasonKYCRequired,
		"All 4 documents required. Missing: title_deed, tax_certificate, utility_bills, kyc_doc",
		"All property information required. Missing: title, description, location, property_type",
		types.ReasonDetailsIncomplete,
	}
	if diff := cmp.Diff(want, res.Reasons); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateWhitespaceFieldCountsTwice(t *testing.T) {
	listing := completeListing()
	listing.Title = "   "

	res := ValidateListing(listing, types.User{ID: "7", KYCVerified: true})

	want := []string{
		"All property information required. Missing: title",
		types.ReasonTitleTooShort,
	}
	if diff := cmp.Diff(want, res.Reasons); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestValueListing(t *testing.T) {
	res := ValueListing(completeListing())

	if res.Range.Min != 850000 || res.Range.Max != 1150000 {
		t.Errorf("range = [%v, %v], want [850000, 1150000]", res.Range.Min, res.Range.Max)
	}
	if res.Range.Currency != "INR" {
		t.Errorf("currency = %q, want INR", res.Range.Currency)
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", res.Confidence)
	}

	sparse := ValueListing(types.Listing{ID: "9"})
	if sparse.Range.Min != 425000 || sparse.Range.Max != 575000 {
		t.Errorf("sparse range = [%v, %v], want [425000, 575000]", sparse.Range.Min, sparse.Range.Max)
	}
	if sparse.Confidence != 0.5 {
		t.Errorf("sparse confidence = %v, want 0.5", sparse.Confidence)
	}
}

func TestRecommendListingsRecency(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	available := make([]types.Listing, 0, 7)
	for i := 0; i < 7; i++ {
		available = append(available, types.Listing{
			ID:        fmt.Sprintf("l%d", i+1),
			Title:     fmt.Sprintf("Listing %d", i+1),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	res := RecommendListings(types.User{ID: "7"}, available, 5)

	if len(res.Recommendations) != 5 {
		t.Fatalf("recommendations = %d, want 5", len(res.Recommendations))
	}
	if res.TotalAvailable != 7 {
		t.Errorf("total_available = %d, want 7", res.TotalAvailable)
	}
	// Newest first: l7 down to l3.
	for i, rec := range res.Recommendations {
		want := fmt.Sprintf("l%d", 7-i)
		if rec.ListingID != want {
			t.Errorf("position %d: got %s, want %s", i, rec.ListingID, want)
		}
		if rec.Score != 0.5 {
			t.Errorf("score = %v, want 0.5", rec.Score)
		}
	}
	if res.Reasoning[types.ReasoningBasisKey] != types.BasisRecentListings {
		t.Errorf("basis = %q", res.Reasoning[types.ReasoningBasisKey])
	}
}

func TestRecommendListingsDefaults(t *testing.T) {
	res := RecommendListings(types.User{ID: "7"}, []types.Listing{{ID: "77"}}, 0)

	if len(res.Recommendations) != 1 {
		t.Fatalf("recommendations = %d, want 1", len(res.Recommendations))
	}
	rec := res.Recommendations[0]
	if rec.Title != "Property #77" {
		t.Errorf("title placeholder = %q, want Property #77", rec.Title)
	}
	if rec.Location != types.UnknownLabel || rec.PropertyType != types.UnknownLabel {
		t.Errorf("unknown placeholders not applied: %+v", rec)
	}
}
