package types

import (
	"fmt"
	"strings"
	"time"
)

// Document types required for a listing to be approved.
const (
	DocTitleDeed      = "title_deed"
	DocTaxCertificate = "tax_certificate"
	DocUtilityBills   = "utility_bills"
	DocKYC            = "kyc_doc"
)

// RequiredDocuments lists the four documents every listing must carry,
// in reporting order.
var RequiredDocuments = []string{DocTitleDeed, DocTaxCertificate, DocUtilityBills, DocKYC}

// UnknownLabel is the documented default for absent text attributes.
const UnknownLabel = "Unknown"

// Document is the point-in-time view of one uploaded listing document.
type Document struct {
	Present   bool   `json:"present"`
	Filename  string `json:"filename,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// Listing is an immutable snapshot of a property listing at decision time.
// Missing fields carry their zero value; consumers apply the documented
// defaults (Unknown, 0, false) rather than failing.
type Listing struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Location      string              `json:"location"`
	PropertyType  string              `json:"property_type"`
	Size          float64             `json:"size"`
	Bedrooms      int                 `json:"bedrooms"`
	YearBuilt     int                 `json:"year_built"`
	OwnershipType string              `json:"ownership_type"`
	Price         float64             `json:"price"`
	Images        []string            `json:"images,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	Documents     map[string]Document `json:"documents"`
}

// Doc returns the named document snapshot, or an absent one.
func (l Listing) Doc(name string) Document {
	if l.Documents == nil {
		return Document{}
	}
	return l.Documents[name]
}

// LocationOrUnknown applies the documented default for an empty location.
func (l Listing) LocationOrUnknown() string {
	if strings.TrimSpace(l.Location) == "" {
		return UnknownLabel
	}
	return l.Location
}

// PropertyTypeOrUnknown applies the documented default for an empty type.
func (l Listing) PropertyTypeOrUnknown() string {
	if strings.TrimSpace(l.PropertyType) == "" {
		return UnknownLabel
	}
	return l.PropertyType
}

// TitleOrDefault applies the documented placeholder for an empty title.
func (l Listing) TitleOrDefault() string {
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Sprintf("Property #%s", l.ID)
	}
	return l.Title
}

// User is an immutable snapshot of the requesting user's profile.
type User struct {
	ID            string `json:"id"`
	KYCVerified   bool   `json:"kyc_verified"`
	WalletAddress string `json:"wallet_address,omitempty"`

	// Interaction history, used to derive recommendation interests.
	ViewedListings    []string `json:"viewed_properties,omitempty"`
	PurchasedListings []string `json:"purchased_properties,omitempty"`
	FavoritedListings []string `json:"favorited_properties,omitempty"`
}
