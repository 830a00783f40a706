package collab

import (
	"sync"
	"time"
)

// Listing lifecycle statuses tracked by the registry.
const (
	RecordDraft     = "draft"
	RecordSubmitted = "submitted"
	RecordAvailable = "available"
	RecordRejected  = "rejected"
)

// Validation states tracked alongside the lifecycle status.
const (
	ValidationPending  = "pending"
	ValidationApproved = "approved"
	ValidationRejected = "rejected"
)

// Record is the mutable marketplace state of one listing: lifecycle
// status, validation state, and the collaborator artifacts attached to
// it over time.
type Record struct {
	ListingID       string    `json:"listing_id"`
	OwnerID         string    `json:"owner_id"`
	Status          string    `json:"status"`
	ValidationState string    `json:"validation_status"`
	Confidence      float64   `json:"validation_confidence,omitempty"`
	MetadataCID     string    `json:"ipfs_metadata_cid,omitempty"`
	TokenID         string    `json:"token_id,omitempty"`
	ContractAddress string    `json:"contract_address,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Registry is an in-memory record store standing in for the marketplace
// database, which this system treats as an external collaborator. Safe
// for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]Record)}
}

// Put stores or replaces a record.
func (r *Registry) Put(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.UpdatedAt = time.Now().UTC()
	r.records[rec.ListingID] = rec
}

// Get returns the record for a listing.
func (r *Registry) Get(listingID string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[listingID]
	return rec, ok
}

// Update applies fn to the listing's record under the write lock and
// returns the updated copy. Missing records are not created.
func (r *Registry) Update(listingID string, fn func(*Record)) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[listingID]
	if !ok {
		return Record{}, false
	}
	fn(&rec)
	rec.UpdatedAt = time.Now().UTC()
	r.records[listingID] = rec
	return rec, true
}

// Len reports how many records the registry holds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
