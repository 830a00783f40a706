package collab

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
)

// FakeVerifier is a deterministic in-memory Verifier. Statuses start
// UNKNOWN and move via SetStatus or ApplyWebhook.
type FakeVerifier struct {
	mu        sync.Mutex
	statuses  map[string]string
	userByApp map[string]string
	sessions  int
}

var _ Verifier = (*FakeVerifier)(nil)

// NewFakeVerifier returns an empty fake verifier.
func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{
		statuses:  make(map[string]string),
		userByApp: make(map[string]string),
	}
}

// Initiate opens a session with predictable applicant and token ids.
func (v *FakeVerifier) Initiate(_ context.Context, userID string, _ map[string]string) (VerificationSession, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.sessions++
	applicantID := "applicant-" + userID
	v.userByApp[applicantID] = userID
	if _, ok := v.statuses[userID]; !ok {
		v.statuses[userID] = VerificationPending
	}
	return VerificationSession{
		ApplicantID: applicantID,
		AccessToken: fmt.Sprintf("token-%d", v.sessions),
	}, nil
}

// Status reports the stored status, UNKNOWN for users never seen.
func (v *FakeVerifier) Status(_ context.Context, userID string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.statuses[userID]; ok {
		return s, nil
	}
	return VerificationUnknown, nil
}

// SetStatus pins a user's status directly.
func (v *FakeVerifier) SetStatus(userID, status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses[userID] = status
}

// ApplyWebhook applies a provider webhook payload and returns the user
// it resolved to and the resulting status.
func (v *FakeVerifier) ApplyWebhook(payload []byte) (userID, status string, err error) {
	ev, err := ParseWebhook(payload)
	if err != nil {
		return "", "", err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	userID, ok := v.userByApp[ev.ApplicantID]
	if !ok {
		return "", "", &CollabError{Service: "verifier", Message: "unknown applicant " + ev.ApplicantID}
	}
	status = StatusFromAnswer(ev.ReviewResult.ReviewAnswer)
	v.statuses[userID] = status
	return userID, status, nil
}

// FakeMinter issues sequential token ids starting above 1000, matching
// the shape real receipts carry.
type FakeMinter struct {
	mu       sync.Mutex
	next     int64
	contract string
	receipts []MintReceipt
}

var _ Minter = (*FakeMinter)(nil)

// NewFakeMinter returns a fake minter reporting the given contract
// address on every receipt.
func NewFakeMinter(contract string) *FakeMinter {
	if contract == "" {
		contract = "0x000000000000000000000000000000000000c0de"
	}
	return &FakeMinter{next: 1000, contract: contract}
}

// Mint issues the next token id.
func (m *FakeMinter) Mint(_ context.Context, wallet, tokenURI string) (MintReceipt, error) {
	if wallet == "" {
		return MintReceipt{}, &CollabError{Service: "minter", Message: "empty wallet address"}
	}
	if tokenURI == "" {
		return MintReceipt{}, &CollabError{Service: "minter", Message: "empty token uri"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	r := MintReceipt{
		TokenID:         m.next,
		TxHash:          fmt.Sprintf("0x%064d", m.next),
		ContractAddress: m.contract,
	}
	m.receipts = append(m.receipts, r)
	return r, nil
}

// Receipts returns every mint issued so far.
func (m *FakeMinter) Receipts() []MintReceipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MintReceipt, len(m.receipts))
	copy(out, m.receipts)
	return out
}

// FakeStorage content-addresses payloads by their SHA-256 digest, so
// identical payloads always yield the same cid.
type FakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ Storage = (*FakeStorage)(nil)

// NewFakeStorage returns an empty fake store.
func NewFakeStorage() *FakeStorage {
	return &FakeStorage{blobs: make(map[string][]byte)}
}

// Upload stores the payload under its digest-derived cid.
func (s *FakeStorage) Upload(_ context.Context, payload []byte) (string, error) {
	sum := sha256.Sum256(payload)
	cid := fmt.Sprintf("ipfs://%x", sum)

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.blobs[cid] = stored
	return cid, nil
}

// Get returns a stored payload by cid.
func (s *FakeStorage) Get(cid string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[cid]
	return b, ok
}

// Len reports how many distinct payloads are stored.
func (s *FakeStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
