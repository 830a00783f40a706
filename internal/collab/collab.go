// Package collab models the external collaborators the decision system
// talks to: identity verification, token minting, and content-addressed
// metadata storage. Each collaborator is a narrow interface with an
// in-memory fake for tests and local runs, plus an HTTP client that
// follows the provider's documented contract.
package collab

import (
	"context"
	"encoding/json"
	"fmt"
)

// Verification statuses reported by the identity collaborator.
const (
	VerificationApproved = "APPROVED"
	VerificationRejected = "REJECTED"
	VerificationPending  = "PENDING"
	VerificationUnknown  = "UNKNOWN"
)

// VerificationSession is an initiated identity check: the provider-side
// applicant plus the token the front end needs to run the flow.
type VerificationSession struct {
	ApplicantID string `json:"applicant_id"`
	AccessToken string `json:"access_token"`
}

// Verifier is the identity-verification collaborator.
type Verifier interface {
	// Initiate registers the user with the provider and opens a
	// verification session.
	Initiate(ctx context.Context, userID string, profile map[string]string) (VerificationSession, error)

	// Status reports the user's current verification outcome, one of
	// the Verification* constants.
	Status(ctx context.Context, userID string) (string, error)
}

// WebhookEvent is the provider's push notification of a review outcome.
type WebhookEvent struct {
	ApplicantID  string `json:"applicantId"`
	ReviewResult struct {
		ReviewAnswer string `json:"reviewAnswer"`
	} `json:"reviewResult"`
}

// ParseWebhook decodes a provider webhook payload.
func ParseWebhook(payload []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook: %w", err)
	}
	if ev.ApplicantID == "" {
		return WebhookEvent{}, fmt.Errorf("webhook missing applicantId")
	}
	return ev, nil
}

// StatusFromAnswer maps the provider's review answers onto verification
// statuses: GREEN approves, RED rejects, YELLOW stays pending.
func StatusFromAnswer(answer string) string {
	switch answer {
	case "GREEN":
		return VerificationApproved
	case "RED":
		return VerificationRejected
	case "YELLOW":
		return VerificationPending
	default:
		return VerificationUnknown
	}
}

// MintReceipt records a completed token mint.
type MintReceipt struct {
	TokenID         int64  `json:"token_id"`
	TxHash          string `json:"transaction_hash"`
	ContractAddress string `json:"contract_address"`
}

// Minter is the token-minting collaborator.
type Minter interface {
	// Mint issues a token for the metadata URI to the wallet address.
	Mint(ctx context.Context, wallet, tokenURI string) (MintReceipt, error)
}

// Storage is the content-addressed metadata store.
type Storage interface {
	// Upload stores the payload and returns its content id, prefixed
	// with the addressing scheme (ipfs://...).
	Upload(ctx context.Context, payload []byte) (string, error)
}

// CollabError reports a failed collaborator call with the provider's
// response attached.
type CollabError struct {
	Service string
	Status  int
	Message string
}

func (e *CollabError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}
