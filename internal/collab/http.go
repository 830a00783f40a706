package collab

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

func decodeJSON(resp *http.Response, v interface{}, service string) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &CollabError{Service: service, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

// HTTPVerifier talks to the identity provider's REST API. Requests are
// authenticated with an HMAC-SHA256 signature over method, path, body
// and timestamp, carried in the X-App-* headers.
type HTTPVerifier struct {
	baseURL   string
	appToken  string
	secretKey string
	client    *http.Client
}

var _ Verifier = (*HTTPVerifier)(nil)

// NewHTTPVerifier builds a verifier client. A nil http client selects a
// default with a 30s timeout.
func NewHTTPVerifier(baseURL, appToken, secretKey string, client *http.Client) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL:   strings.TrimRight(baseURL, "/"),
		appToken:  appToken,
		secretKey: secretKey,
		client:    httpClientOrDefault(client),
	}
}

func (v *HTTPVerifier) sign(method, path, body string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(v.secretKey))
	io.WriteString(mac, strings.ToUpper(method))
	io.WriteString(mac, path)
	io.WriteString(mac, body)
	io.WriteString(mac, strconv.FormatInt(ts, 10))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *HTTPVerifier) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+path, reader)
	if err != nil {
		return err
	}

	ts := time.Now().Unix()
	req.Header.Set("X-App-Token", v.appToken)
	req.Header.Set("X-App-Access-Ts", strconv.FormatInt(ts, 10))
	req.Header.Set("X-App-Access-Sig", v.sign(method, path, string(body), ts))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("verifier: %w", err)
	}
	return decodeJSON(resp, out, "verifier")
}

// Initiate registers an applicant and opens an access-token session.
func (v *HTTPVerifier) Initiate(ctx context.Context, userID string, profile map[string]string) (VerificationSession, error) {
	country := profile["country"]
	if country == "" {
		country = "US"
	}
	applicantBody, err := json.Marshal(map[string]interface{}{
		"externalUserId": userID,
		"info": map[string]string{
			"firstName": profile["first_name"],
			"lastName":  profile["last_name"],
			"email":     profile["email"],
			"phone":     profile["phone"],
			"country":   country,
			"dob":       profile["dob"],
		},
	})
	if err != nil {
		return VerificationSession{}, err
	}

	var applicant struct {
		ID string `json:"id"`
	}
	if err := v.do(ctx, "POST", "/resources/applicants", applicantBody, &applicant); err != nil {
		return VerificationSession{}, err
	}

	tokenBody, err := json.Marshal(map[string]interface{}{
		"userId":    userID,
		"ttlInSecs": 600,
		"levelName": "basic-kyc-level",
	})
	if err != nil {
		return VerificationSession{}, err
	}

	var token struct {
		Token string `json:"token"`
	}
	if err := v.do(ctx, "POST", "/resources/accessTokens", tokenBody, &token); err != nil {
		return VerificationSession{}, err
	}

	return VerificationSession{ApplicantID: applicant.ID, AccessToken: token.Token}, nil
}

// Status fetches and maps the provider's review answer.
func (v *HTTPVerifier) Status(ctx context.Context, userID string) (string, error) {
	var out struct {
		ReviewResult struct {
			ReviewAnswer string `json:"reviewAnswer"`
		} `json:"reviewResult"`
	}
	path := "/resources/applicants/" + userID + "/status"
	if err := v.do(ctx, "GET", path, nil, &out); err != nil {
		return VerificationUnknown, err
	}
	return StatusFromAnswer(out.ReviewResult.ReviewAnswer), nil
}

// HTTPMinter talks to a minting gateway that fronts the contract.
type HTTPMinter struct {
	endpoint string
	client   *http.Client
}

var _ Minter = (*HTTPMinter)(nil)

// NewHTTPMinter builds a minter client for the gateway's mint endpoint.
func NewHTTPMinter(endpoint string, client *http.Client) *HTTPMinter {
	return &HTTPMinter{endpoint: endpoint, client: httpClientOrDefault(client)}
}

// Mint requests a token for the wallet and metadata URI.
func (m *HTTPMinter) Mint(ctx context.Context, wallet, tokenURI string) (MintReceipt, error) {
	body, err := json.Marshal(map[string]string{
		"to_address": wallet,
		"token_uri":  tokenURI,
	})
	if err != nil {
		return MintReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.endpoint, bytes.NewReader(body))
	if err != nil {
		return MintReceipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("minter: %w", err)
	}

	var out struct {
		Success         bool   `json:"success"`
		TokenID         int64  `json:"token_id"`
		TxHash          string `json:"transaction_hash"`
		ContractAddress string `json:"contract_address"`
		Error           string `json:"error"`
	}
	if err := decodeJSON(resp, &out, "minter"); err != nil {
		return MintReceipt{}, err
	}
	if !out.Success {
		return MintReceipt{}, &CollabError{Service: "minter", Message: out.Error}
	}
	return MintReceipt{
		TokenID:         out.TokenID,
		TxHash:          out.TxHash,
		ContractAddress: out.ContractAddress,
	}, nil
}

// HTTPStorage uploads payloads through the IPFS HTTP API.
type HTTPStorage struct {
	baseURL string
	client  *http.Client
}

var _ Storage = (*HTTPStorage)(nil)

// NewHTTPStorage builds a storage client for an IPFS API endpoint.
func NewHTTPStorage(baseURL string, client *http.Client) *HTTPStorage {
	return &HTTPStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClientOrDefault(client),
	}
}

// Upload adds the payload and returns its ipfs:// content id.
func (s *HTTPStorage) Upload(ctx context.Context, payload []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "metadata.json")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(payload); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/api/v0/add", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}

	var out struct {
		Hash string `json:"Hash"`
	}
	if err := decodeJSON(resp, &out, "storage"); err != nil {
		return "", err
	}
	if out.Hash == "" {
		return "", &CollabError{Service: "storage", Message: "response missing content hash"}
	}
	return "ipfs://" + out.Hash, nil
}
