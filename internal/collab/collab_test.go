package collab

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeVerifierLifecycle(t *testing.T) {
	v := NewFakeVerifier()
	ctx := context.Background()

	status, err := v.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, VerificationUnknown, status)

	sess, err := v.Initiate(ctx, "u1", map[string]string{"first_name": "Asha"})
	require.NoError(t, err)
	assert.Equal(t, "applicant-u1", sess.ApplicantID)
	assert.NotEmpty(t, sess.AccessToken)

	status, err = v.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, VerificationPending, status)

	v.SetStatus("u1", VerificationApproved)
	status, err = v.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, VerificationApproved, status)
}

func TestFakeVerifierWebhook(t *testing.T) {
	v := NewFakeVerifier()
	_, err := v.Initiate(context.Background(), "u1", nil)
	require.NoError(t, err)

	tests := []struct {
		answer string
		want   string
	}{
		{"GREEN", VerificationApproved},
		{"RED", VerificationRejected},
		{"YELLOW", VerificationPending},
		{"PURPLE", VerificationUnknown},
	}
	for _, tt := range tests {
		payload := []byte(`{"applicantId":"applicant-u1","reviewResult":{"reviewAnswer":"` + tt.answer + `"}}`)
		userID, status, err := v.ApplyWebhook(payload)
		require.NoError(t, err)
		assert.Equal(t, "u1", userID)
		assert.Equal(t, tt.want, status)
	}

	_, _, err = v.ApplyWebhook([]byte(`{"applicantId":"applicant-ghost","reviewResult":{"reviewAnswer":"GREEN"}}`))
	var ce *CollabError
	require.ErrorAs(t, err, &ce)

	_, _, err = v.ApplyWebhook([]byte(`{"reviewResult":{}}`))
	assert.Error(t, err, "payload without applicantId must be rejected")

	_, _, err = v.ApplyWebhook([]byte(`not json`))
	assert.Error(t, err)
}

func TestFakeMinterSequentialTokens(t *testing.T) {
	m := NewFakeMinter("0xcontract")
	ctx := context.Background()

	first, err := m.Mint(ctx, "0xwallet", "ipfs://cid1")
	require.NoError(t, err)
	second, err := m.Mint(ctx, "0xwallet", "ipfs://cid2")
	require.NoError(t, err)

	assert.Equal(t, first.TokenID+1, second.TokenID)
	assert.Equal(t, "0xcontract", first.ContractAddress)
	assert.NotEmpty(t, first.TxHash)
	assert.Len(t, m.Receipts(), 2)

	_, err = m.Mint(ctx, "", "ipfs://cid3")
	assert.Error(t, err)
	_, err = m.Mint(ctx, "0xwallet", "")
	assert.Error(t, err)
}

func TestFakeStorageContentAddressing(t *testing.T) {
	s := NewFakeStorage()
	ctx := context.Background()

	cid1, err := s.Upload(ctx, []byte(`{"title":"A"}`))
	require.NoError(t, err)
	cid2, err := s.Upload(ctx, []byte(`{"title":"A"}`))
	require.NoError(t, err)
	cid3, err := s.Upload(ctx, []byte(`{"title":"B"}`))
	require.NoError(t, err)

	assert.Equal(t, cid1, cid2, "identical payloads share a cid")
	assert.NotEqual(t, cid1, cid3)
	assert.Contains(t, cid1, "ipfs://")
	assert.Equal(t, 2, s.Len())

	blob, ok := s.Get(cid1)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"title":"A"}`), blob)
}

func TestRegistryUpdate(t *testing.T) {
	r := NewRegistry()
	r.Put(Record{ListingID: "l1", OwnerID: "u1", Status: RecordSubmitted, ValidationState: ValidationPending})

	rec, ok := r.Get("l1")
	require.True(t, ok)
	assert.Equal(t, RecordSubmitted, rec.Status)
	assert.False(t, rec.UpdatedAt.IsZero())

	updated, ok := r.Update("l1", func(rec *Record) {
		rec.Status = RecordAvailable
		rec.ValidationState = ValidationApproved
		rec.TokenID = "1001"
	})
	require.True(t, ok)
	assert.Equal(t, RecordAvailable, updated.Status)
	assert.Equal(t, "1001", updated.TokenID)

	rec, _ = r.Get("l1")
	assert.Equal(t, RecordAvailable, rec.Status)

	_, ok = r.Update("ghost", func(rec *Record) { rec.Status = RecordRejected })
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestHTTPVerifierSignsRequests(t *testing.T) {
	const secret = "test-secret"

	var sawToken, sawSig bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ts := r.Header.Get("X-App-Access-Ts")
		assert.NotEmpty(t, ts)
		sawToken = r.Header.Get("X-App-Token") == "app-token"

		mac := hmac.New(sha256.New, []byte(secret))
		io.WriteString(mac, r.Method)
		io.WriteString(mac, r.URL.Path)
		mac.Write(body)
		io.WriteString(mac, ts)
		sawSig = r.Header.Get("X-App-Access-Sig") == hex.EncodeToString(mac.Sum(nil))

		switch r.URL.Path {
		case "/resources/applicants":
			var req struct {
				ExternalUserID string `json:"externalUserId"`
			}
			assert.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "u1", req.ExternalUserID)
			json.NewEncoder(w).Encode(map[string]string{"id": "app-123"})
		case "/resources/accessTokens":
			json.NewEncoder(w).Encode(map[string]string{"token": "sess-token"})
		case "/resources/applicants/u1/status":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"reviewResult": map[string]string{"reviewAnswer": "GREEN"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, "app-token", secret, srv.Client())

	sess, err := v.Initiate(context.Background(), "u1", map[string]string{"first_name": "Asha", "country": "IN"})
	require.NoError(t, err)
	assert.Equal(t, "app-123", sess.ApplicantID)
	assert.Equal(t, "sess-token", sess.AccessToken)
	assert.True(t, sawToken, "app token header missing")
	assert.True(t, sawSig, "request signature did not verify")

	status, err := v.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, VerificationApproved, status)
}

func TestHTTPVerifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid app token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL, "bad", "bad", srv.Client())
	_, err := v.Initiate(context.Background(), "u1", nil)

	var ce *CollabError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusUnauthorized, ce.Status)
	assert.Contains(t, ce.Message, "invalid app token")
}

func TestHTTPMinter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ToAddress string `json:"to_address"`
			TokenURI  string `json:"token_uri"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.ToAddress == "0xbroke" {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "insufficient gas"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":          true,
			"token_id":         1042,
			"transaction_hash": "0xabc",
			"contract_address": "0xcontract",
		})
	}))
	defer srv.Close()

	m := NewHTTPMinter(srv.URL, srv.Client())

	receipt, err := m.Mint(context.Background(), "0xwallet", "ipfs://cid")
	require.NoError(t, err)
	assert.Equal(t, int64(1042), receipt.TokenID)
	assert.Equal(t, "0xabc", receipt.TxHash)
	assert.Equal(t, "0xcontract", receipt.ContractAddress)

	_, err = m.Mint(context.Background(), "0xbroke", "ipfs://cid")
	var ce *CollabError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "insufficient gas")
}

func TestHTTPStorage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/add", r.URL.Path)
		file, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		payload, _ := io.ReadAll(file)
		assert.Equal(t, []byte(`{"title":"A"}`), payload)
		json.NewEncoder(w).Encode(map[string]string{"Hash": "QmTest123"})
	}))
	defer srv.Close()

	s := NewHTTPStorage(srv.URL, srv.Client())
	cid, err := s.Upload(context.Background(), []byte(`{"title":"A"}`))
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmTest123", cid)
}

func TestHTTPStorageMissingHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	s := NewHTTPStorage(srv.URL, srv.Client())
	_, err := s.Upload(context.Background(), []byte("x"))
	var ce *CollabError
	require.True(t, errors.As(err, &ce))
}
