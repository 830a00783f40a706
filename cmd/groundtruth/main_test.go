package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"groundtruth/internal/config"
	"groundtruth/internal/journal"
	"groundtruth/internal/types"
)

// setupCLI points the package globals at a throwaway workspace.
func setupCLI(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
}

// newCaptureCommand returns a command whose output lands in the buffer.
func newCaptureCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out
}

// writeRequest marshals a request into a temp file and returns its path.
func writeRequest(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	path := filepath.Join(t.TempDir(), "request.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write request: %v", err)
	}
	return path
}

func approvableListing(id string) types.Listing {
	return types.Listing{
		ID:           id,
		Title:        "Sea View Apartment",
		Description:  "Spacious 3BHK overlooking the bay with deeded parking",
		Location:     "Bandra West, Mumbai",
		PropertyType: "Apartment",
		Size:         1000,
		Bedrooms:     3,
		YearBuilt:    2015,
		Price:        25000000,
		Documents: map[string]types.Document{
			types.DocTitleDeed:      {Present: true, Filename: "deed.pdf", SizeBytes: 120000},
			types.DocTaxCertificate: {Present: true, Filename: "tax2024.pdf", SizeBytes: 90000},
			types.DocUtilityBills:   {Present: true, Filename: "bills.pdf", SizeBytes: 76000},
			types.DocKYC:            {Present: true, Filename: "passport.pdf", SizeBytes: 64000},
		},
	}
}

func TestRunValidateApproved(t *testing.T) {
	setupCLI(t)

	path := writeRequest(t, map[string]interface{}{
		"listing_data": approvableListing("l1"),
		"user_data":    types.User{ID: "u1", KYCVerified: true},
	})

	cmd, out := newCaptureCommand()
	if err := runValidate(cmd, []string{path}); err != nil {
		t.Fatalf("runValidate returned error: %v", err)
	}

	if !strings.Contains(out.String(), `"success": true`) {
		t.Fatalf("expected successful envelope, got: %s", out.String())
	}
	if !strings.Contains(out.String(), `"status": "APPROVED"`) {
		t.Fatalf("expected approved status, got: %s", out.String())
	}
}

func TestRunValidateMalformedRequest(t *testing.T) {
	setupCLI(t)

	path := writeRequest(t, map[string]interface{}{
		"user_data": types.User{ID: "u1", KYCVerified: true},
	})

	cmd, out := newCaptureCommand()
	err := runValidate(cmd, []string{path})
	if err == nil {
		t.Fatal("expected an error for a request without a listing id")
	}
	if !strings.Contains(err.Error(), "listing_data.id") {
		t.Fatalf("expected missing-field error, got: %v", err)
	}
	if !strings.Contains(out.String(), `"success": false`) {
		t.Fatalf("expected failed envelope on stdout, got: %s", out.String())
	}
}

func TestRunValueEnvelope(t *testing.T) {
	setupCLI(t)

	path := writeRequest(t, map[string]interface{}{
		"listing_data": approvableListing("l1"),
	})

	cmd, out := newCaptureCommand()
	if err := runValue(cmd, []string{path}); err != nil {
		t.Fatalf("runValue returned error: %v", err)
	}

	if !strings.Contains(out.String(), `"valuation_range"`) {
		t.Fatalf("expected a valuation range, got: %s", out.String())
	}
}

func TestRunRecommendEnvelope(t *testing.T) {
	setupCLI(t)

	path := writeRequest(t, map[string]interface{}{
		"user_data":          types.User{ID: "u1"},
		"available_listings": []types.Listing{approvableListing("l1"), approvableListing("l2")},
	})

	cmd, out := newCaptureCommand()
	if err := runRecommend(cmd, []string{path}); err != nil {
		t.Fatalf("runRecommend returned error: %v", err)
	}

	if !strings.Contains(out.String(), `"recommendations"`) {
		t.Fatalf("expected recommendations, got: %s", out.String())
	}
}

func TestRunSubmitFlow(t *testing.T) {
	setupCLI(t)

	path := writeRequest(t, map[string]interface{}{
		"listing_data": approvableListing("l1"),
		"user_data": types.User{
			ID:            "u1",
			KYCVerified:   true,
			WalletAddress: "0x00000000000000000000000000000000000000aa",
		},
	})

	cmd, out := newCaptureCommand()
	if err := runSubmit(cmd, []string{path}); err != nil {
		t.Fatalf("runSubmit returned error: %v", err)
	}

	if !strings.Contains(out.String(), `"status": "submitted"`) {
		t.Fatalf("expected submitted status, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "Your property is under review.") {
		t.Fatalf("expected review message, got: %s", out.String())
	}

	// The drained pipeline leaves a journal trail behind.
	jrnl, err := journal.Open(cfg.Journal.Path, nil)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer jrnl.Close()
	counts, err := jrnl.CountByKind()
	if err != nil {
		t.Fatalf("count journal: %v", err)
	}
	if counts[journal.KindSubmission] == 0 {
		t.Fatalf("expected submission entries, got: %v", counts)
	}
}

func TestRunRulesCheckEmbedded(t *testing.T) {
	setupCLI(t)

	cmd, out := newCaptureCommand()
	if err := runRulesCheck(cmd, nil); err != nil {
		t.Fatalf("runRulesCheck returned error: %v", err)
	}

	for _, domain := range []string{"validation", "valuation", "recommendation"} {
		if !strings.Contains(out.String(), "✓ "+domain) {
			t.Fatalf("expected %s to compile, got: %s", domain, out.String())
		}
	}
}

func TestRunRulesCheckBrokenDir(t *testing.T) {
	setupCLI(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "base.mg"), []byte("listing(\n"), 0644); err != nil {
		t.Fatalf("write rule: %v", err)
	}

	cmd, out := newCaptureCommand()
	err := runRulesCheck(cmd, []string{dir})
	if err == nil {
		t.Fatal("expected an error for a broken rules directory")
	}
	if !strings.Contains(out.String(), "✗") {
		t.Fatalf("expected failure markers, got: %s", out.String())
	}
}

func TestRunJournalTail(t *testing.T) {
	setupCLI(t)

	cmd, out := newCaptureCommand()
	if err := runJournalTail(cmd, nil); err != nil {
		t.Fatalf("runJournalTail returned error: %v", err)
	}
	if !strings.Contains(out.String(), "No decisions recorded.") {
		t.Fatalf("expected empty-journal notice, got: %s", out.String())
	}

	// Record a decision, then tail again.
	reqPath := writeRequest(t, map[string]interface{}{
		"listing_data": approvableListing("l1"),
		"user_data":    types.User{ID: "u1", KYCVerified: true},
	})
	vcmd, _ := newCaptureCommand()
	if err := runValidate(vcmd, []string{reqPath}); err != nil {
		t.Fatalf("runValidate returned error: %v", err)
	}

	cmd, out = newCaptureCommand()
	if err := runJournalTail(cmd, nil); err != nil {
		t.Fatalf("runJournalTail returned error: %v", err)
	}
	if !strings.Contains(out.String(), `"kind":"validation"`) {
		t.Fatalf("expected a validation entry, got: %s", out.String())
	}
}

func TestRunJournalShow(t *testing.T) {
	setupCLI(t)

	cmd, out := newCaptureCommand()
	if err := runJournalShow(cmd, []string{"l1"}); err != nil {
		t.Fatalf("runJournalShow returned error: %v", err)
	}
	if !strings.Contains(out.String(), "No decisions recorded for l1.") {
		t.Fatalf("expected empty-subject notice, got: %s", out.String())
	}

	// Decide on two listings, then show only one of them.
	for _, id := range []string{"l1", "l2"} {
		reqPath := writeRequest(t, map[string]interface{}{
			"listing_data": approvableListing(id),
			"user_data":    types.User{ID: "u1", KYCVerified: true},
		})
		vcmd, _ := newCaptureCommand()
		if err := runValidate(vcmd, []string{reqPath}); err != nil {
			t.Fatalf("runValidate(%s) returned error: %v", id, err)
		}
	}

	cmd, out = newCaptureCommand()
	if err := runJournalShow(cmd, []string{"l1"}); err != nil {
		t.Fatalf("runJournalShow returned error: %v", err)
	}
	if !strings.Contains(out.String(), `"subject_id":"l1"`) {
		t.Fatalf("expected an entry for l1, got: %s", out.String())
	}
	if strings.Contains(out.String(), `"subject_id":"l2"`) {
		t.Fatalf("entries for other subjects leaked through: %s", out.String())
	}
}

func TestRunJournalStats(t *testing.T) {
	setupCLI(t)

	reqPath := writeRequest(t, map[string]interface{}{
		"listing_data": approvableListing("l1"),
	})
	vcmd, _ := newCaptureCommand()
	if err := runValue(vcmd, []string{reqPath}); err != nil {
		t.Fatalf("runValue returned error: %v", err)
	}

	cmd, out := newCaptureCommand()
	if err := runJournalStats(cmd, nil); err != nil {
		t.Fatalf("runJournalStats returned error: %v", err)
	}
	if !strings.Contains(out.String(), "valuation") {
		t.Fatalf("expected valuation count, got: %s", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	cmd, out := newCaptureCommand()
	versionCmd.Run(cmd, nil)

	if !strings.Contains(out.String(), "groundtruth "+version) {
		t.Fatalf("expected version string, got: %s", out.String())
	}
}

func TestConfiguredLevel(t *testing.T) {
	cfg = config.DefaultConfig()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
	}
	for level, want := range cases {
		cfg.Logging.Level = level
		if got := configuredLevel(); got != want {
			t.Fatalf("level %q: expected %v, got %v", level, want, got)
		}
	}
}
