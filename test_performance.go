//go:build ignore

// Standalone performance verification test
// Run with: go run test_performance.go
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"groundtruth/internal/decision"
	"groundtruth/internal/kb"
	"groundtruth/internal/types"
)

const iterations = 200

func sampleListing(id string) types.Listing {
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

func sampleUser() types.User {
	return types.User{ID: "7", KYCVerified: true, WalletAddress: "0x00000000000000000000000000000000000000aa"}
}

func main() {
	fmt.Println("🧪 Testing Decision Engine Performance\n")
	ctx := context.Background()
	logger := zap.NewNop()

	// Test 1: Rule library startup
	fmt.Println("Test 1: Rule Library Startup (embedded programs)")
	start := time.Now()
	lib, err := kb.NewLibrary(kb.Options{Logger: logger})
	if err != nil {
		fmt.Printf("  ⚠️  Library failed to load: %v\n", err)
		return
	}
	loadTime := time.Since(start)
	fmt.Printf("  ✅ Compiled %d rule domains in %v\n\n", len(kb.Domains()), loadTime)

	engine := decision.NewService(decision.Options{Library: lib, Timeout: 5 * time.Second, Logger: logger})
	heuristic := decision.NewService(decision.Options{Logger: logger})

	listing := sampleListing("perf-1")
	user := sampleUser()
	req := decision.ValidateRequest{Listing: listing, User: user}

	// Test 2: Validation throughput, engine vs heuristic
	fmt.Printf("Test 2: Validation Throughput (%d requests)\n", iterations)
	start = time.Now()
	for i := 0; i < iterations; i++ {
		_ = engine.Validate(ctx, req)
	}
	engineTime := time.Since(start)

	start = time.Now()
	for i := 0; i < iterations; i++ {
		_ = heuristic.Validate(ctx, req)
	}
	heuristicTime := time.Since(start)

	ratio := float64(engineTime) / float64(heuristicTime)
	fmt.Printf("  ✅ Engine:    %v total, %v per request\n", engineTime, engineTime/iterations)
	fmt.Printf("  ✅ Heuristic: %v total, %v per request\n", heuristicTime, heuristicTime/iterations)
	fmt.Printf("  🚀 Engine overhead vs heuristic: %.1fx\n\n", ratio)

	// Test 3: Valuation latency
	fmt.Printf("Test 3: Valuation Latency (%d requests)\n", iterations)
	vreq := decision.ValueRequest{Listing: listing}
	start = time.Now()
	for i := 0; i < iterations; i++ {
		_ = engine.Value(ctx, vreq)
	}
	valueTime := time.Since(start)
	fmt.Printf("  ✅ Engine valuation: %v total, %v per request\n\n", valueTime, valueTime/iterations)

	// Test 4: Recommendation over a pool
	poolSize := 50
	fmt.Printf("Test 4: Recommendation Ranking (%d-listing pool)\n", poolSize)
	pool := make([]types.Listing, 0, poolSize)
	for i := 0; i < poolSize; i++ {
		l := sampleListing(fmt.Sprintf("pool-%d", i))
		l.Price = 10000000 + float64(i)*1000000
		pool = append(pool, l)
	}
	rreq := decision.RecommendRequest{User: user, Available: pool, Limit: 5}
	start = time.Now()
	renv := engine.Recommend(ctx, rreq)
	recommendTime := time.Since(start)
	fmt.Printf("  ✅ Ranked %d listings in %v\n", poolSize, recommendTime)
	fmt.Printf("  ✅ Returned top %d recommendations\n\n", len(renv.Result.Recommendations))

	// Test 5: Strategy agreement on the same listing
	fmt.Println("Test 5: Strategy Agreement")
	engineStatus := engine.Validate(ctx, req).Result.Status
	heuristicStatus := heuristic.Validate(ctx, req).Result.Status
	agree := engineStatus == heuristicStatus
	fmt.Printf("  ✅ Engine status:    %s\n", engineStatus)
	fmt.Printf("  ✅ Heuristic status: %s\n", heuristicStatus)
	if agree {
		fmt.Printf("  ✅ Strategies agree\n\n")
	} else {
		fmt.Printf("  ⚠️  Strategies disagree\n\n")
	}

	// Summary
	fmt.Println(strings.Repeat("=", 62))
	fmt.Println("📊 Performance Test Results Summary")
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("✅ Library startup: %v\n", loadTime)
	fmt.Printf("✅ Engine validation: %v per request\n", engineTime/iterations)
	fmt.Printf("✅ Heuristic validation: %v per request\n", heuristicTime/iterations)
	fmt.Printf("✅ Valuation: %v per request\n", valueTime/iterations)
	fmt.Printf("✅ Recommendation (%d listings): %v\n", poolSize, recommendTime)
	if agree {
		fmt.Println("\n🎉 All performance checks passed!")
	} else {
		fmt.Println("\n⚠️  Strategy disagreement needs investigation")
	}
}
