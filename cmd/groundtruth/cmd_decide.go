package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"groundtruth/internal/decision"
	"groundtruth/internal/journal"
	"groundtruth/internal/kb"
)

// validateCmd checks one listing against the validation rules
var validateCmd = &cobra.Command{
	Use:   "validate [request.json]",
	Short: "Validate a listing for marketplace approval",
	Long: `Reads {"listing_data": {...}, "user_data": {...}} and writes the
validation envelope. A rejected listing is still a successful response;
the success flag drops only when the request itself is malformed.

Example:
  groundtruth validate < request.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

// valueCmd estimates a listing's market value range
var valueCmd = &cobra.Command{
	Use:   "value [request.json]",
	Short: "Estimate the market value range for a listing",
	Long: `Reads {"listing_data": {...}} and writes the valuation envelope
with the estimated range, market analysis, and confidence score.

Example:
  groundtruth value < request.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValue,
}

// recommendCmd ranks available listings for a user
var recommendCmd = &cobra.Command{
	Use:   "recommend [request.json]",
	Short: "Recommend listings for a user",
	Long: `Reads {"user_data": {...}, "available_listings": [...]} and writes
the recommendation envelope, ranked by interest match.

Example:
  groundtruth recommend < request.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(recommendCmd)
}

// runtime bundles what a decision command needs and owns the journal handle.
type runtime struct {
	service *decision.Service
	journal *journal.Journal
}

// newRuntime assembles the decision service from the loaded config. An
// unavailable engine or journal degrades the service, never aborts it.
func newRuntime() *runtime {
	opts := decision.Options{
		Timeout: cfg.GetEngineTimeout(),
		Logger:  logger,
	}

	if cfg.Engine.Enabled {
		lib, err := kb.NewLibrary(kb.Options{
			RulesDir:         cfg.Rules.Dir,
			DerivedFactLimit: cfg.Engine.MaxFacts,
			Logger:           logger,
		})
		if err != nil {
			logger.Warn("rule engine unavailable, continuing with heuristics", zap.Error(err))
		} else {
			opts.Library = lib
		}
	}

	jrnl, err := journal.Open(cfg.Journal.Path, logger)
	if err != nil {
		logger.Warn("decision journal unavailable", zap.Error(err))
	} else {
		opts.Recorder = jrnl
	}

	return &runtime{service: decision.NewService(opts), journal: jrnl}
}

func (r *runtime) Close() {
	if r.journal != nil {
		_ = r.journal.Close()
	}
}

// readRequest decodes a JSON request from the file argument or stdin.
func readRequest(cmd *cobra.Command, args []string, v interface{}) error {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse request: %w", err)
	}
	return nil
}

// writeEnvelope prints a response envelope as indented JSON.
func writeEnvelope(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	var req decision.ValidateRequest
	if err := readRequest(cmd, args, &req); err != nil {
		return err
	}

	rt := newRuntime()
	defer rt.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env := rt.service.Validate(ctx, req)
	if err := writeEnvelope(cmd, env); err != nil {
		return err
	}
	if !env.Success {
		return errors.New(env.Error)
	}
	return nil
}

func runValue(cmd *cobra.Command, args []string) error {
	var req decision.ValueRequest
	if err := readRequest(cmd, args, &req); err != nil {
		return err
	}

	rt := newRuntime()
	defer rt.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env := rt.service.Value(ctx, req)
	if err := writeEnvelope(cmd, env); err != nil {
		return err
	}
	if !env.Success {
		return errors.New(env.Error)
	}
	return nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	var req decision.RecommendRequest
	if err := readRequest(cmd, args, &req); err != nil {
		return err
	}

	rt := newRuntime()
	defer rt.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env := rt.service.Recommend(ctx, req)
	if err := writeEnvelope(cmd, env); err != nil {
		return err
	}
	if !env.Success {
		return errors.New(env.Error)
	}
	return nil
}
