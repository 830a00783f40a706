package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"groundtruth/internal/collab"
	"groundtruth/internal/pipeline"
)

// submitCmd runs the full listing submission flow
var submitCmd = &cobra.Command{
	Use:   "submit [request.json]",
	Short: "Submit a listing for review, metadata upload, and minting",
	Long: `Runs the full submission flow: synchronous validation, metadata
upload, then background re-validation and token minting. Storage and
minting run against local stand-ins, so the command is self-contained.

The synchronous envelope is written to stdout; background transitions
are logged and recorded in the journal.

Example:
  groundtruth submit < request.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	var req pipeline.SubmitRequest
	if err := readRequest(cmd, args, &req); err != nil {
		return err
	}

	rt := newRuntime()
	defer rt.Close()

	registry := collab.NewRegistry()
	popts := pipeline.Options{
		Service:  rt.service,
		Storage:  collab.NewFakeStorage(),
		Minter:   collab.NewFakeMinter(""),
		Registry: registry,
		Workers:  cfg.Pipeline.Workers,
		Queue:    cfg.Pipeline.QueueSize,
		Logger:   logger,
	}
	if rt.journal != nil {
		popts.Recorder = rt.journal
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	coord := pipeline.NewCoordinator(popts)
	coord.Start(ctx)

	env := coord.Submit(ctx, req)
	if err := writeEnvelope(cmd, env); err != nil {
		return err
	}

	// Drain the background work before reporting the final record.
	if err := coord.Stop(); err != nil {
		logger.Warn("submission pipeline shutdown", zap.Error(err))
	}

	if rec, ok := registry.Get(req.Listing.ID); ok {
		logger.Info("final listing state",
			zap.String("listing_id", rec.ListingID),
			zap.String("status", rec.Status),
			zap.String("validation", rec.ValidationState),
			zap.String("token_id", rec.TokenID))
	}

	if !env.Success {
		return errors.New(env.Error)
	}
	return nil
}
