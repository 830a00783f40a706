package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"groundtruth/internal/journal"
)

var (
	journalLimit     int
	journalShowLimit int
)

// journalCmd groups decision journal inspection
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the decision journal",
}

// journalTailCmd shows the most recent decisions
var journalTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the most recent decisions, newest first",
	Long: `Prints recent journal entries as JSON lines: which strategy
answered, what it decided, and how long the decision took.

Example:
  groundtruth journal tail -n 10`,
	Args: cobra.NoArgs,
	RunE: runJournalTail,
}

// journalShowCmd lists the decisions recorded about one subject
var journalShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show decisions recorded for one listing or user, newest first",
	Long: `Prints every journal entry about the given subject as JSON
lines. Validation, valuation and submission entries are keyed by
listing id; recommendation entries by user id.

Example:
  groundtruth journal show listing-123`,
	Args: cobra.ExactArgs(1),
	RunE: runJournalShow,
}

// journalStatsCmd summarizes journal volume per decision kind
var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded decisions by kind",
	Args:  cobra.NoArgs,
	RunE:  runJournalStats,
}

func init() {
	journalTailCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "Number of entries to show")
	journalShowCmd.Flags().IntVarP(&journalShowLimit, "limit", "n", 20, "Number of entries to show")
	journalCmd.AddCommand(journalTailCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalStatsCmd)
	rootCmd.AddCommand(journalCmd)
}

func runJournalTail(cmd *cobra.Command, args []string) error {
	jrnl, err := journal.Open(cfg.Journal.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer jrnl.Close()

	entries, err := jrnl.Tail(journalLimit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No decisions recorded.")
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	jrnl, err := journal.Open(cfg.Journal.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer jrnl.Close()

	entries, err := jrnl.BySubject(args[0], journalShowLimit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No decisions recorded for %s.\n", args[0])
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func runJournalStats(cmd *cobra.Command, args []string) error {
	jrnl, err := journal.Open(cfg.Journal.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer jrnl.Close()

	counts, err := jrnl.CountByKind()
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Journal: %s\n", jrnl.Path())
	if len(counts) == 0 {
		fmt.Fprintln(out, "No decisions recorded.")
		return nil
	}

	var total int64
	for _, kind := range []string{
		journal.KindValidation,
		journal.KindValuation,
		journal.KindRecommendation,
		journal.KindSubmission,
	} {
		if n, ok := counts[kind]; ok {
			fmt.Fprintf(out, "  %-15s %d\n", kind, n)
			total += n
		}
	}
	fmt.Fprintf(out, "  %-15s %d\n", "total", total)
	return nil
}
