package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"groundtruth/internal/kb"
)

// rulesCmd groups rule program maintenance
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and watch the decision rule programs",
}

// rulesCheckCmd compiles every rule domain and reports problems
var rulesCheckCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Compile every rule domain and report problems",
	Long: `Parses and analyzes the validation, valuation, and recommendation
programs. With a directory argument (or --rules-dir) the files there
shadow the embedded rules, exactly as they would at decision time.

Example:
  groundtruth rules check ./rules`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRulesCheck,
}

// rulesWatchCmd reloads rule programs as files change
var rulesWatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Reload rule programs as files change",
	Long: `Watches a rules directory and recompiles the programs whenever a
.mg file settles after a change. A change that fails to compile is
rejected and the previously active programs stay in service.

Example:
  groundtruth rules watch ./rules`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRulesWatch,
}

func init() {
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesWatchCmd)
	rootCmd.AddCommand(rulesCmd)
}

func resolveRulesDir(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return cfg.Rules.Dir
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	dir := resolveRulesDir(args)
	opts := kb.Options{
		RulesDir:         dir,
		DerivedFactLimit: cfg.Engine.MaxFacts,
		Logger:           logger,
	}

	out := cmd.OutOrStdout()
	if dir != "" {
		fmt.Fprintf(out, "Checking rules in %s\n", dir)
	} else {
		fmt.Fprintln(out, "Checking embedded rules")
	}

	failed := 0
	for _, domain := range kb.Domains() {
		if _, err := kb.NewRuleSet(domain, opts); err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", domain, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s\n", domain)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d rule domains failed to compile", failed, len(kb.Domains()))
	}
	return nil
}

func runRulesWatch(cmd *cobra.Command, args []string) error {
	dir := resolveRulesDir(args)
	if dir == "" {
		return errors.New("rules watch needs a directory (argument, --rules-dir, or rules.dir in config)")
	}

	lib, err := kb.NewLibrary(kb.Options{
		RulesDir:         dir,
		DerivedFactLimit: cfg.Engine.MaxFacts,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("initial rule load failed: %w", err)
	}

	watcher, err := kb.NewWatcher(lib, dir, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(cmd.Context()); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s. Press Ctrl+C to stop.\n", dir)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	watcher.Stop()
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d reloads, rejected %d.\n",
		watcher.Reloads(), watcher.Failures())
	return nil
}
