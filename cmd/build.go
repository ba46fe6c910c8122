package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"estatekg/relate/internal/build"
	"estatekg/relate/internal/config"
)

var buildJSON bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run all relationship construction phases",
	Long: "Runs the five phases in order (hierarchy, classification, proximity, " +
		"similarity, knowledge) against the configured store. Re-running converges: " +
		"every write is an idempotent upsert.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		// SIGINT cancels between batches, leaving the store batch-aligned.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, cleanup, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := build.NewOrchestrator(cfg, store, log).Run(ctx)
		if err != nil {
			return err
		}

		if buildJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printRunReport(report)
		}

		if report.Status == build.RunFailed {
			return fmt.Errorf("build %s finished with failed phases", report.RunID)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "Output the run report as JSON")
	rootCmd.AddCommand(buildCmd)
}

func printRunReport(report *build.RunReport) {
	shortID := report.RunID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	fmt.Printf("\nRun %s: %s (%dms)\n\n", shortID, report.Status, report.DurationMS)
	fmt.Printf("  %-16s %10s %10s %10s  %s\n", "phase", "candidates", "created", "warnings", "status")
	for _, p := range report.Phases {
		fmt.Printf("  %-16s %10d %10d %10d  %s\n", p.Phase, p.Candidates, p.Created, p.Warnings, p.Status)
		if p.Error != "" {
			fmt.Printf("    error: %s\n", p.Error)
		}
		for _, w := range p.WarningSamples {
			fmt.Printf("    warn: %s\n", w)
		}
	}
}
