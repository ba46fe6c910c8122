package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"estatekg/relate/internal/audit"
	"estatekg/relate/internal/config"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit graph invariants: hierarchy acyclicity, symmetric pairs, price ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		store, cleanup, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := audit.Run(ctx, store)
		if err != nil {
			return err
		}

		if checkJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printAuditReport(report)
		}

		if !report.OK {
			return fmt.Errorf("graph invariants violated")
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output the audit report as JSON")
	rootCmd.AddCommand(checkCmd)
}

func printAuditReport(report *audit.Report) {
	verdict := "OK"
	if !report.OK {
		verdict = "VIOLATIONS"
	}
	fmt.Printf("\nGraph audit: %s  (%d nodes, %d edges, %d components, %d orphans)\n\n",
		verdict, report.TotalNodes, report.TotalEdges, report.Components, report.Orphans)
	fmt.Printf("  hierarchy cycles:    %d\n", report.HierarchyCycles)
	fmt.Printf("  unpaired symmetric:  %d\n", report.UnpairedSymmetric)
	fmt.Printf("  multi price-range:   %d\n", report.MultiPriceRange)
	for _, s := range report.CycleSamples {
		fmt.Printf("    cycle: %s\n", s)
	}
	for _, s := range report.UnpairedSamples {
		fmt.Printf("    pair: %s\n", s)
	}
	for _, s := range report.MultiPriceSamples {
		fmt.Printf("    price: %s\n", s)
	}
}
