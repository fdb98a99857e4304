package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/pharo-llm/pharo-copilot/eval"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Inspect and export suggestion evaluation telemetry",
}

var evalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print session statistics from the event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := eval.ReplayEventLog(cfg.Evaluation.EventLog)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Println("no evaluation events recorded yet")
				return nil
			}
			return err
		}

		stats := eval.StatsFromEntries(entries)
		rate := 0
		if stats.Total > 0 {
			rate = int(float64(stats.Accepted)/float64(stats.Total)*100 + 0.5)
		}

		fmt.Printf("total:    %d\n", stats.Total)
		fmt.Printf("accepted: %d\n", stats.Accepted)
		fmt.Printf("rejected: %d\n", stats.Rejected)
		fmt.Printf("ignored:  %d\n", stats.Ignored)
		fmt.Printf("acceptance rate: %d%%\n", rate)

		if len(stats.PerModel) > 0 {
			fmt.Println("\nby model:")
			for model, count := range stats.PerModel {
				fmt.Printf("  %-30s %d\n", model, count)
			}
		}
		if len(stats.PerCategory) > 0 {
			fmt.Println("\nby context:")
			for category, count := range stats.PerCategory {
				fmt.Printf("  %-20s %d\n", category, count)
			}
		}
		if len(stats.PerLengthBucket) > 0 {
			fmt.Println("\nby length:")
			for bucket, count := range stats.PerLengthBucket {
				fmt.Printf("  %-10s %d\n", bucket, count)
			}
		}
		return nil
	},
}

var evalExportPath string

var evalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export evaluation entries to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := eval.ReplayEventLog(cfg.Evaluation.EventLog)
		if err != nil {
			return err
		}

		path := evalExportPath
		if path == "" {
			path = cfg.Evaluation.ExportPath
		}
		if err := eval.ExportEntriesCSV(entries, path); err != nil {
			return err
		}
		fmt.Printf("exported %d entries to %s\n", len(entries), path)
		return nil
	},
}

func init() {
	evalExportCmd.Flags().StringVar(&evalExportPath, "out", "", "output path (default from config)")
	evalCmd.AddCommand(evalStatsCmd)
	evalCmd.AddCommand(evalExportCmd)
	rootCmd.AddCommand(evalCmd)
}
