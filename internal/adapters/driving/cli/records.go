package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetmind-ai/fleetmind/internal/core/services"
)

var recordsCmd = &cobra.Command{
	Use:   "records [filter...]",
	Short: "Query the operational tables directly",
	Long: `Query machine tracking, undercarriage lifetime and inspection records
without going through the language model.

Filters are key=value pairs:

  serial=ABC1234  model=D65  site=north  from=2026-01-01  to=2026-06-30
  limit=20        table=machine_tracking,inspection_data`,
	RunE: runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	if retrieverService == nil {
		return errors.New("records source not configured; set records.path in the config")
	}

	filter, err := services.ParseFilterArgs(args)
	if err != nil {
		return fmt.Errorf("parse filters: %w", err)
	}
	if filter.Empty() {
		return errors.New("at least one filter is required, e.g. serial=ABC1234")
	}

	rows, err := retrieverService.Retrieve(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}

	if len(rows) == 0 {
		cmd.Println("No matching records.")
		return nil
	}

	for _, row := range rows {
		cmd.Printf("  [%s %s]  score %.2f\n", row.Record.Table(), row.Record.Key(), row.Score)
		cmd.Printf("      %s\n", row.Record.Sentence())
	}
	cmd.Printf("\nTotal: %d records\n", len(rows))
	return nil
}
