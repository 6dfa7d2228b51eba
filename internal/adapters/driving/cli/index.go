package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the vector index",
}

var indexReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Drop index entries whose document no longer exists",
	Args:  cobra.NoArgs,
	RunE:  runIndexReconcile,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from stored chunk embeddings",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

func init() {
	indexCmd.AddCommand(indexReconcileCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexReconcile(cmd *cobra.Command, _ []string) error {
	if maintenanceSvc == nil {
		return errors.New("maintenance service not configured")
	}

	removed, err := maintenanceSvc.Reconcile(context.Background())
	if err != nil {
		return err
	}

	if removed == 0 {
		cmd.Println("Index is consistent.")
	} else {
		cmd.Printf("Removed %d orphaned vectors.\n", removed)
	}
	return nil
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if maintenanceSvc == nil {
		return errors.New("maintenance service not configured")
	}

	restored, err := maintenanceSvc.Rebuild(context.Background())
	if err != nil {
		return err
	}

	cmd.Printf("Rebuilt index with %d vectors.\n", restored)
	return nil
}
