package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
)

var (
	documentListName string
	documentListSort string
	documentListDesc bool
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, inspect or delete documents in the knowledge base.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [hash]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [hash]",
	Short: "Delete a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentListCmd.Flags().StringVar(&documentListName, "name", "", "filter by display name substring")
	documentListCmd.Flags().StringVar(&documentListSort, "sort", "ingested_at", "sort field: name, size, ingested_at")
	documentListCmd.Flags().BoolVar(&documentListDesc, "desc", false, "sort descending")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(context.Background(),
		domain.DocumentFilter{NameContains: documentListName},
		domain.DocumentSort{Field: domain.SortField(documentListSort), Descending: documentListDesc},
	)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s  %s\n", shortHash(docs[i].Hash), docs[i].DisplayName)
		cmd.Printf("      %d bytes, %d pages, ingested %s\n",
			docs[i].SizeBytes, docs[i].PageCount, docs[i].IngestedAt.Format("2006-01-02 15:04"))
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	cmd.Printf("Hash:      %s\n", doc.Hash)
	cmd.Printf("Name:      %s\n", doc.DisplayName)
	cmd.Printf("Location:  %s\n", doc.Location)
	cmd.Printf("Size:      %d bytes\n", doc.SizeBytes)
	cmd.Printf("Pages:     %d\n", doc.PageCount)
	cmd.Printf("Ingested:  %s\n", doc.IngestedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	cmd.Printf("Deleted %s\n", args[0])
	return nil
}
