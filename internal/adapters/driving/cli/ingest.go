package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/extractors"
)

var ingestMIMEType string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documents into the knowledge base",
	Long: `Reads each file, extracts its text, chunks and embeds it, and indexes
the result. Byte-identical content is detected by hash and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestMIMEType, "mime-type", "", "override MIME type detection")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	ctx := context.Background()
	failures := 0

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.Printf("  %s: %v\n", path, err)
			failures++
			continue
		}

		mimeType := ingestMIMEType
		if mimeType == "" {
			mimeType = extractors.MIMETypeForPath(path)
		}

		doc, err := ingestionService.Ingest(ctx, content, filepath.Base(path), mimeType)
		switch {
		case errors.Is(err, domain.ErrDuplicateContent):
			name := "an earlier upload"
			if doc != nil {
				name = fmt.Sprintf("%q", doc.DisplayName)
			}
			cmd.Printf("  %s: already ingested as %s\n", path, name)
		case err != nil:
			cmd.Printf("  %s: %v\n", path, err)
			failures++
		default:
			cmd.Printf("  %s: %d pages, hash %s\n", path, doc.PageCount, shortHash(doc.Hash))
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files failed", failures, len(args))
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
