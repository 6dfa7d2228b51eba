package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base and provider status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.Stats(context.Background())
	if err != nil {
		return err
	}

	cmd.Println("Knowledge base:")
	cmd.Printf("  Documents:  %d\n", stats.Documents)
	cmd.Printf("  Chunks:     %d\n", stats.Chunks)
	cmd.Printf("  Vectors:    %d\n", stats.Vectors)
	cmd.Printf("  Dimensions: %d\n", stats.Dimensions)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd.Println("\nProviders:")
	if embedderService != nil {
		cmd.Printf("  Embedder (%s): %s\n", embedderService.ModelName(), pingResult(embedderService.Ping(ctx)))
	} else {
		cmd.Println("  Embedder: not configured")
	}
	if llmService != nil {
		cmd.Printf("  LLM (%s): %s\n", llmService.ModelName(), pingResult(llmService.Ping(ctx)))
	} else {
		cmd.Println("  LLM: not configured")
	}
	if retrieverService != nil {
		cmd.Println("  Records: configured")
	} else {
		cmd.Println("  Records: not configured")
	}
	return nil
}

func pingResult(err error) string {
	if err != nil {
		return "unreachable (" + err.Error() + ")"
	}
	return "ok"
}
