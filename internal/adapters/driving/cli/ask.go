package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askSession string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the knowledge base",
	Long: `Answer a natural-language question using retrieved document passages
and operational records. Pass --session to keep conversation history
across questions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "conversation session ID")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured; set an llm provider in the config")
	}

	query := strings.Join(args, " ")

	answer, err := answerService.Answer(context.Background(), query, askSession)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for _, src := range answer.Sources {
			cmd.Printf("  [%s]\n", src.Identifier())
		}
	} else if !answer.Grounded {
		cmd.Println("\n(no supporting context was found)")
	}
	return nil
}
