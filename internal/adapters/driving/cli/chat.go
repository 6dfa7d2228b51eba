package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat UI",
	Long: `Launch the interactive terminal chat for FleetMind.

Each question is answered with retrieved document passages and
operational records; citations appear under every answer.

Controls:
  Enter - Ask
  Esc   - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errors.New("answer service not configured; set an llm provider in the config")
	}

	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat UI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{
		Answer:   answerService,
		Document: documentService,
	}

	if err := tui.Run(cmd.Context(), ports); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
