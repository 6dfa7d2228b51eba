package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server commands",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge base over MCP",
	Long: `Expose retrieval tools and document resources to MCP clients.

The server speaks JSON-RPC over stdio by default, which is what Claude
Desktop and most assistant hosts expect. Pass --port to serve streamable
HTTP instead, for MCP Inspector or remote clients.

Examples:
  fleetmind mcp serve
  fleetmind mcp serve --port 8080`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		server, err := mcp.NewServer(&mcp.Ports{
			Fusion:   fusionEngine,
			Records:  retrieverService,
			Document: documentService,
			Store:    metadataStore,
		})
		if err != nil {
			return err
		}

		if mcpPort > 0 {
			addr := fmt.Sprintf(":%d", mcpPort)
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(cmd.Context(), addr)
		}
		return server.Run(cmd.Context())
	},
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
