package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can rewrite
text for narration.

Tools:
  rewrite_for_narration   rewrite text with the configured provider
  fallback_rewrite        rewrite text with the local rewriter only

Resources:
  narrator://history      recent rewrite runs
  narrator://config       current rewrite settings

By default the server communicates over stdio using JSON-RPC. Use --port to
serve streamable HTTP instead; Prometheus metrics are then exposed on
/metrics.

Examples:
  # Stdio mode (default, for desktop assistants)
  narrator mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  narrator mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Narration: narrationService,
		Settings:  settingsService,
	}

	var opts []mcp.Option
	if metricsObserver != nil {
		opts = append(opts, mcp.WithMetricsHandler(metricsObserver.Handler()))
	}

	server, err := mcp.NewServer(ports, opts...)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
