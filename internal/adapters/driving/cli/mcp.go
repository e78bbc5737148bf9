package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/searchlift/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose stored results to AI assistants",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve page metrics and recommendations over MCP",
	Long: `Serves stored page metrics, the latest recommendation for a page and
the latest weekly summary as read-only Model Context Protocol tools and
resources. Nothing is fetched or generated.

The server speaks stdio unless --addr is given:
  searchlift mcp serve
  searchlift mcp serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().String("addr", "", "Serve streamable HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if insightsService == nil {
		return notConfigured("insights service")
	}
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{Insights: insightsService}, version)
	if err != nil {
		return err
	}
	if addr == "" {
		return server.Run(cmd.Context())
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on %s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
