package cmd

import (
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server on stdio",
	Long: `Serve the documentation to MCP clients: goto_help, search_docs, list_classes
and class_sections tools plus a classdoc://{class} resource.`,
	Args: cobra.NoArgs,
	Run:  runServe,
}
