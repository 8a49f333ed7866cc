package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/sensorlabel/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the sensorlabel MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents inspect sensor files,
summarize labelled recordings and preview smoothing and merge plans.

Tools never prompt and never write files.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
