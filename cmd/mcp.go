package cmd

import (
	"github.com/huangsam/phenomask/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the phenomask MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents classify and inspect
stacks through the classify_stack and inspect_stack tools. Flags and the
config file provide the defaults for every tool call.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, historyManager, version)
	},
}
