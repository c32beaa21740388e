package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/wesm/textvault/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for Claude Desktop integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This allows Claude Desktop (or any MCP client) to search your messages
using tools like search_messages, list_conversations,
get_conversation_messages, get_stats and find_contact.

Add to Claude Desktop config:
  {
    "mcpServers": {
      "textvault": {
        "command": "textvault",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return mcpserver.Serve(cmd.Context(), a.engine, a.book)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
