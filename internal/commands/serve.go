package commands

import (
	"github.com/spf13/cobra"

	"ihaboard/internal/app"
)

// ServeCmd starts the HTTP API.
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the HTTP API",
	Long:    `Serve GET /danbooru, /safebooru, /zerochan, /boards/{board} and /history on server.addr. Saved searches from the config run on their schedules while the server is up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		return app.RunHTTP(cfg)
	},
}

// MCPCmd serves the MCP tools over stdio.
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.ServeMCP(cfg)
	},
}

func init() {
	ServeCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
