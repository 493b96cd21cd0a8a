package commands

import (
	"github.com/spf13/cobra"

	"ihaboard/internal/config"
	"ihaboard/internal/errors"
	"ihaboard/internal/logger"
)

var (
	configPath string
	jsonLogs   bool

	// cfg is loaded once by the root command before any subcommand runs.
	cfg *config.Config
)

// RootCmd is the ihaboard command.
var RootCmd = &cobra.Command{
	Use:   "ihaboard",
	Short: "ihaBoard - normalized imageboard search",
	Long: `ihaBoard searches imageboards and answers with one uniform JSON shape.

Available commands:
  serve    - Start the HTTP API
  mcp      - Serve the MCP tools on stdin/stdout
  search   - Run one search and print the result
  history  - Show recent searches
  boards   - List supported boards
  secret   - Manage the stored history database password

Examples:
  ihaboard serve
  ihaboard search danbooru hatsune_miku 1girl
  ihaboard search safebooru blue_eyes --random
  ihaboard history --board zerochan --limit 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		cfg = loaded
		if err := logger.Initialize(cfg.Log.JSON || jsonLogs, cfg.Log.Level); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./ihaboard.yaml or ~/.config/ihaboard/ihaboard.yaml)")
	RootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")

	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(MCPCmd)
	RootCmd.AddCommand(SearchCmd)
	RootCmd.AddCommand(HistoryCmd)
	RootCmd.AddCommand(BoardsCmd)
	RootCmd.AddCommand(SecretCmd)
}

// Execute runs the root command.
func Execute() error {
	defer logger.Cleanup()
	return RootCmd.Execute()
}
