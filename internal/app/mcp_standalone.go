package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ihaboard/internal/config"
	mcpserver "ihaboard/internal/mcp"
)

// ServeMCP runs ihaboard as a standalone MCP server on stdin/stdout.
// Logs go to stderr so stdout stays a clean protocol stream.
func ServeMCP(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := New(cfg, nil)
	if err := a.Startup(ctx); err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	mcpSrv := mcpserver.New(mcpserver.Deps{Search: a.Search()})
	return mcpSrv.ServeStdio()
}
