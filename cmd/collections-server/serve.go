package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rsned/stt-collections-server/internal/collections/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// Create engine and server
	eng, err := a.newEngine()
	if err != nil {
		return err
	}
	server := mcp.NewServer(eng, a.logger)

	// Run MCP server
	a.logger.Info("starting MCP server", "db", a.cfg.Database.Path)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Fprintln(os.Stderr, "server stopped")
	return nil
}
