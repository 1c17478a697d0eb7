package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/atelier/internal/cli"
	"github.com/aretw0/atelier/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the studio as an MCP Server.
This allows AI agents to record edits, undo, redo and run jobs as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Sessions outlive the process, so agents can resume them.
		studio, closeStudio, cfg, err := openStudio(cmd, true, nil)
		if err != nil {
			return err
		}
		defer closeStudio()

		// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		srv := mcp.NewServer(studio, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting atelier MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
