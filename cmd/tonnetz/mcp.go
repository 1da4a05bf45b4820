package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/tonnetz/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the Tonnetz engine as an MCP Server so agents can build lattices,
assign notes and select nodes as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		engine, cleanup, err := newEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		srv := mcp.NewServer(engine)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("starting tonnetz MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("starting tonnetz MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	addLayoutFlags(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport to use: stdio or sse")
	mcpCmd.Flags().Int("port", 8080, "Port for the SSE transport")
}
