package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dealreg/internal/cli"
	"github.com/aretw0/dealreg/pkg/adapters/mcp"
	"github.com/aretw0/dealreg/pkg/validation"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes draft validation, duplicate lookup and payload building as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs must never reach Stdout, which carries JSON-RPC on stdio.
		logger := newLogger(cmd)
		slog.SetDefault(logger)
		log.SetOutput(os.Stderr)

		rt, err := cli.BuildEngine(cfg, logger)
		if err != nil {
			log.Fatalf("Error initializing dealreg: %v", err)
		}
		defer rt.Close(context.Background())

		rules, _ := cfg.RuleSet()
		if cfg.Wizard.TermsRequired {
			rules = rules.With(validation.TermsRule())
		}
		srv := mcp.NewServer(rt.Lookup,
			mcp.WithRules(rules),
			mcp.WithLookupTimeout(cfg.Wizard.LookupTimeout),
		)

		switch transport {
		case "stdio":
			slog.Info("Starting dealreg MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP Server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("Starting dealreg MCP Server (SSE)", "port", port)

			sigCtx := cli.NewSignalContext(context.Background())
			defer sigCtx.Cancel()

			if err := srv.ServeSSE(sigCtx, port); err != nil {
				slog.Error("MCP Server execution failed", "error", err)
				os.Exit(1)
			}
			slog.Info("MCP Server stopped gracefully")
		default:
			fmt.Printf("Unknown transport: %s. Supported: stdio, sse\n", transport)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
