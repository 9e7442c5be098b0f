package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dealreg/internal/cli"
	"github.com/aretw0/dealreg/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run [session-id]",
	Short: "Drive a session headlessly over JSON-Lines",
	Long: `Reads one JSON command per line from stdin and writes one JSON response per line to stdout.
The session is created when it does not exist and saved on exit unless it was submitted.

Example:
  echo '{"op":"update","patch":{"companyName":"Acme"}}' | dealreg run demo`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)
		if cfg.Store.Kind == config.StoreMemory {
			cfg.Store.Kind = config.StoreFile
		}
		logger := newLogger(cmd)

		rt, err := cli.BuildEngine(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing dealreg: %v\n", err)
			os.Exit(1)
		}
		defer rt.Close(context.Background())

		sessionID := ""
		if len(args) > 0 {
			sessionID = args[0]
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if err := cli.RunSession(sigCtx, rt.Engine, sessionID, os.Stdin, os.Stdout, logger); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
