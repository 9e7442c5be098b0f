package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dealreg"
	"github.com/aretw0/dealreg/internal/cli"
	"github.com/aretw0/dealreg/internal/presentation/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the wizard behind a JSON API over HTTP, with live view updates over Server-Sent Events.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		logger := newLogger(cmd)

		rt, err := cli.BuildEngine(cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing dealreg: %v\n", err)
			os.Exit(1)
		}

		tui.PrintBanner(os.Stdout)
		cli.SystemMessage(os.Stdout, "dealreg %s listening on :%d (%s store)", dealreg.Version, cfg.Server.Port, cfg.Store.Kind)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if err := cli.Serve(sigCtx, rt, cfg.Server.Port, logger); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
		if sig := sigCtx.Signal(); sig != nil {
			cli.SystemMessage(os.Stdout, "Stopped on %v. Live sessions saved.", sig)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
}
