package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dealreg/internal/cli"
	"github.com/aretw0/dealreg/internal/config"
)

var reviewCmd = &cobra.Command{
	Use:   "review <session-id>",
	Short: "Show the review summary of a saved session",
	Long:  `Loads a saved draft and prints the review step: the entered data, approval route and remaining errors.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)
		if cfg.Store.Kind == config.StoreMemory {
			cfg.Store.Kind = config.StoreFile
		}

		rt, err := cli.BuildEngine(cfg, newLogger(cmd))
		if err != nil {
			fmt.Printf("Error initializing dealreg: %v\n", err)
			os.Exit(1)
		}
		defer rt.Close(context.Background())

		asJSON, _ := cmd.Flags().GetBool("json")
		if err := cli.PrintReview(cmd.Context(), rt.Engine, args[0], asJSON, os.Stdout); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().Bool("json", false, "Print the summary as JSON")
}
