package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dealreg/internal/cli"
	"github.com/aretw0/dealreg/internal/config"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved wizard sessions",
	Long:  `List, inspect, and remove drafts saved by the configured store (.dealreg/sessions by default).`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saved sessions",
	Run: func(cmd *cobra.Command, args []string) {
		storage := getStorage(cmd)
		defer storage.Close()

		if err := cli.ListSessions(cmd.Context(), storage.Store, os.Stdout); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the saved draft of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storage := getStorage(cmd)
		defer storage.Close()

		mermaid, _ := cmd.Flags().GetBool("mermaid")
		if err := cli.InspectSession(cmd.Context(), storage.Store, args[0], mermaid, os.Stdout); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		storage := getStorage(cmd)
		defer storage.Close()

		ids := args
		if all, _ := cmd.Flags().GetBool("all"); all {
			var err error
			ids, err = storage.Store.List(cmd.Context())
			if err != nil {
				fmt.Printf("Error listing sessions: %v\n", err)
				os.Exit(1)
			}
		}

		if err := cli.RemoveSessions(cmd.Context(), storage.Store, ids, os.Stdout); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().Bool("mermaid", false, "Print the step flow as a Mermaid diagram")
	sessionRmCmd.Flags().Bool("all", false, "Remove every saved session")
}

// getStorage opens the configured store. An in-memory store holds nothing between runs,
// so the file store under the working directory is used instead.
func getStorage(cmd *cobra.Command) *cli.Storage {
	cfg := mustLoadConfig(cmd)
	if cfg.Store.Kind == config.StoreMemory {
		cfg.Store.Kind = config.StoreFile
	}
	storage, err := cli.OpenStorage(cfg)
	if err != nil {
		fmt.Printf("Error opening store: %v\n", err)
		os.Exit(1)
	}
	return storage
}
