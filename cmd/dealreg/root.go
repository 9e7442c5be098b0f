package main

import (
	"fmt"
	"os"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/dealreg/internal/cli"
	"github.com/aretw0/dealreg/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "dealreg",
	Short: "dealreg is a deal registration intake wizard",
	Long: `dealreg guides partners through registering a sales opportunity: duplicate checks,
field validation, attachments, review and submission to a downstream system.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("dir", "", "Data directory; selects the file store under <dir>/.dealreg")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "text", "Log encoding on Stderr: text or json")
}

// loadConfig reads --config and applies --dir.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.Store.Kind = config.StoreFile
		cfg.Store.Dir = filepath.Join(dir, ".dealreg", "sessions")
		cfg.Files.Dir = filepath.Join(dir, ".dealreg", "files")
	}
	return cfg, nil
}

func mustLoadConfig(cmd *cobra.Command) config.Config {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the Stderr logger from --debug and --log-format.
func newLogger(cmd *cobra.Command) *slog.Logger {
	format, _ := cmd.Flags().GetString("log-format")
	return cli.NewLogger(debugFlag(cmd), format)
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
