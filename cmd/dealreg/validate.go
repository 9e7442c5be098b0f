package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dealreg/internal/cli"
	"github.com/aretw0/dealreg/pkg/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate [draft.json]",
	Short: "Check the validation rules, and optionally a draft against them",
	Long: `Compiles the rules from the configuration file and reports every malformed rule.
Given a JSON draft, also evaluates it and lists the failing fields.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)

		rules, err := cli.ValidateRules(cfg, os.Stdout)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		if len(args) == 0 {
			return
		}
		if cfg.Wizard.TermsRequired {
			rules = rules.With(validation.TermsRule())
		}
		if err := cli.ValidateDraftFile(rules, args[0], os.Stdout); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
