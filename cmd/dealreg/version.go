package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/dealreg"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dealreg",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dealreg version %s\n", strings.TrimSpace(dealreg.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
