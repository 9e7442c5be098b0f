package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/dealreg/internal/presentation/graph"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/validation"
)

// stepsCmd represents the steps command
var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Print the wizard steps",
	Long:  `Lists the wizard steps with the fields edited on each, or outputs the flow as a Mermaid diagram.`,
	Run: func(cmd *cobra.Command, args []string) {
		steps := domain.DefaultSteps()
		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			fmt.Print(graph.GenerateMermaid(steps))
			return
		}
		for i, s := range steps {
			fmt.Printf("%d. %s (%s): %s\n", i+1, s.Title, s.ID, s.Description)
			for _, f := range validation.StepFields(s.ID) {
				fmt.Printf("   - %s\n", f)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
	stepsCmd.Flags().Bool("mermaid", false, "Output a Mermaid diagram")
}
