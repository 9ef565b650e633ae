package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateVars []string

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringArrayVar(&validateVars, "var", nil, "variable binding name=value, repeatable")
}

var validateCmd = &cobra.Command{
	Use:   "validate <sequence>...",
	Short: "Validate sequence definitions",
	Long:  "Parse and validate sequence definitions without executing them.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseVars(validateVars)
		if err != nil {
			return err
		}

		failed := 0
		for _, arg := range args {
			def, err := resolveDefinition(arg)
			if err != nil {
				fmt.Fprintf(os.Stdout, "%s: %v\n", arg, err)
				failed++
				continue
			}
			if _, err := buildSequence(def, vars); err != nil {
				fmt.Fprintf(os.Stdout, "%s: %v\n", arg, err)
				failed++
				continue
			}
			fmt.Fprintf(os.Stdout, "%s: ok (%d steps)\n", arg, len(def.Steps))
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d sequences invalid", failed, len(args))
		}
		return nil
	},
}
