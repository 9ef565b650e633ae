package cli

import (
	"fmt"
	"os"

	"github.com/menuflow/menuflow/internal/sequences"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed sequences",
	Long:  "List sequence definitions from the search paths and the built-in set.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, _ := os.Getwd()
		defs, err := sequences.LoadSequencesFromSearchPaths(cwd)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(defs))
		for _, def := range defs {
			rows = append(rows, []string{
				def.Name,
				fmt.Sprintf("%d", len(def.Steps)),
				def.Source,
				def.Description,
			})
		}
		return writeTable(os.Stdout, []string{"NAME", "STEPS", "SOURCE", "DESCRIPTION"}, rows)
	},
}
