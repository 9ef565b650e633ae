package cli

import (
	"fmt"
	"os"

	"github.com/menuflow/menuflow/internal/candidates"
	"github.com/spf13/cobra"
)

var (
	candidatesWidth       int
	candidatesLikelyFirst bool
	candidatesStart       int
	candidatesEnd         int
	candidatesLimit       int
	candidatesCount       bool
)

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.Flags().IntVar(&candidatesWidth, "width", 4, "candidate width in digits")
	candidatesCmd.Flags().BoolVar(&candidatesLikelyFirst, "likely-first", false, "front-load commonly-chosen values")
	candidatesCmd.Flags().IntVar(&candidatesStart, "start", -1, "first candidate of an inclusive range")
	candidatesCmd.Flags().IntVar(&candidatesEnd, "end", -1, "last candidate of an inclusive range")
	candidatesCmd.Flags().IntVar(&candidatesLimit, "limit", 0, "print at most this many candidates (0 = all)")
	candidatesCmd.Flags().BoolVar(&candidatesCount, "count", false, "print only the candidate count")
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Generate candidate values",
	Long:  "Generate fixed-width numeric candidates for exhaustive matching, one per line.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if candidatesCount {
			total, err := candidates.Total(candidatesWidth)
			if err != nil {
				return err
			}
			fmt.Println(total)
			return nil
		}

		var (
			values []string
			err    error
		)
		switch {
		case candidatesStart >= 0 || candidatesEnd >= 0:
			if candidatesLikelyFirst {
				return fmt.Errorf("--likely-first cannot be combined with --start/--end")
			}
			values, err = candidates.Range(candidatesWidth, candidatesStart, candidatesEnd)
		case candidatesLikelyFirst:
			values, err = candidates.LikelyFirst(candidatesWidth)
		default:
			values, err = candidates.All(candidatesWidth)
		}
		if err != nil {
			return err
		}

		if candidatesLimit > 0 && candidatesLimit < len(values) {
			values = values[:candidatesLimit]
		}
		for _, value := range values {
			fmt.Fprintln(os.Stdout, value)
		}
		return nil
	},
}
