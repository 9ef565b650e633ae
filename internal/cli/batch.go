package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/menuflow/menuflow/internal/batch"
	"github.com/menuflow/menuflow/internal/channel"
	"github.com/menuflow/menuflow/internal/executor"
	"github.com/menuflow/menuflow/internal/models"
	"github.com/menuflow/menuflow/internal/sequences"
	"github.com/spf13/cobra"
)

var (
	batchScript []string
	batchVars   []string
	batchDelay  time.Duration
)

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringArrayVar(&batchScript, "script", nil, "scripted response, repeatable; shared by all runs")
	batchCmd.Flags().StringArrayVar(&batchVars, "var", nil, "variable binding name=value, applied to every sequence")
	batchCmd.Flags().DurationVar(&batchDelay, "delay", 0, "delay between runs (default from config)")
}

var batchCmd = &cobra.Command{
	Use:   "batch <sequence>...",
	Short: "Execute sequences serially",
	Long:  "Execute several sequences one after another over a shared scripted session. Arguments are file paths, directories, or installed definition names.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseVars(batchVars)
		if err != nil {
			return err
		}

		defs, err := collectDefinitions(args)
		if err != nil {
			return err
		}
		seqs := make([]models.Sequence, 0, len(defs))
		for _, def := range defs {
			seq, err := buildSequence(def, vars)
			if err != nil {
				return err
			}
			seqs = append(seqs, seq)
		}

		delay := batchDelay
		if delay <= 0 {
			if cfg := GetConfig(); cfg != nil {
				delay = cfg.Batch.InterRunDelay
			}
		}

		session := channel.NewScripted(batchScript...)
		notifier := executor.NewNotifier(printEvent, 0)
		scheduler := batch.NewScheduler(session, notifier, executorSettings(), delay)

		summary := scheduler.Run(context.Background(), seqs)
		notifier.Close()

		rows := make([][]string, 0, len(summary.Results))
		for _, state := range summary.Results {
			rows = append(rows, []string{
				state.Sequence().Name,
				string(state.Status()),
				formatDuration(state.Duration()),
				state.LastError(),
			})
		}
		_ = writeTable(os.Stdout, []string{"SEQUENCE", "STATUS", "DURATION", "ERROR"}, rows)
		fmt.Printf("\n%d succeeded, %d failed in %s\n", summary.Succeeded, summary.Failed, formatDuration(summary.Duration))

		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d sequences failed", summary.Failed, len(seqs))
		}
		return nil
	},
}

func collectDefinitions(args []string) ([]*sequences.Definition, error) {
	defs := make([]*sequences.Definition, 0, len(args))
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			loaded, err := sequences.LoadSequencesFromDir(arg)
			if err != nil {
				return nil, err
			}
			defs = append(defs, loaded...)
			continue
		}
		def, err := resolveDefinition(arg)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no sequences found")
	}
	return defs, nil
}
