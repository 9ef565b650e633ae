package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/menuflow/menuflow/internal/candidates"
	"github.com/menuflow/menuflow/internal/channel"
	"github.com/menuflow/menuflow/internal/executor"
	"github.com/menuflow/menuflow/internal/matcher"
	"github.com/menuflow/menuflow/internal/models"
	"github.com/spf13/cobra"
)

var (
	matchDial        string
	matchScript      []string
	matchPool        []string
	matchWidth       int
	matchLikelyFirst bool
	matchLimit       int
	matchSelect      string
	matchJSON        bool
)

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().StringVar(&matchDial, "dial", "", "dial code that opens each probe session")
	matchCmd.Flags().StringArrayVar(&matchScript, "script", nil, "scripted response, repeatable; shared by all probes")
	matchCmd.Flags().StringArrayVar(&matchPool, "candidate", nil, "candidate value, repeatable; overrides generation")
	matchCmd.Flags().IntVar(&matchWidth, "width", 4, "generated candidate width in digits")
	matchCmd.Flags().BoolVar(&matchLikelyFirst, "likely-first", false, "front-load commonly-chosen values")
	matchCmd.Flags().IntVar(&matchLimit, "limit", 0, "try at most this many candidates per target (0 = all)")
	matchCmd.Flags().StringVar(&matchSelect, "select", "", "menu option sent on the first probe screen (default from config)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "print the search report as JSON")
	_ = matchCmd.MarkFlagRequired("dial")
}

var matchCmd = &cobra.Command{
	Use:   "match <target>...",
	Short: "Exhaustively search candidates for each target",
	Long:  "Probe a scripted session with one candidate per run until a success outcome is found for each target.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pool := matchPool
		if len(pool) == 0 {
			var err error
			if matchLikelyFirst {
				pool, err = candidates.LikelyFirst(matchWidth)
			} else {
				pool, err = candidates.All(matchWidth)
			}
			if err != nil {
				return err
			}
		}
		if matchLimit > 0 && matchLimit < len(pool) {
			pool = pool[:matchLimit]
		}

		session := channel.NewScripted(matchScript...)
		notifier := executor.NewNotifier(printMatchEvent, 0)
		m := matcher.New(matcherSettings(), session, nil, notifier)

		report := m.Run(context.Background(), args, pool)
		notifier.Close()

		if matchJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(report); err != nil {
				return err
			}
		} else {
			printMatchReport(report)
		}

		if len(report.Unmatched) > 0 {
			return fmt.Errorf("%d of %d targets unmatched", len(report.Unmatched), len(args))
		}
		return nil
	},
}

// matcherSettings maps the loaded configuration and flags onto the probe
// settings.
func matcherSettings() matcher.Config {
	mc := matcher.Config{
		DialCode: matchDial,
		Executor: executorSettings(),
	}
	if cfg := GetConfig(); cfg != nil {
		mc.SelectOption = cfg.Matcher.SelectOption
		mc.StepTimeout = cfg.Matcher.StepTimeout
		mc.ProbeTimeout = cfg.Matcher.ProbeTimeout
	}
	if matchSelect != "" {
		mc.SelectOption = matchSelect
	}
	return mc
}

// printMatchEvent surfaces per-target progress while a search is in
// flight.
func printMatchEvent(event models.Event) {
	if !progressEnabled() {
		return
	}
	switch data := event.Data.(type) {
	case models.MatchTargetStartedData:
		fmt.Fprintf(os.Stderr, "[%d/%d] target %s\n", data.TargetIndex, data.TotalTargets, data.Target)
	case models.MatchCandidateData:
		if event.Type == models.EventTypeMatchCandidateTried {
			fmt.Fprintf(os.Stderr, "  trying %s (attempt %d)\n", data.Candidate, data.Attempt)
		}
	case models.MatchTargetMatchedData:
		fmt.Fprintf(os.Stderr, "  matched with %s after %d attempts\n", data.Result.Candidate, data.Result.Attempts)
	}
}

func printMatchReport(report matcher.Report) {
	results := make([]models.MatchResult, 0, len(report.Matches))
	for _, result := range report.Matches {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Target < results[j].Target })

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{
			result.Target,
			result.Candidate,
			fmt.Sprintf("%d", result.Attempts),
			formatDuration(result.Duration),
		})
	}
	_ = writeTable(os.Stdout, []string{"TARGET", "CANDIDATE", "ATTEMPTS", "DURATION"}, rows)

	fmt.Printf("\n%d matched, %d unmatched in %s\n", len(report.Matches), len(report.Unmatched), formatDuration(report.Duration))
	for _, target := range report.Unmatched {
		fmt.Printf("unmatched: %s\n", target)
	}
}
