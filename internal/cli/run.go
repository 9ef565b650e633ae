package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/menuflow/menuflow/internal/channel"
	"github.com/menuflow/menuflow/internal/executor"
	"github.com/menuflow/menuflow/internal/models"
	"github.com/menuflow/menuflow/internal/sequences"
	"github.com/spf13/cobra"
)

var (
	runScript []string
	runVars   []string
	runJSON   bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArrayVar(&runScript, "script", nil, "scripted response, repeatable; replies play in order")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "variable binding name=value, repeatable")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run summary as JSON")
}

var runCmd = &cobra.Command{
	Use:   "run <sequence>",
	Short: "Execute a sequence",
	Long:  "Execute a sequence against a scripted session. The argument is a file path or the name of an installed definition.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := resolveDefinition(args[0])
		if err != nil {
			return err
		}
		vars, err := parseVars(runVars)
		if err != nil {
			return err
		}
		seq, err := buildSequence(def, vars)
		if err != nil {
			return err
		}

		session := channel.NewScripted(runScript...)
		notifier := executor.NewNotifier(printEvent, 0)
		exec := executor.New(seq, session, notifier, executorSettings())

		status, err := exec.Run(context.Background())
		notifier.Close()
		if err != nil {
			return err
		}

		state := exec.State()
		if runJSON {
			if err := printRunJSON(state, status); err != nil {
				return err
			}
		} else {
			printRunSummary(state, status)
		}

		if status != models.SessionStatusCompleted {
			return fmt.Errorf("sequence ended %s: %s", status, state.LastError())
		}
		return nil
	},
}

// printEvent surfaces step progress while a run is in flight.
func printEvent(event models.Event) {
	if !progressEnabled() {
		return
	}
	switch data := event.Data.(type) {
	case models.StepStartedData:
		label := data.Description
		if label == "" {
			label = "step"
		}
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", data.StepNumber, data.TotalSteps, label)
	case models.StepRetryingData:
		fmt.Fprintf(os.Stderr, "  retrying step %d (attempt %d): %s\n", data.StepNumber, data.Attempt, data.Reason)
	case models.DataExtractedData:
		fmt.Fprintf(os.Stderr, "  extracted %s=%s\n", data.Key, data.Value)
	}
}

func printRunSummary(state *models.SessionState, status models.SessionStatus) {
	rows := make([][]string, 0, len(state.StepRecords()))
	for _, record := range state.StepRecords() {
		rows = append(rows, []string{
			fmt.Sprintf("%d", record.StepNumber),
			formatYesNo(record.Success),
			fmt.Sprintf("%d", record.Retries),
			formatDuration(record.Duration),
			truncate(record.Response, 48),
		})
	}
	_ = writeTable(os.Stdout, []string{"STEP", "OK", "RETRIES", "DURATION", "RESPONSE"}, rows)

	fmt.Printf("\nStatus: %s (%s)\n", status, formatDuration(state.Duration()))
	extracted := state.ExtractedData()
	if len(extracted) > 0 {
		fmt.Println("Extracted:")
		for key, value := range extracted {
			fmt.Printf("  %s = %s\n", key, value)
		}
	}
	if reason := state.LastError(); reason != "" {
		fmt.Printf("Error: %s\n", reason)
	}
}

func printRunJSON(state *models.SessionState, status models.SessionStatus) error {
	summary := struct {
		SessionID string               `json:"session_id"`
		Status    models.SessionStatus `json:"status"`
		Duration  string               `json:"duration"`
		Steps     []models.StepRecord  `json:"steps"`
		Extracted map[string]string    `json:"extracted,omitempty"`
		Error     string               `json:"error,omitempty"`
	}{
		SessionID: state.SessionID(),
		Status:    status,
		Duration:  state.Duration().Round(time.Millisecond).String(),
		Steps:     state.StepRecords(),
		Extracted: state.ExtractedData(),
		Error:     state.LastError(),
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

// resolveDefinition accepts a file path or the name of an installed
// definition.
func resolveDefinition(nameOrPath string) (*sequences.Definition, error) {
	if _, err := os.Stat(nameOrPath); err == nil {
		return sequences.LoadSequence(nameOrPath)
	}

	cwd, _ := os.Getwd()
	installed, err := sequences.LoadSequencesFromSearchPaths(cwd)
	if err != nil {
		return nil, err
	}
	for _, def := range installed {
		if def.Name == nameOrPath {
			return def, nil
		}
	}
	return nil, fmt.Errorf("sequence %q not found: not a file and not an installed definition", nameOrPath)
}

func parseVars(bindings []string) (map[string]string, error) {
	vars := make(map[string]string, len(bindings))
	for _, binding := range bindings {
		name, value, ok := strings.Cut(binding, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid variable binding %q, want name=value", binding)
		}
		vars[strings.TrimSpace(name)] = value
	}
	return vars, nil
}

func executorSettings() executor.Config {
	cfg := GetConfig()
	if cfg == nil {
		return executor.DefaultConfig()
	}
	return executor.Config{
		BringUpTimeout: cfg.Executor.BringUpTimeout,
		PollInterval:   cfg.Executor.PollInterval,
		RetryBaseDelay: cfg.Executor.RetryBaseDelay,
	}
}

// buildSequence builds a definition with the configured default step
// timeout applied to steps that do not set their own.
func buildSequence(def *sequences.Definition, vars map[string]string) (models.Sequence, error) {
	timeout := sequences.DefaultStepTimeout
	if cfg := GetConfig(); cfg != nil && cfg.Executor.DefaultStepTimeout > 0 {
		timeout = cfg.Executor.DefaultStepTimeout
	}
	return sequences.BuildWithStepTimeout(def, vars, timeout)
}

func truncate(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}
