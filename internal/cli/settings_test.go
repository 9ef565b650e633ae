package cli

import (
	"testing"
	"time"

	"github.com/menuflow/menuflow/internal/config"
	"github.com/menuflow/menuflow/internal/sequences"
)

func withTestConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	previous := cliConfig
	cliConfig = cfg
	t.Cleanup(func() { cliConfig = previous })
}

func TestExecutorSettingsFromConfig(t *testing.T) {
	withTestConfig(t, &config.Config{
		Executor: config.ExecutorConfig{
			BringUpTimeout: 9 * time.Second,
			PollInterval:   50 * time.Millisecond,
			RetryBaseDelay: 300 * time.Millisecond,
		},
	})

	settings := executorSettings()
	if settings.BringUpTimeout != 9*time.Second {
		t.Fatalf("unexpected bring-up timeout %s", settings.BringUpTimeout)
	}
	if settings.PollInterval != 50*time.Millisecond {
		t.Fatalf("unexpected poll interval %s", settings.PollInterval)
	}
	if settings.RetryBaseDelay != 300*time.Millisecond {
		t.Fatalf("unexpected retry delay %s", settings.RetryBaseDelay)
	}

	withTestConfig(t, nil)
	if got := executorSettings(); got.BringUpTimeout != 5*time.Second {
		t.Fatalf("expected defaults without config, got %+v", got)
	}
}

func TestMatcherSettingsFromConfig(t *testing.T) {
	withTestConfig(t, &config.Config{
		Matcher: config.MatcherConfig{
			SelectOption: "2",
			StepTimeout:  4 * time.Second,
			ProbeTimeout: 20 * time.Second,
		},
	})

	previousDial, previousSelect := matchDial, matchSelect
	matchDial, matchSelect = "*909#", ""
	t.Cleanup(func() { matchDial, matchSelect = previousDial, previousSelect })

	settings := matcherSettings()
	if settings.DialCode != "*909#" {
		t.Fatalf("unexpected dial code %q", settings.DialCode)
	}
	if settings.SelectOption != "2" {
		t.Fatalf("expected configured select option, got %q", settings.SelectOption)
	}
	if settings.StepTimeout != 4*time.Second {
		t.Fatalf("unexpected step timeout %s", settings.StepTimeout)
	}
	if settings.ProbeTimeout != 20*time.Second {
		t.Fatalf("unexpected probe timeout %s", settings.ProbeTimeout)
	}

	// The flag overrides the configured option.
	matchSelect = "5"
	if got := matcherSettings(); got.SelectOption != "5" {
		t.Fatalf("expected flag override, got %q", got.SelectOption)
	}
}

func TestBuildSequenceUsesConfiguredStepTimeout(t *testing.T) {
	def := &sequences.Definition{
		Name:     "timeouts",
		DialCode: "*1#",
		Steps:    []sequences.StepSpec{{Send: "1"}},
	}

	withTestConfig(t, &config.Config{
		Executor: config.ExecutorConfig{DefaultStepTimeout: 3 * time.Second},
	})
	seq, err := buildSequence(def, nil)
	if err != nil {
		t.Fatalf("buildSequence: %v", err)
	}
	if seq.Steps[0].Timeout != 3*time.Second {
		t.Fatalf("expected configured step timeout, got %s", seq.Steps[0].Timeout)
	}

	withTestConfig(t, nil)
	seq, err = buildSequence(def, nil)
	if err != nil {
		t.Fatalf("buildSequence: %v", err)
	}
	if seq.Steps[0].Timeout != sequences.DefaultStepTimeout {
		t.Fatalf("expected package default without config, got %s", seq.Steps[0].Timeout)
	}
}
