package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Fatalf("expected info log level, got %q", cfg.LogLevel)
	}
	if cfg.Executor.BringUpTimeout != 5*time.Second {
		t.Fatalf("unexpected bring-up timeout %s", cfg.Executor.BringUpTimeout)
	}
	if cfg.Executor.PollInterval != 100*time.Millisecond {
		t.Fatalf("unexpected poll interval %s", cfg.Executor.PollInterval)
	}
	if cfg.Batch.InterRunDelay != 2*time.Second {
		t.Fatalf("unexpected inter-run delay %s", cfg.Batch.InterRunDelay)
	}
	if cfg.Matcher.SelectOption != "1" {
		t.Fatalf("unexpected select option %q", cfg.Matcher.SelectOption)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menuflow.yaml")
	content := `log_level: debug
executor:
  bring_up_timeout: 10s
  retry_base_delay: 250ms
batch:
  inter_run_delay: 5s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug, got %q", cfg.LogLevel)
	}
	if cfg.Executor.BringUpTimeout != 10*time.Second {
		t.Fatalf("expected overridden bring-up timeout, got %s", cfg.Executor.BringUpTimeout)
	}
	if cfg.Executor.RetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("expected overridden retry delay, got %s", cfg.Executor.RetryBaseDelay)
	}
	if cfg.Batch.InterRunDelay != 5*time.Second {
		t.Fatalf("expected overridden delay, got %s", cfg.Batch.InterRunDelay)
	}

	// Untouched settings keep their defaults.
	if cfg.Executor.PollInterval != 100*time.Millisecond {
		t.Fatalf("expected default poll interval, got %s", cfg.Executor.PollInterval)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load("/nonexistent/menuflow.yaml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("MENUFLOW_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected env override, got %q", cfg.LogLevel)
	}
}
