// Package config loads menuflow settings from file, environment, and
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings.
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// LogPretty selects human-readable console output over JSON.
	LogPretty bool `mapstructure:"log_pretty"`

	Executor ExecutorConfig `mapstructure:"executor"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Matcher  MatcherConfig  `mapstructure:"matcher"`
}

// ExecutorConfig tunes sequence execution timing.
type ExecutorConfig struct {
	// BringUpTimeout bounds how long a session may take to become active.
	BringUpTimeout time.Duration `mapstructure:"bring_up_timeout"`

	// PollInterval is the cancellation checkpoint cadence.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// RetryBaseDelay is the unit of the linear retry backoff.
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`

	// DefaultStepTimeout applies to steps without an explicit timeout.
	DefaultStepTimeout time.Duration `mapstructure:"default_step_timeout"`
}

// BatchConfig tunes serial batch runs.
type BatchConfig struct {
	// InterRunDelay separates consecutive sequence runs.
	InterRunDelay time.Duration `mapstructure:"inter_run_delay"`
}

// MatcherConfig tunes exhaustive search probes.
type MatcherConfig struct {
	// SelectOption is the menu choice sent on the first probe screen.
	SelectOption string `mapstructure:"select_option"`

	// StepTimeout bounds each probe step.
	StepTimeout time.Duration `mapstructure:"step_timeout"`

	// ProbeTimeout bounds one whole probe session.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Executor: ExecutorConfig{
			BringUpTimeout:     5 * time.Second,
			PollInterval:       100 * time.Millisecond,
			RetryBaseDelay:     time.Second,
			DefaultStepTimeout: 8 * time.Second,
		},
		Batch: BatchConfig{
			InterRunDelay: 2 * time.Second,
		},
		Matcher: MatcherConfig{
			SelectOption: "1",
			StepTimeout:  8 * time.Second,
			ProbeTimeout: 30 * time.Second,
		},
	}
}

// Load reads settings from the given file path, or from the standard
// search locations when path is empty, overlaid with MENUFLOW_* environment
// variables. A missing file is only an error when an explicit path was
// given.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MENUFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("menuflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/menuflow")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_pretty", defaults.LogPretty)
	v.SetDefault("executor.bring_up_timeout", defaults.Executor.BringUpTimeout)
	v.SetDefault("executor.poll_interval", defaults.Executor.PollInterval)
	v.SetDefault("executor.retry_base_delay", defaults.Executor.RetryBaseDelay)
	v.SetDefault("executor.default_step_timeout", defaults.Executor.DefaultStepTimeout)
	v.SetDefault("batch.inter_run_delay", defaults.Batch.InterRunDelay)
	v.SetDefault("matcher.select_option", defaults.Matcher.SelectOption)
	v.SetDefault("matcher.step_timeout", defaults.Matcher.StepTimeout)
	v.SetDefault("matcher.probe_timeout", defaults.Matcher.ProbeTimeout)
}
