// Package config loads and validates the evaluation engine configuration:
// which judge providers run, their call budgets and retry policy, and the
// statistical thresholds applied during consolidation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chatlens/chatlens/internal/confidence"
	"github.com/chatlens/chatlens/internal/statistics"
)

// Defaults applied when the corresponding field is omitted.
const (
	DefaultRequestTimeoutSec  = 120
	DefaultProviderTimeoutSec = 60
	DefaultMaxAttempts        = 3
	DefaultInitialDelayMs     = 1000
	DefaultBackoffMultiplier  = 2.0
	DefaultTemperature        = 0.1
	DefaultMaxTokens          = 2048
)

// RetryPolicy controls per-provider retry behavior for transient failures.
type RetryPolicy struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	InitialDelayMs int     `yaml:"initial_delay_ms"`
	Multiplier     float64 `yaml:"multiplier"`
}

// InitialDelay returns the first backoff delay as a duration.
func (r RetryPolicy) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelayMs) * time.Millisecond
}

// ProviderConfig describes one judge provider entry.
type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"`
	Enabled     bool    `yaml:"enabled"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`

	// Priority orders providers when a subset must be chosen. Lower runs first.
	Priority int `yaml:"priority"`

	// Cost per million tokens, used for per-call cost accounting.
	CostPerMTokIn  float64 `yaml:"cost_per_mtok_in"`
	CostPerMTokOut float64 `yaml:"cost_per_mtok_out"`

	Retry RetryPolicy `yaml:"retry"`

	// Params carries provider-specific knobs decoded by the provider itself.
	Params map[string]any `yaml:"params,omitempty"`
}

// Timeout returns the per-call deadline for this provider.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// MultiJudge controls panel composition.
type MultiJudge struct {
	Enabled          bool `yaml:"enabled"`
	MinProviders     int  `yaml:"min_providers"`
	AllowSingleJudge bool `yaml:"allow_single_judge"`
}

// Thresholds are the statistical knobs applied during consolidation.
type Thresholds struct {
	OutlierMultiplier  float64            `yaml:"outlier_multiplier"`
	MinSampleSize      int                `yaml:"min_sample_size"`
	ConsistencyMinimum float64            `yaml:"consistency_minimum"`
	ConsistencyTarget  float64            `yaml:"consistency_target"`
	ConfidenceWeights  confidence.Weights `yaml:"confidence_weights"`
	OptimalProviders   int                `yaml:"optimal_providers"`
}

// Config is the full engine configuration.
type Config struct {
	MultiJudge        MultiJudge       `yaml:"multi_judge"`
	Providers         []ProviderConfig `yaml:"providers"`
	Thresholds        Thresholds       `yaml:"thresholds"`
	RequestTimeoutSec int              `yaml:"request_timeout_sec"`
}

// RequestTimeout returns the whole-request deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// Load reads a YAML config file, applies defaults, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.RequestTimeoutSec == 0 {
		c.RequestTimeoutSec = DefaultRequestTimeoutSec
	}
	if c.MultiJudge.MinProviders == 0 {
		c.MultiJudge.MinProviders = 2
	}
	if c.Thresholds.OutlierMultiplier == 0 {
		c.Thresholds.OutlierMultiplier = statistics.DefaultIQRMultiplier
	}
	if c.Thresholds.MinSampleSize == 0 {
		c.Thresholds.MinSampleSize = statistics.DefaultMinSampleSize
	}
	if c.Thresholds.ConsistencyMinimum == 0 {
		c.Thresholds.ConsistencyMinimum = 0.6
	}
	if c.Thresholds.ConsistencyTarget == 0 {
		c.Thresholds.ConsistencyTarget = 0.75
	}
	if c.Thresholds.ConfidenceWeights == (confidence.Weights{}) {
		c.Thresholds.ConfidenceWeights = confidence.DefaultWeights()
	}
	if c.Thresholds.OptimalProviders == 0 {
		c.Thresholds.OptimalProviders = confidence.DefaultOptimalSampleSize
	}

	for i := range c.Providers {
		p := &c.Providers[i]
		if p.Temperature == 0 {
			p.Temperature = DefaultTemperature
		}
		if p.MaxTokens == 0 {
			p.MaxTokens = DefaultMaxTokens
		}
		if p.TimeoutSec == 0 {
			p.TimeoutSec = DefaultProviderTimeoutSec
		}
		if p.Retry.MaxAttempts == 0 {
			p.Retry.MaxAttempts = DefaultMaxAttempts
		}
		if p.Retry.InitialDelayMs == 0 {
			p.Retry.InitialDelayMs = DefaultInitialDelayMs
		}
		if p.Retry.Multiplier == 0 {
			p.Retry.Multiplier = DefaultBackoffMultiplier
		}
	}
}

// Validate checks structural and range invariants. The request deadline must
// exceed every provider deadline, otherwise the outer context always fires
// first and the per-provider timeout is meaningless.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: no providers defined")
	}

	seen := make(map[string]bool, len(c.Providers))
	enabled := 0
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: provider with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate provider name %q", p.Name)
		}
		seen[p.Name] = true

		if p.Kind == "" {
			return fmt.Errorf("config: provider %q has no kind", p.Name)
		}
		if p.Model == "" {
			return fmt.Errorf("config: provider %q has no model", p.Name)
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			return fmt.Errorf("config: provider %q temperature %g outside [0, 2]", p.Name, p.Temperature)
		}
		if p.MaxTokens <= 0 {
			return fmt.Errorf("config: provider %q has non-positive max_tokens", p.Name)
		}
		if p.TimeoutSec <= 0 {
			return fmt.Errorf("config: provider %q has non-positive timeout_sec", p.Name)
		}
		if p.TimeoutSec >= c.RequestTimeoutSec {
			return fmt.Errorf("config: provider %q timeout %ds must be below request timeout %ds",
				p.Name, p.TimeoutSec, c.RequestTimeoutSec)
		}
		if p.Retry.MaxAttempts <= 0 {
			return fmt.Errorf("config: provider %q has non-positive retry max_attempts", p.Name)
		}
		if p.Retry.Multiplier < 1 {
			return fmt.Errorf("config: provider %q retry multiplier %g must be at least 1", p.Name, p.Retry.Multiplier)
		}
		if p.CostPerMTokIn < 0 || p.CostPerMTokOut < 0 {
			return fmt.Errorf("config: provider %q has negative token cost", p.Name)
		}
		if p.Enabled {
			enabled++
		}
	}

	if enabled == 0 {
		return fmt.Errorf("config: no providers enabled")
	}
	if c.MultiJudge.MinProviders < 1 {
		return fmt.Errorf("config: multi_judge.min_providers must be at least 1")
	}
	if c.Thresholds.OutlierMultiplier <= 0 {
		return fmt.Errorf("config: thresholds.outlier_multiplier must be positive")
	}
	if c.Thresholds.MinSampleSize < 2 {
		return fmt.Errorf("config: thresholds.min_sample_size must be at least 2")
	}
	if c.Thresholds.ConsistencyMinimum < 0 || c.Thresholds.ConsistencyMinimum > 1 {
		return fmt.Errorf("config: thresholds.consistency_minimum outside [0, 1]")
	}
	if c.Thresholds.ConsistencyTarget < c.Thresholds.ConsistencyMinimum || c.Thresholds.ConsistencyTarget > 1 {
		return fmt.Errorf("config: thresholds.consistency_target must lie in [consistency_minimum, 1]")
	}
	if err := c.Thresholds.ConfidenceWeights.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Default returns a ready-to-edit configuration with the three built-in
// provider kinds enabled.
func Default() *Config {
	cfg := &Config{
		MultiJudge: MultiJudge{
			Enabled:          true,
			MinProviders:     2,
			AllowSingleJudge: true,
		},
		Providers: []ProviderConfig{
			{
				Name:           "openai-primary",
				Kind:           "openai",
				Enabled:        true,
				Model:          "gpt-4o-mini",
				Priority:       1,
				CostPerMTokIn:  0.15,
				CostPerMTokOut: 0.60,
			},
			{
				Name:           "anthropic-primary",
				Kind:           "anthropic",
				Enabled:        true,
				Model:          "claude-sonnet-4-20250514",
				Priority:       2,
				CostPerMTokIn:  3.00,
				CostPerMTokOut: 15.00,
			},
			{
				Name:           "gemini-primary",
				Kind:           "gemini",
				Enabled:        true,
				Model:          "gemini-2.0-flash",
				Priority:       3,
				CostPerMTokIn:  0.10,
				CostPerMTokOut: 0.40,
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}
