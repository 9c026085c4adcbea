package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration surface. Every field has a working
// default; a host only overrides what it cares about.
type Config struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	Stages    StagesConfig              `yaml:"stages"`
	Breaker   BreakerConfig             `yaml:"breaker"`
	Cycle     CycleConfig               `yaml:"cycle"`
	Cache     CacheConfig               `yaml:"cache"`
	Alerts    AlertsConfig              `yaml:"alerts"`
	Metrics   MetricsConfig             `yaml:"metrics"`
	Flags     FlagsConfig               `yaml:"flags"`
}

// ProviderConfig tunes one external data source.
type ProviderConfig struct {
	Class       string `yaml:"class"` // premium | standard | free
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Concurrency int    `yaml:"concurrency"`
	SpacingMS   int    `yaml:"spacing_ms"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Premium     bool   `yaml:"premium"`
	Enabled     bool   `yaml:"enabled"`
}

// StagesConfig carries the per-stage caps, admission thresholds and
// parallelism limits.
type StagesConfig struct {
	Stage1Cap int `yaml:"stage1_cap"`
	Stage2Cap int `yaml:"stage2_cap"`
	Stage3Cap int `yaml:"stage3_cap"` // the expensive-stage width
	Stage4Min int `yaml:"stage4_min"` // adaptive-width floor

	Stage3Parallel int `yaml:"stage3_parallel"`
	Stage4Parallel int `yaml:"stage4_parallel"`

	Stage1Thresholds map[string]float64 `yaml:"stage1_thresholds"`
	Stage2Thresholds map[string]float64 `yaml:"stage2_thresholds"`
	Stage3Threshold  float64            `yaml:"stage3_threshold"`
}

// BreakerConfig tunes the per-provider circuit breakers.
type BreakerConfig struct {
	FailThreshold uint32 `yaml:"fail_threshold"`
	WindowSecs    int    `yaml:"window_secs"`
	CooldownSecs  int    `yaml:"cooldown_secs"`
}

// CycleConfig bounds a scan cycle.
type CycleConfig struct {
	BudgetSecs int    `yaml:"budget_secs"`
	Schedule   string `yaml:"schedule"` // cron expression for daemon mode
}

// CacheConfig selects the enrichment cache backend.
type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr"` // empty = in-memory
	TTLSecs   int    `yaml:"ttl_secs"`
}

// AlertsConfig controls re-alert suppression.
type AlertsConfig struct {
	TTLHours    int    `yaml:"ttl_hours"`
	RedisAddr   string `yaml:"redis_addr"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// MetricsConfig controls the metrics/health HTTP listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// FlagsConfig holds feature flags.
type FlagsConfig struct {
	ForceBasicStage4 bool     `yaml:"force_basic_stage4"`
	DisabledSources  []string `yaml:"disabled_sources"`
}

// Default returns the design-target configuration.
func Default() Config {
	return Config{
		Providers: map[string]ProviderConfig{
			"birdeye": {
				Class:       "premium",
				BaseURL:     "https://public-api.birdeye.so",
				APIKeyEnv:   "BIRDEYE_API_KEY",
				Concurrency: 2,
				SpacingMS:   300,
				BatchSize:   50,
				TimeoutSecs: 30,
				Premium:     true,
				Enabled:     true,
			},
			"dexscreener": {
				Class:       "free",
				BaseURL:     "https://api.dexscreener.com",
				Concurrency: 5,
				SpacingMS:   50,
				BatchSize:   30,
				TimeoutSecs: 12,
				Enabled:     true,
			},
		},
		Stages: StagesConfig{
			Stage1Cap:      35,
			Stage2Cap:      25,
			Stage3Cap:      10,
			Stage4Min:      5,
			Stage3Parallel: 8,
			Stage4Parallel: 3,
			Stage1Thresholds: map[string]float64{
				"bonding":   30,
				"graduated": 25,
				"trending":  30,
				"default":   20,
			},
			Stage2Thresholds: map[string]float64{
				"bonding_high":   45,
				"graduated_high": 40,
				"trending":       35,
				"default":        35,
			},
			Stage3Threshold: 35,
		},
		Breaker: BreakerConfig{
			FailThreshold: 5,
			WindowSecs:    60,
			CooldownSecs:  30,
		},
		Cycle: CycleConfig{
			BudgetSecs: 120,
			Schedule:   "@every 5m",
		},
		Cache:   CacheConfig{TTLSecs: 300},
		Alerts:  AlertsConfig{TTLHours: 168},
		Metrics: MetricsConfig{Addr: ""},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.Stages.Stage1Cap <= 0 || c.Stages.Stage2Cap <= 0 || c.Stages.Stage3Cap <= 0 {
		return fmt.Errorf("stage caps must be positive")
	}
	if c.Stages.Stage4Min <= 0 || c.Stages.Stage4Min > c.Stages.Stage3Cap {
		return fmt.Errorf("stage4_min must be in (0, stage3_cap]")
	}
	if c.Cycle.BudgetSecs <= 0 {
		return fmt.Errorf("cycle budget_secs must be positive")
	}
	if c.Breaker.FailThreshold == 0 {
		return fmt.Errorf("breaker fail_threshold must be positive")
	}
	for name, p := range c.Providers {
		if !p.Enabled {
			continue
		}
		if p.Concurrency <= 0 {
			return fmt.Errorf("provider %s: concurrency must be positive", name)
		}
		if p.BatchSize <= 0 {
			return fmt.Errorf("provider %s: batch_size must be positive", name)
		}
	}
	return nil
}

// CycleBudget returns the cycle budget as a duration.
func (c *Config) CycleBudget() time.Duration {
	return time.Duration(c.Cycle.BudgetSecs) * time.Second
}

// CacheTTL returns the enrichment cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSecs) * time.Second
}

// AlertTTL returns the re-alert suppression TTL as a duration.
func (c *Config) AlertTTL() time.Duration {
	return time.Duration(c.Alerts.TTLHours) * time.Hour
}

// SourceDisabled reports whether a discovery source is switched off.
func (c *Config) SourceDisabled(source string) bool {
	for _, s := range c.Flags.DisabledSources {
		if s == source {
			return true
		}
	}
	return false
}
