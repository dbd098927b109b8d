// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the Eliza gateway.
// It handles loading and parsing YAML configuration files and provides
// structured access to application settings including the HTTP listener,
// provider tiers, cascade behavior, context budget, mining-pool polling,
// knowledge storage and transcript archiving.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the network host/interface on which the API server will bind.
	// Default is empty ("") to bind all interfaces. Use "127.0.0.1" for local-only access.
	Host string `yaml:"host" json:"-"`

	// Port is the network port on which the API server will listen.
	Port int `yaml:"port" json:"-"`

	// Debug enables or disables debug-level logging and Gin debug mode.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile controls whether application logs are written to rotating files or stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogDir is the directory rotating log files are written to when LoggingToFile is set.
	LogDir string `yaml:"log-dir" json:"-"`

	// ManagementKey is the bcrypt hash of the key required by management endpoints.
	// Empty disables management authentication.
	ManagementKey string `yaml:"management-key" json:"-"`

	// Tiers defines the ordered provider tiers the response cascade walks.
	Tiers []TierConfig `yaml:"tiers" json:"tiers"`

	// Cascade controls cascade-wide behavior such as per-tier timeouts and health tracking.
	Cascade CascadeConfig `yaml:"cascade" json:"cascade"`

	// Context bounds the prompt payload assembled for each request.
	Context ContextConfig `yaml:"context" json:"context"`

	// Mining configures the mining-pool stats poller.
	Mining MiningConfig `yaml:"mining" json:"mining"`

	// Knowledge configures the snippet/memory store backend.
	Knowledge KnowledgeConfig `yaml:"knowledge" json:"knowledge"`

	// Archive configures transcript archiving to S3-compatible storage.
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Intent configures heuristic intent classification.
	Intent IntentConfig `yaml:"intent" json:"intent"`
}

// TierConfig describes a single provider tier in the cascade order.
type TierConfig struct {
	// Name identifies the tier in logs, metrics and responses.
	Name string `yaml:"name" json:"name"`

	// Provider selects the adapter implementation: "openai", "gemini" or "ollama".
	Provider string `yaml:"provider" json:"provider"`

	// Model is the upstream model identifier sent with each request.
	Model string `yaml:"model" json:"model"`

	// Priority orders tiers within the cascade; lower values are tried first.
	// Priorities must be unique across the tier list.
	Priority int `yaml:"priority" json:"priority"`

	// APIKey is the literal credential for this tier. Prefer APIKeyEnv.
	APIKey string `yaml:"api-key" json:"-"`

	// APIKeyEnv names an environment variable holding the credential.
	APIKeyEnv string `yaml:"api-key-env" json:"api-key-env"`

	// BaseURL overrides the adapter's default upstream endpoint.
	// Required for OpenAI-compatible vendors such as DeepSeek.
	BaseURL string `yaml:"base-url" json:"base-url"`

	// TimeoutSeconds overrides the cascade-wide per-tier timeout for this tier.
	TimeoutSeconds int `yaml:"timeout-seconds" json:"timeout-seconds"`

	// Temperature is forwarded to the upstream call when non-zero.
	Temperature float64 `yaml:"temperature" json:"temperature"`

	// MaxTokens caps the upstream completion length when non-zero.
	MaxTokens int `yaml:"max-tokens" json:"max-tokens"`
}

// CascadeConfig controls cascade-wide behavior.
type CascadeConfig struct {
	// TierTimeoutSeconds bounds each tier attempt. Default 15.
	TierTimeoutSeconds int `yaml:"tier-timeout-seconds" json:"tier-timeout-seconds"`

	// Health configures proactive tier skipping after repeated failures.
	Health HealthConfig `yaml:"health" json:"health"`
}

// HealthConfig gates per-tier consecutive-failure tracking.
type HealthConfig struct {
	// Enabled toggles health tracking. Off by default.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// FailureThreshold is the consecutive-failure count after which a tier
	// is skipped. Default 3.
	FailureThreshold int `yaml:"failure-threshold" json:"failure-threshold"`

	// CooldownSeconds is how long a tripped tier is skipped before being
	// retried. Default 60.
	CooldownSeconds int `yaml:"cooldown-seconds" json:"cooldown-seconds"`
}

// ContextConfig bounds the assembled prompt payload.
type ContextConfig struct {
	// MaxTokens is the total token budget for the assembled payload. Default 6000.
	MaxTokens int `yaml:"max-tokens" json:"max-tokens"`

	// HistoryLimit caps the number of prior conversation turns included. Default 40.
	HistoryLimit int `yaml:"history-limit" json:"history-limit"`

	// Tokenizer selects the counting method: "tiktoken" (accurate) or "simple"
	// (word-count approximation). Default "tiktoken".
	Tokenizer string `yaml:"tokenizer" json:"tokenizer"`
}

// MiningConfig configures the mining-pool stats poller.
type MiningConfig struct {
	// Enabled toggles background polling.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// PoolURL is the pool stats API base, e.g. https://supportxmr.com/api.
	PoolURL string `yaml:"pool-url" json:"pool-url"`

	// Wallet is the pool wallet address whose stats are fetched.
	Wallet string `yaml:"wallet" json:"-"`

	// PollIntervalSeconds is the polling cadence. Default 60.
	PollIntervalSeconds int `yaml:"poll-interval-seconds" json:"poll-interval-seconds"`
}

// KnowledgeConfig selects the snippet/memory store backend.
type KnowledgeConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `yaml:"driver" json:"driver"`

	// Path is the sqlite database file when Driver is "sqlite".
	Path string `yaml:"path" json:"path"`

	// DSN is the connection string when Driver is "postgres".
	DSN string `yaml:"dsn" json:"-"`
}

// ArchiveConfig configures transcript uploads to S3-compatible storage.
type ArchiveConfig struct {
	// Enabled toggles transcript archiving.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Endpoint is the S3-compatible endpoint host, e.g. "minio.local:9000".
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// AccessKey and SecretKey authenticate against the endpoint.
	AccessKey string `yaml:"access-key" json:"-"`
	SecretKey string `yaml:"secret-key" json:"-"`

	// Bucket receives transcript objects.
	Bucket string `yaml:"bucket" json:"bucket"`

	// UseSSL selects https transport to the endpoint.
	UseSSL bool `yaml:"use-ssl" json:"use-ssl"`
}

// IntentConfig configures heuristic intent classification.
type IntentConfig struct {
	// RulesFile is an optional YAML file of intent rules. When empty the
	// built-in rule set is used.
	RulesFile string `yaml:"rules-file" json:"rules-file"`
}

// LoadConfig reads, parses and validates a YAML configuration file,
// applying defaults for unset fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8317
	}
	if c.Cascade.TierTimeoutSeconds == 0 {
		c.Cascade.TierTimeoutSeconds = 15
	}
	if c.Cascade.Health.FailureThreshold == 0 {
		c.Cascade.Health.FailureThreshold = 3
	}
	if c.Cascade.Health.CooldownSeconds == 0 {
		c.Cascade.Health.CooldownSeconds = 60
	}
	if c.Context.MaxTokens == 0 {
		c.Context.MaxTokens = 6000
	}
	if c.Context.HistoryLimit == 0 {
		c.Context.HistoryLimit = 40
	}
	if c.Context.Tokenizer == "" {
		c.Context.Tokenizer = "tiktoken"
	}
	if c.Mining.PollIntervalSeconds == 0 {
		c.Mining.PollIntervalSeconds = 60
	}
	if c.Knowledge.Driver == "" {
		c.Knowledge.Driver = "sqlite"
	}
	if c.Knowledge.Path == "" {
		c.Knowledge.Path = "eliza.db"
	}
}

// Validate checks structural constraints that would otherwise surface as
// runtime misbehavior, most importantly tier priority uniqueness.
func (c *Config) Validate() error {
	seen := make(map[int]string, len(c.Tiers))
	for i, tier := range c.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("config: tiers[%d] has no name", i)
		}
		switch tier.Provider {
		case "openai", "gemini", "ollama":
		default:
			return fmt.Errorf("config: tier %q has unknown provider %q", tier.Name, tier.Provider)
		}
		if other, dup := seen[tier.Priority]; dup {
			return fmt.Errorf("config: tiers %q and %q share priority %d", other, tier.Name, tier.Priority)
		}
		seen[tier.Priority] = tier.Name
	}
	if c.Knowledge.Driver != "sqlite" && c.Knowledge.Driver != "postgres" {
		return fmt.Errorf("config: unknown knowledge driver %q", c.Knowledge.Driver)
	}
	return nil
}

// SortedTiers returns the tier list ordered by ascending priority.
func (c *Config) SortedTiers() []TierConfig {
	tiers := make([]TierConfig, len(c.Tiers))
	copy(tiers, c.Tiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Priority < tiers[j].Priority })
	return tiers
}

// TierTimeout returns the effective attempt timeout for the given tier.
func (c *Config) TierTimeout(tier TierConfig) time.Duration {
	if tier.TimeoutSeconds > 0 {
		return time.Duration(tier.TimeoutSeconds) * time.Second
	}
	return time.Duration(c.Cascade.TierTimeoutSeconds) * time.Second
}

// HashManagementKey returns the bcrypt hash to store for a plaintext key.
func HashManagementKey(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("config: failed to hash management key: %w", err)
	}
	return string(hashed), nil
}

// CheckManagementKey reports whether plain matches the stored hash.
// An empty stored hash disables management authentication entirely.
func (c *Config) CheckManagementKey(plain string) bool {
	if c.ManagementKey == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(c.ManagementKey), []byte(plain)) == nil
}
