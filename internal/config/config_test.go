// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != 8317 {
		t.Errorf("default port: want 8317, got %d", cfg.Port)
	}
	if cfg.Cascade.TierTimeoutSeconds != 15 {
		t.Errorf("default tier timeout: want 15, got %d", cfg.Cascade.TierTimeoutSeconds)
	}
	if cfg.Cascade.Health.Enabled {
		t.Error("health tracking must be off by default")
	}
	if cfg.Cascade.Health.FailureThreshold != 3 || cfg.Cascade.Health.CooldownSeconds != 60 {
		t.Errorf("unexpected health defaults: %+v", cfg.Cascade.Health)
	}
	if cfg.Context.MaxTokens != 6000 || cfg.Context.HistoryLimit != 40 || cfg.Context.Tokenizer != "tiktoken" {
		t.Errorf("unexpected context defaults: %+v", cfg.Context)
	}
	if cfg.Knowledge.Driver != "sqlite" || cfg.Knowledge.Path != "eliza.db" {
		t.Errorf("unexpected knowledge defaults: %+v", cfg.Knowledge)
	}
	if cfg.Mining.PollIntervalSeconds != 60 {
		t.Errorf("default poll interval: want 60, got %d", cfg.Mining.PollIntervalSeconds)
	}
}

func TestLoadConfig_Tiers(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
tiers:
  - name: primary
    provider: openai
    model: gpt-4o-mini
    priority: 1
    api-key-env: OPENAI_API_KEY
  - name: local
    provider: ollama
    model: llama3
    priority: 3
    timeout-seconds: 30
  - name: secondary
    provider: gemini
    model: gemini-1.5-flash
    priority: 2
    api-key-env: GEMINI_API_KEY
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	sorted := cfg.SortedTiers()
	want := []string{"primary", "secondary", "local"}
	for i, name := range want {
		if sorted[i].Name != name {
			t.Errorf("sorted[%d]: want %s, got %s", i, name, sorted[i].Name)
		}
	}
	// SortedTiers must not mutate the configured order.
	if cfg.Tiers[1].Name != "local" {
		t.Error("SortedTiers mutated the original tier slice")
	}

	if got := cfg.TierTimeout(sorted[0]); got != 15*time.Second {
		t.Errorf("default tier timeout: want 15s, got %s", got)
	}
	if got := cfg.TierTimeout(sorted[2]); got != 30*time.Second {
		t.Errorf("per-tier timeout override: want 30s, got %s", got)
	}
}

func TestLoadConfig_DuplicatePriority(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
tiers:
  - name: a
    provider: openai
    priority: 1
  - name: b
    provider: gemini
    priority: 1
`))
	if err == nil {
		t.Fatal("duplicate tier priorities must fail validation")
	}
}

func TestLoadConfig_UnknownProvider(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
tiers:
  - name: a
    provider: anthropic
    priority: 1
`))
	if err == nil {
		t.Fatal("unknown provider must fail validation")
	}
}

func TestLoadConfig_UnnamedTier(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
tiers:
  - provider: openai
    priority: 1
`))
	if err == nil {
		t.Fatal("unnamed tier must fail validation")
	}
}

func TestLoadConfig_UnknownKnowledgeDriver(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "knowledge:\n  driver: mysql\n"))
	if err == nil {
		t.Fatal("unknown knowledge driver must fail validation")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Fatal("missing file must error")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "tiers: [unclosed\n")); err == nil {
		t.Fatal("invalid yaml must error")
	}
}

func TestManagementKey(t *testing.T) {
	hash, err := HashManagementKey("s3cret")
	if err != nil {
		t.Fatalf("HashManagementKey: %v", err)
	}

	cfg := &Config{ManagementKey: hash}
	if !cfg.CheckManagementKey("s3cret") {
		t.Error("correct key must pass")
	}
	if cfg.CheckManagementKey("wrong") {
		t.Error("wrong key must fail")
	}

	open := &Config{}
	if !open.CheckManagementKey("anything") {
		t.Error("empty hash disables management auth")
	}
}
