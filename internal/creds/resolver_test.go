// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package creds

import (
	"testing"

	"github.com/xmrtdao/eliza-gateway/internal/config"
)

func TestResolve_LiteralKeyWins(t *testing.T) {
	t.Setenv("TEST_PROVIDER_KEY", "from-env")

	cred, ok := NewStore().Resolve(config.TierConfig{
		Provider:  "openai",
		APIKey:    "literal-key",
		APIKeyEnv: "TEST_PROVIDER_KEY",
	})
	if !ok || cred.APIKey != "literal-key" {
		t.Errorf("literal key must win over env, got %+v ok=%v", cred, ok)
	}
}

func TestResolve_EnvKey(t *testing.T) {
	t.Setenv("TEST_PROVIDER_KEY", "from-env")

	cred, ok := NewStore().Resolve(config.TierConfig{
		Provider:  "openai",
		APIKeyEnv: "TEST_PROVIDER_KEY",
	})
	if !ok || cred.APIKey != "from-env" {
		t.Errorf("env key must resolve, got %+v ok=%v", cred, ok)
	}
}

func TestResolve_MissingEnvKey(t *testing.T) {
	if _, ok := NewStore().Resolve(config.TierConfig{
		Provider:  "openai",
		APIKeyEnv: "TEST_KEY_THAT_DOES_NOT_EXIST",
	}); ok {
		t.Error("unset env variable must fail resolution")
	}
}

func TestResolve_EmptyEnvKey(t *testing.T) {
	t.Setenv("TEST_EMPTY_KEY", "")

	if _, ok := NewStore().Resolve(config.TierConfig{
		Provider:  "openai",
		APIKeyEnv: "TEST_EMPTY_KEY",
	}); ok {
		t.Error("empty env variable must fail resolution")
	}
}

func TestResolve_OllamaNeedsNoCredential(t *testing.T) {
	cred, ok := NewStore().Resolve(config.TierConfig{Provider: "ollama"})
	if !ok {
		t.Fatal("ollama tiers resolve without a credential")
	}
	if cred.APIKey != "" {
		t.Errorf("ollama credential must be empty, got %q", cred.APIKey)
	}
}

func TestResolve_NoSourceConfigured(t *testing.T) {
	if _, ok := NewStore().Resolve(config.TierConfig{Provider: "openai"}); ok {
		t.Error("remote provider without any key source must fail resolution")
	}
}

func TestResolve_EnvLookupIsCached(t *testing.T) {
	t.Setenv("TEST_CACHED_KEY", "first")
	store := NewStore()

	if cred, _ := store.Resolve(config.TierConfig{Provider: "openai", APIKeyEnv: "TEST_CACHED_KEY"}); cred.APIKey != "first" {
		t.Fatalf("want first, got %q", cred.APIKey)
	}

	// Later env changes are not observed for the process lifetime.
	t.Setenv("TEST_CACHED_KEY", "second")
	if cred, _ := store.Resolve(config.TierConfig{Provider: "openai", APIKeyEnv: "TEST_CACHED_KEY"}); cred.APIKey != "first" {
		t.Errorf("cached lookup must win, got %q", cred.APIKey)
	}
}
