// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package creds resolves upstream credentials for provider tiers.
// The store is an explicitly constructed, injected object rather than a
// package-level singleton so tests can substitute their own resolvers.
package creds

import (
	"os"
	"sync"

	"github.com/xmrtdao/eliza-gateway/internal/config"
)

// Credential holds what an adapter needs to authenticate upstream.
type Credential struct {
	// APIKey is the bearer/API key for the provider. May be empty for
	// providers that do not authenticate (local Ollama).
	APIKey string
}

// Resolver looks up the credential for a tier. The second return value is
// false when no usable credential exists, which the cascade records as a
// skipped attempt without invoking the adapter.
type Resolver interface {
	Resolve(tier config.TierConfig) (Credential, bool)
}

// Store is the process-wide credential store. Environment lookups are
// materialized lazily on first use and cached for the process lifetime.
type Store struct {
	once sync.Once

	mu     sync.RWMutex
	cached map[string]string
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) init() {
	s.once.Do(func() {
		s.mu.Lock()
		s.cached = make(map[string]string)
		s.mu.Unlock()
	})
}

// Resolve returns the credential for a tier. Literal keys in the
// configuration win over environment variables.
func (s *Store) Resolve(tier config.TierConfig) (Credential, bool) {
	s.init()

	if tier.APIKey != "" {
		return Credential{APIKey: tier.APIKey}, true
	}

	if tier.APIKeyEnv != "" {
		if v, ok := s.lookupEnv(tier.APIKeyEnv); ok && v != "" {
			return Credential{APIKey: v}, true
		}
		return Credential{}, false
	}

	// Local providers run without credentials.
	if tier.Provider == "ollama" {
		return Credential{}, true
	}

	return Credential{}, false
}

func (s *Store) lookupEnv(name string) (string, bool) {
	s.mu.RLock()
	v, hit := s.cached[name]
	s.mu.RUnlock()
	if hit {
		return v, v != ""
	}

	v = os.Getenv(name)
	s.mu.Lock()
	s.cached[name] = v
	s.mu.Unlock()
	return v, v != ""
}
