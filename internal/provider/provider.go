// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package provider normalizes upstream chat-completion APIs behind a single
// Adapter contract. Each adapter owns its own request construction and
// response parsing; callers only ever see text or a classified *Error.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xmrtdao/eliza-gateway/internal/config"
	"github.com/xmrtdao/eliza-gateway/internal/creds"
	"github.com/xmrtdao/eliza-gateway/internal/prompt"
)

// Adapter wraps one upstream chat API. Invoke must never return a raw
// upstream error for ordinary failure modes (timeouts, quota, bad auth):
// those are caught and folded into the *Error taxonomy. Only programming
// defects surface as KindUnexpected.
type Adapter interface {
	// Name returns the provider identifier used in logs and metrics.
	Name() string

	// Invoke sends the payload upstream and returns the response text.
	// The context carries the per-attempt deadline; adapters must abandon
	// the in-flight call when it expires.
	Invoke(ctx context.Context, cred creds.Credential, p *prompt.Payload) (string, error)
}

// New constructs the adapter for a tier's configured provider.
func New(tier config.TierConfig, client *http.Client) (Adapter, error) {
	if client == nil {
		client = NewHTTPClient()
	}
	switch tier.Provider {
	case "openai":
		return newOpenAIAdapter(tier, client), nil
	case "gemini":
		return newGeminiAdapter(tier, client), nil
	case "ollama":
		return newOllamaAdapter(tier, client), nil
	default:
		return nil, fmt.Errorf("provider: unknown provider %q for tier %q", tier.Provider, tier.Name)
	}
}
