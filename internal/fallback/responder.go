// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fallback synthesizes a deterministic response when every provider
// tier has failed. It is the cascade's terminal state: it always succeeds,
// is idempotent, and performs no I/O.
package fallback

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xmrtdao/eliza-gateway/internal/prompt"
)

// Responder is the deterministic template responder. A zero value is ready
// to use.
type Responder struct{}

// NewResponder creates a Responder.
func NewResponder() *Responder {
	return &Responder{}
}

// metricLabels maps known metric keys to the phrasing used in responses.
// Unknown keys fall back to the raw key name.
var metricLabels = map[string]string{
	"hashrate":      "current mining hash rate",
	"miners":        "connected miners",
	"total_hashes":  "total hashes submitted",
	"amount_due":    "balance due",
	"amount_paid":   "total paid out",
	"last_share_ts": "last share submitted at",
}

// Respond builds a response from whatever structured context is available.
// Identical input always yields identical output.
func (r *Responder) Respond(in prompt.Input) string {
	var b strings.Builder
	b.WriteString("I couldn't reach the AI services just now, but here is what I know locally.")

	if len(in.Metrics) > 0 {
		b.WriteString("\n\n")
		keys := make([]string, 0, len(in.Metrics))
		for k := range in.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			label := metricLabels[k]
			if label == "" {
				label = strings.ReplaceAll(k, "_", " ")
			}
			fmt.Fprintf(&b, "- %s: %s\n", label, in.Metrics[k])
		}
	}

	if len(in.Snippets) > 0 {
		b.WriteString("\nFrom the knowledge base:\n")
		for _, s := range in.Snippets {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}

	if len(in.Metrics) == 0 && len(in.Snippets) == 0 {
		b.WriteString(" Unfortunately I have no cached data for your question either. " +
			"Please try again in a moment; the upstream services usually recover quickly.")
	} else {
		b.WriteString("\nFor a full answer, please ask again in a moment once the AI services recover.")
	}

	return b.String()
}
