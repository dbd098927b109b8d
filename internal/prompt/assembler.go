// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package prompt assembles the per-request payload handed to provider
// adapters. Assembly is a pure function of its inputs: everything that
// requires I/O (conversation history, knowledge snippets, mining metrics)
// is fetched by collaborators and passed in already materialized.
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Message is one turn of conversation in the common chat format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Payload is the immutable prompt payload consumed by adapters. It is
// constructed once per request and never mutated afterwards.
type Payload struct {
	// System is the assembled system instruction: persona, facts,
	// knowledge snippets and live metrics.
	System string

	// Messages holds the trimmed history followed by the current user
	// message. Roles are "user" and "assistant".
	Messages []Message

	// TokenCount is the estimated size of the full payload.
	TokenCount int
}

// Input carries everything the assembler may fold into a payload.
type Input struct {
	// Message is the current user message. Required.
	Message string

	// History holds prior turns, oldest first.
	History []Message

	// Facts are session-scoped key/value facts about the user.
	Facts map[string]string

	// Snippets are knowledge-base excerpts relevant to the message.
	Snippets []string

	// Metrics are live domain readings, e.g. mining pool stats.
	Metrics map[string]string
}

// Options bounds the assembled payload.
type Options struct {
	// MaxTokens is the total token budget. Oldest history is dropped
	// first when the budget is exceeded.
	MaxTokens int

	// HistoryLimit caps the number of history turns regardless of budget.
	HistoryLimit int

	// Counter estimates token counts. Required.
	Counter TokenCounter
}

const persona = "You are Eliza, the assistant for the XMRT mobile mining community. " +
	"Answer concisely and ground statements in the facts and metrics provided below. " +
	"If you do not know something, say so."

// Assemble builds the payload for one request. It is deterministic for
// identical inputs and performs no I/O.
func Assemble(in Input, opts Options) Payload {
	system := buildSystem(in)

	history := in.History
	if opts.HistoryLimit > 0 && len(history) > opts.HistoryLimit {
		history = history[len(history)-opts.HistoryLimit:]
	}

	fixed := opts.Counter.Count(system) + opts.Counter.Count(in.Message)

	// Walk history newest-first, admitting turns until the budget is spent.
	// This drops the oldest context first, which is the least relevant.
	budget := opts.MaxTokens - fixed
	kept := 0
	total := fixed
	for i := len(history) - 1; i >= 0; i-- {
		cost := opts.Counter.Count(history[i].Content)
		if opts.MaxTokens > 0 && cost > budget {
			break
		}
		budget -= cost
		total += cost
		kept++
	}
	history = history[len(history)-kept:]

	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: in.Message})

	return Payload{
		System:     system,
		Messages:   messages,
		TokenCount: total,
	}
}

func buildSystem(in Input) string {
	var b strings.Builder
	b.WriteString(persona)

	if len(in.Facts) > 0 {
		b.WriteString("\n\nSession facts:\n")
		writeSorted(&b, in.Facts)
	}

	if len(in.Metrics) > 0 {
		b.WriteString("\n\nLive metrics:\n")
		writeSorted(&b, in.Metrics)
	}

	if len(in.Snippets) > 0 {
		b.WriteString("\n\nRelevant knowledge:\n")
		for _, s := range in.Snippets {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// writeSorted emits map entries in key order so assembly stays deterministic.
func writeSorted(b *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %s\n", k, m[k])
	}
}
