// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cascade

import (
	"fmt"
	"sync"
	"time"
)

// healthTracker counts consecutive invocation failures per tier and trips
// a cooldown once the threshold is reached. Missing-credential skips do
// not count as failures; only real invocations do.
type healthTracker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	states    map[string]*tierHealth
}

type tierHealth struct {
	consecutiveFailures int
	trippedUntil        time.Time
}

func newHealthTracker(threshold int, cooldown time.Duration) *healthTracker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &healthTracker{
		threshold: threshold,
		cooldown:  cooldown,
		states:    make(map[string]*tierHealth),
	}
}

// shouldSkip reports whether the tier is in cooldown at the given time.
func (h *healthTracker) shouldSkip(tier string, now time.Time) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.states[tier]
	if !ok || now.After(state.trippedUntil) {
		return "", false
	}
	return fmt.Sprintf("cooling down until %s after %d consecutive failures",
		state.trippedUntil.Format(time.RFC3339), state.consecutiveFailures), true
}

func (h *healthTracker) recordFailure(tier string, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.states[tier]
	if !ok {
		state = &tierHealth{}
		h.states[tier] = state
	}
	state.consecutiveFailures++
	if state.consecutiveFailures >= h.threshold {
		state.trippedUntil = now.Add(h.cooldown)
	}
}

func (h *healthTracker) recordSuccess(tier string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if state, ok := h.states[tier]; ok {
		state.consecutiveFailures = 0
		state.trippedUntil = time.Time{}
	}
}
