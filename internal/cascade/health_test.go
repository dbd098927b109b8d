// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cascade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthTracker_TripsAfterThreshold(t *testing.T) {
	h := newHealthTracker(3, time.Minute)
	now := time.Now()

	h.recordFailure("primary", now)
	h.recordFailure("primary", now)
	_, skip := h.shouldSkip("primary", now)
	assert.False(t, skip, "below threshold must not skip")

	h.recordFailure("primary", now)
	reason, skip := h.shouldSkip("primary", now)
	require.True(t, skip, "threshold reached must skip")
	assert.Contains(t, reason, "3 consecutive failures")
}

func TestHealthTracker_CooldownExpires(t *testing.T) {
	h := newHealthTracker(1, time.Minute)
	now := time.Now()

	h.recordFailure("primary", now)
	_, skip := h.shouldSkip("primary", now)
	require.True(t, skip)

	_, skip = h.shouldSkip("primary", now.Add(2*time.Minute))
	assert.False(t, skip, "expired cooldown must allow retries")
}

func TestHealthTracker_SuccessResetsCounter(t *testing.T) {
	h := newHealthTracker(3, time.Minute)
	now := time.Now()

	h.recordFailure("primary", now)
	h.recordFailure("primary", now)
	h.recordSuccess("primary")
	h.recordFailure("primary", now)

	_, skip := h.shouldSkip("primary", now)
	assert.False(t, skip, "success must reset the consecutive count")
}

func TestHealthTracker_TiersAreIndependent(t *testing.T) {
	h := newHealthTracker(1, time.Minute)
	now := time.Now()

	h.recordFailure("primary", now)

	_, skip := h.shouldSkip("primary", now)
	assert.True(t, skip)
	_, skip = h.shouldSkip("secondary", now)
	assert.False(t, skip, "one tier's cooldown must not affect another")
}

func TestHealthTracker_Defaults(t *testing.T) {
	h := newHealthTracker(0, 0)
	assert.Equal(t, 3, h.threshold)
	assert.Equal(t, time.Minute, h.cooldown)
}
