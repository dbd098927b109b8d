// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cascade

import (
	"sync"
	"sync/atomic"

	"github.com/xmrtdao/eliza-gateway/internal/provider"
)

// Metrics tracks cascade outcomes across requests. Counters are atomic;
// the maps are guarded by a mutex and only touched once per attempt.
type Metrics struct {
	totalRequests int64
	totalAttempts int64

	mu           sync.RWMutex
	servedBy     map[string]int64
	failureKinds map[provider.ErrorKind]int64
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{
		servedBy:     make(map[string]int64),
		failureKinds: make(map[provider.ErrorKind]int64),
	}
}

func (m *Metrics) recordRequest() {
	atomic.AddInt64(&m.totalRequests, 1)
}

func (m *Metrics) recordAttempt(a Attempt) {
	atomic.AddInt64(&m.totalAttempts, 1)
	if !a.Success {
		m.mu.Lock()
		m.failureKinds[a.Kind]++
		m.mu.Unlock()
	}
}

func (m *Metrics) recordServed(by string) {
	m.mu.Lock()
	m.servedBy[by]++
	m.mu.Unlock()
}

// ServedCounts returns a copy of the per-source serve counters.
func (m *Metrics) ServedCounts() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(m.servedBy))
	for k, v := range m.servedBy {
		out[k] = v
	}
	return out
}

// Snapshot returns the current counters for the metrics endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	total := atomic.LoadInt64(&m.totalRequests)
	attempts := atomic.LoadInt64(&m.totalAttempts)

	m.mu.RLock()
	servedBy := make(map[string]int64, len(m.servedBy))
	for k, v := range m.servedBy {
		servedBy[k] = v
	}
	failures := make(map[string]int64, len(m.failureKinds))
	for k, v := range m.failureKinds {
		failures[string(k)] = v
	}
	m.mu.RUnlock()

	fallbackRate := 0.0
	if total > 0 {
		fallbackRate = float64(servedBy[ServedByFallback]) / float64(total)
	}

	return map[string]interface{}{
		"total_requests": total,
		"total_attempts": attempts,
		"served_by":      servedBy,
		"failure_kinds":  failures,
		"fallback_rate":  fallbackRate,
	}
}
