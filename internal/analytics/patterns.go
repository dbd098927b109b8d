// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analytics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Pattern describes one recognized structural irregularity.
type Pattern struct {
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	Sources     []string `json:"sources,omitempty"`
}

// TrafficStats summarizes the events a burst check inspected.
type TrafficStats struct {
	TotalEvents   int `json:"total_events"`
	UniqueSources int `json:"unique_sources"`
	MaxPerSecond  int `json:"max_per_second"`
}

// PatternReport is the outcome of one recognition pass.
type PatternReport struct {
	Detected bool          `json:"detected"`
	Reason   string        `json:"reason,omitempty"`
	Patterns []Pattern     `json:"patterns,omitempty"`
	Stats    *TrafficStats `json:"stats,omitempty"`
}

// Recognizer spots structural irregularities that point-in-time z-score
// checks miss: skewed load distributions and coordinated request bursts.
type Recognizer struct{}

// DetectLoadImbalance inspects per-source counters and flags sources
// carrying more than twice the mean load, or one source holding over 80%
// of the total.
func (Recognizer) DetectLoadImbalance(counts map[string]int64) PatternReport {
	if len(counts) < 2 {
		return PatternReport{Reason: "insufficient_data"}
	}

	var total int64
	values := make([]float64, 0, len(counts))
	for _, v := range counts {
		values = append(values, float64(v))
		total += v
	}
	mean := stat.Mean(values, nil)

	var report PatternReport

	var overloaded []string
	var top string
	var topCount int64
	for name, v := range counts {
		if float64(v) > mean*2 {
			overloaded = append(overloaded, name)
		}
		if v > topCount {
			top, topCount = name, v
		}
	}
	sort.Strings(overloaded)

	if len(overloaded) > 0 {
		report.Patterns = append(report.Patterns, Pattern{
			Type:        "overloaded_sources",
			Severity:    "warning",
			Description: fmt.Sprintf("%d sources above twice the mean load", len(overloaded)),
			Sources:     overloaded,
		})
	}

	if total > 0 && float64(topCount)/float64(total) > 0.8 {
		report.Patterns = append(report.Patterns, Pattern{
			Type:        "load_concentration",
			Severity:    "critical",
			Description: fmt.Sprintf("%q handled %.0f%% of all load", top, float64(topCount)/float64(total)*100),
			Sources:     []string{top},
		})
	}

	report.Detected = len(report.Patterns) > 0
	return report
}

// SourcedEvent is one timestamped event attributed to a source.
type SourcedEvent struct {
	Source string
	At     time.Time
}

// DetectBurst inspects a run of events for coordinated bursts (five or
// more in the same second) and for a heavily skewed per-source
// distribution.
func (Recognizer) DetectBurst(events []SourcedEvent) PatternReport {
	if len(events) < minHistory {
		return PatternReport{Reason: "insufficient_data"}
	}

	perSecond := make(map[int64]int)
	perSource := make(map[string]int)
	for _, ev := range events {
		perSecond[ev.At.Unix()]++
		perSource[ev.Source]++
	}

	maxSimultaneous := 0
	for _, n := range perSecond {
		if n > maxSimultaneous {
			maxSimultaneous = n
		}
	}

	bySource := make([]float64, 0, len(perSource))
	for _, n := range perSource {
		bySource = append(bySource, float64(n))
	}
	mean := stat.Mean(bySource, nil)
	std := stat.StdDev(bySource, nil)

	var report PatternReport

	if maxSimultaneous >= 5 {
		report.Patterns = append(report.Patterns, Pattern{
			Type:        "coordinated_burst",
			Severity:    "critical",
			Description: fmt.Sprintf("%d events in the same second", maxSimultaneous),
		})
	}

	if std > mean*2 {
		report.Patterns = append(report.Patterns, Pattern{
			Type:        "source_concentration",
			Severity:    "warning",
			Description: "highly uneven event distribution among sources",
		})
	}

	report.Detected = len(report.Patterns) > 0
	report.Stats = &TrafficStats{
		TotalEvents:   len(events),
		UniqueSources: len(perSource),
		MaxPerSecond:  maxSimultaneous,
	}
	return report
}

// EventLog is a bounded, concurrency-safe record of recent events.
type EventLog struct {
	mu     sync.Mutex
	events []SourcedEvent
	size   int
}

// NewEventLog creates a log that keeps the most recent size events.
// A size of zero or less defaults to 256.
func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = 256
	}
	return &EventLog{size: size}
}

// Record appends one event, evicting the oldest past capacity.
func (l *EventLog) Record(source string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, SourcedEvent{Source: source, At: at})
	if len(l.events) > l.size {
		l.events = l.events[len(l.events)-l.size:]
	}
}

// Events returns a copy of the recorded events, oldest first.
func (l *EventLog) Events() []SourcedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SourcedEvent(nil), l.events...)
}
