// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analytics

import "testing"

func steadyHistory(n int, value float64, jitter float64) []float64 {
	history := make([]float64, n)
	for i := range history {
		history[i] = value
		if i%2 == 0 {
			history[i] += jitter
		} else {
			history[i] -= jitter
		}
	}
	return history
}

func TestDetectZScore_InsufficientData(t *testing.T) {
	d := NewDetector()
	report := d.DetectZScore(100, []float64{1, 2, 3})
	if report.IsAnomaly || report.Reason != "insufficient_data" {
		t.Errorf("short history must report insufficient_data, got %+v", report)
	}
}

func TestDetectZScore_ZeroVariance(t *testing.T) {
	d := NewDetector()
	report := d.DetectZScore(100, steadyHistory(20, 50, 0))
	if report.IsAnomaly || report.Reason != "zero_variance" {
		t.Errorf("constant history must report zero_variance, got %+v", report)
	}
}

func TestDetectZScore_FlagsOutlier(t *testing.T) {
	d := NewDetector()
	history := steadyHistory(20, 100, 1)

	report := d.DetectZScore(100.5, history)
	if report.IsAnomaly {
		t.Errorf("in-range value flagged: %+v", report)
	}

	report = d.DetectZScore(200, history)
	if !report.IsAnomaly {
		t.Errorf("extreme outlier not flagged: %+v", report)
	}
	if report.Severity != "critical" {
		t.Errorf("extreme outlier severity: want critical, got %q", report.Severity)
	}
	if report.ZScore <= 0 {
		t.Errorf("high outlier must have positive z-score, got %v", report.ZScore)
	}
}

func TestDetectZScore_SeverityBands(t *testing.T) {
	cases := []struct {
		absZ float64
		want string
	}{
		{1.0, "info"},
		{3.2, "warning"},
		{5.0, "critical"},
	}
	for _, tc := range cases {
		if got := severity(tc.absZ); got != tc.want {
			t.Errorf("severity(%v): want %q, got %q", tc.absZ, tc.want, got)
		}
	}
}

func TestDetectIQR(t *testing.T) {
	d := NewDetector()
	history := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}

	report := d.DetectIQR(14, history)
	if report.IsAnomaly {
		t.Errorf("in-range value flagged: %+v", report)
	}
	if report.LowerBound >= report.UpperBound {
		t.Errorf("bounds inverted: %+v", report)
	}

	if report := d.DetectIQR(100, history); !report.IsAnomaly {
		t.Errorf("high outlier not flagged: %+v", report)
	}
	if report := d.DetectIQR(-100, history); !report.IsAnomaly {
		t.Errorf("low outlier not flagged: %+v", report)
	}
}

func TestDetectIQR_InsufficientData(t *testing.T) {
	d := NewDetector()
	if report := d.DetectIQR(1, []float64{1, 2}); report.Reason != "insufficient_data" {
		t.Errorf("short history must report insufficient_data, got %+v", report)
	}
}
