// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AnomalyReport is the outcome of checking one value against history.
type AnomalyReport struct {
	IsAnomaly bool    `json:"is_anomaly"`
	Reason    string  `json:"reason,omitempty"`
	ZScore    float64 `json:"z_score,omitempty"`
	Severity  string  `json:"severity,omitempty"`

	LowerBound float64 `json:"lower_bound,omitempty"`
	UpperBound float64 `json:"upper_bound,omitempty"`
}

// Detector flags values that deviate from a historical window.
type Detector struct {
	// Sensitivity is the z-score threshold. Default 3.0.
	Sensitivity float64
}

// NewDetector creates a detector with the default sensitivity.
func NewDetector() *Detector {
	return &Detector{Sensitivity: 3.0}
}

// minHistory is the smallest window that supports anomaly detection.
const minHistory = 10

// DetectZScore flags current when it deviates from the history mean by
// more than Sensitivity standard deviations.
func (d *Detector) DetectZScore(current float64, history []float64) AnomalyReport {
	if len(history) < minHistory {
		return AnomalyReport{Reason: "insufficient_data"}
	}

	mean := stat.Mean(history, nil)
	std := stat.StdDev(history, nil)
	if std == 0 {
		return AnomalyReport{Reason: "zero_variance"}
	}

	z := (current - mean) / std
	return AnomalyReport{
		IsAnomaly: math.Abs(z) > d.Sensitivity,
		ZScore:    z,
		Severity:  severity(math.Abs(z)),
	}
}

// DetectIQR flags current when it falls outside 1.5 interquartile ranges
// of the history's quartiles.
func (d *Detector) DetectIQR(current float64, history []float64) AnomalyReport {
	if len(history) < minHistory {
		return AnomalyReport{Reason: "insufficient_data"}
	}

	sorted := append([]float64(nil), history...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1

	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	return AnomalyReport{
		IsAnomaly:  current < lower || current > upper,
		LowerBound: lower,
		UpperBound: upper,
	}
}

func severity(absZ float64) string {
	switch {
	case absZ >= 4.0:
		return "critical"
	case absZ >= 3.0:
		return "warning"
	default:
		return "info"
	}
}
