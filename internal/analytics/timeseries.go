// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package analytics maintains rolling time-series windows over mining
// metrics and derives summary statistics, trend direction and simple
// forecasts from them. Everything here is in-memory and request-scoped
// reads are lock-cheap; the window is fed by the mining poller.
package analytics

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Point is a single time-series observation.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Summary holds the basic statistics of a window.
type Summary struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// Trend describes the direction and strength of a window's linear trend.
type Trend struct {
	// Direction is "increasing", "decreasing", "stable" or
	// "insufficient_data" when fewer than 10 points are buffered.
	Direction string `json:"trend"`

	Slope      float64 `json:"slope"`
	Strength   float64 `json:"strength"`
	RSquared   float64 `json:"r_squared"`
	Confidence float64 `json:"confidence"`
}

// Forecast is one forecast step with uncertainty bounds.
type Forecast struct {
	Timestamp  time.Time `json:"timestamp"`
	Value      float64   `json:"forecast"`
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
	Confidence float64   `json:"confidence"`
}

// Window is a fixed-size rolling buffer of observations.
type Window struct {
	mu     sync.RWMutex
	size   int
	points []Point
}

// NewWindow creates a window keeping at most size points.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = 100
	}
	return &Window{size: size}
}

// Add appends an observation, evicting the oldest when full.
func (w *Window) Add(p Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
	if len(w.points) > w.size {
		w.points = w.points[len(w.points)-w.size:]
	}
}

// Len returns the number of buffered points.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.points)
}

// Values returns a copy of the buffered values, oldest first.
func (w *Window) Values() []float64 {
	return w.values()
}

func (w *Window) values() []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	vals := make([]float64, len(w.points))
	for i, p := range w.points {
		vals[i] = p.Value
	}
	return vals
}

// Summary computes basic statistics over the window. Returns false when
// the window is empty.
func (w *Window) Summary() (Summary, bool) {
	vals := w.values()
	if len(vals) == 0 {
		return Summary{}, false
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	s := Summary{
		Mean:   stat.Mean(vals, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	return s, true
}

// Trend fits a least-squares line through the window. Fewer than 10
// points report insufficient data.
func (w *Window) Trend() Trend {
	vals := w.values()
	if len(vals) < 10 {
		return Trend{Direction: "insufficient_data"}
	}

	xs := make([]float64, len(vals))
	for i := range xs {
		xs[i] = float64(i)
	}

	_, slope := stat.LinearRegression(xs, vals, nil, false)
	r := stat.Correlation(xs, vals, nil)
	r2 := r * r
	if math.IsNaN(r2) {
		r2 = 0
	}

	direction := "stable"
	if slope > 0 {
		direction = "increasing"
	} else if slope < 0 {
		direction = "decreasing"
	}

	std := stat.StdDev(vals, nil)
	strength := math.Abs(slope) / (std + 1e-10)

	return Trend{
		Direction:  direction,
		Slope:      slope,
		Strength:   strength,
		RSquared:   r2,
		Confidence: r2,
	}
}

// Forecast projects the window forward using an exponentially weighted
// last value plus the fitted trend slope, with widening uncertainty.
func (w *Window) Forecast(horizon int, step time.Duration) []Forecast {
	w.mu.RLock()
	n := len(w.points)
	var last Point
	if n > 0 {
		last = w.points[n-1]
	}
	w.mu.RUnlock()

	if n < 10 || horizon <= 0 {
		return nil
	}

	summary, _ := w.Summary()
	trend := w.Trend()

	forecasts := make([]Forecast, 0, horizon)
	for i := 1; i <= horizon; i++ {
		value := last.Value + trend.Slope*float64(i)
		uncertainty := summary.Std * math.Sqrt(float64(i)) * 0.5
		confidence := 0.9 - float64(i)*0.02
		if confidence < 0.3 {
			confidence = 0.3
		}
		forecasts = append(forecasts, Forecast{
			Timestamp:  last.Timestamp.Add(time.Duration(i) * step),
			Value:      value,
			LowerBound: value - uncertainty,
			UpperBound: value + uncertainty,
			Confidence: confidence,
		})
	}
	return forecasts
}
