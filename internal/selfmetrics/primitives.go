// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package selfmetrics is the exporter's internal self-observability
// registry (spec.md §4.6): hand-rolled, lock-free Counter/Gauge/Histogram
// primitives plus a keyed registry behind a single readers-writer lock.
// This is deliberately NOT routed through prometheus/client_golang — see
// DESIGN.md for why the core owns its own atomics here.
package selfmetrics

import (
	"math"
	"sync/atomic"
)

// Counter is a monotonically non-decreasing u64, atomic add only — spec.md
// §4.6 forbids synthesizing a counter decrement.
type Counter struct {
	v atomic.Uint64
}

func (c *Counter) Inc()           { c.v.Add(1) }
func (c *Counter) Add(delta uint64) { c.v.Add(delta) }
func (c *Counter) Value() uint64  { return c.v.Load() }

// Gauge stores an f64 as its IEEE-754 bit pattern in an atomic u64; Inc/Dec
// are a compare-and-swap loop that reads, adds, and writes back until it
// succeeds, per spec.md §4.6.
type Gauge struct {
	bits atomic.Uint64
}

func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }
func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }

func (g *Gauge) Add(delta float64) {
	for {
		old := g.bits.Load()
		newV := math.Float64frombits(old) + delta
		if g.bits.CompareAndSwap(old, math.Float64bits(newV)) {
			return
		}
	}
}

func (g *Gauge) Inc() { g.Add(1) }
func (g *Gauge) Dec() { g.Add(-1) }

// Histogram buckets observations by upper bound. Bounds are sorted
// ascending at construction; a +Inf bound is appended if the caller didn't
// supply one. Observe atomically increments the total count, CAS-adds to
// the f64 sum, and increments every bucket counter whose bound is >= the
// observation.
type Histogram struct {
	bounds        []float64
	bucketCounts  []atomic.Uint64
	count         atomic.Uint64
	sumBits       atomic.Uint64
}

// DefaultBuckets are the default histogram bucket upper bounds from
// spec.md §4.6 (seconds).
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

// NewHistogram builds a Histogram with the given bucket upper bounds,
// sorted ascending, with +Inf appended if absent.
func NewHistogram(bounds []float64) *Histogram {
	sorted := append([]float64(nil), bounds...)
	sortFloats(sorted)
	if len(sorted) == 0 || !math.IsInf(sorted[len(sorted)-1], 1) {
		sorted = append(sorted, math.Inf(1))
	}
	return &Histogram{
		bounds:       sorted,
		bucketCounts: make([]atomic.Uint64, len(sorted)),
	}
}

func (h *Histogram) Observe(v float64) {
	h.count.Add(1)
	for {
		old := h.sumBits.Load()
		newSum := math.Float64frombits(old) + v
		if h.sumBits.CompareAndSwap(old, math.Float64bits(newSum)) {
			break
		}
	}
	for i, bound := range h.bounds {
		if v <= bound {
			h.bucketCounts[i].Add(1)
		}
	}
}

// HistogramSnapshot is a point-in-time read of a Histogram's state for
// rendering.
type HistogramSnapshot struct {
	Bounds       []float64
	BucketCounts []uint64
	Count        uint64
	Sum          float64
}

func (h *Histogram) Snapshot() HistogramSnapshot {
	counts := make([]uint64, len(h.bucketCounts))
	for i := range h.bucketCounts {
		counts[i] = h.bucketCounts[i].Load()
	}
	return HistogramSnapshot{
		Bounds:       h.bounds,
		BucketCounts: counts,
		Count:        h.count.Load(),
		Sum:          math.Float64frombits(h.sumBits.Load()),
	}
}

func sortFloats(f []float64) {
	for i := 1; i < len(f); i++ {
		for j := i; j > 0 && f[j-1] > f[j]; j-- {
			f[j-1], f[j] = f[j], f[j-1]
		}
	}
}
