/*
Copyright © 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"math"
	"sync"
)

// HistogramUnit is the unit of every loading metric: a duration in
// milliseconds where smaller is better.
const HistogramUnit = "ms_smallerIsBetter"

// DefaultBinBoundaries returns the bucket boundaries shared by all loading
// metrics: 0–1000ms in 50ms steps, 1000–3000ms in 100ms steps, then 20
// exponential buckets up to 20000ms.
func DefaultBinBoundaries() []float64 {
	boundaries := make([]float64, 0, 61)
	for boundary := 0.0; boundary <= 1000; boundary += 50 {
		boundaries = append(boundaries, boundary)
	}
	for boundary := 1100.0; boundary <= 3000; boundary += 100 {
		boundaries = append(boundaries, boundary)
	}
	const exponentialBins = 20
	ratio := math.Pow(20000.0/3000.0, 1.0/exponentialBins)
	for i := 1; i <= exponentialBins; i++ {
		boundaries = append(boundaries, 3000*math.Pow(ratio, float64(i)))
	}
	return boundaries
}

// Histogram collects the samples of one named metric series into fixed
// buckets with running statistics.  AddSample is safe for concurrent use;
// renderer processes are analyzed in parallel and feed the same sink.
type Histogram struct {
	name        string
	description string
	unit        string
	boundaries  []float64

	mu sync.Mutex
	// counts has one underflow bin, len(boundaries)-1 interior bins, and
	// one overflow bin (where +Inf samples land).
	counts  []int64
	samples []Sample
	sum     float64
	min     float64
	max     float64
}

// NewHistogram creates an empty histogram with the default loading-metric
// bucket boundaries.
func NewHistogram(name, description string) *Histogram {
	boundaries := DefaultBinBoundaries()
	return &Histogram{
		name:        name,
		description: description,
		unit:        HistogramUnit,
		boundaries:  boundaries,
		counts:      make([]int64, len(boundaries)+1),
		min:         math.Inf(1),
		max:         math.Inf(-1),
	}
}

// AddSample records one sample with its diagnostics.
func (h *Histogram) AddSample(value float64, diagnostics Diagnostics) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[h.binIndex(value)]++
	h.samples = append(h.samples, Sample{Value: value, Diagnostics: diagnostics})
	h.sum += value
	if value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}
}

// binIndex returns the counts index for a value: 0 for underflow,
// len(counts)-1 for overflow (including +Inf).
func (h *Histogram) binIndex(value float64) int {
	if value < h.boundaries[0] {
		return 0
	}
	for i := 1; i < len(h.boundaries); i++ {
		if value < h.boundaries[i] {
			return i
		}
	}
	return len(h.counts) - 1
}

// Name returns the metric series name.
func (h *Histogram) Name() string {
	return h.name
}

// Description returns the human-readable metric description.
func (h *Histogram) Description() string {
	return h.description
}

// Unit returns the histogram unit.
func (h *Histogram) Unit() string {
	return h.unit
}

// BinBoundaries returns the bucket boundaries.
func (h *Histogram) BinBoundaries() []float64 {
	return h.boundaries
}

// Count returns the number of recorded samples.
func (h *Histogram) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.samples)
}

// Samples returns a copy of the recorded samples.  No particular order is
// guaranteed when renderers were analyzed concurrently.
func (h *Histogram) Samples() []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// BinCounts returns a copy of the per-bucket sample counts, underflow
// first and overflow last.
func (h *Histogram) BinCounts() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.counts))
	copy(out, h.counts)
	return out
}

// Min returns the smallest recorded value, or +Inf when empty.
func (h *Histogram) Min() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.min
}

// Max returns the largest recorded value, or -Inf when empty.
func (h *Histogram) Max() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.max
}

// Mean returns the arithmetic mean of the recorded values, or NaN when
// empty.
func (h *Histogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.samples) == 0 {
		return math.NaN()
	}
	return h.sum / float64(len(h.samples))
}
