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

// Package timerange provides closed-interval arithmetic over trace
// timestamps.  All boundaries are inclusive: two ranges that merely touch
// at an endpoint intersect, and their intersection has duration zero.
package timerange

// Range is a closed interval [Min, Max] in milliseconds.
type Range struct {
	Min float64
	Max float64
}

// FromExtent returns the range [min, max].
func FromExtent(min, max float64) Range {
	return Range{Min: min, Max: max}
}

// Duration returns the length of the range.
func (r Range) Duration() float64 {
	return r.Max - r.Min
}

// ContainsInstant reports whether t lies within the range, boundaries
// included.
func (r Range) ContainsInstant(t float64) bool {
	return r.Min <= t && t <= r.Max
}

// Intersects reports whether the two ranges share at least one instant.
func (r Range) Intersects(other Range) bool {
	return r.Min <= other.Max && other.Min <= r.Max
}

// Intersection returns the overlap of the two ranges.  The second return
// value is false when the ranges are disjoint; a boundary touch yields a
// zero-duration range and true.
func (r Range) Intersection(other Range) (Range, bool) {
	if !r.Intersects(other) {
		return Range{}, false
	}
	out := Range{Min: r.Min, Max: r.Max}
	if other.Min > out.Min {
		out.Min = other.Min
	}
	if other.Max < out.Max {
		out.Max = other.Max
	}
	return out, true
}
