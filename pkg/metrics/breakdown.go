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
	"strings"

	"github.com/rancher-sandbox/loadmetrics/pkg/timerange"
	"github.com/rancher-sandbox/loadmetrics/pkg/trace"
)

// Breakdown attributes elapsed time within a range to categories of work.
// It is carried as an opaque diagnostic; consumers only render it.
type Breakdown map[string]float64

const networkBreakdownCategory = "net"

func breakdownCategory(e *trace.Event) string {
	category, _, _ := strings.Cut(e.Category, ",")
	return category
}

// WallClockBreakdown sums, per category, the wall-clock time of the
// thread's top-level slices intersected with bounds.  Network events are
// accounted under their own category, regardless of which thread emitted
// them.
func WallClockBreakdown(thread *trace.Thread, network []*trace.Event, bounds timerange.Range) Breakdown {
	breakdown := make(Breakdown)
	if thread != nil {
		for _, event := range thread.Events {
			if event.Depth != 0 || event.Duration <= 0 || trace.IsNetworkEvent(event) {
				continue
			}
			if overlap, ok := bounds.Intersection(event.Range()); ok {
				breakdown[breakdownCategory(event)] += overlap.Duration()
			}
		}
	}
	for _, event := range network {
		if overlap, ok := bounds.Intersection(event.Range()); ok {
			breakdown[networkBreakdownCategory] += overlap.Duration()
		}
	}
	return breakdown
}

// CPUTimeBreakdown is the thread-clock variant of WallClockBreakdown:
// bounds and intersections are on the CPU clock, and slices without CPU
// timing are skipped.
func CPUTimeBreakdown(thread *trace.Thread, network []*trace.Event, bounds timerange.Range) Breakdown {
	breakdown := make(Breakdown)
	if thread != nil {
		for _, event := range thread.Events {
			if event.Depth != 0 || !event.HasCPUTime || event.CPUDuration <= 0 || trace.IsNetworkEvent(event) {
				continue
			}
			if overlap, ok := bounds.Intersection(event.CPURange()); ok {
				breakdown[breakdownCategory(event)] += overlap.Duration()
			}
		}
	}
	for _, event := range network {
		if !event.HasCPUTime || event.CPUDuration <= 0 {
			continue
		}
		if overlap, ok := bounds.Intersection(event.CPURange()); ok {
			breakdown[networkBreakdownCategory] += overlap.Duration()
		}
	}
	return breakdown
}
