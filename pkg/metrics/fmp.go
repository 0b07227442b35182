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
	"sort"

	"github.com/rancher-sandbox/loadmetrics/pkg/timerange"
	"github.com/rancher-sandbox/loadmetrics/pkg/trace"
)

const firstMeaningfulPaintCandidateTitle = "firstMeaningfulPaintCandidate"

// paintSamples is the output of the first-meaningful-paint selector: the
// wall-clock and CPU-time FMP series, plus the time-to-first-interactive
// series derived from each finalized paint.
type paintSamples struct {
	wall        []Sample
	cpu         []Sample
	interactive []Sample
}

// paintTracking is the selector state for one navigation of one frame:
// the navigation being tracked and the last paint candidate seen for it.
type paintTracking struct {
	navigation    *trace.Event
	lastCandidate *trace.Event
}

// collectFirstMeaningfulPaint finds, per frame and navigation, the last
// firstMeaningfulPaintCandidate before the navigation changes, and emits
// its samples.  Blink re-estimates the meaningful paint as the page loads,
// so only the final candidate of a navigation counts.
func collectFirstMeaningfulPaint(process *trace.Process, resolver *MainFrameResolver, index *NavigationIndex) paintSamples {
	candidatesByFrame := make(map[string][]*trace.Event)
	var frameOrder []string
	for _, event := range process.DescendantEvents() {
		if event.Name != firstMeaningfulPaintCandidateTitle || !event.HasCategory(loadingCategory) {
			continue
		}
		if trace.IsInstrumentation(event) {
			continue
		}
		frameID, ok := event.FrameID()
		if !ok {
			continue
		}
		if _, seen := candidatesByFrame[frameID]; !seen {
			frameOrder = append(frameOrder, frameID)
		}
		candidatesByFrame[frameID] = append(candidatesByFrame[frameID], event)
	}

	selector := &paintSelector{
		process:  process,
		resolver: resolver,
	}
	for _, frameID := range frameOrder {
		// Fold over the frame's candidates in capture order: track one
		// navigation at a time, keep the last candidate for it, finalize
		// when the owning navigation changes.  Blink emits the estimates
		// in its own order, which is not necessarily timestamp order.
		candidates := candidatesByFrame[frameID]
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Seq < candidates[j].Seq
		})
		var tracking *paintTracking
		for _, candidate := range candidates {
			navigation := index.LastNavigationStartBefore(frameID, candidate.Start)
			if navigation == nil {
				continue
			}
			if tracking != nil && tracking.navigation != navigation {
				selector.finalize(frameID, tracking)
				tracking = nil
			}
			if tracking == nil {
				tracking = &paintTracking{navigation: navigation}
			}
			tracking.lastCandidate = candidate
		}
		if tracking != nil {
			selector.finalize(frameID, tracking)
		}
	}
	return selector.samples
}

type paintSelector struct {
	process  *trace.Process
	resolver *MainFrameResolver
	samples  paintSamples
}

// finalize emits the samples for one navigation's final paint candidate.
// The same attribution gates as the milestone collector apply; a paint
// that fails them is dropped.
func (s *paintSelector) finalize(frameID string, tracking *paintTracking) {
	candidate := tracking.lastCandidate
	navigation := tracking.navigation
	url, ok := resolveMainFrameURL(s.resolver, frameID, candidate.Start)
	if !ok {
		return
	}

	mainThread := s.process.MainThread()
	var network []*trace.Event
	for _, thread := range s.process.Threads {
		network = append(network, thread.NetworkEvents()...)
	}
	info := NavigationInfo{URL: url, PID: s.process.PID, NavigationStart: navigation.Start}

	bounds := timerange.FromExtent(navigation.Start, candidate.Start)
	s.samples.wall = append(s.samples.wall, Sample{
		Value: bounds.Duration(),
		Diagnostics: Diagnostics{
			DiagnosticStart:               newEventInfo(navigation),
			DiagnosticEnd:                 newEventInfo(candidate),
			DiagnosticNavigationInfos:     info,
			breakdownDiagnosticKey("fmp"): WallClockBreakdown(mainThread, network, bounds),
		},
	})

	if navigation.HasCPUTime && candidate.HasCPUTime && mainThread != nil {
		cpuBounds := timerange.FromExtent(navigation.CPUStart, candidate.CPUStart)
		s.samples.cpu = append(s.samples.cpu, Sample{
			Value: mainThreadCPUTime(mainThread, cpuBounds),
			Diagnostics: Diagnostics{
				DiagnosticStart:                  newEventInfo(navigation),
				DiagnosticEnd:                    newEventInfo(candidate),
				DiagnosticNavigationInfos:        info,
				breakdownDiagnosticKey("fmpCpu"): CPUTimeBreakdown(mainThread, network, cpuBounds),
			},
		})
	}

	if mainThread != nil {
		s.samples.interactive = append(s.samples.interactive,
			firstInteractiveSample(mainThread, network, navigation, candidate.Start, info))
	}
}

// mainThreadCPUTime sums the CPU time the main thread spent in its
// top-level slices within the given thread-clock bounds.
func mainThreadCPUTime(mainThread *trace.Thread, bounds timerange.Range) float64 {
	total := 0.0
	for _, event := range mainThread.Events {
		if event.Depth != 0 || !event.HasCPUTime || event.CPUDuration <= 0 {
			continue
		}
		if overlap, ok := bounds.Intersection(event.CPURange()); ok {
			total += overlap.Duration()
		}
	}
	return total
}
