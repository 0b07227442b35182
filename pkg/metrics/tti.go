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

	"github.com/rancher-sandbox/loadmetrics/pkg/timerange"
	"github.com/rancher-sandbox/loadmetrics/pkg/trace"
)

const (
	// ResponsivenessThresholdMS is the longest a main-thread task may run
	// while still leaving the page responsive to input.
	ResponsivenessThresholdMS = 50.0
	// InteractiveWindowSizeMS is how long the main thread must stay free
	// of long tasks before the page counts as interactive.
	InteractiveWindowSizeMS = 5000.0

	longTaskTitle = "TaskQueueManager::ProcessTaskFromWorkQueue"
)

// firstInteractiveInstant finds the earliest instant at or after the first
// meaningful paint from which the main thread stays free of long tasks for
// a full interactive window.  It returns +Inf when the event stream ends
// before any window completes.  The second return value is the last long
// task that pushed the candidate back, if any.
func firstInteractiveInstant(firstMeaningfulPaint float64, events []*trace.Event) (float64, *trace.Event) {
	candidate := firstMeaningfulPaint
	var lastLongTask *trace.Event
	for _, event := range events {
		if event.Start < candidate {
			continue
		}
		if event.Start-candidate >= InteractiveWindowSizeMS {
			return candidate, lastLongTask
		}
		if event.Name == longTaskTitle && event.Duration > ResponsivenessThresholdMS {
			// The page can be interactive while the tail of a long task
			// still fits inside the responsiveness threshold.
			candidate = event.End() - ResponsivenessThresholdMS
			lastLongTask = event
		}
	}
	return math.Inf(1), lastLongTask
}

// firstInteractiveSample scans the main thread after the first meaningful
// paint and emits the time-to-first-interactive sample for the navigation.
// An unbounded scan still emits a sample, with an infinite value.
func firstInteractiveSample(mainThread *trace.Thread, network []*trace.Event, navigation *trace.Event, firstMeaningfulPaint float64, info NavigationInfo) Sample {
	instant, lastLongTask := firstInteractiveInstant(firstMeaningfulPaint, mainThread.Events)
	diagnostics := Diagnostics{
		DiagnosticStart:           newEventInfo(navigation),
		DiagnosticNavigationInfos: info,
	}
	if lastLongTask != nil {
		diagnostics[DiagnosticLastLongTask] = newEventInfo(lastLongTask)
	}
	if !math.IsInf(instant, 1) {
		bounds := timerange.FromExtent(navigation.Start, instant)
		diagnostics[breakdownDiagnosticKey("interactive")] = WallClockBreakdown(mainThread, network, bounds)
	}
	return Sample{Value: instant - navigation.Start, Diagnostics: diagnostics}
}
