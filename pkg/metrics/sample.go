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

// Package metrics extracts page-load performance metrics from a parsed
// browser trace: time to first contentful paint, time to onload, first
// meaningful paint (wall clock and CPU time), and time to first
// interactive.  Each metric is a series of per-navigation samples with
// attribution diagnostics attached.
package metrics

import (
	"fmt"

	"github.com/rancher-sandbox/loadmetrics/pkg/trace"
)

// Diagnostic keys attached to samples.  These are a stable contract with
// downstream consumers; do not rename.
const (
	DiagnosticStart           = "Start"
	DiagnosticEnd             = "End"
	DiagnosticLastLongTask    = "Last long task"
	DiagnosticNavigationInfos = "Navigation infos"
)

// breakdownDiagnosticKey names the causal-breakdown diagnostic for the
// range from navigation start to the given label, e.g.
// "Breakdown of [navStart, fmp]".
func breakdownDiagnosticKey(label string) string {
	return fmt.Sprintf("Breakdown of [navStart, %s]", label)
}

// Diagnostics is an opaque key→annotation map carried by a sample.  The
// metric layer populates it; consumers pass it through to reporting.
type Diagnostics map[string]any

// Sample is one measured duration in milliseconds, with diagnostics.
type Sample struct {
	Value       float64     `json:"value"`
	Diagnostics Diagnostics `json:"diagnostics,omitempty"`
}

// EventInfo is a diagnostic reference to a trace event.
type EventInfo struct {
	Title    string  `json:"title"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

func newEventInfo(e *trace.Event) EventInfo {
	return EventInfo{Title: e.Name, Start: e.Start, Duration: e.Duration}
}

// NavigationInfo is a diagnostic describing the navigation a sample was
// attributed to.
type NavigationInfo struct {
	URL             string  `json:"url"`
	PID             int     `json:"pid"`
	NavigationStart float64 `json:"navigationStart"`
}
