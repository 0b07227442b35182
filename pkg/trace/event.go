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

// Package trace parses traces in Google's Trace Event Format, as described
// in https://docs.google.com/document/d/1CvAClvFfyA5R-PhYUmn5OOQtYMH4h6I0nSsKchNAySU/preview
// and exposes them as an immutable process/thread/event model.  All
// timestamps in the model are in milliseconds on the trace clock; thread
// (CPU) timestamps are kept separately where the trace provides them.
package trace

import (
	"strings"

	"github.com/rancher-sandbox/loadmetrics/pkg/timerange"
)

// Phase identifies the event type, using the single-character codes of the
// trace event format.
type Phase string

const (
	PhaseDurationBegin   = Phase("B")
	PhaseDurationEnd     = Phase("E")
	PhaseComplete        = Phase("X")
	PhaseInstant         = Phase("i")
	PhaseInstantLegacy   = Phase("I")
	PhaseMark            = Phase("R")
	PhaseMetadata        = Phase("M")
	PhaseObjectCreated   = Phase("N")
	PhaseObjectSnapshot  = Phase("O")
	PhaseObjectDestroyed = Phase("D")
)

// Event is a single trace event.  Events are constructed by the parser and
// must be treated as read-only afterwards; the analysis layers never mutate
// them.
type Event struct {
	Name     string
	Category string
	Phase    Phase
	// Start and Duration are in milliseconds on the trace clock.  Begin/end
	// pairs have been merged into one event with the duration filled in.
	Start    float64
	Duration float64
	// CPUStart and CPUDuration are on the thread clock, in milliseconds.
	// They are only meaningful when HasCPUTime is set.
	CPUStart    float64
	CPUDuration float64
	HasCPUTime  bool
	PID         int
	TID         int
	// Depth is the nesting depth of this event within its thread's slice
	// stack; top-level slices have depth zero.
	Depth int
	// Seq is the event's position in the capture stream.  Thread event
	// lists are sorted by start time, so Seq is what preserves the
	// original arrival order when timestamps tie or arrive out of order.
	Seq  int
	Args map[string]any
}

// End returns the wall-clock end time of the event.
func (e *Event) End() float64 {
	return e.Start + e.Duration
}

// CPUEnd returns the thread-clock end time of the event.  Only meaningful
// when HasCPUTime is set.
func (e *Event) CPUEnd() float64 {
	return e.CPUStart + e.CPUDuration
}

// Range returns the wall-clock extent of the event.
func (e *Event) Range() timerange.Range {
	return timerange.FromExtent(e.Start, e.End())
}

// CPURange returns the thread-clock extent of the event.
func (e *Event) CPURange() timerange.Range {
	return timerange.FromExtent(e.CPUStart, e.CPUEnd())
}

// FrameID returns the frame identifier argument attached to the event, if
// present.  Blink attaches it as the "frame" argument on navigation and
// paint milestones.
func (e *Event) FrameID() (string, bool) {
	value, ok := e.Args["frame"]
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// HasCategory reports whether the event's (comma-separated) category list
// contains the given category.
func (e *Event) HasCategory(category string) bool {
	if e.Category == category {
		return true
	}
	for _, entry := range strings.Split(e.Category, ",") {
		if entry == category {
			return true
		}
	}
	return false
}
