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

import "github.com/rancher-sandbox/loadmetrics/pkg/trace"

const (
	userTimingCategory   = "blink.user_timing"
	navigationStartTitle = "navigationStart"
)

// NavigationIndex indexes a thread's navigationStart events by frame, in
// arrival order.  It is the origin lookup for all "time to X"
// measurements: a milestone belongs to the most recent navigation start at
// or before it.
type NavigationIndex struct {
	byFrame map[string][]*trace.Event
}

// NewNavigationIndex scans the thread's event stream for navigationStart
// milestones.  A nil thread yields an empty index.
func NewNavigationIndex(thread *trace.Thread) *NavigationIndex {
	index := &NavigationIndex{byFrame: make(map[string][]*trace.Event)}
	if thread == nil {
		return index
	}
	for _, event := range thread.Events {
		if event.Name != navigationStartTitle || !event.HasCategory(userTimingCategory) {
			continue
		}
		frameID, ok := event.FrameID()
		if !ok {
			continue
		}
		index.byFrame[frameID] = append(index.byFrame[frameID], event)
	}
	return index
}

// LastNavigationStartBefore returns the frame's navigation start with the
// greatest start time not after ts, ties going to the later event in scan
// order.  It returns nil when the frame is unknown or all its navigation
// starts come after ts; callers drop the milestone in that case rather
// than treating it as an error.
func (ix *NavigationIndex) LastNavigationStartBefore(frameID string, ts float64) *trace.Event {
	var found *trace.Event
	for _, event := range ix.byFrame[frameID] {
		if event.Start <= ts {
			found = event
		}
	}
	return found
}
