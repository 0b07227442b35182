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
	"fmt"

	"github.com/rancher-sandbox/loadmetrics/pkg/timerange"
	"github.com/rancher-sandbox/loadmetrics/pkg/trace"
)

const (
	loadingCategory       = "loading"
	frameLoaderObjectName = "FrameLoader"
	markAsMainFrameTitle  = "markAsMainFrame"
	// URL loaded into placeholder frames for plugin content; such frames
	// are never the navigable main frame.
	pluginPlaceholderURL = "data:text/html,pluginplaceholderdata"

	snapshotFrameArg       = "frame"
	snapshotDocumentURLArg = "documentLoaderURL"
)

// FrameIntegrityError reports a FrameLoader record whose snapshots
// disagree on the frame they belong to.  One loader serves exactly one
// frame, so a disagreement means the trace is corrupt; analysis of the
// affected renderer is aborted.
type FrameIntegrityError struct {
	ObjectID string
	Expected string
	Actual   string
}

func (e *FrameIntegrityError) Error() string {
	return fmt.Sprintf("frame loader %s has snapshots for both frame %q and frame %q",
		e.ObjectID, e.Expected, e.Actual)
}

type mainFrameRange struct {
	frameID string
	live    timerange.Range
}

// MainFrameResolver answers, for a frame id and an instant, whether that
// frame was the page's main frame and what URL its loader had committed.
// It is built once per renderer process and is immutable afterwards, so it
// may be shared across goroutines.
type MainFrameResolver struct {
	// ranges are the liveness ranges of loaders that were marked as main
	// frame; a frame id can appear more than once when the frame is
	// reused across navigations.
	ranges []mainFrameRange
	// records are all frame loaders of the process, ordered by liveness
	// start so URL lookups are deterministic.
	records []*trace.ObjectRecord
}

type mainFrameMarker struct {
	frameID   string
	timestamp float64
}

// NewMainFrameResolver builds the resolver from the process's FrameLoader
// records and markAsMainFrame events.  A loader qualifies as a main-frame
// range when some marker for its frame falls inside its liveness range and
// it never loaded the plugin placeholder URL.
func NewMainFrameResolver(process *trace.Process) (*MainFrameResolver, error) {
	var markers []mainFrameMarker
	for _, event := range process.DescendantEvents() {
		if event.Name != markAsMainFrameTitle || !event.HasCategory(loadingCategory) {
			continue
		}
		if frameID, ok := event.FrameID(); ok {
			markers = append(markers, mainFrameMarker{frameID: frameID, timestamp: event.Start})
		}
	}

	resolver := &MainFrameResolver{records: process.ObjectRecords(frameLoaderObjectName)}
	for _, record := range resolver.records {
		if len(record.Snapshots) == 0 {
			continue
		}
		frameID, err := recordFrameID(record)
		if err != nil {
			return nil, err
		}
		if frameID == "" || recordLoadedURL(record, pluginPlaceholderURL) {
			continue
		}
		live := record.LivenessRange()
		for _, marker := range markers {
			if marker.frameID == frameID && live.ContainsInstant(marker.timestamp) {
				resolver.ranges = append(resolver.ranges, mainFrameRange{frameID: frameID, live: live})
				break
			}
		}
	}
	return resolver, nil
}

// recordFrameID returns the frame id shared by all snapshots of the
// record, or a FrameIntegrityError if they disagree.
func recordFrameID(record *trace.ObjectRecord) (string, error) {
	frameID := ""
	for _, snapshot := range record.Snapshots {
		id, _ := snapshot.StringArg(snapshotFrameArg)
		if frameID == "" {
			frameID = id
			continue
		}
		if id != frameID {
			return "", &FrameIntegrityError{ObjectID: record.ID, Expected: frameID, Actual: id}
		}
	}
	return frameID, nil
}

func recordLoadedURL(record *trace.ObjectRecord, url string) bool {
	for _, snapshot := range record.Snapshots {
		if loaded, ok := snapshot.StringArg(snapshotDocumentURLArg); ok && loaded == url {
			return true
		}
	}
	return false
}

// IsMainFrame reports whether the frame was the main frame at the given
// instant.  Range boundaries count as inside.
func (r *MainFrameResolver) IsMainFrame(frameID string, ts float64) bool {
	for _, entry := range r.ranges {
		if entry.frameID == frameID && entry.live.ContainsInstant(ts) {
			return true
		}
	}
	return false
}

// URLAt returns the document URL committed in the frame at the given
// instant.  Records are scanned in liveness-start order and the first
// loader alive at ts whose current snapshot belongs to the frame wins.
func (r *MainFrameResolver) URLAt(frameID string, ts float64) (string, bool) {
	for _, record := range r.records {
		if !record.AliveAt(ts) {
			continue
		}
		snapshot := record.SnapshotAt(ts)
		if snapshot == nil {
			continue
		}
		if id, ok := snapshot.StringArg(snapshotFrameArg); !ok || id != frameID {
			continue
		}
		if url, ok := snapshot.StringArg(snapshotDocumentURLArg); ok && url != "" {
			return url, true
		}
	}
	return "", false
}
