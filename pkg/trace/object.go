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

package trace

import "github.com/rancher-sandbox/loadmetrics/pkg/timerange"

// ObjectSnapshot is one "O" phase snapshot of a tracked object.
type ObjectSnapshot struct {
	// Timestamp is in milliseconds on the trace clock.
	Timestamp float64
	// Args is the snapshot payload (the "snapshot" member of the event's
	// args, or the whole args map when the trace omits that wrapper).
	Args map[string]any
}

// StringArg returns the named snapshot argument as a string.
func (s *ObjectSnapshot) StringArg(key string) (string, bool) {
	value, ok := s.Args[key]
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// ObjectRecord is the lifetime of one tracked object: its creation and
// deletion events plus the ordered sequence of snapshots in between.
// Records are assembled by the parser from N/O/D events sharing an id.
type ObjectRecord struct {
	Category string
	Name     string
	ID       string

	creationTime float64
	hasCreation  bool
	deletionTime float64
	hasDeletion  bool

	// Snapshots are ordered by timestamp.
	Snapshots []*ObjectSnapshot
}

// LivenessRange returns the closed interval over which the object existed.
// Creation and deletion events bound it where present; otherwise the first
// and last snapshot timestamps do.
func (r *ObjectRecord) LivenessRange() timerange.Range {
	min := r.creationTime
	if !r.hasCreation && len(r.Snapshots) > 0 {
		min = r.Snapshots[0].Timestamp
	}
	max := r.deletionTime
	if !r.hasDeletion && len(r.Snapshots) > 0 {
		max = r.Snapshots[len(r.Snapshots)-1].Timestamp
	}
	return timerange.FromExtent(min, max)
}

// AliveAt reports whether the object existed at the given instant,
// boundaries included.
func (r *ObjectRecord) AliveAt(ts float64) bool {
	return r.LivenessRange().ContainsInstant(ts)
}

// SnapshotAt returns the latest snapshot taken at or before the given
// instant, or nil if the object had not been snapshotted yet.
func (r *ObjectRecord) SnapshotAt(ts float64) *ObjectSnapshot {
	var found *ObjectSnapshot
	for _, snapshot := range r.Snapshots {
		if snapshot.Timestamp > ts {
			break
		}
		found = snapshot
	}
	return found
}
