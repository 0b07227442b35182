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

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// wireEvent mirrors one entry of the traceEvents array.  Timestamps are in
// microseconds on the wire.
type wireEvent struct {
	Name            string          `json:"name"`
	Category        string          `json:"cat"`
	Phase           string          `json:"ph"`
	Timestamp       float64         `json:"ts"`
	Duration        float64         `json:"dur"`
	ThreadTimestamp *float64        `json:"tts"`
	ThreadDuration  *float64        `json:"tdur"`
	PID             int             `json:"pid"`
	TID             int             `json:"tid"`
	ID              json.RawMessage `json:"id"`
	Args            map[string]any  `json:"args"`
}

// wireFile is the object form of a trace file.  The bare-array form is
// handled separately.
type wireFile struct {
	TraceEvents []wireEvent `json:"traceEvents"`
}

// Parse reads a trace in Google's Trace Event Format and builds the
// process/thread/event model.  Both the object form ({"traceEvents": ...})
// and the bare-array form are accepted.
func Parse(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	wire, err := decodeWire(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	b := newBuilder()
	for i := range wire {
		if err := b.add(&wire[i]); err != nil {
			return nil, err
		}
	}
	return b.build()
}

func decodeWire(data []byte) ([]wireEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []wireEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}
	var file wireFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, err
	}
	return file.TraceEvents, nil
}

// microsToMillis converts a wire timestamp to model time.
func microsToMillis(micros float64) float64 {
	return micros / 1000
}

type objectKey struct {
	category string
	name     string
	id       string
}

type openSlice struct {
	event       *Event
	cpuStart    float64
	hasCPUStart bool
}

type threadBuilder struct {
	tid    int
	name   string
	events []*Event
	stack  []openSlice
}

type processBuilder struct {
	pid         int
	name        string
	labels      string
	threads     map[int]*threadBuilder
	objects     map[objectKey]*ObjectRecord
	objectOrder []objectKey
}

type builder struct {
	processes map[int]*processBuilder
	seq       int
}

func newBuilder() *builder {
	return &builder{processes: make(map[int]*processBuilder)}
}

func (b *builder) process(pid int) *processBuilder {
	pb, ok := b.processes[pid]
	if !ok {
		pb = &processBuilder{
			pid:     pid,
			threads: make(map[int]*threadBuilder),
			objects: make(map[objectKey]*ObjectRecord),
		}
		b.processes[pid] = pb
	}
	return pb
}

func (pb *processBuilder) thread(tid int) *threadBuilder {
	tb, ok := pb.threads[tid]
	if !ok {
		tb = &threadBuilder{tid: tid}
		pb.threads[tid] = tb
	}
	return tb
}

func (pb *processBuilder) object(key objectKey) *ObjectRecord {
	record, ok := pb.objects[key]
	if !ok {
		record = &ObjectRecord{Category: key.category, Name: key.name, ID: key.id}
		pb.objects[key] = record
		pb.objectOrder = append(pb.objectOrder, key)
	}
	return record
}

func (b *builder) add(w *wireEvent) error {
	pb := b.process(w.PID)
	b.seq++
	switch Phase(w.Phase) {
	case PhaseMetadata:
		pb.addMetadata(w)
	case PhaseObjectCreated, PhaseObjectSnapshot, PhaseObjectDestroyed:
		return pb.addObjectEvent(w)
	case PhaseDurationBegin:
		pb.thread(w.TID).beginSlice(w, b.seq)
	case PhaseDurationEnd:
		return pb.thread(w.TID).endSlice(w)
	case PhaseComplete:
		pb.thread(w.TID).addComplete(w, b.seq)
	case PhaseInstant, PhaseInstantLegacy, PhaseMark:
		pb.thread(w.TID).addInstant(w, b.seq)
	default:
		// Other phases (flow, counters, async...) are not needed for
		// loading analysis.
	}
	return nil
}

func (pb *processBuilder) addMetadata(w *wireEvent) {
	switch w.Name {
	case "process_name":
		if name, ok := w.Args["name"].(string); ok {
			pb.name = name
		}
	case "process_labels":
		if labels, ok := w.Args["labels"].(string); ok {
			pb.labels = labels
		}
	case "thread_name":
		if name, ok := w.Args["name"].(string); ok {
			pb.thread(w.TID).name = name
		}
	}
}

func (pb *processBuilder) addObjectEvent(w *wireEvent) error {
	key := objectKey{category: w.Category, name: w.Name, id: decodeID(w.ID)}
	record := pb.object(key)
	ts := microsToMillis(w.Timestamp)
	switch Phase(w.Phase) {
	case PhaseObjectCreated:
		record.creationTime = ts
		record.hasCreation = true
	case PhaseObjectDestroyed:
		record.deletionTime = ts
		record.hasDeletion = true
	case PhaseObjectSnapshot:
		args := w.Args
		if inner, ok := w.Args["snapshot"].(map[string]any); ok {
			args = inner
		}
		record.Snapshots = append(record.Snapshots, &ObjectSnapshot{
			Timestamp: ts,
			Args:      args,
		})
	}
	return nil
}

func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	return strings.TrimSpace(string(raw))
}

func (tb *threadBuilder) newEvent(w *wireEvent, seq int) *Event {
	return &Event{
		Name:     w.Name,
		Category: w.Category,
		Phase:    Phase(w.Phase),
		Start:    microsToMillis(w.Timestamp),
		PID:      w.PID,
		TID:      w.TID,
		Seq:      seq,
		Args:     w.Args,
	}
}

func (tb *threadBuilder) beginSlice(w *wireEvent, seq int) {
	slice := openSlice{event: tb.newEvent(w, seq)}
	if w.ThreadTimestamp != nil {
		slice.cpuStart = microsToMillis(*w.ThreadTimestamp)
		slice.hasCPUStart = true
	}
	tb.stack = append(tb.stack, slice)
}

func (tb *threadBuilder) endSlice(w *wireEvent) error {
	if len(tb.stack) == 0 {
		return fmt.Errorf("end event %q on thread %d has no matching begin", w.Name, w.TID)
	}
	slice := tb.stack[len(tb.stack)-1]
	tb.stack = tb.stack[:len(tb.stack)-1]
	event := slice.event
	event.Phase = PhaseComplete
	event.Duration = microsToMillis(w.Timestamp) - event.Start
	if slice.hasCPUStart && w.ThreadTimestamp != nil {
		event.CPUStart = slice.cpuStart
		event.CPUDuration = microsToMillis(*w.ThreadTimestamp) - slice.cpuStart
		event.HasCPUTime = true
	}
	tb.events = append(tb.events, event)
	return nil
}

func (tb *threadBuilder) addComplete(w *wireEvent, seq int) {
	event := tb.newEvent(w, seq)
	event.Duration = microsToMillis(w.Duration)
	if w.ThreadTimestamp != nil {
		event.CPUStart = microsToMillis(*w.ThreadTimestamp)
		event.HasCPUTime = true
		if w.ThreadDuration != nil {
			event.CPUDuration = microsToMillis(*w.ThreadDuration)
		}
	}
	tb.events = append(tb.events, event)
}

func (tb *threadBuilder) addInstant(w *wireEvent, seq int) {
	event := tb.newEvent(w, seq)
	if w.ThreadTimestamp != nil {
		event.CPUStart = microsToMillis(*w.ThreadTimestamp)
		event.HasCPUTime = true
	}
	tb.events = append(tb.events, event)
}

func (b *builder) build() (*Model, error) {
	model := &Model{}
	pids := make([]int, 0, len(b.processes))
	for pid := range b.processes {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	for _, pid := range pids {
		process, err := b.processes[pid].build()
		if err != nil {
			return nil, err
		}
		model.Processes = append(model.Processes, process)
	}
	return model, nil
}

func (pb *processBuilder) build() (*Process, error) {
	process := &Process{
		PID:     pb.pid,
		name:    pb.name,
		labels:  pb.labels,
		objects: make(map[string][]*ObjectRecord),
	}

	tids := make([]int, 0, len(pb.threads))
	for tid := range pb.threads {
		tids = append(tids, tid)
	}
	sort.Ints(tids)
	for _, tid := range tids {
		tb := pb.threads[tid]
		if len(tb.stack) > 0 {
			return nil, fmt.Errorf("begin event %q on thread %d has no matching end",
				tb.stack[len(tb.stack)-1].event.Name, tid)
		}
		sort.SliceStable(tb.events, func(i, j int) bool {
			return tb.events[i].Start < tb.events[j].Start
		})
		assignDepths(tb.events)
		process.Threads = append(process.Threads, &Thread{
			TID:    tid,
			Events: tb.events,
			name:   tb.name,
		})
	}

	for _, key := range pb.objectOrder {
		record := pb.objects[key]
		sort.SliceStable(record.Snapshots, func(i, j int) bool {
			return record.Snapshots[i].Timestamp < record.Snapshots[j].Timestamp
		})
		process.objects[key.name] = append(process.objects[key.name], record)
	}
	// Order records of the same name by liveness start so later lookups
	// that take the first match are deterministic.
	for name := range process.objects {
		records := process.objects[name]
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].LivenessRange().Min < records[j].LivenessRange().Min
		})
	}

	return process, nil
}

// assignDepths computes slice nesting depths for a start-ordered event
// list.  An event starting exactly at an enclosing slice's end is a
// sibling, not a child.
func assignDepths(events []*Event) {
	var ends []float64
	for _, event := range events {
		for len(ends) > 0 && ends[len(ends)-1] <= event.Start {
			ends = ends[:len(ends)-1]
		}
		event.Depth = len(ends)
		if event.Duration > 0 {
			ends = append(ends, event.End())
		}
	}
}
