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

import "strings"

const (
	rendererProcessName = "Renderer"
	rendererMainThread  = "CrRendererMain"
	tracingUILabel      = "chrome://tracing"
	// Category attached to events injected by capture harnesses rather
	// than the browser itself; such events never contribute samples.
	instrumentationCategory = "telemetry"
)

// Model is a parsed trace: the set of processes that emitted events.
type Model struct {
	// Processes are ordered by pid.
	Processes []*Process
}

// RendererProcesses returns the renderer processes in the trace, excluding
// the tracing tool's own UI renderer.
func (m *Model) RendererProcesses() []*Process {
	var renderers []*Process
	for _, process := range m.Processes {
		if process.IsRenderer() && !process.IsTracingUI() {
			renderers = append(renderers, process)
		}
	}
	return renderers
}

// Process groups the threads and tracked objects of one traced process.
type Process struct {
	PID int
	// Threads are ordered by tid.
	Threads []*Thread

	name    string
	labels  string
	objects map[string][]*ObjectRecord
}

// Name returns the process name from the trace metadata, e.g. "Renderer".
func (p *Process) Name() string {
	return p.name
}

// IsRenderer reports whether this is a browser renderer process.
func (p *Process) IsRenderer() bool {
	return p.name == rendererProcessName
}

// IsTracingUI reports whether this renderer hosts the tracing tool's own
// UI, which is excluded from analysis.
func (p *Process) IsTracingUI() bool {
	return strings.Contains(p.labels, tracingUILabel)
}

// MainThread returns the renderer main thread, or nil if the process has
// none.
func (p *Process) MainThread() *Thread {
	for _, thread := range p.Threads {
		if thread.Name() == rendererMainThread {
			return thread
		}
	}
	return nil
}

// DescendantEvents returns all events of all threads of the process, in
// (tid, start time) order.
func (p *Process) DescendantEvents() []*Event {
	var events []*Event
	for _, thread := range p.Threads {
		events = append(events, thread.Events...)
	}
	return events
}

// ObjectRecords returns the tracked objects with the given name, ordered
// by the start of their liveness range.
func (p *Process) ObjectRecords(name string) []*ObjectRecord {
	return p.objects[name]
}

// IsInstrumentation reports whether the event was injected by a capture
// harness rather than emitted by the browser.
func IsInstrumentation(e *Event) bool {
	return e.HasCategory(instrumentationCategory)
}

// Thread is one thread's ordered event stream.
type Thread struct {
	TID int
	// Events are sorted by start time; events with equal start times keep
	// their capture order.
	Events []*Event

	name string
}

// Name returns the thread name from the trace metadata.
func (t *Thread) Name() string {
	return t.name
}

// NetworkEvents returns the thread's network activity events, identified
// by their netlog categories.
func (t *Thread) NetworkEvents() []*Event {
	var network []*Event
	for _, event := range t.Events {
		if IsNetworkEvent(event) {
			network = append(network, event)
		}
	}
	return network
}

// IsNetworkEvent reports whether the event records network activity.
func IsNetworkEvent(e *Event) bool {
	return e.HasCategory("netlog") || e.HasCategory("disabled-by-default-netlog")
}
