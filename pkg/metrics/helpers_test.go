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

package metrics_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/loadmetrics/pkg/trace"
)

// traceBuilder assembles a synthetic trace, event by event, and parses it
// into a model.  Timestamps are given in milliseconds and written to the
// wire in microseconds, like a real trace.
type traceBuilder struct {
	events []map[string]any
}

func newTraceBuilder() *traceBuilder {
	return &traceBuilder{}
}

func (b *traceBuilder) add(event map[string]any) *traceBuilder {
	b.events = append(b.events, event)
	return b
}

func millis(ms float64) float64 {
	return ms * 1000
}

// renderer declares a renderer process with a CrRendererMain thread.
func (b *traceBuilder) renderer(pid, tid int) *traceBuilder {
	return b.add(map[string]any{
		"name": "process_name", "ph": "M", "pid": pid, "tid": tid,
		"args": map[string]any{"name": "Renderer"},
	}).add(map[string]any{
		"name": "thread_name", "ph": "M", "pid": pid, "tid": tid,
		"args": map[string]any{"name": "CrRendererMain"},
	})
}

// frameLoader declares a FrameLoader object alive over [start, end] with a
// single snapshot at start committing the given frame and URL.
func (b *traceBuilder) frameLoader(pid int, id, frame, url string, startMS, endMS float64) *traceBuilder {
	return b.add(map[string]any{
		"name": "FrameLoader", "cat": "loading", "ph": "N", "id": id,
		"pid": pid, "tid": 0, "ts": millis(startMS),
	}).loaderSnapshot(pid, id, frame, url, startMS).add(map[string]any{
		"name": "FrameLoader", "cat": "loading", "ph": "D", "id": id,
		"pid": pid, "tid": 0, "ts": millis(endMS),
	})
}

func (b *traceBuilder) loaderSnapshot(pid int, id, frame, url string, tsMS float64) *traceBuilder {
	return b.add(map[string]any{
		"name": "FrameLoader", "cat": "loading", "ph": "O", "id": id,
		"pid": pid, "tid": 0, "ts": millis(tsMS),
		"args": map[string]any{"snapshot": map[string]any{
			"frame": frame, "documentLoaderURL": url,
		}},
	})
}

// markAsMainFrame declares the main-frame marker for a frame.
func (b *traceBuilder) markAsMainFrame(pid, tid int, frame string, tsMS float64) *traceBuilder {
	return b.add(map[string]any{
		"name": "markAsMainFrame", "cat": "loading", "ph": "I",
		"pid": pid, "tid": tid, "ts": millis(tsMS),
		"args": map[string]any{"frame": frame},
	})
}

// userTiming adds a blink.user_timing milestone such as navigationStart or
// firstContentfulPaint.  cpuMS < 0 omits the thread timestamp.
func (b *traceBuilder) userTiming(pid, tid int, title, frame string, tsMS, cpuMS float64) *traceBuilder {
	event := map[string]any{
		"name": title, "cat": "blink.user_timing", "ph": "R",
		"pid": pid, "tid": tid, "ts": millis(tsMS),
		"args": map[string]any{"frame": frame},
	}
	if cpuMS >= 0 {
		event["tts"] = millis(cpuMS)
	}
	return b.add(event)
}

// paintCandidate adds a firstMeaningfulPaintCandidate event.
func (b *traceBuilder) paintCandidate(pid, tid int, frame string, tsMS, cpuMS float64) *traceBuilder {
	event := map[string]any{
		"name": "firstMeaningfulPaintCandidate", "cat": "loading", "ph": "I",
		"pid": pid, "tid": tid, "ts": millis(tsMS),
		"args": map[string]any{"frame": frame},
	}
	if cpuMS >= 0 {
		event["tts"] = millis(cpuMS)
	}
	return b.add(event)
}

// task adds a complete main-thread task slice.  cpuMS/cpuDurMS < 0 omit
// the thread clock.
func (b *traceBuilder) task(pid, tid int, title string, tsMS, durMS, cpuMS, cpuDurMS float64) *traceBuilder {
	event := map[string]any{
		"name": title, "cat": "toplevel", "ph": "X",
		"pid": pid, "tid": tid, "ts": millis(tsMS), "dur": millis(durMS),
	}
	if cpuMS >= 0 {
		event["tts"] = millis(cpuMS)
	}
	if cpuDurMS >= 0 {
		event["tdur"] = millis(cpuDurMS)
	}
	return b.add(event)
}

func (b *traceBuilder) model(t *testing.T) *trace.Model {
	t.Helper()
	data, err := json.Marshal(map[string]any{"traceEvents": b.events})
	require.NoError(t, err)
	model, err := trace.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	return model
}
