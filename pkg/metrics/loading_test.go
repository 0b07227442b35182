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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/loadmetrics/pkg/metrics"
)

// singleNavigation builds a renderer with one navigation on frame F1 at
// t=200ms: a contentful paint 120ms later, onload at +300ms, three meaningful
// paint candidates, and enough main-thread activity to close the
// interactive window.
func singleNavigation() *traceBuilder {
	return newTraceBuilder().
		renderer(1, 10).
		frameLoader(1, "0xA", "F1", "http://test.example/", 0, 100000).
		markAsMainFrame(1, 10, "F1", 150).
		userTiming(1, 10, "navigationStart", "F1", 200, 90).
		userTiming(1, 10, "firstContentfulPaint", "F1", 320, -1).
		userTiming(1, 10, "loadEventStart", "F1", 500, -1).
		paintCandidate(1, 10, "F1", 250, 110).
		paintCandidate(1, 10, "F1", 280, 120).
		paintCandidate(1, 10, "F1", 265, 130).
		task(1, 10, "task", 220, 30, 100, 20).
		task(1, 10, "task", 5600, 10, 300, 8)
}

func TestTimeToFirstContentfulPaintRoundTrip(t *testing.T) {
	t.Parallel()

	report, err := metrics.ComputeLoadingMetrics(singleNavigation().model(t))
	require.NoError(t, err)

	histogram := report.Histogram(metrics.SeriesFirstContentfulPaint)
	require.NotNil(t, histogram)
	samples := histogram.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, 120.0, samples[0].Value)

	info, ok := samples[0].Diagnostics[metrics.DiagnosticNavigationInfos].(metrics.NavigationInfo)
	require.True(t, ok)
	assert.Equal(t, "http://test.example/", info.URL)
	assert.Equal(t, 1, info.PID)
	assert.Equal(t, 200.0, info.NavigationStart)
}

func TestTimeToOnload(t *testing.T) {
	t.Parallel()

	report, err := metrics.ComputeLoadingMetrics(singleNavigation().model(t))
	require.NoError(t, err)

	samples := report.Histogram(metrics.SeriesTimeToOnload).Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, 300.0, samples[0].Value)
}

func TestFirstMeaningfulPaintKeepsLastCandidate(t *testing.T) {
	t.Parallel()

	report, err := metrics.ComputeLoadingMetrics(singleNavigation().model(t))
	require.NoError(t, err)

	samples := report.Histogram(metrics.SeriesFirstMeaningfulPaint).Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, 65.0, samples[0].Value,
		"the last candidate seen wins, not the latest-timed one")

	end, ok := samples[0].Diagnostics[metrics.DiagnosticEnd].(metrics.EventInfo)
	require.True(t, ok)
	assert.Equal(t, 265.0, end.Start)
	assert.Contains(t, samples[0].Diagnostics, "Breakdown of [navStart, fmp]")
}

func TestFirstMeaningfulPaintCPUTime(t *testing.T) {
	t.Parallel()

	report, err := metrics.ComputeLoadingMetrics(singleNavigation().model(t))
	require.NoError(t, err)

	samples := report.Histogram(metrics.SeriesFirstMeaningfulPaintCPUTime).Samples()
	require.Len(t, samples, 1)
	// The only task with CPU timing inside [90, 130] on the thread clock
	// spans [100, 120].
	assert.Equal(t, 20.0, samples[0].Value)
}

func TestTimeToFirstInteractiveQuiescent(t *testing.T) {
	t.Parallel()

	report, err := metrics.ComputeLoadingMetrics(singleNavigation().model(t))
	require.NoError(t, err)

	samples := report.Histogram(metrics.SeriesTimeToFirstInteractive).Samples()
	require.Len(t, samples, 1)
	// The final paint candidate at 265 is already quiescent.
	assert.Equal(t, 65.0, samples[0].Value)
	assert.NotContains(t, samples[0].Diagnostics, metrics.DiagnosticLastLongTask)
}

func TestTimeToFirstInteractiveLongTask(t *testing.T) {
	t.Parallel()

	builder := singleNavigation().
		task(1, 10, "TaskQueueManager::ProcessTaskFromWorkQueue", 2000, 200, -1, -1).
		task(1, 10, "task", 8000, 10, -1, -1)
	report, err := metrics.ComputeLoadingMetrics(builder.model(t))
	require.NoError(t, err)

	samples := report.Histogram(metrics.SeriesTimeToFirstInteractive).Samples()
	require.Len(t, samples, 1)
	// Candidate advances to 2000+200-50 = 2150; quiescence confirmed at
	// the task at 8000.  Relative to navigation start at 200.
	assert.Equal(t, 1950.0, samples[0].Value)

	long, ok := samples[0].Diagnostics[metrics.DiagnosticLastLongTask].(metrics.EventInfo)
	require.True(t, ok)
	assert.Equal(t, 2000.0, long.Start)
}

func TestTimeToFirstInteractiveNeverReached(t *testing.T) {
	t.Parallel()

	// Without any event far enough past the paint, no quiescence window
	// ever completes.
	builder := newTraceBuilder().
		renderer(1, 10).
		frameLoader(1, "0xA", "F1", "http://test.example/", 0, 100000).
		markAsMainFrame(1, 10, "F1", 150).
		userTiming(1, 10, "navigationStart", "F1", 200, -1).
		paintCandidate(1, 10, "F1", 265, -1)
	report, err := metrics.ComputeLoadingMetrics(builder.model(t))
	require.NoError(t, err)

	samples := report.Histogram(metrics.SeriesTimeToFirstInteractive).Samples()
	require.Len(t, samples, 1)
	assert.True(t, math.IsInf(samples[0].Value, 1))
}

func TestIgnoredURLsProduceNoSamples(t *testing.T) {
	t.Parallel()

	for _, url := range []string{"about:blank", "data:text/html,chromewebdata"} {
		builder := newTraceBuilder().
			renderer(1, 10).
			frameLoader(1, "0xA", "F1", url, 0, 100000).
			markAsMainFrame(1, 10, "F1", 150).
			userTiming(1, 10, "navigationStart", "F1", 200, -1).
			userTiming(1, 10, "firstContentfulPaint", "F1", 320, -1).
			paintCandidate(1, 10, "F1", 265, -1)
		report, err := metrics.ComputeLoadingMetrics(builder.model(t))
		require.NoError(t, err)

		for _, histogram := range report.Histograms {
			assert.Zero(t, histogram.Count(), "url %s must not produce %s samples", url, histogram.Name())
		}
	}
}

func TestUnattributableMilestonesAreDropped(t *testing.T) {
	t.Parallel()

	builder := singleNavigation().
		// Before any navigation start: no owner, dropped.
		userTiming(1, 10, "firstContentfulPaint", "F1", 100, -1).
		// Not the main frame: dropped.
		userTiming(1, 10, "firstContentfulPaint", "F2", 320, -1).
		// No frame argument at all: dropped.
		add(map[string]any{
			"name": "firstContentfulPaint", "cat": "blink.user_timing", "ph": "R",
			"pid": 1, "tid": 10, "ts": millis(330),
		})
	report, err := metrics.ComputeLoadingMetrics(builder.model(t))
	require.NoError(t, err)

	samples := report.Histogram(metrics.SeriesFirstContentfulPaint).Samples()
	require.Len(t, samples, 1, "only the attributable milestone samples")
	assert.Equal(t, 120.0, samples[0].Value)
}

func TestInstrumentationEventsAreExcluded(t *testing.T) {
	t.Parallel()

	// Events carrying the telemetry category are injected by the capture
	// harness, not the page, and must not contribute samples even when
	// they are otherwise well attributed.
	builder := singleNavigation().
		add(map[string]any{
			"name": "firstContentfulPaint", "cat": "telemetry,blink.user_timing", "ph": "R",
			"pid": 1, "tid": 10, "ts": millis(400),
			"args": map[string]any{"frame": "F1"},
		}).
		add(map[string]any{
			"name": "firstMeaningfulPaintCandidate", "cat": "telemetry,loading", "ph": "I",
			"pid": 1, "tid": 10, "ts": millis(290),
			"args": map[string]any{"frame": "F1"},
		})
	report, err := metrics.ComputeLoadingMetrics(builder.model(t))
	require.NoError(t, err)

	fcp := report.Histogram(metrics.SeriesFirstContentfulPaint).Samples()
	require.Len(t, fcp, 1)
	assert.Equal(t, 120.0, fcp[0].Value)

	fmp := report.Histogram(metrics.SeriesFirstMeaningfulPaint).Samples()
	require.Len(t, fmp, 1)
	assert.Equal(t, 65.0, fmp[0].Value,
		"the injected candidate must not displace the page's own final candidate")
}

func TestMultipleNavigationsOnOneFrame(t *testing.T) {
	t.Parallel()

	// Two navigations; the first's final candidate is the one seen right
	// before the owning navigation changes.
	builder := newTraceBuilder().
		renderer(1, 10).
		frameLoader(1, "0xA", "F1", "http://test.example/", 0, 100000).
		markAsMainFrame(1, 10, "F1", 50).
		userTiming(1, 10, "navigationStart", "F1", 100, -1).
		paintCandidate(1, 10, "F1", 150, -1).
		paintCandidate(1, 10, "F1", 180, -1).
		userTiming(1, 10, "navigationStart", "F1", 1000, -1).
		paintCandidate(1, 10, "F1", 1200, -1).
		task(1, 10, "task", 7000, 10, -1, -1)
	report, err := metrics.ComputeLoadingMetrics(builder.model(t))
	require.NoError(t, err)

	samples := report.Histogram(metrics.SeriesFirstMeaningfulPaint).Samples()
	require.Len(t, samples, 2)
	values := []float64{samples[0].Value, samples[1].Value}
	assert.ElementsMatch(t, []float64{80.0, 200.0}, values)
}

func TestCorruptRendererDoesNotPoisonOthers(t *testing.T) {
	t.Parallel()

	builder := singleNavigation().
		renderer(2, 20).
		loaderSnapshot(2, "0xBAD", "F9", "http://corrupt.example/", 100).
		loaderSnapshot(2, "0xBAD", "F8", "http://corrupt.example/", 200)
	report, err := metrics.ComputeLoadingMetrics(builder.model(t))

	require.Error(t, err, "the integrity violation must not be swallowed")
	assert.Contains(t, err.Error(), "renderer 2")

	samples := report.Histogram(metrics.SeriesFirstContentfulPaint).Samples()
	require.Len(t, samples, 1, "the healthy renderer still contributes")
}

func TestTracingUIRendererExcluded(t *testing.T) {
	t.Parallel()

	builder := singleNavigation().
		add(map[string]any{
			"name": "process_labels", "ph": "M", "pid": 1, "tid": 10,
			"args": map[string]any{"labels": "chrome://tracing"},
		})
	report, err := metrics.ComputeLoadingMetrics(builder.model(t))
	require.NoError(t, err)

	for _, histogram := range report.Histograms {
		assert.Zero(t, histogram.Count())
	}
}

func TestReportHasRunID(t *testing.T) {
	t.Parallel()

	report, err := metrics.ComputeLoadingMetrics(singleNavigation().model(t))
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Nil(t, report.Histogram("unknown"))
}
