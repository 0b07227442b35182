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
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rancher-sandbox/loadmetrics/pkg/trace"
)

// Metric series names.
const (
	SeriesFirstContentfulPaint        = "timeToFirstContentfulPaint"
	SeriesTimeToOnload                = "timeToOnload"
	SeriesFirstMeaningfulPaint        = "firstMeaningfulPaint"
	SeriesFirstMeaningfulPaintCPUTime = "firstMeaningfulPaintCpuTime"
	SeriesTimeToFirstInteractive      = "timeToFirstInteractive"
)

var (
	firstContentfulPaintMilestone = Milestone{Category: userTimingCategory, Title: "firstContentfulPaint"}
	loadEventStartMilestone       = Milestone{Category: userTimingCategory, Title: "loadEventStart"}
)

// Report is the result of one analysis run: the five loading metric
// histograms, in a fixed order.
type Report struct {
	RunID      string
	Histograms []*Histogram
}

// Histogram returns the named series, or nil.
func (r *Report) Histogram(name string) *Histogram {
	for _, histogram := range r.Histograms {
		if histogram.Name() == name {
			return histogram
		}
	}
	return nil
}

func newReport() *Report {
	return &Report{
		RunID: uuid.NewString(),
		Histograms: []*Histogram{
			NewHistogram(SeriesFirstContentfulPaint,
				"time to the first contentful paint of each navigation"),
			NewHistogram(SeriesTimeToOnload,
				"time to the load event start of each navigation"),
			NewHistogram(SeriesFirstMeaningfulPaint,
				"time to the last meaningful paint candidate of each navigation"),
			NewHistogram(SeriesFirstMeaningfulPaintCPUTime,
				"main thread CPU time up to the first meaningful paint"),
			NewHistogram(SeriesTimeToFirstInteractive,
				"time until the main thread stays quiescent after the first meaningful paint"),
		},
	}
}

// ComputeLoadingMetrics analyzes every renderer process of the trace and
// returns the five loading metric series.  Renderers are independent and
// are analyzed concurrently; a data-integrity failure aborts only the
// renderer it occurred in, and the combined error reports all such
// failures while the remaining renderers still contribute samples.
func ComputeLoadingMetrics(model *trace.Model) (*Report, error) {
	report := newReport()
	var group errgroup.Group
	var mu sync.Mutex
	var errs *multierror.Error

	for _, process := range model.RendererProcesses() {
		process := process
		group.Go(func() error {
			samples, err := analyzeRenderer(process)
			if err != nil {
				logrus.WithField("pid", process.PID).WithError(err).Error("skipping renderer")
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("renderer %d: %w", process.PID, err))
				mu.Unlock()
				return nil
			}
			for name, list := range samples {
				histogram := report.Histogram(name)
				for _, sample := range list {
					histogram.AddSample(sample.Value, sample.Diagnostics)
				}
			}
			return nil
		})
	}
	_ = group.Wait()
	return report, errs.ErrorOrNil()
}

// analyzeRenderer computes all five sample sets for one renderer.  The
// navigation index and main-frame resolver are built once and passed into
// each collector; nothing here mutates the trace.
func analyzeRenderer(process *trace.Process) (map[string][]Sample, error) {
	logrus.WithField("pid", process.PID).Debug("analyzing renderer process")
	resolver, err := NewMainFrameResolver(process)
	if err != nil {
		return nil, err
	}
	index := NewNavigationIndex(process.MainThread())

	paint := collectFirstMeaningfulPaint(process, resolver, index)
	return map[string][]Sample{
		SeriesFirstContentfulPaint:        collectTimeToEvent(process, resolver, index, firstContentfulPaintMilestone),
		SeriesTimeToOnload:                collectTimeToEvent(process, resolver, index, loadEventStartMilestone),
		SeriesFirstMeaningfulPaint:        paint.wall,
		SeriesFirstMeaningfulPaintCPUTime: paint.cpu,
		SeriesTimeToFirstInteractive:      paint.interactive,
	}, nil
}
