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

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/loadmetrics/pkg/metrics"
	"github.com/rancher-sandbox/loadmetrics/pkg/trace"
)

var outputFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze trace-file",
	Short: "Compute loading metrics from a trace file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return analyze(cmd.OutOrStdout(), args[0], outputFormat)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format (table or json)")
	rootCmd.AddCommand(analyzeCmd)
}

func analyze(w io.Writer, path, format string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer file.Close()

	model, err := trace.Parse(file)
	if err != nil {
		return err
	}
	report, analysisErr := metrics.ComputeLoadingMetrics(model)
	if analysisErr != nil {
		logrus.WithError(analysisErr).Warn("some renderers could not be analyzed")
	}

	switch format {
	case "json":
		err = writeJSON(w, report)
	case "table":
		err = writeTable(w, report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	// Partial results have been printed; still fail the command so the
	// integrity violation is visible to callers.
	if analysisErr != nil {
		return fmt.Errorf("analysis incomplete: %w", analysisErr)
	}
	return nil
}

type jsonSample struct {
	// Value is a float64, or the string "never" for unbounded durations.
	Value       any                 `json:"value"`
	Diagnostics metrics.Diagnostics `json:"diagnostics,omitempty"`
}

type jsonMetric struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Unit        string       `json:"unit"`
	Count       int          `json:"count"`
	Mean        any          `json:"mean,omitempty"`
	Min         any          `json:"min,omitempty"`
	Max         any          `json:"max,omitempty"`
	BinCounts   []int64      `json:"binCounts"`
	Samples     []jsonSample `json:"samples"`
}

type jsonReport struct {
	RunID   string       `json:"runId"`
	Metrics []jsonMetric `json:"metrics"`
}

// jsonValue makes a metric value JSON-safe: infinities and NaN have no
// JSON representation.
func jsonValue(value float64) any {
	if math.IsInf(value, 1) {
		return "never"
	}
	if math.IsInf(value, -1) || math.IsNaN(value) {
		return nil
	}
	return value
}

func writeJSON(w io.Writer, report *metrics.Report) error {
	out := jsonReport{RunID: report.RunID}
	for _, histogram := range report.Histograms {
		metric := jsonMetric{
			Name:        histogram.Name(),
			Description: histogram.Description(),
			Unit:        histogram.Unit(),
			Count:       histogram.Count(),
			BinCounts:   histogram.BinCounts(),
		}
		if metric.Count > 0 {
			metric.Mean = jsonValue(histogram.Mean())
			metric.Min = jsonValue(histogram.Min())
			metric.Max = jsonValue(histogram.Max())
		}
		for _, sample := range histogram.Samples() {
			metric.Samples = append(metric.Samples, jsonSample{
				Value:       jsonValue(sample.Value),
				Diagnostics: sample.Diagnostics,
			})
		}
		out.Metrics = append(out.Metrics, metric)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func writeTable(w io.Writer, report *metrics.Report) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Samples", "Min (ms)", "Mean (ms)", "Max (ms)"})
	for _, histogram := range report.Histograms {
		if histogram.Count() == 0 {
			table.Append([]string{histogram.Name(), "0", "-", "-", "-"})
			continue
		}
		table.Append([]string{
			histogram.Name(),
			strconv.Itoa(histogram.Count()),
			formatMillis(histogram.Min()),
			formatMillis(histogram.Mean()),
			formatMillis(histogram.Max()),
		})
	}
	table.Render()
	return nil
}

func formatMillis(value float64) string {
	if math.IsInf(value, 1) {
		return "never"
	}
	return strconv.FormatFloat(value, 'f', 1, 64)
}
