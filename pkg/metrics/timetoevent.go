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

// URL loaded when navigation fails and an error page is shown instead.
const unreachableWebDataURL = "data:text/html,chromewebdata"

// ignoredURLs are document URLs that never produce samples.
var ignoredURLs = map[string]bool{
	"about:blank":         true,
	unreachableWebDataURL: true,
}

// Milestone identifies a timing milestone event by category and title.
type Milestone struct {
	Category string
	Title    string
}

func (m Milestone) matches(e *trace.Event) bool {
	return e.Name == m.Title && e.HasCategory(m.Category)
}

// resolveMainFrameURL applies the attribution gates shared by all metric
// collectors: the frame must be the main frame at ts, its URL must
// resolve, and the URL must not be on the ignore list.  A false return
// means the milestone is dropped, silently.
func resolveMainFrameURL(resolver *MainFrameResolver, frameID string, ts float64) (string, bool) {
	if !resolver.IsMainFrame(frameID, ts) {
		return "", false
	}
	url, ok := resolver.URLAt(frameID, ts)
	if !ok || ignoredURLs[url] {
		return "", false
	}
	return url, true
}

// collectTimeToEvent emits one sample per occurrence of the milestone in
// the renderer's main frame: the elapsed time from the owning navigation
// start to the milestone.  Milestones that cannot be attributed to a main
// frame, a resolvable URL, or a preceding navigation start are dropped.
func collectTimeToEvent(process *trace.Process, resolver *MainFrameResolver, index *NavigationIndex, milestone Milestone) []Sample {
	var samples []Sample
	for _, event := range process.DescendantEvents() {
		if !milestone.matches(event) || trace.IsInstrumentation(event) {
			continue
		}
		frameID, ok := event.FrameID()
		if !ok {
			continue
		}
		url, ok := resolveMainFrameURL(resolver, frameID, event.Start)
		if !ok {
			continue
		}
		navigation := index.LastNavigationStartBefore(frameID, event.Start)
		if navigation == nil {
			continue
		}
		samples = append(samples, Sample{
			Value: event.Start - navigation.Start,
			Diagnostics: Diagnostics{
				DiagnosticNavigationInfos: NavigationInfo{
					URL:             url,
					PID:             process.PID,
					NavigationStart: navigation.Start,
				},
			},
		})
	}
	return samples
}
