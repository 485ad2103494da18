// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package selfmetrics

import (
	"sort"
	"strconv"

	"github.com/jsoonworld/rJMX-Exporter/internal/promtext"
)

// Render renders the registry's internal-metrics families named in spec.md
// §6: rjmx_scrape_success_total, rjmx_scrape_failure_total,
// rjmx_scrape_duration_seconds_{bucket,sum,count}, rjmx_rule_matches_total,
// rjmx_rule_errors_total, rjmx_http_connections_{active,idle},
// rjmx_config_reload_total, rjmx_config_last_reload_timestamp.
func (s Snapshot) Render() []promtext.Metric {
	var out []promtext.Metric

	for _, target := range sortedStringKeys(s.Targets) {
		tm := s.Targets[target]
		out = append(out,
			promtext.Metric{Name: "rjmx_scrape_success_total", Type: "counter", Labels: map[string]string{"target": target}, Value: float64(tm.ScrapeSuccess)},
		)
	}
	for _, target := range sortedStringKeys(s.Targets) {
		tm := s.Targets[target]
		out = append(out,
			promtext.Metric{Name: "rjmx_scrape_failure_total", Type: "counter", Labels: map[string]string{"target": target}, Value: float64(tm.ScrapeFailure)},
		)
	}
	for _, target := range sortedStringKeys(s.Targets) {
		tm := s.Targets[target]
		out = append(out, renderHistogram("rjmx_scrape_duration_seconds", map[string]string{"target": target}, tm.ScrapeDuration)...)
	}
	for _, rule := range sortedStringKeys(s.Rules) {
		rm := s.Rules[rule]
		out = append(out, promtext.Metric{Name: "rjmx_rule_matches_total", Type: "counter", Labels: map[string]string{"rule": rule}, Value: float64(rm.Matches)})
	}
	for _, rule := range sortedStringKeys(s.Rules) {
		rm := s.Rules[rule]
		out = append(out, promtext.Metric{Name: "rjmx_rule_errors_total", Type: "counter", Labels: map[string]string{"rule": rule}, Value: float64(rm.Errors)})
	}

	out = append(out,
		promtext.Metric{Name: "rjmx_http_connections_active", Type: "gauge", Value: s.ConnectionsActive},
		promtext.Metric{Name: "rjmx_http_connections_idle", Type: "gauge", Value: s.ConnectionsIdle},
		promtext.Metric{Name: "rjmx_config_reload_total", Type: "counter", Value: float64(s.ConfigReloadTotal)},
		promtext.Metric{Name: "rjmx_config_last_reload_timestamp", Type: "gauge", Value: s.ConfigLastReload},
	)
	return out
}

// renderHistogram emits the bucket/sum/count series as plain gauges: each
// carries a distinct suffixed name (name+"_bucket"/"_sum"/"_count"), so
// declaring them "histogram" would make the formatter group three separate
// # TYPE lines under names that aren't a single histogram family. Matches
// the original implementation's choice for these exact per-suffix series.
func renderHistogram(name string, baseLabels map[string]string, h HistogramSnapshot) []promtext.Metric {
	var out []promtext.Metric
	for i, bound := range h.Bounds {
		labels := cloneLabels(baseLabels)
		labels["le"] = strconv.FormatFloat(bound, 'g', -1, 64)
		out = append(out, promtext.Metric{Name: name + "_bucket", Type: "gauge", Labels: labels, Value: float64(h.BucketCounts[i])})
	}
	out = append(out, promtext.Metric{Name: name + "_sum", Type: "gauge", Labels: cloneLabels(baseLabels), Value: h.Sum})
	out = append(out, promtext.Metric{Name: name + "_count", Type: "gauge", Labels: cloneLabels(baseLabels), Value: float64(h.Count)})
	return out
}

func cloneLabels(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedStringKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
