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

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jsoonworld/rJMX-Exporter/internal/promtext"
)

// handleIndex serves a minimal landing page linking to the metrics path,
// matching the teacher's frontend convention of a tiny unstyled "/" handler
// rather than a templated UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html>
<head><title>rJMX Exporter</title></head>
<body>
<h1>rJMX Exporter</h1>
<p><a href="%s">Metrics</a></p>
</body>
</html>
`, s.metricsPath)
}

// handleHealth answers the liveness probe with a small JSON document,
// spec.md §6.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{
		"status":     "healthy",
		"version":    s.info.Version,
		"revision":   s.info.Revision,
		"go_version": s.info.GoVersion,
	})
}

// handleMetrics drives one scrape and renders the combined exposition: the
// user's rule-matched metrics, the exporter-info block, and the internal
// self-observability registry, all through the same promtext.Format call so
// HELP/TYPE grouping and label-sort rules apply uniformly (spec.md §4.5,
// §6). Per spec.md §7, this always answers 200; a failed scrape still
// renders whatever metrics succeeded plus non-zero error counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	result := s.Scrape(r.Context())

	metrics := make([]promtext.Metric, 0, len(result.Metrics)+8)
	metrics = append(metrics, result.Metrics...)
	metrics = append(metrics, s.exporterInfoMetrics(result)...)
	metrics = append(metrics, s.registry.Dump().Render()...)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.Write([]byte(promtext.Format(metrics, promtext.Options{})))
}

// exporterInfoMetrics builds the rjmx_exporter_* family spec.md §6 requires
// on every scrape response regardless of target health.
func (s *Server) exporterInfoMetrics(result ScrapeResult) []promtext.Metric {
	return []promtext.Metric{
		{
			Name:   "rjmx_exporter_info",
			Type:   "gauge",
			Help:   "Build information about the rJMX exporter.",
			Labels: map[string]string{"version": s.info.Version},
			Value:  1,
		},
		{
			Name:  "rjmx_exporter_scrape_duration_seconds",
			Type:  "gauge",
			Help:  "Duration of the most recent scrape, in seconds.",
			Value: result.Duration.Seconds(),
		},
		{
			Name:  "rjmx_exporter_scrape_errors",
			Type:  "gauge",
			Help:  "Number of errors encountered during the most recent scrape.",
			Value: float64(result.ScrapeErrors),
		},
		{
			Name:  "rjmx_exporter_metrics_scraped",
			Type:  "gauge",
			Help:  "Number of metrics emitted by the most recent scrape.",
			Value: float64(result.MetricsScraped),
		},
	}
}

// normalizeMetricsPath ensures a configured metrics path starts with "/",
// defaulting to "/metrics" when empty.
func normalizeMetricsPath(path string) string {
	if path == "" {
		return "/metrics"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
