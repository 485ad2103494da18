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
	"context"
	"time"

	"github.com/go-kit/log/level"

	"github.com/jsoonworld/rJMX-Exporter/internal/jolokia"
	"github.com/jsoonworld/rJMX-Exporter/internal/promtext"
	"github.com/jsoonworld/rJMX-Exporter/internal/selfmetrics"
	"github.com/jsoonworld/rJMX-Exporter/internal/transform"
)

// ScrapeResult is the outcome of one full scrape: the user's rule-matched
// metrics plus the exporter-info counters spec.md §6 requires on every
// response.
type ScrapeResult struct {
	Metrics        []promtext.Metric
	Duration       time.Duration
	ScrapeErrors   int
	MetricsScraped int
}

// Scrape runs one end-to-end pass of the pipeline in spec.md §2: collect
// every configured MBean with fallback (never aborting the scrape on a
// per-MBean failure), run the transformation engine over whatever
// succeeded, and fold per-MBean and per-leaf errors into counters. The
// scrape always produces a result; it never returns an error itself,
// matching spec.md §7's "Handler... Always returns HTTP 200 unless the
// server cannot be reached at all."
func (s *Server) Scrape(ctx context.Context) ScrapeResult {
	start := time.Now()
	target := SanitizeTarget(s.jolokiaURL)
	tm := s.registry.Target(target)

	results := s.client.CollectWithFallback(ctx, s.mbeans, jolokia.NoAttribute())

	var (
		responses   []jolokia.Response
		scrapeErrors int
	)
	for _, r := range results {
		if r.Err != nil {
			scrapeErrors++
			tm.ScrapeFailure.Inc()
			level.Debug(s.logger).Log("msg", "jolokia read failed", "mbean", r.MBean, "err", r.Err)
			continue
		}
		if !r.Response.OK() {
			scrapeErrors++
			level.Debug(s.logger).Log("msg", "jolokia response error, skipping", "mbean", r.MBean, "status", r.Response.Status)
			continue
		}
		tm.ScrapeSuccess.Inc()
		responses = append(responses, r.Response)
	}

	metrics, stats, errs := transform.Transform(responses, s.ruleSet, s.transformOpts)
	for _, e := range errs {
		level.Warn(s.logger).Log("msg", "transform error", "err", e)
	}
	scrapeErrors += stats.Errors
	recordRuleStats(s.registry, stats)

	duration := time.Since(start)
	tm.ScrapeDuration.Observe(duration.Seconds())

	return ScrapeResult{
		Metrics:        metrics,
		Duration:       duration,
		ScrapeErrors:   scrapeErrors,
		MetricsScraped: stats.MetricsEmitted,
	}
}

// recordRuleStats folds one scrape's per-rule match/error counts into the
// registry. A rule with zero matches this scrape is left untouched rather
// than zeroed, since the registry only ever accumulates (spec.md §4.6:
// Counters never decrease).
func recordRuleStats(registry *selfmetrics.Registry, stats transform.Stats) {
	for pattern, n := range stats.RuleMatches {
		registry.Rule(pattern).Matches.Add(uint64(n))
	}
	for pattern, n := range stats.RuleErrors {
		registry.Rule(pattern).Errors.Add(uint64(n))
	}
}
