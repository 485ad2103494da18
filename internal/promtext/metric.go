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

// Package promtext renders PrometheusMetric records into the Prometheus
// text exposition format v0.0.4 (spec.md §4.5).
package promtext

// Metric is a PrometheusMetric output leaf (spec.md §3). Name and every
// label key are assumed already sanitized by the transformation engine;
// the formatter never re-validates them.
type Metric struct {
	Name      string
	Type      string // "gauge", "counter", "histogram", "untyped"
	Help      string
	Labels    map[string]string
	Value     float64
	Timestamp int64
	HasTS     bool
}
