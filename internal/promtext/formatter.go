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

package promtext

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Options configures rendering. IncludeTimestamp enables the optional
// per-sample timestamp (spec.md §4.5); it is off by default since a
// stateless scrape-time exporter rarely wants to override Prometheus's own
// scrape timestamp.
type Options struct {
	IncludeTimestamp bool
}

// Format renders metrics in first-occurrence-of-name order, one HELP/TYPE
// pair per name, samples with label pairs sorted ascending by key. Empty
// input renders to an empty string, not even a trailing newline (spec.md
// §4.5).
func Format(metrics []Metric, opts Options) string {
	if len(metrics) == 0 {
		return ""
	}

	var order []string
	groups := make(map[string][]Metric)
	for _, m := range metrics {
		if _, ok := groups[m.Name]; !ok {
			order = append(order, m.Name)
		}
		groups[m.Name] = append(groups[m.Name], m)
	}

	var b strings.Builder
	for _, name := range order {
		group := groups[name]
		first := group[0]
		if first.Help != "" {
			b.WriteString("# HELP ")
			b.WriteString(name)
			b.WriteByte(' ')
			b.WriteString(escapeHelp(first.Help))
			b.WriteByte('\n')
		}
		typ := first.Type
		if typ == "" {
			typ = "untyped"
		}
		b.WriteString("# TYPE ")
		b.WriteString(name)
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(typ))
		b.WriteByte('\n')

		for _, m := range group {
			writeSample(&b, m, opts)
		}
	}
	return b.String()
}

func writeSample(b *strings.Builder, m Metric, opts Options) {
	b.WriteString(m.Name)
	if len(m.Labels) > 0 {
		keys := make([]string, 0, len(m.Labels))
		for k := range m.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteString(`="`)
			b.WriteString(escapeLabelValue(m.Labels[k]))
			b.WriteByte('"')
		}
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(FormatValue(m.Value))
	if opts.IncludeTimestamp && m.HasTS {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(m.Timestamp, 10))
	}
	b.WriteByte('\n')
}

// FormatValue renders a float64 per spec.md §4.5's numeric-literal rules:
// NaN/+Inf/-Inf rendered as such; exact integers with |v| < 10^15 as plain
// decimal integers; |v| >= 10^6 or 0 < |v| < 10^-3 in scientific notation;
// otherwise general decimal form.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}

	abs := math.Abs(v)
	if v == math.Trunc(v) && abs < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if abs != 0 && (abs >= 1e6 || abs < 1e-3) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeLabelValue applies the label-value escaping rules: backslash,
// double-quote, and newline only.
func escapeLabelValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// escapeHelp applies help-text escaping: backslash and newline only;
// double-quotes are left unescaped.
func escapeHelp(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
